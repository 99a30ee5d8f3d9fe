package llm

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"repurpose/internal/config"
)

type stubProvider struct {
	id    string
	delay time.Duration
	gen   *Generation
	err   error
}

func (s *stubProvider) ID() string { return s.id }

func (s *stubProvider) Generate(ctx context.Context, prompt string) (*Generation, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.gen, s.err
}

func TestParseGeneration(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		title    string
		keywords []string
		content  string
	}{
		{
			name:     "plain markers",
			raw:      "Title: Launch day\nKeywords: launch, product, #news\n\nWe shipped it.",
			title:    "Launch day",
			keywords: []string{"launch", "product", "news"},
			content:  "We shipped it.",
		},
		{
			name:     "markdown decorated markers",
			raw:      "**Title:** Big news\n**keywords:** one,  ,two\nBody line one\nBody line two",
			title:    "Big news",
			keywords: []string{"one", "two"},
			content:  "Body line one\nBody line two",
		},
		{
			name:    "no markers",
			raw:     "  Just the content.  ",
			content: "Just the content.",
		},
		{
			name:    "only first title marker is consumed",
			raw:     "Title: A\nTitle: B",
			title:   "A",
			content: "Title: B",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen, err := ParseGeneration("stub", tt.raw)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if gen.Title != tt.title {
				t.Fatalf("expected title %q, got %q", tt.title, gen.Title)
			}
			if !reflect.DeepEqual(gen.Keywords, tt.keywords) {
				t.Fatalf("expected keywords %v, got %v", tt.keywords, gen.Keywords)
			}
			if gen.Content != tt.content {
				t.Fatalf("expected content %q, got %q", tt.content, gen.Content)
			}
		})
	}
}

func TestParseGenerationEmptyBody(t *testing.T) {
	_, err := ParseGeneration("stub", "Title: Only a title\nKeywords: a, b\n   ")
	var perr *ProviderError
	if !errors.As(err, &perr) || perr.Kind != ErrKindEmptyResponse {
		t.Fatalf("expected empty response error, got %v", err)
	}
}

func TestInvoke(t *testing.T) {
	ok := &Generation{Content: "hello"}
	upstream := newProviderError("", ErrKindUpstream, 502, errors.New("bad gateway"))

	tests := []struct {
		name     string
		provider *stubProvider
		timeout  time.Duration
		wantKind ErrorKind
	}{
		{name: "success", provider: &stubProvider{id: "a", gen: ok}},
		{name: "timeout", provider: &stubProvider{id: "a", delay: time.Second, gen: ok}, timeout: 20 * time.Millisecond, wantKind: ErrKindTimeout},
		{name: "transport", provider: &stubProvider{id: "a", err: errors.New("connection refused")}, wantKind: ErrKindTransport},
		{name: "upstream keeps kind", provider: &stubProvider{id: "a", err: upstream}, wantKind: ErrKindUpstream},
		{name: "nil generation", provider: &stubProvider{id: "a"}, wantKind: ErrKindEmptyResponse},
		{name: "blank content", provider: &stubProvider{id: "a", gen: &Generation{Content: "  "}}, wantKind: ErrKindEmptyResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen, err := Invoke(context.Background(), tt.provider, "prompt", tt.timeout)
			if tt.wantKind == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if gen.Content != "hello" {
					t.Fatalf("unexpected generation %+v", gen)
				}
				return
			}
			var perr *ProviderError
			if !errors.As(err, &perr) {
				t.Fatalf("expected ProviderError, got %v", err)
			}
			if perr.Kind != tt.wantKind {
				t.Fatalf("expected kind %s, got %s", tt.wantKind, perr.Kind)
			}
			if perr.Provider != "a" {
				t.Fatalf("expected provider id to be filled in, got %q", perr.Provider)
			}
		})
	}
}

func TestInvokeReturnsWhenProviderIgnoresContext(t *testing.T) {
	blocking := &blockingProvider{release: make(chan struct{})}
	defer close(blocking.release)

	start := time.Now()
	_, err := Invoke(context.Background(), blocking, "prompt", 30*time.Millisecond)
	if time.Since(start) > time.Second {
		t.Fatal("invoke did not honour its deadline")
	}
	var perr *ProviderError
	if !errors.As(err, &perr) || perr.Kind != ErrKindTimeout {
		t.Fatalf("expected timeout, got %v", err)
	}
}

func TestAwaitPrefersFinishedResult(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for i := 0; i < 200; i++ {
		done := make(chan callResult, 1)
		done <- callResult{gen: &Generation{Content: "finished"}}
		res := await(ctx, done)
		if res.err != nil || res.gen == nil || res.gen.Content != "finished" {
			t.Fatalf("iteration %d: expected finished result, got %+v", i, res)
		}
	}

	res := await(ctx, make(chan callResult, 1))
	if !errors.Is(res.err, context.Canceled) {
		t.Fatalf("expected context error without a result, got %+v", res)
	}
}

type blockingProvider struct {
	release chan struct{}
}

func (b *blockingProvider) ID() string { return "blocking" }

func (b *blockingProvider) Generate(context.Context, string) (*Generation, error) {
	<-b.release
	return &Generation{Content: "late"}, nil
}

func TestNewChain(t *testing.T) {
	cfg := config.Config{
		ProviderChain:       "openrouter,pollinations,unknown",
		OpenRouterModel:     "m",
		PollinationsBaseURL: "http://localhost:1",
	}
	chain, err := NewChain(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chain) != 1 || chain[0].ID() != ProviderPollinations {
		t.Fatalf("expected only pollinations without an openrouter key, got %d providers", len(chain))
	}

	cfg.OpenRouterAPIKey = "key"
	chain, err = NewChain(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chain) != 2 || chain[0].ID() != ProviderOpenRouter || chain[1].ID() != ProviderPollinations {
		t.Fatalf("unexpected chain order")
	}

	if _, err := NewChain(context.Background(), config.Config{ProviderChain: "openai"}); err == nil {
		t.Fatal("expected error for empty chain")
	}
}
