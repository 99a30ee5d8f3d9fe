package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"repurpose/internal/entity"
	"repurpose/internal/llm"
)

func succeed(content string) func(string) (*llm.Generation, error) {
	return func(string) (*llm.Generation, error) {
		return &llm.Generation{Content: content, Title: "Generated", Keywords: []string{"one"}}, nil
	}
}

func upstreamFailure(string) (*llm.Generation, error) {
	return nil, &llm.ProviderError{Kind: llm.ErrKindUpstream, StatusCode: 502, Err: errors.New("bad gateway")}
}

type slowProvider struct{ id string }

func (p *slowProvider) ID() string { return p.id }

func (p *slowProvider) Generate(ctx context.Context, _ string) (*llm.Generation, error) {
	select {
	case <-time.After(5 * time.Second):
		return &llm.Generation{Content: "too late"}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func newTestGenerationService(store *memoryStore, providers ...llm.Provider) *GenerationService {
	return NewGenerationService(providers, NewTemplateService(store), store, nil, GenerationOptions{
		ProviderTimeout: 200 * time.Millisecond,
	})
}

func TestGeneratePartialSuccess(t *testing.T) {
	store := newMemoryStore()
	primary := &fakeProvider{id: "primary", respond: func(prompt string) (*llm.Generation, error) {
		if forPlatform(prompt, entity.PlatformLinkedIn) {
			return succeed("We grew revenue by ten percent this quarter.")(prompt)
		}
		return upstreamFailure(prompt)
	}}
	secondary := &fakeProvider{id: "secondary", respond: upstreamFailure}
	svc := newTestGenerationService(store, primary, secondary)

	result, err := svc.Generate(context.Background(), Actor{UserID: 7}, entity.GenerationRequest{
		Text:      "So we grew revenue by ten percent this quarter",
		Tone:      "professional",
		Platforms: []string{"Twitter", "LinkedIn"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.Success {
		t.Fatal("partial success must still be a successful response")
	}
	if result.Summary != (entity.GenerationSummary{Requested: 2, Successful: 1, Failed: 1}) {
		t.Fatalf("unexpected summary %+v", result.Summary)
	}
	if result.Outcomes[0].Platform != entity.PlatformTwitter || result.Outcomes[1].Platform != entity.PlatformLinkedIn {
		t.Fatalf("outcomes not in request order: %v, %v", result.Outcomes[0].Platform, result.Outcomes[1].Platform)
	}

	failed := result.Outcomes[0]
	if failed.Success || failed.Content != nil || failed.Error == "" || failed.Metrics != nil {
		t.Fatalf("unexpected failed outcome %+v", failed)
	}
	if len(failed.Attempts) != 2 || failed.Attempts[0].Provider != "primary" || failed.Attempts[1].Provider != "secondary" {
		t.Fatalf("expected both providers to be attempted, got %+v", failed.Attempts)
	}

	ok := result.Outcomes[1]
	if !ok.Success || ok.Source != "primary" || ok.Error != "" || len(ok.Attempts) != 1 {
		t.Fatalf("unexpected successful outcome %+v", ok)
	}
	if ok.Metrics == nil || ok.Metrics.WordCount != 8 || ok.Metrics.ReadTimeMinutes != 1 {
		t.Fatalf("unexpected metrics %+v", ok.Metrics)
	}
	if ok.Metrics.CharacterCount != utf8.RuneCountInString(*ok.Content) {
		t.Fatalf("character count %d does not match content", ok.Metrics.CharacterCount)
	}

	if result.ProcessedText != "we grew revenue by ten percent this quarter" {
		t.Fatalf("unexpected processed text %q", result.ProcessedText)
	}
	if result.RecordID == 0 || store.recordCount() != 1 {
		t.Fatalf("expected the record to be persisted, got id %d", result.RecordID)
	}
	record, _ := store.GetGenerationRecord(context.Background(), result.RecordID, 7)
	if len(record.Outcomes) != 2 || len(record.SuccessfulPlatforms) != 1 || record.SuccessfulPlatforms[0] != "LinkedIn" {
		t.Fatalf("record must keep every outcome, got %+v", record)
	}
	if record.OriginalTranscript != "So we grew revenue by ten percent this quarter" {
		t.Fatalf("unexpected original transcript %q", record.OriginalTranscript)
	}
}

func TestGenerateFallsBackAfterTimeout(t *testing.T) {
	store := newMemoryStore()
	secondary := &fakeProvider{id: "secondary", respond: succeed("Fallback content")}
	svc := newTestGenerationService(store, &slowProvider{id: "primary"}, secondary)

	result, err := svc.Generate(context.Background(), Actor{}, entity.GenerationRequest{
		Text:      "release notes for version two",
		Tone:      "Informative",
		Platforms: []string{"Email"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	outcome := result.Outcomes[0]
	if !outcome.Success || outcome.Source != "secondary" {
		t.Fatalf("expected secondary to answer, got %+v", outcome)
	}
	if len(outcome.Attempts) != 2 || !strings.Contains(outcome.Attempts[0].Error, string(llm.ErrKindTimeout)) {
		t.Fatalf("expected a recorded timeout attempt, got %+v", outcome.Attempts)
	}
	if outcome.Title != "Generated" || len(outcome.Keywords) != 1 {
		t.Fatalf("expected parsed title and keywords, got %+v", outcome)
	}
}

func TestGenerateValidation(t *testing.T) {
	tests := []struct {
		name  string
		req   entity.GenerationRequest
		field string
	}{
		{name: "未知语气", req: entity.GenerationRequest{Text: "hello", Tone: "angry", Platforms: []string{"Twitter"}}, field: "tone"},
		{name: "缺少平台", req: entity.GenerationRequest{Text: "hello", Tone: "Casual"}, field: "platforms"},
		{name: "未知平台", req: entity.GenerationRequest{Text: "hello", Tone: "Casual", Platforms: []string{"Twitter", "MySpace"}}, field: "platforms"},
		{name: "规范化后为空", req: entity.GenerationRequest{Text: " um  uh like ", Tone: "Casual", Platforms: []string{"Twitter"}}, field: "text"},
		{name: "文本与模板同时提供", req: entity.GenerationRequest{Text: "hello", Tone: "Casual", Platforms: []string{"Twitter"}, Template: &entity.TemplateRequest{TemplateID: 1}}, field: "text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &fakeProvider{id: "p", respond: succeed("content")}
			svc := newTestGenerationService(newMemoryStore(), provider)

			_, err := svc.Generate(context.Background(), Actor{}, tt.req)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if verr.Field != tt.field {
				t.Fatalf("expected field %s, got %s", tt.field, verr.Field)
			}
			if provider.callCount() != 0 {
				t.Fatal("providers must not be called for invalid requests")
			}
		})
	}
}

func TestGenerateFromTemplate(t *testing.T) {
	store := newMemoryStore()
	templates := NewTemplateService(store)
	tpl, err := templates.Create(context.Background(), 3, entity.CreateTemplateRequest{
		Name:     "Launch",
		Content:  "We launched {{product}} for {{audience}}",
		Platform: "twitter",
	})
	if err != nil {
		t.Fatalf("create template: %v", err)
	}

	provider := &fakeProvider{id: "p", respond: succeed("Launch post")}
	svc := newTestGenerationService(store, provider)

	result, err := svc.Generate(context.Background(), Actor{UserID: 3}, entity.GenerationRequest{
		Tone:      "Casual",
		Platforms: []string{"Twitter"},
		Template:  &entity.TemplateRequest{TemplateID: tpl.ID, Values: map[string]string{"product": "Rocket"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ProcessedText != "We launched Rocket for {{audience}}" {
		t.Fatalf("unexpected processed text %q", result.ProcessedText)
	}
	info := result.TemplateInfo
	if info == nil || !result.IsTemplateBased || info.TemplateName != "Launch" || info.TemplatePlatform != "Twitter" {
		t.Fatalf("unexpected template info %+v", info)
	}
	if len(info.PlaceholdersUsed) != 1 || info.PlaceholdersUsed[0] != "product" {
		t.Fatalf("unexpected placeholders used %v", info.PlaceholdersUsed)
	}

	_, err = svc.Generate(context.Background(), Actor{UserID: 4}, entity.GenerationRequest{
		Tone:      "Casual",
		Platforms: []string{"Twitter"},
		Template:  &entity.TemplateRequest{TemplateID: tpl.ID},
	})
	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.Resource != ResourceTemplate {
		t.Fatalf("expected template not found for another owner, got %v", err)
	}
}

func TestGenerateAllFailedIsNotPersisted(t *testing.T) {
	store := newMemoryStore()
	svc := newTestGenerationService(store, &fakeProvider{id: "p", respond: upstreamFailure})

	result, err := svc.Generate(context.Background(), Actor{UserID: 1}, entity.GenerationRequest{
		Text: "hello world", Tone: "Friendly", Platforms: []string{"Twitter", "Facebook"},
	})
	if err != nil {
		t.Fatalf("provider failures must not fail the request: %v", err)
	}
	if result.Summary.Successful != 0 || result.Summary.Failed != 2 || !result.Success {
		t.Fatalf("unexpected summary %+v", result.Summary)
	}
	if result.RecordID != 0 || store.recordCount() != 0 {
		t.Fatal("nothing should be persisted when every platform failed")
	}
}

func TestGeneratePersistenceFailureIsSwallowed(t *testing.T) {
	store := newMemoryStore()
	store.createErr = errors.New("disk full")
	svc := newTestGenerationService(store, &fakeProvider{id: "p", respond: succeed("content")})

	result, err := svc.Generate(context.Background(), Actor{UserID: 1}, entity.GenerationRequest{
		Text: "hello world", Tone: "Friendly", Platforms: []string{"Facebook"},
	})
	if err != nil {
		t.Fatalf("persistence failures must not surface: %v", err)
	}
	if result.RecordID != 0 || result.Summary.Successful != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestGenerateArchivesRecord(t *testing.T) {
	store := newMemoryStore()
	archive := &memoryArchive{}
	svc := NewGenerationService([]llm.Provider{&fakeProvider{id: "p", respond: succeed("content")}}, nil, store, archive, GenerationOptions{})

	result, err := svc.Generate(context.Background(), Actor{UserID: 1}, entity.GenerationRequest{
		Text: "hello world", Tone: "Casual", Platforms: []string{"Thread"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	svc.Wait()

	if archive.count() != 1 {
		t.Fatalf("expected one archive, got %d", archive.count())
	}
	if opts := archive.saved[0]; opts.Category != "records" || opts.Extension != "json" || !strings.HasSuffix(opts.BaseName, "-1") || result.RecordID != 1 {
		t.Fatalf("unexpected archive options %+v", opts)
	}

	// 归档失败不影响结果
	archive.err = errors.New("bucket gone")
	if _, err := svc.Generate(context.Background(), Actor{UserID: 1}, entity.GenerationRequest{
		Text: "hello again", Tone: "Casual", Platforms: []string{"Thread"},
	}); err != nil {
		t.Fatalf("archive failures must not surface: %v", err)
	}
	svc.Wait()
}

func TestGenerateEnrichesOnce(t *testing.T) {
	long := strings.Repeat("word ", 100)
	svc := NewGenerationService(
		[]llm.Provider{&fakeProvider{id: "p", respond: succeed(long)}},
		nil, nil, nil,
		GenerationOptions{EnrichOutput: true},
	)

	result, err := svc.Generate(context.Background(), Actor{}, entity.GenerationRequest{
		Text: "long input", Tone: "Informative", Platforms: []string{"Twitter", "Tiktok", "twitter"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Outcomes) != 2 {
		t.Fatalf("duplicate platforms should collapse, got %d outcomes", len(result.Outcomes))
	}
	for _, outcome := range result.Outcomes {
		content := outcome.Text()
		limit := outcome.Platform.Spec().Limit
		if n := utf8.RuneCountInString(content); n > limit || !strings.HasSuffix(content, "...") {
			t.Fatalf("%s: expected truncated content within %d runes, got %d", outcome.Platform, limit, n)
		}
	}
}

func TestGenerateWithoutProviders(t *testing.T) {
	svc := NewGenerationService(nil, nil, nil, nil, GenerationOptions{})
	result, err := svc.Generate(context.Background(), Actor{}, entity.GenerationRequest{
		Text: "hello", Tone: "Casual", Platforms: []string{"Twitter"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Outcomes[0].Success || result.Outcomes[0].Error != errNoProvider.Error() {
		t.Fatalf("unexpected outcome %+v", result.Outcomes[0])
	}
}

func TestGenerateRunsPlatformsConcurrently(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 3)
	provider := &fakeProvider{id: "p", respond: func(string) (*llm.Generation, error) {
		started <- struct{}{}
		<-release
		return &llm.Generation{Content: "ok"}, nil
	}}
	svc := NewGenerationService([]llm.Provider{provider}, nil, nil, nil, GenerationOptions{ProviderTimeout: 2 * time.Second})

	done := make(chan *entity.GenerationResult, 1)
	go func() {
		result, _ := svc.Generate(context.Background(), Actor{}, entity.GenerationRequest{
			Text: "hello", Tone: "Casual", Platforms: []string{"Twitter", "Email", "Facebook"},
		})
		done <- result
	}()

	for i := 0; i < 3; i++ {
		select {
		case <-started:
		case <-time.After(time.Second):
			t.Fatal("platforms were not generated in parallel")
		}
	}
	close(release)

	result := <-done
	want := []entity.Platform{entity.PlatformTwitter, entity.PlatformEmail, entity.PlatformFacebook}
	for i, platform := range want {
		if result.Outcomes[i].Platform != platform {
			t.Fatalf("position %d: expected %s, got %s", i, platform, result.Outcomes[i].Platform)
		}
	}
}
