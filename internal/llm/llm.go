package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Generation is the parsed output of one provider call.
type Generation struct {
	Content  string
	Title    string
	Keywords []string
}

// Provider generates text for a fully built prompt. Implementations must
// honour ctx cancellation.
type Provider interface {
	ID() string
	Generate(ctx context.Context, prompt string) (*Generation, error)
}

// ErrorKind classifies provider failures.
type ErrorKind string

const (
	ErrKindTimeout       ErrorKind = "timeout"
	ErrKindTransport     ErrorKind = "transport"
	ErrKindUpstream      ErrorKind = "upstream"
	ErrKindEmptyResponse ErrorKind = "empty_response"
)

// ProviderError is the only error type a provider call surfaces. It is
// recorded on the platform outcome and never aborts a request.
type ProviderError struct {
	Provider   string
	Kind       ErrorKind
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e == nil {
		return ""
	}
	msg := fmt.Sprintf("%s: %s", e.Provider, e.Kind)
	if e.StatusCode > 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ProviderError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newProviderError(provider string, kind ErrorKind, status int, err error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: kind, StatusCode: status, Err: err}
}

var errEmptyResponse = errors.New("provider returned no content")

type callResult struct {
	gen *Generation
	err error
}

// Invoke calls p with a deadline of timeout (no deadline when timeout <= 0)
// and normalises every failure into a *ProviderError. It returns when the
// deadline passes even if the provider ignores ctx.
func Invoke(ctx context.Context, p Provider, prompt string, timeout time.Duration) (*Generation, error) {
	if p == nil {
		return nil, newProviderError("unknown", ErrKindTransport, 0, errors.New("provider is nil"))
	}
	callCtx := ctx
	cancel := func() {}
	if timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	done := make(chan callResult, 1)
	go func() {
		gen, err := p.Generate(callCtx, prompt)
		done <- callResult{gen: gen, err: err}
	}()

	res := await(callCtx, done)
	if res.err != nil {
		return nil, classify(p.ID(), callCtx, res.err)
	}
	if res.gen == nil || strings.TrimSpace(res.gen.Content) == "" {
		return nil, newProviderError(p.ID(), ErrKindEmptyResponse, 0, errEmptyResponse)
	}
	return res.gen, nil
}

// await 等待调用结果；截止时间与结果同时就绪时以结果为准
func await(ctx context.Context, done <-chan callResult) callResult {
	select {
	case res := <-done:
		return res
	case <-ctx.Done():
		select {
		case res := <-done:
			return res
		default:
			return callResult{err: ctx.Err()}
		}
	}
}

func classify(provider string, ctx context.Context, err error) *ProviderError {
	var perr *ProviderError
	if errors.As(err, &perr) {
		if perr.Provider == "" {
			perr.Provider = provider
		}
		return perr
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return newProviderError(provider, ErrKindTimeout, 0, err)
	}
	return newProviderError(provider, ErrKindTransport, 0, err)
}
