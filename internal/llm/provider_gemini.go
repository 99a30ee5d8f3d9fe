package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
	"google.golang.org/genai"
)

const ProviderGemini = "gemini"

// GeminiOptions 配置 Gemini 驱动
type GeminiOptions struct {
	APIKey     string
	Model      string
	HTTPClient *http.Client
}

// Gemini calls the Gemini API through the genai SDK.
type Gemini struct {
	client *genai.Client
	model  string
}

func NewGemini(ctx context.Context, opts GeminiOptions) (*Gemini, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is not configured")
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		return nil, errors.New("gemini model is not configured")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &Gemini{client: client, model: model}, nil
}

func (g *Gemini) ID() string {
	return ProviderGemini
}

func (g *Gemini) Generate(ctx context.Context, prompt string) (*Generation, error) {
	logger := providerLogger(ctx, g.ID(), g.model)
	logger.WithField("prompt_preview", logSnippet(prompt)).Debug("llm_generate_start")

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		logger.WithError(err).Warn("llm_generate_failed")
		if ctx.Err() != nil {
			return nil, err
		}
		var apiErr *genai.APIError
		if errors.As(err, &apiErr) {
			return nil, newProviderError(g.ID(), ErrKindUpstream, apiErr.Code, err)
		}
		return nil, newProviderError(g.ID(), ErrKindUpstream, 0, err)
	}

	content := resp.Text()
	logger.WithFields(logrus.Fields{
		"content_len":     len(content),
		"content_preview": logSnippet(content),
	}).Debug("llm_generate_completed")
	return ParseGeneration(g.ID(), content)
}

var _ Provider = (*Gemini)(nil)
