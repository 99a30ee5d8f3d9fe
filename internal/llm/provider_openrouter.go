package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

const (
	ProviderOpenRouter       = "openrouter"
	defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
)

// OpenRouterOptions 配置 OpenRouter 驱动
type OpenRouterOptions struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

// OpenRouter talks to OpenRouter's OpenAI-compatible chat completions API.
type OpenRouter struct {
	client *openai.Client
	model  string
}

func NewOpenRouter(opts OpenRouterOptions) (*OpenRouter, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, errors.New("openrouter api key is not configured")
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		return nil, errors.New("openrouter model is not configured")
	}

	openAIConfig := openai.DefaultConfig(apiKey)
	openAIConfig.BaseURL = strings.TrimRight(firstNonEmpty(opts.BaseURL, defaultOpenRouterBaseURL), "/")
	if opts.HTTPClient != nil {
		openAIConfig.HTTPClient = opts.HTTPClient
	}

	return &OpenRouter{
		client: openai.NewClientWithConfig(openAIConfig),
		model:  model,
	}, nil
}

func (o *OpenRouter) ID() string {
	return ProviderOpenRouter
}

func (o *OpenRouter) Generate(ctx context.Context, prompt string) (*Generation, error) {
	logger := providerLogger(ctx, o.ID(), o.model)
	logger.WithField("prompt_preview", logSnippet(prompt)).Debug("llm_generate_start")

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	})
	if err != nil {
		logger.WithError(err).Warn("llm_generate_failed")
		return nil, o.wrapError(err)
	}
	if len(resp.Choices) == 0 {
		logger.Warn("llm_generate_empty_choices")
		return nil, newProviderError(o.ID(), ErrKindEmptyResponse, 0, errEmptyResponse)
	}

	content := resp.Choices[0].Message.Content
	logger.WithFields(logrus.Fields{
		"content_len":     len(content),
		"content_preview": logSnippet(content),
	}).Debug("llm_generate_completed")
	return ParseGeneration(o.ID(), content)
}

func (o *OpenRouter) wrapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return newProviderError(o.ID(), ErrKindUpstream, apiErr.HTTPStatusCode, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return newProviderError(o.ID(), ErrKindUpstream, reqErr.HTTPStatusCode, err)
	}
	return err
}

var _ Provider = (*OpenRouter)(nil)
