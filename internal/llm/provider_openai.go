package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/sirupsen/logrus"
)

const ProviderOpenAI = "openai"

// OpenAIOptions 配置 OpenAI 兼容驱动，BaseURL 为空时使用官方地址
type OpenAIOptions struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

// OpenAI uses the official SDK against any OpenAI-compatible endpoint.
type OpenAI struct {
	client openai.Client
	model  string
}

func NewOpenAI(opts OpenAIOptions) (*OpenAI, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, errors.New("openai api key is not configured")
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		return nil, errors.New("openai model is not configured")
	}

	// 失败时由调用链切换到下一个服务，SDK 不再重试
	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}
	if baseURL := strings.TrimSpace(opts.BaseURL); baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(baseURL))
	}
	if opts.HTTPClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(opts.HTTPClient))
	}

	return &OpenAI{
		client: openai.NewClient(reqOpts...),
		model:  model,
	}, nil
}

func (o *OpenAI) ID() string {
	return ProviderOpenAI
}

func (o *OpenAI) Generate(ctx context.Context, prompt string) (*Generation, error) {
	logger := providerLogger(ctx, o.ID(), o.model)
	logger.WithField("prompt_preview", logSnippet(prompt)).Debug("llm_generate_start")

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		logger.WithError(err).Warn("llm_generate_failed")
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return nil, newProviderError(o.ID(), ErrKindUpstream, apiErr.StatusCode, err)
		}
		return nil, err
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

var _ Provider = (*OpenAI)(nil)
