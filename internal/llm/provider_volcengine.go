package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/volcengine/volcengine-go-sdk/service/arkruntime"
	volcModel "github.com/volcengine/volcengine-go-sdk/service/arkruntime/model"
	"github.com/volcengine/volcengine-go-sdk/volcengine"
)

const ProviderVolcengine = "volcengine"

// VolcengineOptions 配置火山方舟驱动
type VolcengineOptions struct {
	APIKey string
	Model  string
}

// Volcengine calls the Ark runtime chat completion API.
type Volcengine struct {
	client *arkruntime.Client
	model  string
}

//文档:https://www.volcengine.com/docs/82379/1494384

func NewVolcengine(opts VolcengineOptions) (*Volcengine, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, errors.New("volcengine api key is not configured")
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		return nil, errors.New("volcengine model is not configured")
	}
	return &Volcengine{
		client: arkruntime.NewClientWithApiKey(apiKey),
		model:  model,
	}, nil
}

func (v *Volcengine) ID() string {
	return ProviderVolcengine
}

func (v *Volcengine) Generate(ctx context.Context, prompt string) (*Generation, error) {
	logger := providerLogger(ctx, v.ID(), v.model)
	logger.WithField("prompt_preview", logSnippet(prompt)).Debug("llm_generate_start")

	req := volcModel.CreateChatCompletionRequest{
		Model: v.model,
		Messages: []*volcModel.ChatCompletionMessage{
			{
				Role: volcModel.ChatMessageRoleUser,
				Content: &volcModel.ChatCompletionMessageContent{
					StringValue: volcengine.String(prompt),
				},
			},
		},
	}

	resp, err := v.client.CreateChatCompletion(ctx, req)
	if err != nil {
		logger.WithError(err).Warn("llm_generate_failed")
		var apiErr *volcModel.APIError
		if errors.As(err, &apiErr) {
			return nil, newProviderError(v.ID(), ErrKindUpstream, apiErr.HTTPStatusCode, err)
		}
		var reqErr *volcModel.RequestError
		if errors.As(err, &reqErr) {
			return nil, newProviderError(v.ID(), ErrKindUpstream, reqErr.HTTPStatusCode, err)
		}
		return nil, err
	}
	if len(resp.Choices) == 0 || resp.Choices[0] == nil {
		logger.Warn("llm_generate_empty_choices")
		return nil, newProviderError(v.ID(), ErrKindEmptyResponse, 0, errEmptyResponse)
	}

	content := ""
	if msg := resp.Choices[0].Message; msg.Content != nil && msg.Content.StringValue != nil {
		content = *msg.Content.StringValue
	}
	logger.WithFields(logrus.Fields{
		"content_len":     len(content),
		"content_preview": logSnippet(content),
	}).Debug("llm_generate_completed")
	return ParseGeneration(v.ID(), content)
}

var _ Provider = (*Volcengine)(nil)
