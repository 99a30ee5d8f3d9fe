package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	ProviderPollinations       = "pollinations"
	defaultPollinationsBaseURL = "https://api.pollinations.ai/text"
	pollinationsMaxBody        = 4 << 20
)

// PollinationsOptions 配置 Pollinations 驱动，无需 API Key
type PollinationsOptions struct {
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

// Pollinations is the keyless fallback text endpoint.
type Pollinations struct {
	endpoint   string
	model      string
	httpClient *http.Client
}

type pollinationsRequest struct {
	Prompt string `json:"prompt"`
	Model  string `json:"model,omitempty"`
}

type pollinationsResponse struct {
	Result string `json:"result"`
	Text   string `json:"text"`
}

func NewPollinations(opts PollinationsOptions) *Pollinations {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	return &Pollinations{
		endpoint:   firstNonEmpty(opts.BaseURL, defaultPollinationsBaseURL),
		model:      strings.TrimSpace(opts.Model),
		httpClient: client,
	}
}

func (p *Pollinations) ID() string {
	return ProviderPollinations
}

func (p *Pollinations) Generate(ctx context.Context, prompt string) (*Generation, error) {
	logger := providerLogger(ctx, p.ID(), p.model)
	logger.WithField("prompt_preview", logSnippet(prompt)).Debug("llm_generate_start")

	bs, err := json.Marshal(pollinationsRequest{Prompt: prompt, Model: p.model})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(bs))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/plain")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		logger.WithError(err).Warn("llm_generate_failed")
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, pollinationsMaxBody))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.WithFields(logrus.Fields{
			"status": resp.StatusCode,
			"body":   logSnippet(string(body)),
		}).Warn("llm_generate_failed")
		return nil, newProviderError(p.ID(), ErrKindUpstream, resp.StatusCode,
			fmt.Errorf("pollinations http %d: %s", resp.StatusCode, logSnippet(string(body))))
	}

	content := extractPollinationsText(body)
	logger.WithFields(logrus.Fields{
		"content_len":     len(content),
		"content_preview": logSnippet(content),
	}).Debug("llm_generate_completed")
	return ParseGeneration(p.ID(), content)
}

// extractPollinationsText 兼容 {"result": "..."} 与纯文本两种响应
func extractPollinationsText(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ""
	}
	if trimmed[0] == '{' {
		var parsed pollinationsResponse
		if err := json.Unmarshal(trimmed, &parsed); err == nil {
			return firstNonEmpty(parsed.Result, parsed.Text)
		}
	}
	return string(trimmed)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

var _ Provider = (*Pollinations)(nil)
