package llm

import (
	"context"
	"fmt"

	"repurpose/internal/config"

	"github.com/sirupsen/logrus"
)

// NewProvider instantiates a provider driver from configuration.
func NewProvider(ctx context.Context, driver string, cfg config.Config) (Provider, error) {
	switch driver {
	case ProviderOpenRouter:
		return NewOpenRouter(OpenRouterOptions{
			APIKey:  cfg.OpenRouterAPIKey,
			BaseURL: cfg.OpenRouterBaseURL,
			Model:   cfg.OpenRouterModel,
		})
	case ProviderOpenAI:
		return NewOpenAI(OpenAIOptions{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
		})
	case ProviderGemini:
		return NewGemini(ctx, GeminiOptions{
			APIKey: cfg.GeminiAPIKey,
			Model:  cfg.GeminiModel,
		})
	case ProviderVolcengine:
		return NewVolcengine(VolcengineOptions{
			APIKey: cfg.VolcengineAPIKey,
			Model:  cfg.VolcengineModel,
		})
	case ProviderPollinations:
		return NewPollinations(PollinationsOptions{
			BaseURL: cfg.PollinationsBaseURL,
			Model:   cfg.PollinationsModel,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported provider driver: %s", driver)
	}
}

// NewChain builds the ordered provider chain from PROVIDER_CHAIN. Drivers
// that cannot be configured are skipped with a warning; an empty chain is an
// error.
func NewChain(ctx context.Context, cfg config.Config) ([]Provider, error) {
	var chain []Provider
	for _, driver := range cfg.Providers() {
		provider, err := NewProvider(ctx, driver, cfg)
		if err != nil {
			logrus.WithError(err).WithField("provider", driver).Warn("skipping provider")
			continue
		}
		chain = append(chain, provider)
	}
	if len(chain) == 0 {
		return nil, fmt.Errorf("no generation provider configured (PROVIDER_CHAIN=%q)", cfg.ProviderChain)
	}

	ids := make([]string, 0, len(chain))
	for _, p := range chain {
		ids = append(ids, p.ID())
	}
	logrus.WithField("providers", ids).Info("generation provider chain ready")
	return chain, nil
}
