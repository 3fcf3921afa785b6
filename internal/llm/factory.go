package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/campusbot/internal/config"
)

// New builds the Generator for cfg. A provider without an API key falls back to Offline.
func New(ctx context.Context, cfg *config.LLMConfig, logger *zap.Logger) (Generator, error) {
	opts := Options{
		Model:           cfg.Model,
		BaseURL:         cfg.BaseURL,
		Temperature:     cfg.Temperature,
		TopP:            cfg.TopP,
		TopK:            cfg.TopK,
		MaxOutputTokens: cfg.MaxOutputTokens,
	}
	switch cfg.Provider {
	case config.ProviderOffline:
		return NewOffline(), nil
	case config.ProviderGemini, config.ProviderOpenAI, config.ProviderAnthropic:
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.Provider)
	}

	apiKey := cfg.APIKey()
	if apiKey == "" {
		logger.Warn("no API key configured, answers will echo retrieved context",
			zap.String("provider", cfg.Provider))
		return NewOffline(), nil
	}

	switch cfg.Provider {
	case config.ProviderGemini:
		gen, err := NewGemini(ctx, apiKey, opts)
		if err != nil {
			return nil, err
		}
		return gen, nil
	case config.ProviderOpenAI:
		return NewOpenAI(apiKey, opts), nil
	default:
		return NewAnthropic(apiKey, opts), nil
	}
}
