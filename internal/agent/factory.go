package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dotcommander/carousel/internal/config"
	"github.com/dotcommander/carousel/internal/core"
)

// NewFromConfig builds the configured provider wrapped in rate limiting,
// retries and, when cfg.AI.CacheTTL is positive, the response cache. The
// returned client is safe to share across runs.
func NewFromConfig(ctx context.Context, cfg *config.Config, store core.Storage, logger *slog.Logger) (ModelClient, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var (
		provider Provider
		err      error
	)
	switch cfg.AI.Provider {
	case "openai":
		provider, err = NewOpenAIProvider(OpenAIConfig{
			APIKey:     cfg.AI.APIKey,
			BaseURL:    cfg.AI.BaseURL,
			Model:      cfg.AI.Model,
			ImageModel: cfg.AI.ImageModel,
			Timeout:    cfg.AI.Timeout,
		}, logger)
	case "gemini":
		provider, err = NewGeminiProvider(ctx, GeminiConfig{
			APIKey:     cfg.AI.APIKey,
			BaseURL:    cfg.AI.BaseURL,
			Model:      cfg.AI.Model,
			ImageModel: cfg.AI.ImageModel,
		}, logger)
	case "mock":
		provider = NewMockClient()
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", core.ErrInvalidInput, cfg.AI.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("creating %s provider: %w", cfg.AI.Provider, err)
	}

	var client ModelClient = NewClient(provider,
		WithRetry(cfg.Limits.MaxRetries),
		WithBackoff(cfg.Limits.RetryBackoff),
		WithRateLimit(cfg.Limits.RateLimit.RequestsPerMinute, cfg.Limits.RateLimit.BurstSize),
		WithLogger(logger))

	if cfg.AI.CacheTTL > 0 && store != nil {
		client = WithCache(client, NewResponseCache(store, cfg.AI.CacheTTL))
	}
	return client, nil
}
