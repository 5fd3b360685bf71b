package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/dotcommander/carousel/internal/core"
)

// Client wraps a Provider with client-side rate limiting and transport
// retries. Only errors classified as transient by core.IsRetryable are
// retried; malformed output is the caller's problem.
type Client struct {
	provider   Provider
	maxRetries int
	backoff    time.Duration
	limiter    *rate.Limiter
	logger     *slog.Logger
}

type Option func(*Client)

func WithRetry(maxRetries int) Option {
	return func(c *Client) {
		if maxRetries >= 0 {
			c.maxRetries = maxRetries
		}
	}
}

// WithBackoff sets the base delay; attempt n waits n*base.
func WithBackoff(base time.Duration) Option {
	return func(c *Client) {
		c.backoff = base
	}
}

func WithRateLimit(requestsPerMinute int, burst int) Option {
	return func(c *Client) {
		if requestsPerMinute <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), burst)
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func NewClient(provider Provider, opts ...Option) *Client {
	c := &Client{
		provider:   provider,
		maxRetries: 3,
		backoff:    time.Second,
		limiter:    rate.NewLimiter(rate.Limit(1), 1),
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "ai_client", "provider", provider.Name())

	c.logger.Debug("AI client initialized",
		"max_retries", c.maxRetries,
		"rate_limit", fmt.Sprintf("%v req/s", c.limiter.Limit()))

	return c
}

func (c *Client) CompleteJSON(ctx context.Context, req CompletionRequest) (string, error) {
	return do(ctx, c, req.Stage, "completion", func(ctx context.Context) (string, error) {
		return c.provider.CompleteJSON(ctx, req)
	})
}

func (c *Client) GenerateImage(ctx context.Context, req ImageRequest) (string, error) {
	return do(ctx, c, req.Stage, "image", func(ctx context.Context) (string, error) {
		return c.provider.GenerateImage(ctx, req)
	})
}

func do(ctx context.Context, c *Client, stage, kind string, call func(context.Context) (string, error)) (string, error) {
	start := time.Now()
	logger := c.logger.With("stage", stage, "kind", kind)

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * c.backoff
			logger.Debug("retry backoff", "attempt", attempt, "backoff_ms", backoff.Milliseconds())

			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				logger.Warn("request cancelled during backoff", "attempt", attempt)
				return "", ctx.Err()
			}
		}

		// Every attempt, retries included, takes a token.
		if err := c.limiter.Wait(ctx); err != nil {
			logger.Error("rate limit wait failed", "attempt", attempt, "error", err)
			return "", fmt.Errorf("rate limit wait failed: %w", err)
		}

		attemptStart := time.Now()
		out, err := call(ctx)
		if err == nil {
			logger.Info("API request successful",
				"attempt", attempt,
				"duration_ms", time.Since(attemptStart).Milliseconds(),
				"response_length", len(out),
				"total_duration_ms", time.Since(start).Milliseconds())
			return out, nil
		}

		lastErr = err
		if !core.IsRetryable(err) {
			logger.Error("API request failed with non-retryable error",
				"attempt", attempt,
				"error", err)
			return "", err
		}

		logger.Warn("API request failed, will retry",
			"attempt", attempt,
			"duration_ms", time.Since(attemptStart).Milliseconds(),
			"error", err)
	}

	logger.Error("API request failed after max retries",
		"max_retries", c.maxRetries,
		"total_duration_ms", time.Since(start).Milliseconds(),
		"last_error", lastErr)

	return "", fmt.Errorf("max retries exceeded: %w", lastErr)
}
