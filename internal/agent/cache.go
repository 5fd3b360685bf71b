package agent

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dotcommander/carousel/internal/core"
)

// ResponseCache stores raw completions in storage keyed by a hash of the
// full request.
type ResponseCache struct {
	storage core.Storage
	ttl     time.Duration
	now     func() time.Time
	logger  *slog.Logger
}

type CachedResponse struct {
	Stage     string    `json:"stage"`
	Response  string    `json:"response"`
	Timestamp time.Time `json:"timestamp"`
}

func NewResponseCache(storage core.Storage, ttl time.Duration) *ResponseCache {
	return &ResponseCache{
		storage: storage,
		ttl:     ttl,
		now:     time.Now,
		logger:  slog.Default().With("component", "response_cache"),
	}
}

func cachePath(key string) string {
	return fmt.Sprintf("cache/responses/%s.json", key)
}

func (c *ResponseCache) Get(ctx context.Context, req CompletionRequest) (string, bool) {
	key := requestKey(req)

	data, err := c.storage.Load(ctx, cachePath(key))
	if err != nil {
		c.logger.Debug("cache miss - not found", "key", key, "stage", req.Stage)
		return "", false
	}

	var cached CachedResponse
	if err := json.Unmarshal(data, &cached); err != nil {
		c.logger.Error("cache miss - invalid data", "key", key, "error", err)
		return "", false
	}

	age := c.now().Sub(cached.Timestamp)
	if age > c.ttl {
		c.logger.Debug("cache miss - expired", "key", key, "age", age, "ttl", c.ttl)
		return "", false
	}

	c.logger.Info("cache hit",
		"key", key,
		"stage", req.Stage,
		"age", age,
		"response_length", len(cached.Response))

	return cached.Response, true
}

func (c *ResponseCache) Set(ctx context.Context, req CompletionRequest, response string) error {
	key := requestKey(req)

	data, err := json.Marshal(CachedResponse{
		Stage:     req.Stage,
		Response:  response,
		Timestamp: c.now(),
	})
	if err != nil {
		return fmt.Errorf("marshaling cached response: %w", err)
	}

	if err := c.storage.Save(ctx, cachePath(key), data); err != nil {
		c.logger.Error("failed to save cache entry", "key", key, "error", err)
		return err
	}

	c.logger.Debug("cache entry saved", "key", key, "size", len(data))
	return nil
}

func requestKey(req CompletionRequest) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%s\x00%g\x00%d", req.Stage, req.System, req.User, req.Temperature, req.MaxTokens)
	return hex.EncodeToString(h.Sum(nil))
}

// CachedClient serves repeated completions from a ResponseCache. Images
// always pass through.
type CachedClient struct {
	ModelClient
	cache  *ResponseCache
	logger *slog.Logger
}

func WithCache(client ModelClient, cache *ResponseCache) ModelClient {
	return &CachedClient{
		ModelClient: client,
		cache:       cache,
		logger:      slog.Default().With("component", "cached_client"),
	}
}

func (c *CachedClient) CompleteJSON(ctx context.Context, req CompletionRequest) (string, error) {
	startTime := time.Now()

	if response, found := c.cache.Get(ctx, req); found {
		c.logger.Info("serving from cache",
			"stage", req.Stage,
			"duration_ms", time.Since(startTime).Milliseconds())
		return response, nil
	}

	response, err := c.ModelClient.CompleteJSON(ctx, req)
	if err != nil {
		return "", err
	}

	if cacheErr := c.cache.Set(ctx, req, response); cacheErr != nil {
		c.logger.Warn("failed to cache response", "error", cacheErr)
	}
	return response, nil
}
