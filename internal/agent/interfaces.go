package agent

import "context"

// CompletionRequest is one JSON-mode chat call.
type CompletionRequest struct {
	// Stage identifies the caller in logs and lets scripted clients pick a
	// response.
	Stage       string
	System      string
	User        string
	Temperature float64
	MaxTokens   int
}

type ImageRequest struct {
	Stage       string
	Prompt      string
	AspectRatio string
	Style       string
}

// ModelClient is the only surface agents use to reach a model.
type ModelClient interface {
	CompleteJSON(ctx context.Context, req CompletionRequest) (string, error)
	// GenerateImage returns a resolvable reference: an https URL or a data URI.
	GenerateImage(ctx context.Context, req ImageRequest) (string, error)
}

// Provider is a single vendor backend without rate limiting or retries.
type Provider interface {
	ModelClient
	Name() string
}
