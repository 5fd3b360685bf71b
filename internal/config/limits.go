package config

import "time"

type Limits struct {
	MaxRetries        int             `yaml:"max_retries" validate:"min=0,max=10"`
	RetryBackoff      time.Duration   `yaml:"retry_backoff" validate:"min=0,max=1m"`
	StageTimeout      time.Duration   `yaml:"stage_timeout" validate:"min=0,max=1h"`
	MaxConcurrentRuns int             `yaml:"max_concurrent_runs" validate:"required,min=1,max=100"`
	RateLimit         RateLimitConfig `yaml:"rate_limit" validate:"required"`
}

// RateLimitConfig is shared by every run that uses the same client.
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" validate:"required,min=1,max=1000"`
	BurstSize         int `yaml:"burst_size" validate:"required,min=1,max=100"`
}

func DefaultLimits() Limits {
	return Limits{
		MaxRetries:        3,
		RetryBackoff:      time.Second,
		StageTimeout:      3 * time.Minute,
		MaxConcurrentRuns: 4,
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 60,
			BurstSize:         10,
		},
	}
}
