package phase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dotcommander/carousel/internal/core"
)

// Sampling is the fixed generation setting a stage is tuned with.
type Sampling struct {
	Temperature float64
	MaxTokens   int
}

// BasePhase provides common functionality for all stages
type BasePhase struct {
	id       core.StageID
	sampling Sampling
	logger   *slog.Logger
}

// BasePhaseOption allows customization of BasePhase
type BasePhaseOption func(*BasePhase)

// WithLogger configures a custom logger
func WithLogger(logger *slog.Logger) BasePhaseOption {
	return func(b *BasePhase) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithSampling overrides the stage's default sampling. Zero fields keep the
// default.
func WithSampling(s Sampling) BasePhaseOption {
	return func(b *BasePhase) {
		if s.Temperature > 0 {
			b.sampling.Temperature = s.Temperature
		}
		if s.MaxTokens > 0 {
			b.sampling.MaxTokens = s.MaxTokens
		}
	}
}

// NewBasePhase creates a new base phase with optional configuration
func NewBasePhase(id core.StageID, sampling Sampling, options ...BasePhaseOption) BasePhase {
	base := BasePhase{
		id:       id,
		sampling: sampling,
		logger:   slog.Default(),
	}

	for _, option := range options {
		option(&base)
	}
	base.logger = base.logger.With("component", "agent", "stage", string(id))

	return base
}

func (b BasePhase) ID() core.StageID {
	return b.id
}

func (b BasePhase) Sampling() Sampling {
	return b.sampling
}

func (b BasePhase) Logger() *slog.Logger {
	return b.logger
}

// LogStart logs the start of stage execution
func (b BasePhase) LogStart(promptLength int) {
	b.logger.Info("Starting stage execution",
		"temperature", b.sampling.Temperature,
		"max_tokens", b.sampling.MaxTokens,
		"prompt_length", promptLength,
	)
}

// LogComplete logs successful stage completion
func (b BasePhase) LogComplete(duration time.Duration) {
	b.logger.Info("Stage completed successfully",
		"duration_ms", duration.Milliseconds(),
	)
}

// LogError logs stage execution errors
func (b BasePhase) LogError(err error, duration time.Duration) {
	b.logger.Error("Stage execution failed",
		"error", err,
		"contract_error", core.IsContractError(err),
		"duration_ms", duration.Milliseconds(),
	)
}

// ValidateContext checks if the context is valid for execution
func (b BasePhase) ValidateContext(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("stage %s: context cannot be nil", b.id)
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("stage %s: context already cancelled: %w", b.id, ctx.Err())
	default:
		return nil
	}
}

// SchemaError builds a contract error attributed to this stage.
func (b BasePhase) SchemaError(field, format string, args ...any) error {
	return core.NewSchemaError(b.id, field, fmt.Sprintf(format, args...))
}
