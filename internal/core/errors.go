package core

import (
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// Core Error Types
// =============================================================================

// StageError wraps whatever made a stage fail with the stage identity.
type StageError struct {
	Stage     StageID
	Cause     error
	Timestamp time.Time
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Cause)
}

func (e *StageError) Unwrap() error {
	return e.Cause
}

// SchemaError reports model output that is missing a required field or has
// it in the wrong shape. It is a contract error: never retried or repaired.
type SchemaError struct {
	Stage   StageID
	Field   string
	Message string
}

func (e *SchemaError) Error() string {
	if e.Stage != "" {
		return fmt.Sprintf("schema violation in %s output field %q: %s", e.Stage, e.Field, e.Message)
	}
	return fmt.Sprintf("schema violation in field %q: %s", e.Field, e.Message)
}

// InvalidTemplateError is returned when the strategist names a template
// that is not in the catalog.
type InvalidTemplateError struct {
	TemplateID string
	Known      []string
}

func (e *InvalidTemplateError) Error() string {
	return fmt.Sprintf("template %q is not in the catalog (known: %v)", e.TemplateID, e.Known)
}

// =============================================================================
// Predefined Error Values
// =============================================================================

var (
	ErrAborted        = errors.New("pipeline aborted")
	ErrAlreadyStarted = errors.New("orchestrator already started; create a new one per run")
	ErrRateLimited    = errors.New("rate limited")
	ErrServerError    = errors.New("server error")
	ErrNetworkError   = errors.New("network error")
	ErrNoAPIKey       = errors.New("API key not configured")
	ErrInvalidInput   = errors.New("invalid input")
	ErrEmptyResponse  = errors.New("model returned an empty response")
)

// =============================================================================
// Error Classification Functions
// =============================================================================

// IsRetryable reports transport-level failures a model client may retry.
// The orchestrator itself never retries.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrServerError) ||
		errors.Is(err, ErrNetworkError)
}

// IsContractError reports whether err is a violated output contract.
func IsContractError(err error) bool {
	if err == nil {
		return false
	}
	var schemaErr *SchemaError
	var templateErr *InvalidTemplateError
	return errors.As(err, &schemaErr) || errors.As(err, &templateErr)
}

// =============================================================================
// Error Creation Helpers
// =============================================================================

func NewStageError(stage StageID, cause error) *StageError {
	return &StageError{
		Stage:     stage,
		Cause:     cause,
		Timestamp: time.Now(),
	}
}

func NewSchemaError(stage StageID, field, message string) *SchemaError {
	return &SchemaError{Stage: stage, Field: field, Message: message}
}
