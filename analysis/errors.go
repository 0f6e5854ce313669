package analysis

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonwraymond/marketlens/resilience"
)

// Sentinel errors for analysis.
var (
	ErrNoRegions     = errors.New("analysis: at least one region is required")
	ErrInvalidRegion = errors.New("analysis: invalid region code")
	ErrNilStore      = errors.New("analysis: cache store is nil")

	// ErrParse reports an AI response that is not a region result envelope.
	ErrParse = errors.New("analysis: malformed ai response")

	errUnknownStrategy = errors.New("unknown merge strategy")

	// ErrInvalidTransition reports an illegal region state change.
	ErrInvalidTransition = errors.New("analysis: invalid region state transition")
)

// ConfigurationError reports invalid orchestrator configuration.
type ConfigurationError struct {
	Field string
	Value any
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("analysis: invalid configuration %s=%v: %v", e.Field, e.Value, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// ProviderError is a failed AI provider call for one region.
type ProviderError struct {
	Provider string
	Region   string
	Status   int
	// Temporary marks failures worth retrying (rate limits, overload,
	// server errors, timeouts).
	Temporary bool
	Err       error
}

func (e *ProviderError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("analysis: provider %s region %s: status %d: %v", e.Provider, e.Region, e.Status, e.Err)
	}
	return fmt.Sprintf("analysis: provider %s region %s: %v", e.Provider, e.Region, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Retryable implements resilience.Retryable.
func (e *ProviderError) Retryable() bool { return e.Temporary }

// IsTimeout reports whether err is a timeout, from the resilience layer or
// an expired context deadline.
func IsTimeout(err error) bool {
	return errors.Is(err, resilience.ErrTimeout) || errors.Is(err, context.DeadlineExceeded)
}

var _ resilience.Retryable = (*ProviderError)(nil)
