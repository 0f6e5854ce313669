package analysis

import (
	"context"
	"errors"

	"github.com/jonwraymond/marketlens/resilience"
)

// AIAnalyzer produces an AI region result for one region.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: implementations must abort in-flight calls on cancellation.
// - Errors: failures should be *ProviderError or wrap ErrParse; the
//   orchestrator treats any error as "no AI result for this region".
type AIAnalyzer interface {
	Name() string
	AnalyzeForRegion(ctx context.Context, content Content, region string, opts AIOptions) (RegionAnalysisResult, error)
}

// AIOptions carries request context to an AIAnalyzer.
type AIOptions struct {
	AnalysisType string
	RequestID    string
}

// Fallback reasons reported to metrics.
const (
	ReasonTimeout     = "timeout"
	ReasonCircuitOpen = "circuit_open"
	ReasonRateLimited = "rate_limited"
	ReasonOverloaded  = "overloaded"
	ReasonParse       = "parse"
	ReasonCancelled   = "cancelled"
	ReasonProvider    = "provider_error"
	ReasonLocal       = "local_error"
)

// FallbackReason classifies an AI failure.
func FallbackReason(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return ReasonCancelled
	case IsTimeout(err):
		return ReasonTimeout
	case errors.Is(err, resilience.ErrCircuitOpen):
		return ReasonCircuitOpen
	case errors.Is(err, resilience.ErrRateLimitExceeded):
		return ReasonRateLimited
	case errors.Is(err, resilience.ErrBulkheadFull):
		return ReasonOverloaded
	case errors.Is(err, ErrParse):
		return ReasonParse
	default:
		return ReasonProvider
	}
}
