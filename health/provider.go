package health

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jonwraymond/marketlens/resilience"
)

// Breaker exposes the circuit state of one AI provider.
// *resilience.CircuitBreaker satisfies it.
type Breaker interface {
	Name() string
	Metrics() resilience.CircuitBreakerMetrics
}

// ProviderChecker reports AI provider availability from circuit breaker state.
// An open circuit is degraded, not unhealthy: analysis falls back to local
// rules for that provider.
type ProviderChecker struct {
	breakers []Breaker
}

// NewProviderChecker creates a checker over the given breakers.
func NewProviderChecker(breakers ...Breaker) *ProviderChecker {
	return &ProviderChecker{breakers: breakers}
}

func (p *ProviderChecker) Name() string { return "provider" }

func (p *ProviderChecker) Check(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return Unhealthy("context cancelled", err)
	}
	if len(p.breakers) == 0 {
		return Healthy("AI analysis disabled")
	}

	details := make(map[string]any, len(p.breakers))
	var open []string
	for _, b := range p.breakers {
		m := b.Metrics()
		details[b.Name()] = map[string]any{
			"state":    m.State.String(),
			"failures": m.Failures,
			"rejected": m.Rejected,
		}
		if m.State == resilience.StateOpen {
			open = append(open, b.Name())
		}
	}

	if len(open) > 0 {
		sort.Strings(open)
		return Degraded(fmt.Sprintf("circuit open: %s", strings.Join(open, ", "))).WithDetails(details)
	}
	return Healthy(fmt.Sprintf("%d provider(s) available", len(p.breakers))).WithDetails(details)
}
