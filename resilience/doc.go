// Package resilience guards calls to external dependencies such as AI
// providers.
//
// # Patterns
//
//   - Circuit Breaker: stops calling a failing dependency after a threshold
//     of consecutive retryable failures and probes it again after a cool-down.
//
//   - Retry: retries failed operations with exponential, linear or constant
//     backoff. Errors implementing Retryable decide whether they are retried.
//
//   - Rate Limiter: token bucket on golang.org/x/time/rate.
//
//   - Bulkhead: concurrency limit on golang.org/x/sync/semaphore.
//
//   - Timeout: bounds each attempt.
//
// # Usage
//
// Patterns compose through an Executor, usually built from configuration:
//
//	exec, err := resilience.NewExecutorFromConfig("openai", resilience.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	body, err := resilience.ExecuteValue(ctx, exec, func(ctx context.Context) ([]byte, error) {
//	    return callProvider(ctx)
//	})
package resilience
