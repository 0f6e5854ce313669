// Package health reports whether the analysis backend can serve requests.
//
// Checkers cover the analysis cache (fill ratio, memory, hit rate) and the
// AI providers (circuit breaker state). An Aggregator runs them in parallel
// under a timeout and the HTTP handlers expose the result as Kubernetes
// style probes:
//
//	agg := health.NewAggregator(health.AggregatorConfig{})
//	agg.Register(health.NewCacheChecker(store, health.CacheCheckerConfig{}))
//	agg.Register(health.NewProviderChecker(executor.CircuitBreaker()))
//	health.RegisterHandlers(router, agg)
//
// An open provider circuit is degraded, never unhealthy: regions still
// receive local-only results.
package health
