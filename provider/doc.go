// Package provider calls third-party LLM APIs for region analysis.
//
// A static Registry describes the supported providers. Registry.Select
// picks the first enabled provider with a configured key; nothing mutates
// the registry after construction.
//
// Client implements analysis.AIAnalyzer. Every call runs through a
// resilience.Executor (rate limit, bulkhead, circuit breaker, retry and
// per-attempt timeout). HTTP failures become *analysis.ProviderError with
// 401/403 permanent and 408/429/5xx/529 retryable. Responses are read with
// gjson and must carry all four category objects, otherwise the error wraps
// analysis.ErrParse.
package provider
