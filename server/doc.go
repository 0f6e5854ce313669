// Package server exposes the analysis engine over HTTP.
//
// Routes:
//
//	POST   /v1/analyze        analyze content for a list of regions
//	GET    /v1/regions        region catalogue
//	GET    /v1/cache/stats    cache counters
//	GET    /v1/cache/entries  cached entries, filtered by ?pattern=
//	DELETE /v1/cache          clear entries matching ?pattern= (admin)
//	GET    /healthz /readyz /health
//	GET    /metrics           prometheus scrape, when that exporter is on
//
// Runtime assembles the cache, orchestrator, provider client, health checks
// and authenticators from a config.Config; the CLI reuses it without HTTP.
package server
