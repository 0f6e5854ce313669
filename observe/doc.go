// Package observe provides telemetry for region analysis pipelines.
//
// An Observer owns the OpenTelemetry tracer and meter providers and a JSON
// structured Logger. Middleware wraps one region pipeline (cache lookup,
// local rules, AI call, merge) with a span named
// analysis.region.<type>.<region>, the analysis.region.* instruments and a
// region-scoped log line.
//
// Sensitive fields (API keys, tokens, raw page content) are redacted by the
// logger; see RedactedFields.
package observe
