// Package analysis scores page content against target markets.
//
// An Orchestrator runs one pipeline per region: cache lookup, local
// heuristic analysis, optional AI analysis, merge and store. Regions run
// concurrently and fail independently; a region whose AI call fails still
// returns its local result, marked as not AI-enhanced.
//
// Merging is deterministic. Each category blends local and AI scores 40/60
// and the overall score weighs language, culture, compliance and user
// experience 30/25/25/20.
//
// Each region pipeline moves through
//
//	PENDING → LOCAL_DONE → (AI_DONE | AI_SKIPPED) → MERGED → CACHED → COMPLETE
//
// with cache hits going straight from PENDING to COMPLETE and ERROR
// reachable from any non-terminal state.
package analysis
