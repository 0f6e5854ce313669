package analysis

import (
	"maps"

	"github.com/jonwraymond/marketlens/cache"
)

// DefaultAnalysisType is used when Options.AnalysisType is empty.
const DefaultAnalysisType = cache.TypeComprehensive

// SkipAIOption is the cache option key recording a local-only request.
const SkipAIOption = "skipAI"

// Options tunes one Analyze call.
type Options struct {
	AnalysisType string `json:"analysisType,omitempty"`

	// ForceRefresh bypasses the cache read. The fresh result is still stored.
	ForceRefresh bool `json:"forceRefresh,omitempty"`

	// SkipAI runs local analysis only.
	SkipAI bool `json:"skipAI,omitempty"`

	// TTLOverride replaces the computed TTL, e.g. "30m". It is still clamped.
	TTLOverride string `json:"ttlOverride,omitempty"`

	// RequestID correlates logs and spans. Generated when empty.
	RequestID string `json:"requestId,omitempty"`

	// Extra options take part in the cache key.
	Extra map[string]any `json:"extra,omitempty"`
}

func (o Options) analysisType() string {
	if o.AnalysisType == "" {
		return DefaultAnalysisType
	}
	return o.AnalysisType
}

// cacheOptions renders the options seen by the cache. provider is the AI
// provider that would serve the request, so results from different
// providers never share a key.
func (o Options) cacheOptions(provider string) map[string]any {
	out := make(map[string]any, len(o.Extra)+4)
	maps.Copy(out, o.Extra)
	if o.SkipAI || provider == "" {
		out[SkipAIOption] = true
	} else {
		out["provider"] = provider
	}
	if o.ForceRefresh {
		out[cache.ForceRefreshOption] = true
	}
	if o.TTLOverride != "" {
		out[cache.TTLOverrideOption] = o.TTLOverride
	}
	return out
}

// regionContent is the cache identity of one region request.
type regionContent struct {
	Content Content `json:"content"`
	Region  string  `json:"region"`
}

func (r regionContent) PageURL() string { return r.Content.URL }
