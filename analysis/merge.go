package analysis

import (
	"math"
	"slices"
)

// Source weights for per-category merging.
const (
	LocalWeight = 0.4
	AIWeight    = 0.6
)

// Category weights for the overall score. They sum to 1.0.
const (
	WeightLanguage       = 0.30
	WeightCulture        = 0.25
	WeightCompliance     = 0.25
	WeightUserExperience = 0.20
)

// Strategy selects how local and AI category scores combine.
type Strategy int

const (
	// StrategyWeighted blends scores with LocalWeight and AIWeight.
	StrategyWeighted Strategy = iota
	// StrategyMax keeps the higher of the two scores.
	StrategyMax
)

func (s Strategy) String() string {
	switch s {
	case StrategyWeighted:
		return "weighted"
	case StrategyMax:
		return "max"
	default:
		return "unknown"
	}
}

// ParseStrategy parses "weighted" or "max". Empty means weighted.
func ParseStrategy(name string) (Strategy, error) {
	switch name {
	case "", "weighted":
		return StrategyWeighted, nil
	case "max":
		return StrategyMax, nil
	default:
		return 0, &ConfigurationError{Field: "merge_strategy", Value: name, Err: errUnknownStrategy}
	}
}

// Merger combines local and AI region results.
//
// Contract:
// - Deterministic: the same inputs always produce the same output.
// - Inputs are never mutated; outputs share no slices with inputs.
type Merger struct {
	Strategy Strategy
}

// NewMerger creates a merger using strategy.
func NewMerger(strategy Strategy) *Merger {
	return &Merger{Strategy: strategy}
}

// MergeRegion merges one region. A nil ai passes local through with the
// overall score recomputed.
func (m *Merger) MergeRegion(local RegionAnalysisResult, ai *RegionAnalysisResult) RegionAnalysisResult {
	out := local.Clone()
	for _, c := range Categories {
		s := out.Category(c)
		s.Score = clampScore(s.Score)
		s.Issues = dedupe(s.Issues)
		s.Suggestions = dedupe(s.Suggestions)
	}

	if ai != nil {
		for _, c := range Categories {
			s := out.Category(c)
			a := ai.Category(c)
			s.Score = m.combine(s.Score, clampScore(a.Score))
			s.Issues = dedupe(append(s.Issues, a.Issues...))
			if len(a.Suggestions) > 0 {
				if out.AISuggestions == nil {
					out.AISuggestions = make(map[Category][]string, len(Categories))
				}
				out.AISuggestions[c] = dedupe(append(out.AISuggestions[c], a.Suggestions...))
			}
		}
		out.AIEnhanced = true
		if ai.Provider != "" {
			out.Provider = ai.Provider
		}
		if out.Confidence != ConfidenceLow {
			out.Confidence = ConfidenceHigh
		} else {
			out.Confidence = ConfidenceMedium
		}
	}

	out.OverallScore = OverallScore(out)
	return out
}

// Merge merges every region present in local or ai. A region with only an
// AI result is merged on top of a fallback local result.
func (m *Merger) Merge(local, ai map[string]RegionAnalysisResult) MergedAnalysisResult {
	out := MergedAnalysisResult{
		Regions: make(map[string]RegionAnalysisResult, len(local)),
		States:  make(map[string]RegionStatus, len(local)),
	}
	for region, l := range local {
		var aiResult *RegionAnalysisResult
		if a, ok := ai[region]; ok {
			aiResult = &a
		}
		out.Regions[region] = m.MergeRegion(l, aiResult)
		out.States[region] = StatusMerged
	}
	for region, a := range ai {
		if _, ok := local[region]; ok {
			continue
		}
		out.Regions[region] = m.MergeRegion(FallbackResult(region, "no local result"), &a)
		out.States[region] = StatusMerged
	}
	return out
}

func (m *Merger) combine(local, ai int) int {
	if m.Strategy == StrategyMax {
		return max(local, ai)
	}
	return clampScore(int(math.Round(float64(local)*LocalWeight + float64(ai)*AIWeight)))
}

// OverallScore is the weighted category average, rounded half away from zero.
func OverallScore(r RegionAnalysisResult) int {
	sum := float64(clampScore(r.Language.Score))*WeightLanguage +
		float64(clampScore(r.Culture.Score))*WeightCulture +
		float64(clampScore(r.Compliance.Score))*WeightCompliance +
		float64(clampScore(r.UserExperience.Score))*WeightUserExperience
	return clampScore(int(math.Round(sum)))
}

func clampScore(s int) int {
	return min(max(s, 0), 100)
}

// dedupe removes repeated strings keeping first occurrences. It always
// returns a new non-nil slice.
func dedupe(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}
