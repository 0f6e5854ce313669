package analysis

import "fmt"

// FallbackScore is assigned to every category of a fallback result.
const FallbackScore = 50

// AIUnavailableIssue is added to results whose AI analysis failed.
const AIUnavailableIssue = "AI analysis unavailable; showing local analysis only"

// FallbackResult is the low-confidence result used when local analysis of a
// region cannot run.
func FallbackResult(region, reason string) RegionAnalysisResult {
	cat := func(issue string) CategoryScore {
		return CategoryScore{Score: FallbackScore, Issues: []string{issue}, Suggestions: []string{}}
	}
	r := RegionAnalysisResult{
		Region:         region,
		Language:       cat(fmt.Sprintf("Analysis unavailable: %s", reason)),
		Culture:        cat("Culture could not be evaluated"),
		Compliance:     cat("Compliance could not be evaluated"),
		UserExperience: cat("User experience could not be evaluated"),
		Confidence:     ConfidenceLow,
		Provider:       "fallback",
	}
	r.OverallScore = OverallScore(r)
	return r
}

// markAIUnavailable records on the language category that AI enhancement
// was attempted and failed.
func markAIUnavailable(r *RegionAnalysisResult) {
	r.AIEnhanced = false
	r.Language.Issues = dedupe(append(r.Language.Issues, AIUnavailableIssue))
}
