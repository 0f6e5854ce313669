package analysis

// Category names the four scored dimensions of a region result.
type Category string

const (
	CategoryLanguage       Category = "language"
	CategoryCulture        Category = "culture"
	CategoryCompliance     Category = "compliance"
	CategoryUserExperience Category = "userExperience"
)

// Categories lists every category in overall-score order.
var Categories = []Category{
	CategoryLanguage,
	CategoryCulture,
	CategoryCompliance,
	CategoryUserExperience,
}

// Confidence grades how much a region result can be trusted.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Content is the structured page content produced by the extension's
// extractor. It is hashed as an opaque value.
type Content struct {
	URL       string         `json:"url"`
	Title     string         `json:"title,omitempty"`
	Language  string         `json:"language,omitempty"`
	Text      Text           `json:"text"`
	Meta      map[string]any `json:"meta,omitempty"`
	Ecommerce map[string]any `json:"ecommerce,omitempty"`
}

// Text holds the visible text of a page grouped by role.
type Text struct {
	Headings   []string `json:"headings,omitempty"`
	Paragraphs []string `json:"paragraphs,omitempty"`
	Buttons    []string `json:"buttons,omitempty"`
	Navigation []string `json:"navigation,omitempty"`
}

// PageURL lets TTL policies classify the page.
func (c Content) PageURL() string { return c.URL }

// CategoryScore is one scored dimension.
type CategoryScore struct {
	Score       int      `json:"score"`
	Issues      []string `json:"issues"`
	Suggestions []string `json:"suggestions"`
}

// RegionAnalysisResult is the scored record for one region.
type RegionAnalysisResult struct {
	Region         string        `json:"region"`
	Language       CategoryScore `json:"language"`
	Culture        CategoryScore `json:"culture"`
	Compliance     CategoryScore `json:"compliance"`
	UserExperience CategoryScore `json:"userExperience"`
	OverallScore   int           `json:"overallScore"`
	AIEnhanced     bool          `json:"aiEnhanced"`

	AISuggestions map[Category][]string `json:"aiSuggestions,omitempty"`
	FromCache     bool                  `json:"fromCache"`
	Confidence    Confidence            `json:"confidence,omitempty"`
	Provider      string                `json:"provider,omitempty"`
}

// Category returns a pointer to the named category score, or nil.
func (r *RegionAnalysisResult) Category(c Category) *CategoryScore {
	switch c {
	case CategoryLanguage:
		return &r.Language
	case CategoryCulture:
		return &r.Culture
	case CategoryCompliance:
		return &r.Compliance
	case CategoryUserExperience:
		return &r.UserExperience
	default:
		return nil
	}
}

// Clone returns a deep copy.
func (r RegionAnalysisResult) Clone() RegionAnalysisResult {
	out := r
	for _, c := range Categories {
		s := out.Category(c)
		s.Issues = cloneStrings(s.Issues)
		s.Suggestions = cloneStrings(s.Suggestions)
	}
	if r.AISuggestions != nil {
		out.AISuggestions = make(map[Category][]string, len(r.AISuggestions))
		for k, v := range r.AISuggestions {
			out.AISuggestions[k] = cloneStrings(v)
		}
	}
	return out
}

// MergedAnalysisResult holds one result per requested region together with
// the terminal state each region pipeline reached.
type MergedAnalysisResult struct {
	RequestID    string                          `json:"requestId,omitempty"`
	AnalysisType string                          `json:"analysisType,omitempty"`
	Regions      map[string]RegionAnalysisResult `json:"regions"`
	States       map[string]RegionStatus         `json:"states,omitempty"`
	Errors       map[string]string               `json:"errors,omitempty"`
}

// Complete reports whether every region reached COMPLETE.
func (m MergedAnalysisResult) Complete() bool {
	for _, s := range m.States {
		if s != StatusComplete {
			return false
		}
	}
	return true
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
