package analysis

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// LocalEngine runs rule-based analysis without external calls.
//
// Contract:
// - Analyze never fails the batch: a region that cannot be analyzed is
//   reported in LocalReport.Errors instead of Results.
// - Concurrency: implementations must be safe for concurrent use.
type LocalEngine interface {
	Analyze(ctx context.Context, content Content, regions []string) LocalReport
}

// LocalReport is the outcome of a local analysis run.
type LocalReport struct {
	Results map[string]RegionAnalysisResult
	Errors  map[string]error
}

// Compliance rule names.
const (
	RulePrivacy              = "privacy"
	RuleCookieConsent        = "cookie-consent"
	RuleTerms                = "terms"
	RuleImprint              = "imprint"
	RuleLegalNotice          = "legal-notice"
	RuleDoNotSell            = "do-not-sell"
	RuleCommercialDisclosure = "commercial-disclosure"
)

// ComplianceRule is a page marker a market expects to find.
type ComplianceRule struct {
	Keywords   []string
	Penalty    int
	Issue      string
	Suggestion string
}

// ComplianceRules maps rule names to their markers. Keywords are matched
// case-folded against the page text.
var ComplianceRules = map[string]ComplianceRule{
	RulePrivacy: {
		Keywords:   []string{"privacy", "datenschutz", "confidentialité", "privacidad", "privacy policy", "riservatezza", "privacybeleid", "プライバシー", "隐私", "개인정보", "privacidade"},
		Penalty:    30,
		Issue:      "No privacy policy link found",
		Suggestion: "Link a privacy policy from every page",
	},
	RuleCookieConsent: {
		Keywords:   []string{"cookie", "cookies", "consent", "einwilligung", "consentement", "consentimiento"},
		Penalty:    20,
		Issue:      "No cookie consent notice found",
		Suggestion: "Add a cookie consent banner before setting non-essential cookies",
	},
	RuleTerms: {
		Keywords:   []string{"terms", "agb", "conditions", "condiciones", "termini", "voorwaarden", "利用規約", "条款", "이용약관", "termos"},
		Penalty:    10,
		Issue:      "No terms of service link found",
		Suggestion: "Publish terms and conditions and link them in the footer",
	},
	RuleImprint: {
		Keywords:   []string{"impressum", "imprint"},
		Penalty:    25,
		Issue:      "No imprint (Impressum) found",
		Suggestion: "Add an Impressum with operator identity and contact details",
	},
	RuleLegalNotice: {
		Keywords:   []string{"mentions légales", "aviso legal", "legal notice"},
		Penalty:    15,
		Issue:      "No legal notice found",
		Suggestion: "Add a legal notice page identifying the publisher",
	},
	RuleDoNotSell: {
		Keywords:   []string{"do not sell", "your privacy choices", "opt-out", "opt out"},
		Penalty:    15,
		Issue:      "No \"Do Not Sell or Share\" opt-out link found",
		Suggestion: "Add a \"Do Not Sell or Share My Personal Information\" link",
	},
	RuleCommercialDisclosure: {
		Keywords:   []string{"特定商取引法", "specified commercial transactions"},
		Penalty:    20,
		Issue:      "No commercial transactions disclosure found",
		Suggestion: "Publish the disclosure required by the Act on Specified Commercial Transactions",
	},
}

var (
	numericDate   = regexp.MustCompile(`\b(\d{1,2})[/.](\d{1,2})[/.](\d{2,4})\b`)
	imperialUnits = regexp.MustCompile(`(?i)\b\d+(\.\d+)?\s?(lbs?|oz|miles?|mph|inch(es)?|ft|feet|gallons?)\b|°F`)
	metricUnits   = regexp.MustCompile(`(?i)\b\d+(\.\d+)?\s?(kg|km|cm|mm|km/h|litres?|liters?)\b|°C`)
	priceLike     = regexp.MustCompile(`(?i)[$€£¥₹₩]|R\$|\b(USD|EUR|GBP|JPY|CNY|INR|KRW|BRL|MXN|CAD|AUD|CHF)\b`)
)

// Word-count thresholds for confidence grading.
const (
	minWordsMedium = 50
	minWordsHigh   = 300
	maxAvgWords    = 120
)

// HeuristicEngine is the default LocalEngine. It scores language fit,
// cultural conventions, compliance markers and basic page structure.
type HeuristicEngine struct{}

// NewHeuristicEngine creates the default rule engine.
func NewHeuristicEngine() *HeuristicEngine {
	return &HeuristicEngine{}
}

// Analyze scores content for each region.
func (e *HeuristicEngine) Analyze(ctx context.Context, content Content, regions []string) LocalReport {
	report := LocalReport{
		Results: make(map[string]RegionAnalysisResult, len(regions)),
		Errors:  make(map[string]error),
	}
	page := newPageText(content)

	for _, code := range regions {
		if err := ctx.Err(); err != nil {
			report.Errors[code] = err
			continue
		}
		region, err := LookupRegion(code)
		if err != nil {
			report.Errors[code] = err
			continue
		}
		r := RegionAnalysisResult{
			Region:         region.Code,
			Language:       scoreLanguage(content, page, region),
			Culture:        scoreCulture(content, page, region),
			Compliance:     scoreCompliance(page, region),
			UserExperience: scoreUserExperience(content, page),
			Confidence:     page.confidence(),
			Provider:       "local",
		}
		r.OverallScore = OverallScore(r)
		report.Results[region.Code] = r
	}
	return report
}

// pageText is the folded, NFC-normalized view of a page used for matching.
type pageText struct {
	all        string
	paragraphs int
	paraWords  int
	words      int
}

func newPageText(c Content) pageText {
	fold := cases.Fold()
	var parts []string
	parts = append(parts, c.Title)
	parts = append(parts, c.Text.Headings...)
	parts = append(parts, c.Text.Paragraphs...)
	parts = append(parts, c.Text.Buttons...)
	parts = append(parts, c.Text.Navigation...)
	for _, v := range c.Ecommerce {
		if s, ok := v.(string); ok {
			parts = append(parts, s)
		}
	}

	p := pageText{all: fold.String(norm.NFC.String(strings.Join(parts, "\n")))}
	for _, para := range c.Text.Paragraphs {
		p.paragraphs++
		p.paraWords += len(strings.Fields(para))
	}
	p.words = p.paraWords
	for _, h := range c.Text.Headings {
		p.words += len(strings.Fields(h))
	}
	return p
}

func (p pageText) contains(keywords []string) bool {
	fold := cases.Fold()
	for _, k := range keywords {
		if strings.Contains(p.all, fold.String(k)) {
			return true
		}
	}
	return false
}

func (p pageText) confidence() Confidence {
	switch {
	case p.words >= minWordsHigh:
		return ConfidenceHigh
	case p.words >= minWordsMedium:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

type scorer struct {
	score CategoryScore
}

func newScorer() *scorer {
	return &scorer{score: CategoryScore{Score: 100, Issues: []string{}, Suggestions: []string{}}}
}

func (s *scorer) penalize(points int, issue, suggestion string) {
	s.score.Score -= points
	s.score.Issues = append(s.score.Issues, issue)
	if suggestion != "" {
		s.score.Suggestions = append(s.score.Suggestions, suggestion)
	}
}

func (s *scorer) result() CategoryScore {
	s.score.Score = clampScore(s.score.Score)
	return s.score
}

func scoreLanguage(c Content, p pageText, r Region) CategoryScore {
	s := newScorer()

	if c.Language == "" {
		s.penalize(20, "Page does not declare a language", "Declare the page language with the html lang attribute")
	} else if len(r.Languages) > 0 {
		tag, err := language.Parse(c.Language)
		base, _ := tag.Base()
		if err != nil || !slices.Contains(r.Languages, base.String()) {
			s.penalize(40,
				fmt.Sprintf("Page language %q does not match %s (%s)", c.Language, r.Name, strings.Join(r.Languages, ", ")),
				fmt.Sprintf("Provide a %s localized version of the page", r.Languages[0]))
		}
	}
	if strings.TrimSpace(c.Title) == "" {
		s.penalize(10, "Page has no title", "Add a descriptive, localized page title")
	}
	if p.words < minWordsMedium {
		s.penalize(10, "Very little text to evaluate", "")
	}
	return s.result()
}

func scoreCulture(c Content, p pageText, r Region) CategoryScore {
	s := newScorer()

	if priceLike.MatchString(p.all) || len(c.Ecommerce) > 0 {
		local := append([]string{strings.ToLower(r.Currency)}, r.CurrencySymbols...)
		if r.Currency != "" && !p.contains(local) {
			s.penalize(30,
				fmt.Sprintf("Prices are not shown in %s", r.Currency),
				fmt.Sprintf("Display prices in %s for %s visitors", r.Currency, r.Name))
		}
	}

	if r.DateOrder != "" && r.DateOrder != YearMonthDay {
		for _, m := range numericDate.FindAllStringSubmatch(p.all, -1) {
			first, _ := strconv.Atoi(m[1])
			second, _ := strconv.Atoi(m[2])
			if (r.DateOrder == DayMonthYear && second > 12) || (r.DateOrder == MonthDayYear && first > 12) {
				s.penalize(10,
					fmt.Sprintf("Date %q uses an unfamiliar order for %s", m[0], r.Name),
					fmt.Sprintf("Format dates as %s", r.DateOrder))
				break
			}
		}
	}

	switch r.Measurement {
	case Metric:
		if imperialUnits.MatchString(p.all) {
			s.penalize(15, "Imperial units used for a metric market", "Show metric units (kg, km, °C)")
		}
	case Imperial:
		if metricUnits.MatchString(p.all) && !imperialUnits.MatchString(p.all) {
			s.penalize(10, "Only metric units used for an imperial market", "Add imperial units (lb, miles, °F)")
		}
	}
	return s.result()
}

func scoreCompliance(p pageText, r Region) CategoryScore {
	s := newScorer()
	for _, name := range r.Rules {
		rule, ok := ComplianceRules[name]
		if !ok || p.contains(rule.Keywords) {
			continue
		}
		issue := rule.Issue
		if len(r.Laws) > 0 {
			issue += " (" + strings.Join(r.Laws, ", ") + ")"
		}
		s.penalize(rule.Penalty, issue, rule.Suggestion)
	}
	return s.result()
}

func scoreUserExperience(c Content, p pageText) CategoryScore {
	s := newScorer()
	if len(c.Text.Headings) == 0 {
		s.penalize(20, "No headings found", "Structure the page with descriptive headings")
	}
	if len(c.Text.Buttons) == 0 {
		s.penalize(15, "No call-to-action buttons found", "Add a clear, localized call to action")
	}
	if len(c.Text.Navigation) == 0 {
		s.penalize(15, "No navigation found", "Provide site navigation")
	}
	if p.paragraphs > 0 && p.paraWords/p.paragraphs > maxAvgWords {
		s.penalize(10, "Paragraphs are long", "Break long paragraphs into shorter sections")
	}
	return s.result()
}

var _ LocalEngine = (*HeuristicEngine)(nil)
