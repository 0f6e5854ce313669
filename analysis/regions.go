package analysis

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Measurement is the unit system a market expects.
type Measurement string

const (
	Metric   Measurement = "metric"
	Imperial Measurement = "imperial"
)

// DateOrder is the customary day/month order of numeric dates.
type DateOrder string

const (
	DayMonthYear DateOrder = "DMY"
	MonthDayYear DateOrder = "MDY"
	YearMonthDay DateOrder = "YMD"
)

// Region describes a target market.
type Region struct {
	Code            string      `json:"code"`
	Name            string      `json:"name"`
	Languages       []string    `json:"languages"`
	Currency        string      `json:"currency"`
	CurrencySymbols []string    `json:"currencySymbols,omitempty"`
	DateOrder       DateOrder   `json:"dateOrder"`
	Measurement     Measurement `json:"measurement"`
	Laws            []string    `json:"laws,omitempty"`

	// Rules names the compliance rules checked for this market.
	Rules []string `json:"rules,omitempty"`

	// Catalogued is false for regions derived from CLDR data only.
	Catalogued bool `json:"catalogued"`
}

var gdprRules = []string{RulePrivacy, RuleCookieConsent, RuleTerms}

// Catalogue is the built-in set of well-known markets, keyed by code.
var Catalogue = map[string]Region{
	"US": {Code: "US", Name: "United States", Languages: []string{"en", "es"}, Currency: "USD", CurrencySymbols: []string{"$", "US$"}, DateOrder: MonthDayYear, Measurement: Imperial, Laws: []string{"CCPA", "ADA"}, Rules: []string{RulePrivacy, RuleDoNotSell, RuleTerms}},
	"CA": {Code: "CA", Name: "Canada", Languages: []string{"en", "fr"}, Currency: "CAD", CurrencySymbols: []string{"CA$", "C$", "$"}, DateOrder: YearMonthDay, Measurement: Metric, Laws: []string{"PIPEDA", "CASL"}, Rules: []string{RulePrivacy, RuleTerms}},
	"MX": {Code: "MX", Name: "Mexico", Languages: []string{"es"}, Currency: "MXN", CurrencySymbols: []string{"MX$", "$"}, DateOrder: DayMonthYear, Measurement: Metric, Laws: []string{"LFPDPPP"}, Rules: []string{RulePrivacy, RuleTerms}},
	"BR": {Code: "BR", Name: "Brazil", Languages: []string{"pt"}, Currency: "BRL", CurrencySymbols: []string{"R$"}, DateOrder: DayMonthYear, Measurement: Metric, Laws: []string{"LGPD"}, Rules: []string{RulePrivacy, RuleCookieConsent, RuleTerms}},
	"GB": {Code: "GB", Name: "United Kingdom", Languages: []string{"en"}, Currency: "GBP", CurrencySymbols: []string{"£"}, DateOrder: DayMonthYear, Measurement: Metric, Laws: []string{"UK GDPR", "PECR"}, Rules: gdprRules},
	"IE": {Code: "IE", Name: "Ireland", Languages: []string{"en", "ga"}, Currency: "EUR", CurrencySymbols: []string{"€"}, DateOrder: DayMonthYear, Measurement: Metric, Laws: []string{"GDPR"}, Rules: gdprRules},
	"DE": {Code: "DE", Name: "Germany", Languages: []string{"de"}, Currency: "EUR", CurrencySymbols: []string{"€"}, DateOrder: DayMonthYear, Measurement: Metric, Laws: []string{"GDPR", "TMG", "TTDSG"}, Rules: append(slices.Clone(gdprRules), RuleImprint)},
	"AT": {Code: "AT", Name: "Austria", Languages: []string{"de"}, Currency: "EUR", CurrencySymbols: []string{"€"}, DateOrder: DayMonthYear, Measurement: Metric, Laws: []string{"GDPR", "ECG"}, Rules: append(slices.Clone(gdprRules), RuleImprint)},
	"CH": {Code: "CH", Name: "Switzerland", Languages: []string{"de", "fr", "it"}, Currency: "CHF", CurrencySymbols: []string{"CHF", "Fr."}, DateOrder: DayMonthYear, Measurement: Metric, Laws: []string{"nFADP"}, Rules: []string{RulePrivacy, RuleImprint, RuleTerms}},
	"FR": {Code: "FR", Name: "France", Languages: []string{"fr"}, Currency: "EUR", CurrencySymbols: []string{"€"}, DateOrder: DayMonthYear, Measurement: Metric, Laws: []string{"GDPR", "LCEN"}, Rules: append(slices.Clone(gdprRules), RuleLegalNotice)},
	"ES": {Code: "ES", Name: "Spain", Languages: []string{"es", "ca"}, Currency: "EUR", CurrencySymbols: []string{"€"}, DateOrder: DayMonthYear, Measurement: Metric, Laws: []string{"GDPR", "LSSI"}, Rules: append(slices.Clone(gdprRules), RuleLegalNotice)},
	"IT": {Code: "IT", Name: "Italy", Languages: []string{"it"}, Currency: "EUR", CurrencySymbols: []string{"€"}, DateOrder: DayMonthYear, Measurement: Metric, Laws: []string{"GDPR"}, Rules: gdprRules},
	"NL": {Code: "NL", Name: "Netherlands", Languages: []string{"nl"}, Currency: "EUR", CurrencySymbols: []string{"€"}, DateOrder: DayMonthYear, Measurement: Metric, Laws: []string{"GDPR"}, Rules: gdprRules},
	"JP": {Code: "JP", Name: "Japan", Languages: []string{"ja"}, Currency: "JPY", CurrencySymbols: []string{"¥", "円"}, DateOrder: YearMonthDay, Measurement: Metric, Laws: []string{"APPI", "Act on Specified Commercial Transactions"}, Rules: []string{RulePrivacy, RuleCommercialDisclosure}},
	"CN": {Code: "CN", Name: "China", Languages: []string{"zh"}, Currency: "CNY", CurrencySymbols: []string{"¥", "元", "CN¥"}, DateOrder: YearMonthDay, Measurement: Metric, Laws: []string{"PIPL"}, Rules: []string{RulePrivacy, RuleTerms}},
	"KR": {Code: "KR", Name: "South Korea", Languages: []string{"ko"}, Currency: "KRW", CurrencySymbols: []string{"₩", "원"}, DateOrder: YearMonthDay, Measurement: Metric, Laws: []string{"PIPA"}, Rules: []string{RulePrivacy, RuleTerms}},
	"IN": {Code: "IN", Name: "India", Languages: []string{"en", "hi"}, Currency: "INR", CurrencySymbols: []string{"₹", "Rs."}, DateOrder: DayMonthYear, Measurement: Metric, Laws: []string{"DPDP Act"}, Rules: []string{RulePrivacy, RuleTerms}},
	"AU": {Code: "AU", Name: "Australia", Languages: []string{"en"}, Currency: "AUD", CurrencySymbols: []string{"A$", "AU$", "$"}, DateOrder: DayMonthYear, Measurement: Metric, Laws: []string{"Privacy Act 1988", "ACL"}, Rules: []string{RulePrivacy, RuleTerms}},
}

func init() {
	for code, r := range Catalogue {
		r.Catalogued = true
		Catalogue[code] = r
	}
}

// NormalizeRegionCode upper-cases and validates an ISO 3166-1 alpha-2 code.
func NormalizeRegionCode(code string) (string, error) {
	c := strings.ToUpper(strings.TrimSpace(code))
	if len(c) != 2 || c[0] < 'A' || c[0] > 'Z' || c[1] < 'A' || c[1] > 'Z' {
		return "", fmt.Errorf("%w: %q", ErrInvalidRegion, code)
	}
	r, err := language.ParseRegion(c)
	if err != nil || !r.IsCountry() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRegion, code)
	}
	return r.String(), nil
}

// NormalizeRegions validates codes and removes duplicates, keeping the
// first occurrence order.
func NormalizeRegions(codes []string) ([]string, error) {
	if len(codes) == 0 {
		return nil, ErrNoRegions
	}
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		c, err := NormalizeRegionCode(code)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	return out, nil
}

// LookupRegion returns the catalogue entry for code. Codes missing from
// the catalogue are derived from CLDR data: likely language, currency and
// English display name.
func LookupRegion(code string) (Region, error) {
	c, err := NormalizeRegionCode(code)
	if err != nil {
		return Region{}, err
	}
	if r, ok := Catalogue[c]; ok {
		return r, nil
	}

	lr := language.MustParseRegion(c)
	r := Region{
		Code:        c,
		Name:        display.English.Regions().Name(lr),
		DateOrder:   DayMonthYear,
		Measurement: Metric,
		Rules:       []string{RulePrivacy},
	}
	if base, conf := language.Make("und-" + c).Base(); conf != language.No {
		r.Languages = []string{base.String()}
	}
	if unit, ok := currency.FromRegion(lr); ok {
		r.Currency = unit.String()
	}
	return r, nil
}

// RegionCodes returns the catalogue codes in sorted order.
func RegionCodes() []string {
	codes := make([]string, 0, len(Catalogue))
	for c := range Catalogue {
		codes = append(codes, c)
	}
	slices.Sort(codes)
	return codes
}
