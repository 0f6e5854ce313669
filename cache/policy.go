package cache

import (
	"net/url"
	"regexp"
	"strings"
	"time"
)

// Analysis types with a dedicated base TTL.
const (
	TypeLanguage           = "language"
	TypeCulture            = "culture"
	TypeCompliance         = "compliance"
	TypeUserExperience     = "userExperience"
	TypeComprehensive      = "comprehensive"
	TypeNetworkPerformance = "network-performance"
)

// DefaultSizeThreshold is the serialized content size above which the
// large-content multiplier applies.
const DefaultSizeThreshold = 50_000

// TTLOverrideOption is the option key carrying an explicit TTL as a
// duration string (for example "30m"). The override is still clamped.
const TTLOverrideOption = "ttlOverride"

// Default path patterns for page classification.
var (
	DefaultStaticPagePattern = regexp.MustCompile(`(?i)/(about|about-us|contact|privacy|privacy-policy|terms|legal|faq|help|imprint|impressum)(/|$)`)
	DefaultCommercePattern   = regexp.MustCompile(`(?i)/(product|products|item|items|shop|store|cart|checkout|p)(/|$)`)
)

// TTLPolicy decides how long an analysis result stays cached.
type TTLPolicy struct {
	// BaseTTL maps analysis types to their base TTL.
	BaseTTL map[string]time.Duration

	// DefaultTTL is used for analysis types missing from BaseTTL.
	// If zero, caching is disabled for unknown types.
	DefaultTTL time.Duration

	// MaxTTL is the ceiling applied after all adjustments.
	// If zero, no maximum is enforced.
	MaxTTL time.Duration

	// StaticPagePattern matches URL paths of rarely changing pages.
	StaticPagePattern *regexp.Regexp

	// CommercePattern matches URL paths of product/commerce pages.
	CommercePattern *regexp.Regexp

	StaticMultiplier    float64
	CommerceMultiplier  float64
	LargeSizeMultiplier float64

	// SizeThreshold is the serialized size in bytes above which
	// LargeSizeMultiplier applies.
	SizeThreshold int
}

// DefaultTTLPolicy returns the default analysis TTL policy.
func DefaultTTLPolicy() TTLPolicy {
	return TTLPolicy{
		BaseTTL: map[string]time.Duration{
			TypeLanguage:           24 * time.Hour,
			TypeCulture:            24 * time.Hour,
			TypeCompliance:         12 * time.Hour,
			TypeComprehensive:      6 * time.Hour,
			TypeUserExperience:     time.Hour,
			TypeNetworkPerformance: 5 * time.Minute,
		},
		DefaultTTL:          6 * time.Hour,
		MaxTTL:              7 * 24 * time.Hour,
		StaticPagePattern:   DefaultStaticPagePattern,
		CommercePattern:     DefaultCommercePattern,
		StaticMultiplier:    2.0,
		CommerceMultiplier:  1.5,
		LargeSizeMultiplier: 1.2,
		SizeThreshold:       DefaultSizeThreshold,
	}
}

// NoCachePolicy returns a policy that disables caching entirely.
func NoCachePolicy() TTLPolicy {
	return TTLPolicy{}
}

// Validate reports an inconsistent policy as a ConfigurationError.
func (p TTLPolicy) Validate() error {
	if p.DefaultTTL < 0 {
		return &ConfigurationError{Field: "DefaultTTL", Value: p.DefaultTTL, Err: ErrInvalidTTL}
	}
	if p.MaxTTL < 0 {
		return &ConfigurationError{Field: "MaxTTL", Value: p.MaxTTL, Err: ErrInvalidTTL}
	}
	if p.MaxTTL > 0 && p.DefaultTTL > p.MaxTTL {
		return &ConfigurationError{Field: "DefaultTTL", Value: p.DefaultTTL, Err: ErrInvalidTTL}
	}
	for name, ttl := range p.BaseTTL {
		if ttl < 0 {
			return &ConfigurationError{Field: "BaseTTL." + name, Value: ttl, Err: ErrInvalidTTL}
		}
	}
	for name, m := range map[string]float64{
		"StaticMultiplier":    p.StaticMultiplier,
		"CommerceMultiplier":  p.CommerceMultiplier,
		"LargeSizeMultiplier": p.LargeSizeMultiplier,
	} {
		if m < 0 {
			return &ConfigurationError{Field: name, Value: m, Err: ErrInvalidTTL}
		}
	}
	return nil
}

// ShouldCache returns true if caching is enabled by this policy.
func (p TTLPolicy) ShouldCache() bool {
	if p.DefaultTTL > 0 {
		return true
	}
	for _, ttl := range p.BaseTTL {
		if ttl > 0 {
			return true
		}
	}
	return false
}

// Base returns the unadjusted TTL for analysisType.
func (p TTLPolicy) Base(analysisType string) time.Duration {
	if ttl, ok := p.BaseTTL[analysisType]; ok {
		return ttl
	}
	return p.DefaultTTL
}

// TTLFor computes the TTL for a result. The path multipliers are exclusive
// (static wins over commerce); the size multiplier stacks with either.
func (p TTLPolicy) TTLFor(content any, analysisType string, options map[string]any) time.Duration {
	if override, ok := ttlOverride(options); ok {
		return p.EffectiveTTL(override)
	}

	base := p.Base(analysisType)
	if base <= 0 {
		return 0
	}

	factor := 1.0
	path := contentPath(content)
	switch {
	case path != "" && p.StaticPagePattern != nil && p.StaticPagePattern.MatchString(path):
		factor *= multiplier(p.StaticMultiplier)
	case path != "" && p.CommercePattern != nil && p.CommercePattern.MatchString(path):
		factor *= multiplier(p.CommerceMultiplier)
	}

	if p.SizeThreshold > 0 {
		if canonical, err := Canonicalize(content); err == nil && len(canonical) > p.SizeThreshold {
			factor *= multiplier(p.LargeSizeMultiplier)
		}
	}

	return p.EffectiveTTL(time.Duration(float64(base) * factor))
}

// EffectiveTTL returns the TTL to use, applying defaults and clamping.
func (p TTLPolicy) EffectiveTTL(override time.Duration) time.Duration {
	// Use default if no override (or negative override)
	ttl := override
	if ttl <= 0 {
		ttl = p.DefaultTTL
	}

	// Clamp to MaxTTL if set
	if p.MaxTTL > 0 && ttl > p.MaxTTL {
		ttl = p.MaxTTL
	}

	return ttl
}

func multiplier(m float64) float64 {
	if m <= 0 {
		return 1
	}
	return m
}

func ttlOverride(options map[string]any) (time.Duration, bool) {
	raw, ok := options[TTLOverrideOption]
	if !ok {
		return 0, false
	}
	switch v := raw.(type) {
	case time.Duration:
		return v, v > 0
	case string:
		d, err := time.ParseDuration(v)
		return d, err == nil && d > 0
	default:
		return 0, false
	}
}

// PageURLer is implemented by content that knows its page URL.
type PageURLer interface {
	PageURL() string
}

// contentPath extracts the URL path from content. Content may implement
// PageURLer or be a generic map with a "url" field.
func contentPath(content any) string {
	var raw string
	switch c := content.(type) {
	case PageURLer:
		raw = c.PageURL()
	case map[string]any:
		raw, _ = c["url"].(string)
	case string:
		raw = c
	}
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if u.Path == "" {
		return "/"
	}
	return strings.TrimSuffix(u.Path, "/") + "/"
}
