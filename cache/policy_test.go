package cache

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func approxTTL(t *testing.T, name string, got, want time.Duration) {
	t.Helper()
	diff := got - want
	if diff < 0 {
		diff = -diff
	}
	if diff > time.Millisecond {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func TestTTLPolicy_BaseTable(t *testing.T) {
	p := DefaultTTLPolicy()

	tests := []struct {
		analysisType string
		want         time.Duration
	}{
		{TypeLanguage, 24 * time.Hour},
		{TypeCulture, 24 * time.Hour},
		{TypeCompliance, 12 * time.Hour},
		{TypeComprehensive, 6 * time.Hour},
		{TypeUserExperience, time.Hour},
		{TypeNetworkPerformance, 5 * time.Minute},
		{"unknown", 6 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.analysisType, func(t *testing.T) {
			got := p.TTLFor(map[string]any{"url": "https://example.com/"}, tt.analysisType, nil)
			if got != tt.want {
				t.Errorf("TTLFor(%q) = %v, want %v", tt.analysisType, got, tt.want)
			}
		})
	}
}

func TestTTLPolicy_PathAdjustments(t *testing.T) {
	p := DefaultTTLPolicy()

	tests := []struct {
		name string
		url  string
		want time.Duration
	}{
		{"root page", "https://shop.example/", 6 * time.Hour},
		{"about page doubles", "https://shop.example/about", 12 * time.Hour},
		{"nested privacy page", "https://shop.example/en/privacy-policy/", 12 * time.Hour},
		{"imprint page", "https://shop.example/imprint", 12 * time.Hour},
		{"product page", "https://shop.example/products/42", 9 * time.Hour},
		{"short product path", "https://shop.example/p/42", 9 * time.Hour},
		{"checkout", "https://shop.example/checkout", 9 * time.Hour},
		{"pricing is not commerce", "https://shop.example/pricing", 6 * time.Hour},
		{"about in product path", "https://shop.example/products/about", 12 * time.Hour},
		{"case insensitive", "https://shop.example/FAQ", 12 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.TTLFor(map[string]any{"url": tt.url}, TypeComprehensive, nil)
			approxTTL(t, "TTLFor("+tt.url+")", got, tt.want)
		})
	}
}

type pageContent struct {
	URL  string `json:"url"`
	Body string `json:"body"`
}

func (c pageContent) PageURL() string { return c.URL }

func TestTTLPolicy_LargeContent(t *testing.T) {
	p := DefaultTTLPolicy()
	big := strings.Repeat("a", DefaultSizeThreshold+1)

	got := p.TTLFor(pageContent{URL: "https://shop.example/home", Body: big}, TypeCompliance, nil)
	approxTTL(t, "large content", got, time.Duration(float64(12*time.Hour)*1.2))

	got = p.TTLFor(pageContent{URL: "https://shop.example/products/1", Body: big}, TypeComprehensive, nil)
	approxTTL(t, "large commerce content", got, time.Duration(float64(6*time.Hour)*1.5*1.2))
}

func TestTTLPolicy_ClampedToMax(t *testing.T) {
	p := DefaultTTLPolicy()
	p.BaseTTL[TypeLanguage] = 5 * 24 * time.Hour

	got := p.TTLFor(map[string]any{"url": "https://example.com/about"}, TypeLanguage, nil)
	if got != p.MaxTTL {
		t.Errorf("TTLFor = %v, want MaxTTL %v", got, p.MaxTTL)
	}
}

func TestTTLPolicy_Override(t *testing.T) {
	p := DefaultTTLPolicy()
	content := map[string]any{"url": "https://example.com/about"}

	tests := []struct {
		name     string
		override any
		want     time.Duration
	}{
		{"duration string", "30m", 30 * time.Minute},
		{"duration value", 2 * time.Hour, 2 * time.Hour},
		{"clamped", "1000h", 7 * 24 * time.Hour},
		{"invalid string ignored", "soon", 48 * time.Hour},
		{"negative ignored", "-5m", 48 * time.Hour},
		{"wrong type ignored", 42, 48 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.TTLFor(content, TypeLanguage, map[string]any{TTLOverrideOption: tt.override})
			if got != tt.want {
				t.Errorf("TTLFor = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTTLPolicy_NoCache(t *testing.T) {
	p := NoCachePolicy()
	if p.ShouldCache() {
		t.Error("NoCachePolicy().ShouldCache() = true, want false")
	}
	if got := p.TTLFor(nil, TypeLanguage, nil); got != 0 {
		t.Errorf("TTLFor = %v, want 0", got)
	}
}

func TestTTLPolicy_Validate(t *testing.T) {
	if err := DefaultTTLPolicy().Validate(); err != nil {
		t.Errorf("DefaultTTLPolicy().Validate() = %v, want nil", err)
	}

	tests := []struct {
		name   string
		mutate func(*TTLPolicy)
		field  string
	}{
		{"negative default", func(p *TTLPolicy) { p.DefaultTTL = -1 }, "DefaultTTL"},
		{"negative max", func(p *TTLPolicy) { p.MaxTTL = -1 }, "MaxTTL"},
		{"default above max", func(p *TTLPolicy) { p.DefaultTTL = 8 * 24 * time.Hour }, "DefaultTTL"},
		{"negative base", func(p *TTLPolicy) { p.BaseTTL[TypeCulture] = -time.Second }, "BaseTTL.culture"},
		{"negative multiplier", func(p *TTLPolicy) { p.CommerceMultiplier = -1 }, "CommerceMultiplier"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultTTLPolicy()
			tt.mutate(&p)
			err := p.Validate()
			var cfgErr *ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("Validate() = %v, want *ConfigurationError", err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("Field = %q, want %q", cfgErr.Field, tt.field)
			}
		})
	}
}

func TestTTLPolicy_EffectiveTTLMatrix(t *testing.T) {
	tests := []struct {
		name       string
		defaultTTL time.Duration
		maxTTL     time.Duration
		override   time.Duration
		want       time.Duration
	}{
		{"no override uses default", 5 * time.Minute, 10 * time.Minute, 0, 5 * time.Minute},
		{"override within max", 5 * time.Minute, 10 * time.Minute, 7 * time.Minute, 7 * time.Minute},
		{"override exceeds max, clamped", 5 * time.Minute, 10 * time.Minute, 20 * time.Minute, 10 * time.Minute},
		{"default exceeds max, clamped", 15 * time.Minute, 10 * time.Minute, 0, 10 * time.Minute},
		{"no max TTL, override used as-is", 5 * time.Minute, 0, time.Hour, time.Hour},
		{"all zeros means no caching", 0, 0, 0, 0},
		{"negative override treated as zero (use default)", 5 * time.Minute, 10 * time.Minute, -time.Minute, 5 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := TTLPolicy{DefaultTTL: tt.defaultTTL, MaxTTL: tt.maxTTL}
			if got := p.EffectiveTTL(tt.override); got != tt.want {
				t.Errorf("EffectiveTTL(%v) = %v, want %v", tt.override, got, tt.want)
			}
		})
	}
}

func TestContentPath(t *testing.T) {
	tests := []struct {
		content any
		want    string
	}{
		{nil, ""},
		{map[string]any{"title": "no url"}, ""},
		{map[string]any{"url": "https://example.com"}, "/"},
		{map[string]any{"url": "https://example.com/a/b/"}, "/a/b/"},
		{pageContent{URL: "https://example.com/shop?x=1"}, "/shop/"},
		{"https://example.com/cart", "/cart/"},
	}
	for _, tt := range tests {
		if got := contentPath(tt.content); got != tt.want {
			t.Errorf("contentPath(%v) = %q, want %q", tt.content, got, tt.want)
		}
	}
}
