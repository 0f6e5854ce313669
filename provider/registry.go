package provider

import (
	"errors"
	"fmt"
	"os"
	"slices"
)

// Format is the wire format of a provider's chat API.
type Format string

const (
	// FormatOpenAI is the OpenAI chat completions format, also spoken by
	// DeepSeek, Groq, Mistral and OpenRouter.
	FormatOpenAI Format = "openai"
	// FormatAnthropic is the Anthropic messages format.
	FormatAnthropic Format = "anthropic"
)

// Sentinel errors for the registry.
var (
	ErrDuplicateProvider = errors.New("provider: duplicate provider")
	ErrUnknownProvider   = errors.New("provider: unknown provider")
	ErrInvalidSpec       = errors.New("provider: invalid provider spec")
	ErrNoProvider        = errors.New("provider: no enabled provider has a key")
)

// Spec describes one provider endpoint.
type Spec struct {
	Name    string `yaml:"name" json:"name"`
	Format  Format `yaml:"format" json:"format"`
	BaseURL string `yaml:"base_url" json:"baseUrl"`
	Model   string `yaml:"model" json:"model"`
	// KeyEnv is the environment variable that conventionally holds the key.
	KeyEnv string `yaml:"key_env" json:"keyEnv"`
}

// Validate reports a spec that cannot be called.
func (s Spec) Validate() error {
	switch {
	case s.Name == "":
		return fmt.Errorf("%w: missing name", ErrInvalidSpec)
	case s.Format != FormatOpenAI && s.Format != FormatAnthropic:
		return fmt.Errorf("%w: %s: unknown format %q", ErrInvalidSpec, s.Name, s.Format)
	case s.BaseURL == "":
		return fmt.Errorf("%w: %s: missing base url", ErrInvalidSpec, s.Name)
	case s.Model == "":
		return fmt.Errorf("%w: %s: missing model", ErrInvalidSpec, s.Name)
	}
	return nil
}

// DefaultSpecs lists the built-in providers in preference order.
func DefaultSpecs() []Spec {
	return []Spec{
		{Name: "openai", Format: FormatOpenAI, BaseURL: "https://api.openai.com/v1", Model: "gpt-4o-mini", KeyEnv: "OPENAI_API_KEY"},
		{Name: "anthropic", Format: FormatAnthropic, BaseURL: "https://api.anthropic.com/v1", Model: "claude-3-5-haiku-latest", KeyEnv: "ANTHROPIC_API_KEY"},
		{Name: "deepseek", Format: FormatOpenAI, BaseURL: "https://api.deepseek.com/v1", Model: "deepseek-chat", KeyEnv: "DEEPSEEK_API_KEY"},
		{Name: "groq", Format: FormatOpenAI, BaseURL: "https://api.groq.com/openai/v1", Model: "llama-3.3-70b-versatile", KeyEnv: "GROQ_API_KEY"},
		{Name: "mistral", Format: FormatOpenAI, BaseURL: "https://api.mistral.ai/v1", Model: "mistral-small-latest", KeyEnv: "MISTRAL_API_KEY"},
		{Name: "openrouter", Format: FormatOpenAI, BaseURL: "https://openrouter.ai/api/v1", Model: "openai/gpt-4o-mini", KeyEnv: "OPENROUTER_API_KEY"},
	}
}

// Registry is an immutable, ordered set of provider specs.
type Registry struct {
	specs []Spec
}

// NewRegistry validates specs and keeps their order as preference order.
func NewRegistry(specs ...Spec) (*Registry, error) {
	seen := make(map[string]bool, len(specs))
	for _, s := range specs {
		if err := s.Validate(); err != nil {
			return nil, err
		}
		if seen[s.Name] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateProvider, s.Name)
		}
		seen[s.Name] = true
	}
	return &Registry{specs: slices.Clone(specs)}, nil
}

// DefaultRegistry returns a registry of DefaultSpecs.
func DefaultRegistry() *Registry {
	return &Registry{specs: DefaultSpecs()}
}

// Lookup returns the spec named name.
func (r *Registry) Lookup(name string) (Spec, error) {
	for _, s := range r.specs {
		if s.Name == name {
			return s, nil
		}
	}
	return Spec{}, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
}

// Names returns provider names in preference order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.specs))
	for i, s := range r.specs {
		names[i] = s.Name
	}
	return names
}

// Specs returns a copy of the specs in preference order.
func (r *Registry) Specs() []Spec {
	return slices.Clone(r.specs)
}

// KeyLookup returns the API key configured for a provider.
type KeyLookup func(spec Spec) (string, bool)

// EnvKeys looks keys up in the environment by Spec.KeyEnv.
func EnvKeys() KeyLookup {
	return func(s Spec) (string, bool) {
		if s.KeyEnv == "" {
			return "", false
		}
		v, ok := os.LookupEnv(s.KeyEnv)
		return v, ok && v != ""
	}
}

// MapKeys looks keys up by provider name, falling back to next when set.
func MapKeys(keys map[string]string, next KeyLookup) KeyLookup {
	return func(s Spec) (string, bool) {
		if v := keys[s.Name]; v != "" {
			return v, true
		}
		if next != nil {
			return next(s)
		}
		return "", false
	}
}

// EnabledSet returns a predicate enabling exactly names. An empty list
// enables every provider.
func EnabledSet(names ...string) func(string) bool {
	if len(names) == 0 {
		return func(string) bool { return true }
	}
	return func(name string) bool { return slices.Contains(names, name) }
}

// Select returns the first provider that is enabled and has a key.
func (r *Registry) Select(enabled func(name string) bool, keys KeyLookup) (Spec, string, error) {
	for _, s := range r.specs {
		if enabled != nil && !enabled(s.Name) {
			continue
		}
		if keys == nil {
			break
		}
		if key, ok := keys(s); ok {
			return s, key, nil
		}
	}
	return Spec{}, "", ErrNoProvider
}
