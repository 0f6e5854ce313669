package config

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jonwraymond/marketlens/cache"
	"github.com/jonwraymond/marketlens/cache/redisstore"
	"github.com/jonwraymond/marketlens/observe"
	"github.com/jonwraymond/marketlens/provider"
	"github.com/jonwraymond/marketlens/resilience"
	"github.com/jonwraymond/marketlens/secret"
)

// ServiceName is the default telemetry service name.
const ServiceName = "marketlens"

// Cache backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// Config holds all marketlens configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Cache    CacheConfig    `yaml:"cache"`
	Analysis AnalysisConfig `yaml:"analysis"`
	AI       AIConfig       `yaml:"ai"`
	Auth     AuthConfig     `yaml:"auth"`
	Observe  observe.Config `yaml:"observe"`

	// Secrets configures secret providers by name (env, file).
	Secrets map[string]map[string]any `yaml:"secrets"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
}

// CacheConfig controls the analysis cache and its optional backing.
type CacheConfig struct {
	MaxEntries    int           `yaml:"max_entries"`
	SweepInterval time.Duration `yaml:"sweep_interval"`

	// Backend is memory, redis or sqlite.
	Backend    string            `yaml:"backend"`
	Redis      redisstore.Config `yaml:"redis"`
	SQLitePath string            `yaml:"sqlite_path"`
}

// AnalysisConfig controls the orchestrator.
type AnalysisConfig struct {
	MaxConcurrency int    `yaml:"max_concurrency"`
	MergeStrategy  string `yaml:"merge_strategy"` // weighted|max
}

// AIConfig selects and configures the AI provider.
type AIConfig struct {
	Enabled bool `yaml:"enabled"`

	// Providers restricts selection to these names, in registry order.
	// Empty enables every provider.
	Providers []string `yaml:"providers"`

	// Keys maps provider name to API key. Providers without an entry fall
	// back to their conventional environment variable.
	Keys map[string]string `yaml:"keys"`

	// Specs adds providers to the built-in registry.
	Specs []provider.Spec `yaml:"specs"`

	Resilience  resilience.Config `yaml:"resilience"`
	MaxTokens   int               `yaml:"max_tokens"`
	Temperature float64           `yaml:"temperature"`
}

// AuthConfig controls backend access control.
type AuthConfig struct {
	Enabled        bool           `yaml:"enabled"`
	AllowAnonymous bool           `yaml:"allow_anonymous"`
	AnonymousRoles []string       `yaml:"anonymous_roles"`
	APIKeys        []APIKeyConfig `yaml:"api_keys"`
	JWT            JWTConfig      `yaml:"jwt"`
}

// APIKeyConfig declares one API key. Either Key (plaintext, may be a
// secretref) or KeyHash (sha256 hex) is required.
type APIKeyConfig struct {
	ID        string    `yaml:"id"`
	Key       string    `yaml:"key"`
	KeyHash   string    `yaml:"key_hash"`
	Principal string    `yaml:"principal"`
	Roles     []string  `yaml:"roles"`
	ExpiresAt time.Time `yaml:"expires_at"`
}

// JWTConfig configures HS256 bearer tokens. An empty Secret disables JWT.
type JWTConfig struct {
	Secret   string        `yaml:"secret"`
	Issuer   string        `yaml:"issuer"`
	Audience string        `yaml:"audience"`
	Leeway   time.Duration `yaml:"leeway"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    2 * time.Minute,
			ShutdownTimeout: 15 * time.Second,
			MaxBodyBytes:    2 << 20,
		},
		Cache: CacheConfig{
			MaxEntries:    cache.DefaultMaxEntries,
			SweepInterval: cache.DefaultSweepInterval,
			Backend:       BackendMemory,
			Redis:         redisstore.DefaultConfig(),
			SQLitePath:    "marketlens.db",
		},
		Analysis: AnalysisConfig{
			MaxConcurrency: 4,
			MergeStrategy:  "weighted",
		},
		AI: AIConfig{
			Enabled:    true,
			Resilience: resilience.DefaultConfig(),
		},
		Auth: AuthConfig{
			JWT: JWTConfig{Issuer: ServiceName, Leeway: 30 * time.Second},
		},
		Observe: observe.DefaultConfig(ServiceName),
	}
}

// Load reads a YAML config file, expands environment variables, resolves
// secret references and validates the result.
func Load(ctx context.Context, path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(ctx, data)
}

// Parse is Load for in-memory YAML.
func Parse(ctx context.Context, data []byte) (*Config, error) {
	expanded, err := secret.ExpandEnvStrict(string(data))
	if err != nil {
		return nil, fmt.Errorf("expand config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.ResolveSecrets(ctx); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ResolveSecrets replaces secretref values in secret-bearing fields.
func (c *Config) ResolveSecrets(ctx context.Context) error {
	providers, err := secret.NewDefaultRegistry().Build(c.Secrets)
	if err != nil {
		return fmt.Errorf("build secret providers: %w", err)
	}
	resolver := secret.NewResolver(true, providers...)
	defer func() { _ = resolver.Close() }()

	resolve := func(field string, v *string) error {
		if !secret.IsSecretRef(*v) {
			return nil
		}
		out, err := resolver.ResolveValue(ctx, *v)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", field, err)
		}
		*v = out
		return nil
	}

	keys := make(map[string]string, len(c.AI.Keys))
	for name, v := range c.AI.Keys {
		if err := resolve("ai.keys."+name, &v); err != nil {
			return err
		}
		keys[name] = v
	}
	if c.AI.Keys != nil {
		c.AI.Keys = keys
	}
	for i := range c.Auth.APIKeys {
		field := fmt.Sprintf("auth.api_keys[%d].key", i)
		if err := resolve(field, &c.Auth.APIKeys[i].Key); err != nil {
			return err
		}
	}
	if err := resolve("auth.jwt.secret", &c.Auth.JWT.Secret); err != nil {
		return err
	}
	return resolve("cache.redis.password", &c.Cache.Redis.Password)
}
