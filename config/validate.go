package config

import (
	"errors"
	"fmt"
	"slices"

	"github.com/jonwraymond/marketlens/analysis"
	"github.com/jonwraymond/marketlens/provider"
	"github.com/jonwraymond/marketlens/resilience"
)

// ErrInvalidConfig is matched by every ValidationError.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// ValidationError reports one invalid field.
type ValidationError struct {
	Field  string
	Value  any
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("config: invalid %s=%v: %s", e.Field, e.Value, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Is matches ErrInvalidConfig.
func (e *ValidationError) Is(target error) bool { return target == ErrInvalidConfig }

func invalid(field string, value any, reason string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return invalid("server.addr", c.Server.Addr, "required")
	}
	if c.Server.MaxBodyBytes <= 0 {
		return invalid("server.max_body_bytes", c.Server.MaxBodyBytes, "must be > 0")
	}

	if c.Cache.MaxEntries <= 0 {
		return invalid("cache.max_entries", c.Cache.MaxEntries, "must be > 0")
	}
	if c.Cache.SweepInterval < 0 {
		return invalid("cache.sweep_interval", c.Cache.SweepInterval, "must not be negative")
	}
	switch c.Cache.Backend {
	case BackendMemory, "":
	case BackendRedis:
		if c.Cache.Redis.Addr == "" {
			return invalid("cache.redis.addr", c.Cache.Redis.Addr, "required for the redis backend")
		}
	case BackendSQLite:
		if c.Cache.SQLitePath == "" {
			return invalid("cache.sqlite_path", c.Cache.SQLitePath, "required for the sqlite backend")
		}
	default:
		return invalid("cache.backend", c.Cache.Backend, "must be memory, redis or sqlite")
	}

	if c.Analysis.MaxConcurrency < 0 {
		return invalid("analysis.max_concurrency", c.Analysis.MaxConcurrency, "must not be negative")
	}
	if _, err := analysis.ParseStrategy(c.Analysis.MergeStrategy); err != nil {
		return &ValidationError{Field: "analysis.merge_strategy", Value: c.Analysis.MergeStrategy, Reason: "unknown strategy", Err: err}
	}

	if err := c.validateAI(); err != nil {
		return err
	}
	if err := c.validateAuth(); err != nil {
		return err
	}
	if err := c.Observe.Validate(); err != nil {
		return &ValidationError{Field: "observe", Value: c.Observe.ServiceName, Reason: "invalid telemetry config", Err: err}
	}
	return nil
}

func (c *Config) validateAI() error {
	if _, err := resilience.ParseBackoffStrategy(c.AI.Resilience.Backoff); err != nil {
		return &ValidationError{Field: "ai.resilience.backoff", Value: c.AI.Resilience.Backoff, Reason: "unknown backoff", Err: err}
	}
	reg, err := c.Registry()
	if err != nil {
		return &ValidationError{Field: "ai.specs", Value: len(c.AI.Specs), Reason: "invalid provider", Err: err}
	}
	for _, name := range c.AI.Providers {
		if _, err := reg.Lookup(name); err != nil {
			return &ValidationError{Field: "ai.providers", Value: name, Reason: "unknown provider", Err: err}
		}
	}
	for name := range c.AI.Keys {
		if _, err := reg.Lookup(name); err != nil {
			return &ValidationError{Field: "ai.keys", Value: name, Reason: "unknown provider", Err: err}
		}
	}
	if c.AI.Temperature < 0 || c.AI.Temperature > 2 {
		return invalid("ai.temperature", c.AI.Temperature, "must be between 0 and 2")
	}
	return nil
}

func (c *Config) validateAuth() error {
	if !c.Auth.Enabled {
		return nil
	}
	if len(c.Auth.APIKeys) == 0 && c.Auth.JWT.Secret == "" && !c.Auth.AllowAnonymous {
		return invalid("auth", "enabled", "needs api_keys, a jwt secret or allow_anonymous")
	}
	ids := make([]string, 0, len(c.Auth.APIKeys))
	for i, k := range c.Auth.APIKeys {
		field := fmt.Sprintf("auth.api_keys[%d]", i)
		if k.Key == "" && k.KeyHash == "" {
			return invalid(field, k.ID, "key or key_hash is required")
		}
		if k.Principal == "" {
			return invalid(field+".principal", k.ID, "required")
		}
		if k.ID != "" {
			if slices.Contains(ids, k.ID) {
				return invalid(field+".id", k.ID, "duplicate id")
			}
			ids = append(ids, k.ID)
		}
	}
	return nil
}

// Registry returns the built-in provider registry extended by AI.Specs.
func (c *Config) Registry() (*provider.Registry, error) {
	if len(c.AI.Specs) == 0 {
		return provider.DefaultRegistry(), nil
	}
	return provider.NewRegistry(append(provider.DefaultSpecs(), c.AI.Specs...)...)
}

// Strategy returns the configured merge strategy.
func (c *Config) Strategy() analysis.Strategy {
	s, _ := analysis.ParseStrategy(c.Analysis.MergeStrategy)
	return s
}
