package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonwraymond/marketlens/analysis"
	"github.com/jonwraymond/marketlens/auth"
	"github.com/jonwraymond/marketlens/cache"
	"github.com/jonwraymond/marketlens/cache/redisstore"
	"github.com/jonwraymond/marketlens/cache/sqlitestore"
	"github.com/jonwraymond/marketlens/config"
	"github.com/jonwraymond/marketlens/health"
	"github.com/jonwraymond/marketlens/observe"
	"github.com/jonwraymond/marketlens/provider"
	"github.com/jonwraymond/marketlens/resilience"
)

// Runtime holds the components built from a Config. The HTTP server and
// the CLI share it.
type Runtime struct {
	Config       *config.Config
	Observer     observe.Observer
	Logger       observe.Logger
	Store        *cache.MemoryStore
	Orchestrator *analysis.Orchestrator
	Health       *health.Aggregator

	// Provider is nil when AI analysis is disabled or no provider has a key.
	Provider *provider.Client

	// Authenticator is nil when auth is disabled.
	Authenticator auth.Authenticator
	Authorizer    auth.Authorizer
}

// RuntimeOptions tweaks NewRuntime for embedding and tests.
type RuntimeOptions struct {
	// Keys overrides provider key lookup. Default: config keys, then the
	// provider's environment variable.
	Keys provider.KeyLookup

	// AI replaces the provider client.
	AI analysis.AIAnalyzer

	// SkipRestore leaves the cache backing unread at startup.
	SkipRestore bool
}

// NewRuntime builds every component described by cfg. Close releases them.
func NewRuntime(ctx context.Context, cfg *config.Config, opts RuntimeOptions) (*Runtime, error) {
	obs, err := observe.NewObserver(ctx, cfg.Observe)
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}
	rt := &Runtime{Config: cfg, Observer: obs, Logger: obs.Logger()}

	if err := rt.buildStore(ctx, opts.SkipRestore); err != nil {
		_ = obs.Shutdown(ctx)
		return nil, err
	}

	ai := opts.AI
	if ai == nil {
		if ai, err = rt.buildProvider(ctx, opts.Keys); err != nil {
			_ = rt.Close(ctx)
			return nil, err
		}
	}

	mw, err := observe.MiddlewareFromObserver(obs)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, err
	}
	orch, err := analysis.NewOrchestrator(analysis.Config{
		Store:          rt.Store,
		AI:             ai,
		Merger:         analysis.NewMerger(cfg.Strategy()),
		MaxConcurrency: cfg.Analysis.MaxConcurrency,
		Middleware:     mw,
	})
	if err != nil {
		_ = rt.Close(ctx)
		return nil, err
	}
	rt.Orchestrator = orch

	rt.Health = health.NewAggregator(health.AggregatorConfig{})
	rt.Health.Register(health.NewCacheChecker(rt.Store, health.CacheCheckerConfig{}))
	if rt.Provider != nil && rt.Provider.Breaker() != nil {
		rt.Health.Register(health.NewProviderChecker(rt.Provider.Breaker()))
	} else {
		rt.Health.Register(health.NewProviderChecker())
	}

	rt.buildAuth()
	return rt, nil
}

func (rt *Runtime) buildStore(ctx context.Context, skipRestore bool) error {
	cfg := rt.Config.Cache
	var backing cache.PersistentKV
	switch cfg.Backend {
	case config.BackendRedis:
		s, err := redisstore.New(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		backing = s
	case config.BackendSQLite:
		s, err := sqlitestore.New(cfg.SQLitePath)
		if err != nil {
			return err
		}
		backing = s
	}

	store, err := cache.NewMemoryStore(cache.StoreConfig{
		MaxEntries: cfg.MaxEntries,
		Backing:    backing,
		OnBackingError: func(op, key string, err error) {
			rt.Logger.Warn(context.Background(), "cache backing write failed",
				observe.F("op", op), observe.F("key", key), observe.F("error", err.Error()))
		},
	})
	if err != nil {
		if backing != nil {
			_ = backing.Close()
		}
		return err
	}
	rt.Store = store

	if backing != nil && !skipRestore {
		n, err := store.Restore(ctx)
		if err != nil {
			rt.Logger.Warn(ctx, "cache restore failed", observe.F("backend", cfg.Backend), observe.F("error", err.Error()))
		} else {
			rt.Logger.Info(ctx, "cache restored", observe.F("backend", cfg.Backend), observe.F("entries", n))
		}
	}
	return nil
}

// buildProvider returns nil, nil when AI analysis is off.
func (rt *Runtime) buildProvider(ctx context.Context, keys provider.KeyLookup) (analysis.AIAnalyzer, error) {
	cfg := rt.Config.AI
	if !cfg.Enabled {
		rt.Logger.Info(ctx, "ai analysis disabled by configuration")
		return nil, nil
	}
	reg, err := rt.Config.Registry()
	if err != nil {
		return nil, err
	}
	if keys == nil {
		keys = provider.MapKeys(cfg.Keys, provider.EnvKeys())
	}
	spec, key, err := reg.Select(provider.EnabledSet(cfg.Providers...), keys)
	if errors.Is(err, provider.ErrNoProvider) {
		rt.Logger.Warn(ctx, "ai analysis disabled: no provider key configured")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	exec, err := resilience.NewExecutorFromConfig(spec.Name, cfg.Resilience)
	if err != nil {
		return nil, err
	}
	client, err := provider.NewClient(provider.ClientConfig{
		Spec:        spec,
		APIKey:      key,
		Executor:    exec,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	})
	if err != nil {
		return nil, err
	}
	rt.Provider = client
	rt.Logger.Info(ctx, "ai provider selected", observe.F("provider", spec.Name), observe.F("model", spec.Model))
	return client, nil
}

func (rt *Runtime) buildAuth() {
	cfg := rt.Config.Auth
	rt.Authorizer = auth.DefaultRoleAuthorizer()
	if !cfg.Enabled {
		rt.Authorizer = auth.AllowAllAuthorizer{}
		return
	}

	var authns []auth.Authenticator
	if len(cfg.APIKeys) > 0 {
		store := auth.NewMemoryAPIKeyStore()
		for _, k := range cfg.APIKeys {
			hash := k.KeyHash
			if k.Key != "" {
				hash = auth.HashAPIKey(k.Key)
			}
			store.Add(auth.APIKeyInfo{
				ID:        k.ID,
				KeyHash:   hash,
				Principal: k.Principal,
				Roles:     k.Roles,
				ExpiresAt: k.ExpiresAt,
			})
		}
		authns = append(authns, auth.NewAPIKeyAuthenticator(auth.APIKeyConfig{}, store))
	}
	if cfg.JWT.Secret != "" {
		authns = append(authns, auth.NewJWTAuthenticator(auth.JWTConfig{
			Issuer:   cfg.JWT.Issuer,
			Audience: cfg.JWT.Audience,
			Leeway:   cfg.JWT.Leeway,
		}, auth.NewStaticKeyProvider([]byte(cfg.JWT.Secret))))
	}
	rt.Authenticator = auth.NewCompositeAuthenticator(authns...)
}

// RunSweeper removes expired cache entries until ctx is cancelled.
func (rt *Runtime) RunSweeper(ctx context.Context) error {
	s := &cache.Sweeper{
		Store:    rt.Store,
		Interval: rt.Config.Cache.SweepInterval,
		OnSweep: func(removed int) {
			if removed > 0 {
				rt.Logger.Debug(ctx, "cache sweep", observe.F("removed", removed))
			}
		},
	}
	err := s.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Close flushes and closes the cache, then shuts telemetry down.
func (rt *Runtime) Close(ctx context.Context) error {
	var errs []error
	if rt.Store != nil {
		if err := rt.Store.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close cache: %w", err))
		}
	}
	if rt.Observer != nil {
		if err := rt.Observer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown telemetry: %w", err))
		}
	}
	return errors.Join(errs...)
}
