package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/marketlens/cache"
	"github.com/jonwraymond/marketlens/observe"
)

// DefaultMaxConcurrency bounds concurrent region pipelines per request.
const DefaultMaxConcurrency = 4

// Config configures an Orchestrator.
type Config struct {
	// Store holds merged region results. Required.
	Store cache.Store

	// Engine runs local analysis. Default: HeuristicEngine
	Engine LocalEngine

	// AI enhances local results. Nil disables AI analysis.
	AI AIAnalyzer

	// Policy decides entry TTLs. Default: cache.DefaultTTLPolicy()
	Policy *cache.TTLPolicy

	// Hasher derives cache keys. Default: cache.ContentHasher
	Hasher cache.Hasher

	// Merger combines local and AI results. Default: weighted
	Merger *Merger

	// MaxConcurrency bounds region pipelines per request.
	// Default: DefaultMaxConcurrency
	MaxConcurrency int

	// Middleware instruments region pipelines. Default: no-op
	Middleware *observe.Middleware

	// NewRequestID generates request ids. Default: uuid.NewString
	NewRequestID func() string
}

// Orchestrator runs cache lookup, local analysis, optional AI analysis,
// merge and store for each requested region.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Fault isolation: a failing region never fails its siblings.
// - Errors: Analyze errors only on invalid input.
type Orchestrator struct {
	store       cache.Store
	loader      *cache.Loader
	engine      LocalEngine
	ai          AIAnalyzer
	merger      *Merger
	limit       int
	mw          *observe.Middleware
	newRequests func() string
}

// NewOrchestrator validates cfg and builds an Orchestrator.
func NewOrchestrator(cfg Config) (*Orchestrator, error) {
	if cfg.Store == nil {
		return nil, &ConfigurationError{Field: "Store", Value: nil, Err: ErrNilStore}
	}
	if cfg.MaxConcurrency < 0 {
		return nil, &ConfigurationError{Field: "MaxConcurrency", Value: cfg.MaxConcurrency, Err: fmt.Errorf("must not be negative")}
	}

	policy := cache.DefaultTTLPolicy()
	if cfg.Policy != nil {
		policy = *cfg.Policy
	}
	loader, err := cache.NewLoader(cfg.Store, cfg.Hasher, policy, nil)
	if err != nil {
		return nil, err
	}

	o := &Orchestrator{
		store:       cfg.Store,
		loader:      loader,
		engine:      cfg.Engine,
		ai:          cfg.AI,
		merger:      cfg.Merger,
		limit:       cfg.MaxConcurrency,
		mw:          cfg.Middleware,
		newRequests: cfg.NewRequestID,
	}
	if o.engine == nil {
		o.engine = NewHeuristicEngine()
	}
	if o.merger == nil {
		o.merger = NewMerger(StrategyWeighted)
	}
	if o.limit == 0 {
		o.limit = DefaultMaxConcurrency
	}
	if o.mw == nil {
		o.mw = observe.NewNoopMiddleware()
	}
	if o.newRequests == nil {
		o.newRequests = uuid.NewString
	}
	return o, nil
}

// AIProvider returns the name of the AI analyzer, or "" when disabled.
func (o *Orchestrator) AIProvider() string {
	if o.ai == nil {
		return ""
	}
	return o.ai.Name()
}

// Analyze scores content for every region. It returns an error only when
// regions is empty or holds an invalid code; every other failure is
// confined to its region.
func (o *Orchestrator) Analyze(ctx context.Context, content Content, regions []string, opts Options) (MergedAnalysisResult, error) {
	codes, err := NormalizeRegions(regions)
	if err != nil {
		return MergedAnalysisResult{}, err
	}
	if opts.RequestID == "" {
		opts.RequestID = o.newRequests()
	}

	out := MergedAnalysisResult{
		RequestID:    opts.RequestID,
		AnalysisType: opts.analysisType(),
		Regions:      make(map[string]RegionAnalysisResult, len(codes)),
		States:       make(map[string]RegionStatus, len(codes)),
	}

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(o.limit)
	for _, code := range codes {
		g.Go(func() error {
			res := o.runRegion(ctx, content, code, opts)
			mu.Lock()
			defer mu.Unlock()
			out.Regions[code] = res.result
			out.States[code] = res.status
			if res.err != nil {
				if out.Errors == nil {
					out.Errors = make(map[string]string)
				}
				out.Errors[code] = res.err.Error()
			}
			return nil
		})
	}
	_ = g.Wait()
	return out, nil
}

type regionOutcome struct {
	result RegionAnalysisResult
	status RegionStatus
	err    error
}

func (o *Orchestrator) runRegion(ctx context.Context, content Content, region string, opts Options) regionOutcome {
	meta := observe.RegionMeta{
		Region:       region,
		AnalysisType: opts.analysisType(),
		Provider:     o.providerFor(opts),
		RequestID:    opts.RequestID,
	}

	var out regionOutcome
	_ = o.mw.Wrap(func(ctx context.Context, meta observe.RegionMeta) error {
		out = o.pipeline(ctx, content, meta, opts)
		return out.err
	})(ctx, meta)
	return out
}

func (o *Orchestrator) providerFor(opts Options) string {
	if opts.SkipAI {
		return ""
	}
	return o.AIProvider()
}

func (o *Orchestrator) pipeline(ctx context.Context, content Content, meta observe.RegionMeta, opts Options) regionOutcome {
	state := newRegionState()
	logger := o.mw.Logger().WithRegion(meta)
	metrics := o.mw.Metrics()

	fail := func(partial *RegionAnalysisResult, err error) regionOutcome {
		state.fail()
		r := FallbackResult(meta.Region, err.Error())
		if partial != nil {
			r = partial.Clone()
		}
		return regionOutcome{result: r, status: state.status, err: err}
	}

	if err := ctx.Err(); err != nil {
		return fail(nil, err)
	}

	var (
		ran     bool
		partial *RegionAnalysisResult
	)
	compute := func(ctx context.Context) ([]byte, bool, error) {
		ran = true

		local, degraded := o.runLocal(ctx, content, meta, logger)
		if err := state.advance(StatusLocalDone); err != nil {
			return nil, false, err
		}
		partial = &local
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}

		aiResult, attempted := o.runAI(ctx, content, meta, logger)
		var merged RegionAnalysisResult
		if aiResult != nil {
			if err := state.advance(StatusAIDone); err != nil {
				return nil, false, err
			}
			merged = o.merger.MergeRegion(local, aiResult)
		} else {
			if err := state.advance(StatusAISkipped); err != nil {
				return nil, false, err
			}
			merged = o.merger.MergeRegion(local, nil)
			if attempted {
				markAIUnavailable(&merged)
				degraded = true
			}
		}
		if err := state.advance(StatusMerged); err != nil {
			return nil, false, err
		}
		partial = &merged
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}

		payload, err := json.Marshal(merged)
		if err != nil {
			return nil, false, err
		}
		return payload, !degraded, nil
	}

	res, err := o.loader.Load(ctx, regionContent{Content: content, Region: meta.Region}, meta.AnalysisType, opts.cacheOptions(o.providerFor(opts)), compute)
	if err != nil {
		return fail(partial, err)
	}
	if !opts.ForceRefresh {
		metrics.RecordCacheLookup(ctx, meta, res.FromCache)
	}

	var result RegionAnalysisResult
	if err := json.Unmarshal(res.Value, &result); err != nil {
		o.store.Remove(ctx, string(res.Key))
		logger.Warn(ctx, "dropped undecodable cache entry", observe.F("key", res.Key.String()), observe.F("error", err))
		return fail(partial, fmt.Errorf("analysis: decode result: %w", err))
	}
	result.Region = meta.Region
	result.FromCache = res.FromCache

	if ran && res.Stored {
		_ = state.advance(StatusCached)
	}
	_ = state.advance(StatusComplete)

	logger.Debug(ctx, "region result ready",
		observe.F("from_cache", res.FromCache),
		observe.F("shared", res.Shared),
		observe.F("ttl", res.TTL),
		observe.F("overall_score", result.OverallScore))
	return regionOutcome{result: result, status: state.status}
}

// runLocal never fails: errors and panics yield a fallback result, reported
// as degraded so it is not cached.
func (o *Orchestrator) runLocal(ctx context.Context, content Content, meta observe.RegionMeta, logger observe.Logger) (result RegionAnalysisResult, degraded bool) {
	fallback := func(reason string) {
		logger.Warn(ctx, "local analysis failed, using fallback", observe.F("reason", reason))
		o.mw.Metrics().RecordFallback(ctx, meta, ReasonLocal)
		result, degraded = FallbackResult(meta.Region, reason), true
	}
	defer func() {
		if p := recover(); p != nil {
			fallback(fmt.Sprintf("panic: %v", p))
		}
	}()

	report := o.engine.Analyze(ctx, content, []string{meta.Region})
	if err := report.Errors[meta.Region]; err != nil {
		fallback(err.Error())
		return result, degraded
	}
	r, ok := report.Results[meta.Region]
	if !ok {
		fallback("no result")
		return result, degraded
	}
	return r, false
}

// runAI returns nil when AI is disabled, skipped, or failed. attempted is
// true when a provider call was made.
func (o *Orchestrator) runAI(ctx context.Context, content Content, meta observe.RegionMeta, logger observe.Logger) (*RegionAnalysisResult, bool) {
	if meta.Provider == "" {
		return nil, false
	}

	r, err := o.ai.AnalyzeForRegion(ctx, content, meta.Region, AIOptions{
		AnalysisType: meta.AnalysisType,
		RequestID:    meta.RequestID,
	})
	if err != nil {
		reason := FallbackReason(err)
		o.mw.Metrics().RecordFallback(ctx, meta, reason)
		logger.Warn(ctx, "ai analysis failed, using local result", observe.F("reason", reason), observe.F("error", err))
		return nil, true
	}
	r.Region = meta.Region
	if r.Provider == "" {
		r.Provider = meta.Provider
	}
	return &r, true
}

// CacheStats returns the store counters.
func (o *Orchestrator) CacheStats() cache.Stats {
	return o.store.Stats()
}

// ClearCache removes matching entries and returns how many were removed.
// An empty pattern clears everything. A pattern containing any of *?[ is a
// glob matched against the full key; anything else matches as a substring.
func (o *Orchestrator) ClearCache(ctx context.Context, pattern string) int {
	if pattern == "" {
		return o.store.Clear(ctx)
	}
	return o.store.DeleteByPattern(ctx, KeyMatcher(pattern))
}

// EntryInfo describes one cached region result without its payload.
type EntryInfo struct {
	Key            string        `json:"key"`
	Region         string        `json:"region,omitempty"`
	OverallScore   int           `json:"overallScore"`
	AIEnhanced     bool          `json:"aiEnhanced"`
	CreatedAt      time.Time     `json:"createdAt"`
	ExpiresAt      time.Time     `json:"expiresAt"`
	LastAccessedAt time.Time     `json:"lastAccessedAt"`
	AccessCount    int64         `json:"accessCount"`
	SizeBytes      int           `json:"sizeBytes"`
	TTL            time.Duration `json:"ttl"`
}

// CacheEntries lists live entries matching pattern (see ClearCache), sorted
// by key.
func (o *Orchestrator) CacheEntries(ctx context.Context, pattern string) []EntryInfo {
	var match func(string) bool
	if pattern != "" {
		match = KeyMatcher(pattern)
	}
	now := time.Now()
	entries := o.store.Entries(ctx, match)
	out := make([]EntryInfo, 0, len(entries))
	for _, e := range entries {
		fields := gjson.GetManyBytes(e.Value, "region", "overallScore", "aiEnhanced")
		out = append(out, EntryInfo{
			Key:            e.Key,
			Region:         fields[0].String(),
			OverallScore:   int(fields[1].Int()),
			AIEnhanced:     fields[2].Bool(),
			CreatedAt:      e.CreatedAt,
			ExpiresAt:      e.ExpiresAt,
			LastAccessedAt: e.LastAccessedAt,
			AccessCount:    e.AccessCount,
			SizeBytes:      e.SizeBytes,
			TTL:            e.TTL(now),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// KeyMatcher builds the key predicate for a ClearCache pattern. A malformed
// glob matches nothing.
func KeyMatcher(pattern string) func(string) bool {
	if strings.ContainsAny(pattern, "*?[") {
		return func(key string) bool {
			ok, err := path.Match(pattern, key)
			return err == nil && ok
		}
	}
	return func(key string) bool { return strings.Contains(key, pattern) }
}
