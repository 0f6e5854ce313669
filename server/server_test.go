package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonwraymond/marketlens/analysis"
	"github.com/jonwraymond/marketlens/auth"
	"github.com/jonwraymond/marketlens/cache"
	"github.com/jonwraymond/marketlens/config"
	"github.com/jonwraymond/marketlens/provider"
)

type stubAI struct {
	calls atomic.Int32
}

func (s *stubAI) Name() string { return "stub" }

func (s *stubAI) AnalyzeForRegion(_ context.Context, _ analysis.Content, region string, _ analysis.AIOptions) (analysis.RegionAnalysisResult, error) {
	s.calls.Add(1)
	sc := analysis.CategoryScore{Score: 90, Issues: []string{}, Suggestions: []string{}}
	return analysis.RegionAnalysisResult{
		Region: region, Language: sc, Culture: sc, Compliance: sc, UserExperience: sc,
		AIEnhanced: true, Confidence: analysis.ConfidenceHigh,
	}, nil
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Observe.Logging.Enabled = false
	cfg.Server.MaxBodyBytes = 4 << 10
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config) (*Server, *Runtime, *stubAI) {
	t.Helper()
	ai := &stubAI{}
	rt, err := NewRuntime(context.Background(), cfg, RuntimeOptions{AI: ai})
	if err != nil {
		t.Fatalf("NewRuntime = %v", err)
	}
	t.Cleanup(func() { _ = rt.Close(context.Background()) })
	return New(rt), rt, ai
}

func analyzeBody(regions ...string) *bytes.Reader {
	b, _ := json.Marshal(AnalyzeRequest{
		Content: analysis.Content{URL: "https://shop.example", Title: "Shop", Language: "en"},
		Regions: regions,
	})
	return bytes.NewReader(b)
}

func do(s http.Handler, method, target string, body *bytes.Reader, header http.Header) *httptest.ResponseRecorder {
	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, body)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestAnalyze(t *testing.T) {
	s, _, ai := newTestServer(t, testConfig())

	h := http.Header{}
	h.Set(RequestIDHeader, "req-42")
	rec := do(s, http.MethodPost, "/v1/analyze", analyzeBody("us", "DE"), h)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if got := rec.Header().Get(RequestIDHeader); got != "req-42" {
		t.Errorf("%s = %q, want req-42", RequestIDHeader, got)
	}

	var res analysis.MergedAnalysisResult
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.RequestID != "req-42" {
		t.Errorf("RequestID = %q, want req-42", res.RequestID)
	}
	if len(res.Regions) != 2 || !res.Complete() {
		t.Errorf("regions = %d, complete = %v", len(res.Regions), res.Complete())
	}
	if !res.Regions["US"].AIEnhanced {
		t.Error("US should be AI enhanced")
	}
	if got := ai.calls.Load(); got != 2 {
		t.Errorf("ai calls = %d, want 2", got)
	}

	rec = do(s, http.MethodPost, "/v1/analyze", analyzeBody("US", "DE"), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := ai.calls.Load(); got != 2 {
		t.Errorf("second request should be served from cache, ai calls = %d", got)
	}
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Error("a request id should be generated")
	}
}

func TestAnalyze_BadRequests(t *testing.T) {
	s, _, _ := newTestServer(t, testConfig())

	tests := []struct {
		name string
		body *bytes.Reader
		want int
	}{
		{"no regions", analyzeBody(), http.StatusBadRequest},
		{"invalid region", analyzeBody("XX1"), http.StatusBadRequest},
		{"not json", bytes.NewReader([]byte("{")), http.StatusBadRequest},
		{"too large", bytes.NewReader([]byte(`{"content":{"title":"` + strings.Repeat("a", 8<<10) + `"}}`)), http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(s, http.MethodPost, "/v1/analyze", tt.body, nil)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.want, rec.Body)
			}
		})
	}
}

func TestRegions(t *testing.T) {
	s, _, _ := newTestServer(t, testConfig())
	rec := do(s, http.MethodGet, "/v1/regions", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var regions []analysis.Region
	if err := json.NewDecoder(rec.Body).Decode(&regions); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(regions) != len(analysis.Catalogue) {
		t.Errorf("regions = %d, want %d", len(regions), len(analysis.Catalogue))
	}
	for i := 1; i < len(regions); i++ {
		if regions[i-1].Code > regions[i].Code {
			t.Fatal("regions should be sorted by code")
		}
	}
}

func TestCacheEndpoints(t *testing.T) {
	s, _, _ := newTestServer(t, testConfig())
	do(s, http.MethodPost, "/v1/analyze", analyzeBody("US", "DE", "FR"), nil)

	rec := do(s, http.MethodGet, "/v1/cache/stats", nil, nil)
	var stats cache.Stats
	if err := json.NewDecoder(rec.Body).Decode(&stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats.Size != 3 {
		t.Errorf("Size = %d, want 3", stats.Size)
	}

	rec = do(s, http.MethodGet, "/v1/cache/entries", nil, nil)
	var entries []analysis.EntryInfo
	if err := json.NewDecoder(rec.Body).Decode(&entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("entries = %d, want 3", len(entries))
	}

	rec = do(s, http.MethodDelete, "/v1/cache", nil, nil)
	var cleared map[string]int
	if err := json.NewDecoder(rec.Body).Decode(&cleared); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cleared["cleared"] != 3 {
		t.Errorf("cleared = %d, want 3", cleared["cleared"])
	}
}

func TestAuth(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.Enabled = true
	cfg.Auth.APIKeys = []config.APIKeyConfig{
		{ID: "ext", Key: "ext-key", Principal: "extension"},
		{ID: "ops", Key: "ops-key", Principal: "ops", Roles: []string{auth.RoleAdmin}},
	}
	cfg.Auth.JWT.Secret = "jwt-secret"
	s, _, _ := newTestServer(t, cfg)

	key := func(k string) http.Header {
		h := http.Header{}
		h.Set(auth.DefaultAPIKeyHeader, k)
		return h
	}

	if rec := do(s, http.MethodGet, "/v1/cache/stats", nil, nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("no credentials: status = %d, want 401", rec.Code)
	}
	if rec := do(s, http.MethodGet, "/v1/cache/stats", nil, key("wrong")); rec.Code != http.StatusUnauthorized {
		t.Errorf("bad key: status = %d, want 401", rec.Code)
	}
	if rec := do(s, http.MethodPost, "/v1/analyze", analyzeBody("US"), key("ext-key")); rec.Code != http.StatusOK {
		t.Errorf("extension analyze: status = %d, want 200", rec.Code)
	}
	if rec := do(s, http.MethodDelete, "/v1/cache", nil, key("ext-key")); rec.Code != http.StatusForbidden {
		t.Errorf("extension clear: status = %d, want 403", rec.Code)
	}
	if rec := do(s, http.MethodDelete, "/v1/cache", nil, key("ops-key")); rec.Code != http.StatusOK {
		t.Errorf("admin clear: status = %d, want 200", rec.Code)
	}

	token, err := auth.SignToken([]byte("jwt-secret"), config.ServiceName, "ops@example.com", []string{auth.RoleAdmin}, time.Hour, time.Now())
	if err != nil {
		t.Fatalf("SignToken = %v", err)
	}
	h := http.Header{}
	h.Set("Authorization", "Bearer "+token)
	if rec := do(s, http.MethodDelete, "/v1/cache", nil, h); rec.Code != http.StatusOK {
		t.Errorf("jwt admin clear: status = %d, want 200", rec.Code)
	}

	if rec := do(s, http.MethodGet, "/healthz", nil, nil); rec.Code != http.StatusOK {
		t.Errorf("healthz should not need credentials, status = %d", rec.Code)
	}
}

func TestAuth_Anonymous(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.Enabled = true
	cfg.Auth.AllowAnonymous = true
	s, _, _ := newTestServer(t, cfg)

	if rec := do(s, http.MethodPost, "/v1/analyze", analyzeBody("US"), nil); rec.Code != http.StatusOK {
		t.Errorf("anonymous analyze: status = %d, want 200", rec.Code)
	}
	if rec := do(s, http.MethodDelete, "/v1/cache", nil, nil); rec.Code != http.StatusForbidden {
		t.Errorf("anonymous clear: status = %d, want 403", rec.Code)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	cfg := testConfig()
	cfg.Observe.Metrics.Enabled = true
	cfg.Observe.Metrics.Exporter = "prometheus"
	s, _, _ := newTestServer(t, cfg)

	for _, path := range []string{"/healthz", "/readyz", "/health"} {
		if rec := do(s, http.MethodGet, path, nil, nil); rec.Code != http.StatusOK {
			t.Errorf("%s: status = %d, want 200", path, rec.Code)
		}
	}

	do(s, http.MethodPost, "/v1/analyze", analyzeBody("US"), nil)
	rec := do(s, http.MethodGet, "/metrics", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("/metrics: status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "analysis_region") {
		t.Error("/metrics should expose region metrics")
	}
}

func TestMetrics_NotConfigured(t *testing.T) {
	s, _, _ := newTestServer(t, testConfig())
	if rec := do(s, http.MethodGet, "/metrics", nil, nil); rec.Code != http.StatusNotFound {
		t.Errorf("/metrics: status = %d, want 404", rec.Code)
	}
}

func TestNewRuntime_NoProviderKey(t *testing.T) {
	cfg := testConfig()
	rt, err := NewRuntime(context.Background(), cfg, RuntimeOptions{
		Keys: provider.MapKeys(nil, nil),
	})
	if err != nil {
		t.Fatalf("NewRuntime = %v", err)
	}
	defer rt.Close(context.Background())

	if rt.Provider != nil || rt.Orchestrator.AIProvider() != "" {
		t.Error("AI should be disabled without a key")
	}
}

func TestNewRuntime_SelectsProvider(t *testing.T) {
	cfg := testConfig()
	cfg.AI.Providers = []string{"groq"}
	rt, err := NewRuntime(context.Background(), cfg, RuntimeOptions{
		Keys: provider.MapKeys(map[string]string{"groq": "gsk", "openai": "sk"}, nil),
	})
	if err != nil {
		t.Fatalf("NewRuntime = %v", err)
	}
	defer rt.Close(context.Background())

	if rt.Provider == nil || rt.Provider.Name() != "groq" {
		t.Fatalf("Provider = %v, want groq", rt.Provider)
	}
	if rt.Orchestrator.AIProvider() != "groq" {
		t.Errorf("AIProvider = %q, want groq", rt.Orchestrator.AIProvider())
	}
	if rt.Provider.Breaker() == nil {
		t.Error("provider executor should carry a circuit breaker")
	}
}

func TestNewRuntime_SQLiteBacking(t *testing.T) {
	cfg := testConfig()
	cfg.Cache.Backend = config.BackendSQLite
	cfg.Cache.SQLitePath = t.TempDir() + "/cache.db"

	ai := &stubAI{}
	rt, err := NewRuntime(context.Background(), cfg, RuntimeOptions{AI: ai})
	if err != nil {
		t.Fatalf("NewRuntime = %v", err)
	}
	content := analysis.Content{URL: "https://shop.example", Language: "en"}
	if _, err := rt.Orchestrator.Analyze(context.Background(), content, []string{"US"}, analysis.Options{}); err != nil {
		t.Fatalf("Analyze = %v", err)
	}
	if err := rt.Close(context.Background()); err != nil {
		t.Fatalf("Close = %v", err)
	}

	rt2, err := NewRuntime(context.Background(), cfg, RuntimeOptions{AI: ai})
	if err != nil {
		t.Fatalf("NewRuntime = %v", err)
	}
	defer rt2.Close(context.Background())
	if got := rt2.Store.Len(); got != 1 {
		t.Errorf("restored entries = %d, want 1", got)
	}
	res, _ := rt2.Orchestrator.Analyze(context.Background(), content, []string{"US"}, analysis.Options{})
	if !res.Regions["US"].FromCache {
		t.Error("restored entry should serve the request")
	}
}

func TestRunSweeper_StopsOnCancel(t *testing.T) {
	_, rt, _ := newTestServer(t, testConfig())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- rt.RunSweeper(ctx) }()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("RunSweeper = %v, want nil", err)
		}
	case <-time.After(time.Second):
		t.Fatal("RunSweeper did not stop")
	}
}

func TestListenAndServe_Shutdown(t *testing.T) {
	cfg := testConfig()
	cfg.Server.Addr = "127.0.0.1:0"
	s, _, _ := newTestServer(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx) }()
	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ListenAndServe = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("ListenAndServe did not shut down")
	}
}
