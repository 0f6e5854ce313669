package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jonwraymond/marketlens/analysis"
	"github.com/jonwraymond/marketlens/auth"
	"github.com/jonwraymond/marketlens/config"
	"github.com/jonwraymond/marketlens/health"
	"github.com/jonwraymond/marketlens/observe"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-Id"

// Server is the marketlens HTTP API.
type Server struct {
	cfg    config.ServerConfig
	rt     *Runtime
	logger observe.Logger
	router chi.Router
}

// New builds the HTTP API over rt.
func New(rt *Runtime) *Server {
	s := &Server{
		cfg:    rt.Config.Server,
		rt:     rt,
		logger: rt.Logger,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)

	health.RegisterHandlers(r, s.rt.Health)
	r.Handle("/metrics", s.rt.Observer.MetricsHandler())

	r.Route("/v1", func(r chi.Router) {
		if s.rt.Authenticator != nil {
			r.Use(auth.Middleware(s.rt.Authenticator, auth.MiddlewareConfig{
				AllowAnonymous: s.rt.Config.Auth.AllowAnonymous,
				AnonymousRoles: s.rt.Config.Auth.AnonymousRoles,
				OnError: func(req *http.Request, err error) {
					s.logger.Error(req.Context(), "authentication error", observe.F("error", err.Error()))
				},
			}))
		}
		authz := s.rt.Authorizer

		r.With(auth.Require(authz, auth.ActionAnalyze)).Post("/analyze", s.handleAnalyze)
		r.Get("/regions", s.handleRegions)
		r.With(auth.Require(authz, auth.ActionCacheRead)).Get("/cache/stats", s.handleCacheStats)
		r.With(auth.Require(authz, auth.ActionCacheRead)).Get("/cache/entries", s.handleCacheEntries)
		r.With(auth.Require(authz, auth.ActionCacheClear)).Delete("/cache", s.handleCacheClear)
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s,
		ReadTimeout:       s.cfg.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "marketlens listening", observe.F("addr", s.cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// AnalyzeRequest is the body of POST /v1/analyze.
type AnalyzeRequest struct {
	Content analysis.Content `json:"content"`
	Regions []string         `json:"regions"`
	Options analysis.Options `json:"options"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	body := http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Options.RequestID == "" {
		req.Options.RequestID = RequestIDFromContext(r.Context())
	}

	res, err := s.rt.Orchestrator.Analyze(r.Context(), req.Content, req.Regions, req.Options)
	switch {
	case errors.Is(err, analysis.ErrNoRegions), errors.Is(err, analysis.ErrInvalidRegion):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		s.logger.Error(r.Context(), "analyze failed", observe.F("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "analysis failed")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleRegions(w http.ResponseWriter, _ *http.Request) {
	codes := analysis.RegionCodes()
	out := make([]analysis.Region, 0, len(codes))
	for _, c := range codes {
		out = append(out, analysis.Catalogue[c])
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCacheStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.rt.Orchestrator.CacheStats())
}

func (s *Server) handleCacheEntries(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.rt.Orchestrator.CacheEntries(r.Context(), r.URL.Query().Get("pattern")))
}

func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	pattern := r.URL.Query().Get("pattern")
	n := s.rt.Orchestrator.ClearCache(r.Context(), pattern)
	s.logger.Info(r.Context(), "cache cleared",
		observe.F("pattern", pattern), observe.F("cleared", n), observe.F("principal", auth.PrincipalFromContext(r.Context())))
	writeJSON(w, http.StatusOK, map[string]int{"cleared": n})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
