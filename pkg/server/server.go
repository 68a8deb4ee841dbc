// Package server exposes resolved orders over a small read-only HTTP API.
//
// Routes:
//
//	GET  /healthz                      liveness
//	GET  /version                      build information
//	GET  /order?only=&exclude=&refresh resolved (and filtered) order
//	GET  /declarations                 merged declarations, unresolved
//	GET  /validate                     validation report
//	POST /invalidate                   drop the cached order
//
// A dependency cycle answers 409 with the cycle path:
//
//	{"error": "...", "code": "CYCLE_DETECTED", "cycle": ["A", "B", "A"]}
//
// Concurrent requests for the same resource share one resolution through a
// singleflight group, and resolutions never overlap.
package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/runorder/pkg/buildinfo"
	"github.com/matzehuels/runorder/pkg/component"
	"github.com/matzehuels/runorder/pkg/errors"
	"github.com/matzehuels/runorder/pkg/pipeline"
	"github.com/matzehuels/runorder/pkg/resolver"
	"github.com/matzehuels/runorder/pkg/validate"
)

// Server serves one pipeline configuration.
type Server struct {
	runner *pipeline.Runner
	base   pipeline.Options
	logger *log.Logger
	router chi.Router

	mu    sync.Mutex // serializes runner access
	group singleflight.Group
}

// New creates a server resolving base with runner. Filters in base are
// ignored; clients pass them per request.
func New(runner *pipeline.Runner, base pipeline.Options, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	base.Only, base.Except = nil, nil
	s := &Server{runner: runner, base: base, logger: logger}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/version", s.handleVersion)
	r.Get("/order", s.handleOrder)
	r.Get("/declarations", s.handleDeclarations)
	r.Get("/validate", s.handleValidate)
	r.Post("/invalidate", s.handleInvalidate)
	return r
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

// =============================================================================
// Handlers
// =============================================================================

type orderResponse struct {
	RunID     string   `json:"run_id"`
	Signature string   `json:"signature"`
	Order     []string `json:"order"`
	Total     int      `json:"total"`
	CacheHit  bool     `json:"cache_hit"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, buildinfo.Get())
}

func (s *Server) handleOrder(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	only, except := q["only"], q["exclude"]
	if err := pipeline.ValidatePatterns(only); err != nil {
		writeError(w, err)
		return
	}
	if err := pipeline.ValidatePatterns(except); err != nil {
		writeError(w, err)
		return
	}

	res, err := s.resolve(r.Context(), q.Has("refresh"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orderResponse{
		RunID:     res.RunID,
		Signature: res.Signature,
		Order:     pipeline.Filter(res.Resolved, only, except),
		Total:     len(res.Resolved),
		CacheHit:  res.CacheHit,
	})
}

func (s *Server) handleDeclarations(w http.ResponseWriter, r *http.Request) {
	decls, err := s.declarations(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"declarations": decls})
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	decls, err := s.declarations(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	report := validate.Check(decls)
	status := http.StatusOK
	if report.HasErrors() {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, report)
}

func (s *Server) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	sig, err := s.runner.Invalidate(r.Context(), s.base)
	s.mu.Unlock()
	if err != nil {
		writeError(w, err)
		return
	}
	s.logger.Info("cache invalidated", "signature", sig)
	writeJSON(w, http.StatusOK, map[string]string{"invalidated": sig})
}

// =============================================================================
// Shared work
// =============================================================================

// resolve runs the pipeline once for all concurrent callers. The shared
// call is detached from any single request's cancellation.
func (s *Server) resolve(ctx context.Context, refresh bool) (*pipeline.Result, error) {
	key := "order"
	if refresh {
		key = "order:refresh"
	}
	v, err, _ := s.group.Do(key, func() (any, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		opts := s.base
		opts.Refresh = refresh
		return s.runner.Execute(context.WithoutCancel(ctx), opts)
	})
	if err != nil {
		return nil, err
	}
	return v.(*pipeline.Result), nil
}

func (s *Server) declarations(ctx context.Context) ([]component.Declaration, error) {
	v, err, _ := s.group.Do("declarations", func() (any, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.runner.Declarations(context.WithoutCancel(ctx), s.base)
	})
	if err != nil {
		return nil, err
	}
	return v.([]component.Declaration), nil
}

// =============================================================================
// Responses
// =============================================================================

type errorResponse struct {
	Error string      `json:"error"`
	Code  errors.Code `json:"code,omitempty"`
	Cycle []string    `json:"cycle,omitempty"`
}

func writeError(w http.ResponseWriter, err error) {
	resp := errorResponse{Error: errors.UserMessage(err), Code: errors.GetCode(err)}
	status := errors.HTTPStatus(err)

	var ce *resolver.CycleError
	if stderrors.As(err, &ce) {
		resp.Cycle = ce.Path
		resp.Code = errors.ErrCodeCycleDetected
		status = http.StatusConflict
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
