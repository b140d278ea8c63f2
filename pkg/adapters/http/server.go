// Package http exposes the workflow engine over a JSON HTTP API.
package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aretw0/canvasflow/internal/logging"
	"github.com/aretw0/canvasflow/pkg/domain"
	"github.com/aretw0/canvasflow/pkg/executor"
	"github.com/aretw0/canvasflow/pkg/registry"
	"github.com/aretw0/canvasflow/pkg/runner"
	"github.com/aretw0/canvasflow/pkg/validator"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server serves the catalog, validation, ordering and run control routes.
type Server struct {
	factory   *registry.Factory
	validator *validator.Validator
	runner    *runner.Runner
	metrics   http.Handler
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetricsHandler mounts h on GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// NewHandler builds the router. Runs are executed by r, whose registry also
// backs the catalog and validation routes.
func NewHandler(r *runner.Runner, opts ...Option) http.Handler {
	s := &Server{
		factory:   registry.NewFactory(r.Registry()),
		validator: validator.New(r.Registry()),
		runner:    r,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := chi.NewRouter()
	mux.Use(middleware.RequestID)
	mux.Use(middleware.Recoverer)
	mux.Use(s.logRequests)

	mux.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	})
	if s.metrics != nil {
		mux.Method(http.MethodGet, "/metrics", s.metrics)
	}

	mux.Get("/node-types", s.listNodeTypes)
	mux.Post("/nodes", s.createNode)
	mux.Route("/validate", func(v chi.Router) {
		v.Post("/connection", s.validateConnection)
		v.Post("/graph", s.validateGraph)
		v.Post("/targets", s.validTargets)
	})
	mux.Post("/order", s.executionOrder)
	mux.Post("/mermaid", s.mermaid)

	mux.Route("/runs", func(rt chi.Router) {
		rt.Post("/", s.submitRun)
		rt.Get("/", s.activeRuns)
		rt.Route("/{id}", func(run chi.Router) {
			run.Get("/", s.runState)
			run.Get("/statuses", s.runStatuses)
			run.Post("/pause", s.control(s.runner.Pause))
			run.Post("/resume", s.control(s.runner.Resume))
			run.Post("/stop", s.control(s.runner.Stop))
		})
	})

	return enableCORS(mux)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type errorResponse struct {
	Error string `json:"error"`
	// Unordered lists nodes a structural error left out of the order.
	Unordered []string `json:"unordered,omitempty"`
	// Invalid lists rejected edges of a validation error.
	Invalid []validator.EdgeResult `json:"invalid,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

// writeError maps domain errors to status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	resp := errorResponse{Error: err.Error()}
	code := http.StatusInternalServerError

	var structural *executor.StructuralGraphError
	var invalid *validator.GraphError
	switch {
	case errors.As(err, &structural):
		code = http.StatusUnprocessableEntity
		resp.Unordered = structural.Unordered
	case errors.As(err, &invalid):
		code = http.StatusUnprocessableEntity
		resp.Invalid = invalid.Invalid
	case errors.Is(err, domain.ErrUnknownNodeType), errors.Is(err, domain.ErrNoHandler):
		code = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrRunNotFound):
		code = http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyRunning):
		code = http.StatusConflict
	}
	if code == http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	s.writeJSON(w, code, resp)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return false
	}
	return true
}
