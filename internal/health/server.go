// Package health serves the liveness, readiness, status and metrics endpoints
// used in serve mode.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gitlab.bluewillows.net/root/linesync/internal/reconciler"
)

// Health status values.
const (
	StatusReady    = "ready"
	StatusDegraded = "degraded"
	StatusNotReady = "not_ready"
)

// HealthChecker reports an error if the component is unhealthy.
type HealthChecker func(ctx context.Context) error

// DegradedChecker reports whether a component is functional but not fully
// healthy, for example when the last pass had failing lines.
type DegradedChecker func(ctx context.Context) (degraded bool, message string)

// ResultSource exposes the most recent reconciliation result.
type ResultSource interface {
	LastResult() *reconciler.Result
}

// HealthStatus represents the health status of a component.
type HealthStatus struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}

// DegradedStatus represents a degraded component.
type DegradedStatus struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// Response represents a health check response.
type Response struct {
	Status     string           `json:"status"`
	Components []HealthStatus   `json:"components,omitempty"`
	Degraded   []DegradedStatus `json:"degraded,omitempty"`
}

// StatusResponse is served on /status.
type StatusResponse struct {
	Status string             `json:"status"`
	Last   *reconciler.Result `json:"last_run,omitempty"`
}

// Server provides /health, /ready, /status and /metrics endpoints.
type Server struct {
	port    int
	mux     *http.ServeMux
	server  *http.Server
	logger  *slog.Logger
	timeout time.Duration
	results ResultSource

	mu               sync.RWMutex
	checkers         map[string]HealthChecker
	degradedCheckers map[string]DegradedChecker
	addr             net.Addr
}

// Option is a functional option for configuring the Server.
type Option func(*Server)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTimeout sets the timeout for readiness checks.
func WithTimeout(timeout time.Duration) Option {
	return func(s *Server) {
		s.timeout = timeout
	}
}

// WithResults sets the source served on /status.
func WithResults(src ResultSource) Option {
	return func(s *Server) {
		s.results = src
	}
}

// New creates a new health server on the specified port.
// Port 0 picks a free port; see Addr.
func New(port int, opts ...Option) *Server {
	s := &Server{
		port:             port,
		mux:              http.NewServeMux(),
		logger:           slog.Default(),
		timeout:          5 * time.Second,
		checkers:         make(map[string]HealthChecker),
		degradedCheckers: make(map[string]DegradedChecker),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.setupRoutes()
	return s
}

// RegisterChecker adds a health checker for the /ready endpoint.
func (s *Server) RegisterChecker(name string, checker HealthChecker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkers[name] = checker
	s.logger.Debug("registered health checker", slog.String("name", name))
}

// RegisterDegradedChecker adds a degraded state checker for the /ready endpoint.
func (s *Server) RegisterDegradedChecker(name string, checker DegradedChecker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.degradedCheckers[name] = checker
	s.logger.Debug("registered degraded checker", slog.String("name", name))
}

// Handler returns the server's routes, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/ready", s.handleReady)
	s.mux.HandleFunc("/status", s.handleStatus)
	s.mux.Handle("/metrics", promhttp.Handler())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, Response{Status: "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	checkers := make(map[string]HealthChecker, len(s.checkers))
	for name, checker := range s.checkers {
		checkers[name] = checker
	}
	degradedCheckers := make(map[string]DegradedChecker, len(s.degradedCheckers))
	for name, checker := range s.degradedCheckers {
		degradedCheckers[name] = checker
	}
	s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	var components []HealthStatus
	allHealthy := true
	for _, name := range sortedKeys(checkers) {
		status := HealthStatus{Name: name, Healthy: true}
		if err := checkers[name](ctx); err != nil {
			status.Healthy = false
			status.Error = err.Error()
			allHealthy = false
			s.logger.Warn("health check failed",
				slog.String("component", name),
				slog.String("error", err.Error()),
			)
		}
		components = append(components, status)
	}

	var degradedList []DegradedStatus
	for _, name := range sortedKeys(degradedCheckers) {
		if degraded, message := degradedCheckers[name](ctx); degraded {
			degradedList = append(degradedList, DegradedStatus{Name: name, Message: message})
			s.logger.Debug("degraded state detected",
				slog.String("component", name),
				slog.String("message", message),
			)
		}
	}

	resp := Response{Components: components, Degraded: degradedList}
	code := http.StatusOK
	switch {
	case !allHealthy:
		resp.Status = StatusNotReady
		code = http.StatusServiceUnavailable
	case len(degradedList) > 0:
		// Degraded is still functional.
		resp.Status = StatusDegraded
	default:
		resp.Status = StatusReady
	}

	writeJSON(w, code, resp)
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	var last *reconciler.Result
	if s.results != nil {
		last = s.results.LastResult()
	}

	resp := StatusResponse{Status: "pending", Last: last}
	if last != nil {
		resp.Status = last.Status()
	}
	writeJSON(w, http.StatusOK, resp)
}

// LastPassChecker reports degraded when the most recent pass aborted or had
// failing lines.
func LastPassChecker(src ResultSource) DegradedChecker {
	return func(_ context.Context) (bool, string) {
		last := src.LastResult()
		if last == nil {
			return false, ""
		}
		if last.Error != "" {
			return true, "last pass aborted: " + last.Error
		}
		if failed := last.FailedCount(); failed > 0 {
			return true, fmt.Sprintf("%d of %d lines failed in last pass", failed, len(last.Lines))
		}
		return false, ""
	}
}

// Start binds the listener and serves in a goroutine. Bind errors are
// returned synchronously.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("health server listen: %w", err)
	}

	s.mu.Lock()
	s.addr = ln.Addr()
	s.server = &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	srv := s.server
	s.mu.Unlock()

	go func() {
		s.logger.Info("health server starting", slog.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("health server error", slog.String("error", err.Error()))
		}
	}()

	return nil
}

// Addr returns the bound address once Start has succeeded.
func (s *Server) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addr
}

// Shutdown gracefully shuts down the health server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.RLock()
	srv := s.server
	s.mu.RUnlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
