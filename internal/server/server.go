// Package server is the HTTP skin over the store: routing, input
// validation, and a one-to-one mapping from store errors to response
// statuses. No business logic lives here.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/arllen133/wikisvc/internal/health"
	"github.com/arllen133/wikisvc/internal/metrics"
	"github.com/arllen133/wikisvc/internal/store"
)

// Server wires the request layer to its collaborators.
type Server struct {
	store   *store.Store
	health  *health.Controller
	metrics *metrics.Registry
	logger  zerolog.Logger

	httpServer *http.Server
}

func New(addr string, st *store.Store, hc *health.Controller, reg *metrics.Registry, logger zerolog.Logger) *Server {
	s := &Server{
		store:   st,
		health:  hc,
		metrics: reg,
		logger:  logger,
	}
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler builds the route table. Health probes are mounted directly so
// they never pass through request middleware and stay prompt under load.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /users", s.createUser)
	mux.HandleFunc("GET /users", s.listUsers)
	mux.HandleFunc("GET /users/{id}", s.getUser)
	// Alias kept for compatibility with early clients.
	mux.HandleFunc("GET /user/{id}", s.getUser)

	mux.HandleFunc("POST /posts", s.createPost)
	mux.HandleFunc("GET /posts", s.listPosts)
	mux.HandleFunc("GET /posts/{id}", s.getPost)

	mux.HandleFunc("GET /{$}", s.index)

	mux.Handle("GET /metrics", s.metrics.Handler())
	mux.Handle("GET /health/live", s.health.LiveHandler())
	mux.Handle("GET /health/ready", s.health.ReadyHandler())
	mux.Handle("GET /health/startup", s.health.StartupHandler())

	return s.accessLog(mux)
}

// ListenAndServe blocks until the listener fails or Shutdown is called.
func (s *Server) ListenAndServe() error {
	s.logger.Info().Str("addr", s.httpServer.Addr).Msg("listening")
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// statusRecorder captures the response status for access logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}
