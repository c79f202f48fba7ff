package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"mixdown/internal/api"
	"mixdown/internal/logging"
	"mixdown/internal/metrics"
	"mixdown/internal/workflow"
)

const (
	defaultWriteTimeout = 30 * time.Second
	shutdownTimeout     = 5 * time.Second
	maxRequestBytes     = 64 << 10
)

// JobRunner executes a mix job.
type JobRunner interface {
	Run(ctx context.Context, req workflow.Request) (workflow.Outcome, error)
}

// EngineState reports whether the transcoding engine is loaded.
type EngineState interface {
	Ready() bool
}

// StatusFunc produces the dependency and preflight part of /api/status.
type StatusFunc func(ctx context.Context) ([]api.DependencyStatus, []api.CheckResult)

// Option configures a Server.
type Option func(*Server)

// WithJobs serves history from the provided reader.
func WithJobs(reader api.JobReader) Option {
	return func(s *Server) { s.jobs = api.NewJobService(reader) }
}

// WithMetrics records HTTP metrics and serves /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithToken requires bearer authentication on every route.
func WithToken(token string) Option {
	return func(s *Server) { s.token = strings.TrimSpace(token) }
}

// WithStatus wires the /api/status report. version may be nil.
func WithStatus(engine EngineState, version func() string, fn StatusFunc) Option {
	return func(s *Server) {
		s.engine = engine
		s.engineVersion = version
		s.statusFn = fn
	}
}

// WithWriteTimeout bounds how long a response, including a whole combine,
// may take.
func WithWriteTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.writeTimeout = d
		}
	}
}

// WithVersion reports the mixdown build version on /api/status.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// Server is the HTTP front end of the mix workflow.
type Server struct {
	bind          string
	runner        JobRunner
	jobs          *api.JobService
	metrics       *metrics.Metrics
	logger        *slog.Logger
	token         string
	engine        EngineState
	engineVersion func() string
	statusFn      StatusFunc
	version       string
	writeTimeout  time.Duration

	handler http.Handler

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
}

// New constructs a Server bound to bind once started.
func New(bind string, runner JobRunner, opts ...Option) (*Server, error) {
	bind = strings.TrimSpace(bind)
	if bind == "" {
		return nil, errors.New("server requires a bind address")
	}
	if runner == nil {
		return nil, errors.New("server requires a job runner")
	}
	s := &Server{
		bind:         bind,
		runner:       runner,
		logger:       logging.NewNop(),
		writeTimeout: defaultWriteTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.NewComponentLogger(s.logger, "api-server")

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/combine", s.handleCombine)
	mux.HandleFunc("GET /api/jobs", s.handleJobs)
	mux.HandleFunc("GET /api/jobs/{id}", s.handleJob)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.Handle("GET /metrics", s.metrics.Handler())

	s.handler = requestMiddleware(s.metrics, s.logger, authMiddleware(s.token, mux))
	return s, nil
}

// Handler returns the fully wrapped route handler.
func (s *Server) Handler() http.Handler { return s.handler }

// Start binds the listener and serves in the background until ctx is
// cancelled or Stop is called.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      s.writeTimeout,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	s.mu.Lock()
	s.listener = listener
	s.server = srv
	s.mu.Unlock()

	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("api server listening",
		logging.String("address", listener.Addr().String()),
		logging.Bool("auth", s.token != ""),
	)
	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop gracefully shuts the server down. It is safe to call more than once.
func (s *Server) Stop() {
	s.mu.Lock()
	srv := s.server
	s.server = nil
	s.listener = nil
	s.mu.Unlock()
	if srv == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("api server shutdown incomplete", logging.Error(err))
		_ = srv.Close()
	}
}
