package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	lperrors "github.com/vango-dev/livepatch/internal/errors"
	"github.com/vango-dev/livepatch/pkg/middleware"
	"github.com/vango-dev/livepatch/pkg/store"
)

// Server serves the todo and counter demos over HTTP, answering every
// interaction with a stream of patch frames.
type Server struct {
	// Configuration
	config *Config

	// Demo state
	todos   *store.Todos
	counter *store.Counter

	// HTTP handler
	router chi.Router

	// WebSocket upgrader for the time stream
	upgrader websocket.Upgrader

	// Observability; metrics is nil when disabled
	metrics  *middleware.Metrics
	registry *prometheus.Registry

	// Clock for the time stream
	now func() time.Time

	mu         sync.Mutex
	httpServer *http.Server
	addr       net.Addr

	logger *slog.Logger
}

// New creates a new Server with the given configuration. A nil config uses
// DefaultConfig; unset fields of a non-nil config take their defaults.
func New(config *Config) *Server {
	config = config.withDefaults()

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "server")

	counterOpts := []store.CounterOption{store.WithInitial(config.CounterInitial)}
	if b := config.CounterBounds; b != nil {
		counterOpts = append(counterOpts, store.WithBounds(b.Min, b.Max))
	}

	s := &Server{
		config:  config,
		todos:   store.NewTodos(),
		counter: store.NewCounter(counterOpts...),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		now:    time.Now,
		logger: logger,
	}

	for _, text := range config.SeedTodos {
		if _, err := s.todos.Create(text); err != nil {
			logger.Warn("skipping seed todo", "text", text, "error", err)
		}
	}

	if !config.DisableMetrics {
		s.registry = config.Registry
		if s.registry == nil {
			s.registry = prometheus.NewRegistry()
		}
		s.metrics = middleware.NewMetrics(
			middleware.WithNamespace(config.MetricsNamespace),
			middleware.WithRegistry(s.registry),
		)
	}

	s.router = s.routes()
	return s
}

// routes builds the router. Middleware runs outermost first: request IDs,
// panic recovery, logging, metrics, tracing.
func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger(s.logger))
	if s.metrics != nil {
		r.Use(s.metrics.Handler)
	}
	if s.config.TracerProvider != nil {
		r.Use(middleware.OpenTelemetry(middleware.WithTracerProvider(s.config.TracerProvider)))
	}

	r.Get("/", s.handleIndex)
	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Handle(s.config.MetricsPath, promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}

	r.Get("/todos", s.handleTodosPage)
	r.Post("/api/todos", s.handleCreateTodo)
	r.Post("/api/todos/clear-completed", s.handleClearCompleted)
	r.Post("/api/todos/filter/{filter}", s.handleSetFilter)
	r.Post("/api/todos/{id}/toggle", s.handleToggleTodo)
	r.Delete("/api/todos/{id}", s.handleDeleteTodo)

	r.Get("/counter", s.handleCounterPage)
	r.Get("/api/increment", s.handleIncrement)
	r.Get("/api/decrement", s.handleDecrement)
	r.Post("/api/reset", s.handleReset)
	r.Post("/api/update-message", s.handleUpdateMessage)
	r.Get("/api/alert", s.handleAlert)
	r.Get("/api/console-log", s.handleConsoleLog)
	r.Get("/api/time-stream", s.handleTimeStream)
	r.Get("/api/time-stream/ws", s.handleTimeStreamWS)

	return r
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run starts the server and blocks until SIGINT or SIGTERM, then shuts
// down gracefully.
func (s *Server) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.RunContext(ctx)
}

// RunContext listens on the configured address and serves until ctx is
// done. A listen failure is reported as a startup error.
func (s *Server) RunContext(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return lperrors.New(lperrors.CodeListen).
			WithDetailf("Could not listen on %s.", s.config.Address).
			Wrap(err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.httpServer != nil {
		s.mu.Unlock()
		ln.Close()
		return ErrAlreadyRunning
	}
	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	s.addr = ln.Addr()
	srv := s.httpServer
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "address", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down...")
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the server, waiting at most
// ShutdownTimeout for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()

	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return lperrors.New(lperrors.CodeShutdown).Wrap(err)
		}
	}

	s.logger.Info("server shutdown complete")
	return nil
}

// Addr returns the listening address, or nil before Serve is called.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Todos returns the todo store.
func (s *Server) Todos() *store.Todos {
	return s.todos
}

// Counter returns the counter store.
func (s *Server) Counter() *store.Counter {
	return s.counter
}

// Registry returns the metrics registry, or nil when metrics are disabled.
func (s *Server) Registry() *prometheus.Registry {
	return s.registry
}

// Config returns the effective configuration.
func (s *Server) Config() *Config {
	return s.config
}

// Logger returns the server logger.
func (s *Server) Logger() *slog.Logger {
	return s.logger
}
