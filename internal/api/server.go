package api

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/nerrad567/homesim-core/internal/device"
	"github.com/nerrad567/homesim-core/internal/dispatch"
	"github.com/nerrad567/homesim-core/internal/infrastructure/config"
	"github.com/nerrad567/homesim-core/internal/infrastructure/logging"
	"github.com/nerrad567/homesim-core/internal/journal"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// HealthChecker is any component that can report its own health.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HistoryReader reads the device journal.
type HistoryReader interface {
	History(ctx context.Context, deviceID string, limit int) ([]journal.Record, error)
}

// MetricsProvider serves Prometheus metrics and observes hub activity.
type MetricsProvider interface {
	HubObserver
	Handler() http.Handler
}

// DBStatser exposes connection pool statistics.
type DBStatser interface {
	Stats() sql.DBStats
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Server     config.ServerConfig
	WS         config.WebSocketConfig
	Logger     *logging.Logger
	Registry   *device.Registry
	Dispatcher *dispatch.Dispatcher

	// Optional.
	History HistoryReader
	Metrics MetricsProvider
	Checks  map[string]HealthChecker
	DB      DBStatser
	MQTT    ConnectionReporter
	Feed    FeedReporter
	Version string
}

// FeedReporter reports state feed backlog.
type FeedReporter interface {
	Pending() int
	Dropped() uint64
}

// ConnectionReporter reports whether an upstream link is up.
type ConnectionReporter interface {
	IsConnected() bool
}

// Server is the HTTP server for the simulator: the websocket control
// channel plus a small REST read model.
type Server struct {
	cfg        config.ServerConfig
	wsCfg      config.WebSocketConfig
	logger     *logging.Logger
	registry   *device.Registry
	dispatcher *dispatch.Dispatcher
	history    HistoryReader
	metrics    MetricsProvider
	checks     map[string]HealthChecker
	db         DBStatser
	mqtt       ConnectionReporter
	feed       FeedReporter
	version    string
	startTime  time.Time

	hub      *Hub
	server   *http.Server
	listener net.Listener
	cancel   context.CancelFunc
	mu       sync.Mutex
}

// New creates a server. Nothing listens until Start.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Registry == nil {
		return nil, fmt.Errorf("device registry is required")
	}
	if deps.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}

	s := &Server{
		cfg:        deps.Server,
		wsCfg:      deps.WS,
		logger:     deps.Logger,
		registry:   deps.Registry,
		dispatcher: deps.Dispatcher,
		history:    deps.History,
		metrics:    deps.Metrics,
		checks:     deps.Checks,
		db:         deps.DB,
		mqtt:       deps.MQTT,
		feed:       deps.Feed,
		version:    deps.Version,
		startTime:  time.Now(),
	}
	if s.wsCfg.Path == "" {
		s.wsCfg.Path = "/iot"
	}

	s.hub = NewHub(s.wsCfg, deps.Logger.With("component", "hub"), deps.Registry, deps.Dispatcher)
	if deps.Metrics != nil {
		s.hub.SetObserver(deps.Metrics)
	}
	return s, nil
}

// Hub returns the websocket hub so it can be added to the state feed.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler returns the full router. Useful with httptest.
func (s *Server) Handler() http.Handler {
	return s.buildRouter()
}

// Start binds the listener and serves in the background. The hub is
// shut down when ctx is cancelled or Close is called.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		return fmt.Errorf("api server already started")
	}

	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)
	go s.hub.Run(srvCtx)

	s.server = &http.Server{
		Addr:              net.JoinHostPort(s.cfg.Host, fmt.Sprint(s.cfg.Port)),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		s.cancel()
		s.server = nil
		return fmt.Errorf("listening on %s: %w", net.JoinHostPort(s.cfg.Host, fmt.Sprint(s.cfg.Port)), err)
	}
	s.listener = ln

	s.logger.Info("API server listening", "address", ln.Addr().String(), "websocket_path", s.wsCfg.Path)

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Addr returns the bound listener address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Close stops the hub and gracefully shuts down the HTTP server.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server == nil {
		return nil
	}
	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	err := s.server.Shutdown(ctx)
	s.server = nil
	s.listener = nil
	if err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck reports whether the server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}
