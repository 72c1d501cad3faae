package api

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"specgraph/pkg/config"
)

// HealthPath is always served and never requires authentication
const HealthPath = "/__health"

// Server serves the query surface over HTTP
type Server struct {
	config           *config.ServerConfig
	fullConfig       *config.Config
	specs            SpecSource
	events           NotificationSource
	router           *Router
	handler          fasthttp.RequestHandler
	server           *fasthttp.Server
	logger           *zap.Logger
	metricsCollector *DefaultMetricsCollector

	mu        sync.RWMutex
	running   bool
	startTime time.Time
	done      chan struct{}
	streams   chan struct{} // closed on Stop to end open notification streams
}

// NewServer creates a server over specs. events may be nil when
// notifications are disabled.
func NewServer(cfg *config.Config, specs SpecSource, events NotificationSource, logger *zap.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	if specs == nil {
		return nil, fmt.Errorf("spec source cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	logger = logger.With(zap.String("component", "api"))

	s := &Server{
		config:     &cfg.Server,
		fullConfig: cfg,
		specs:      specs,
		events:     events,
		logger:     logger,
	}
	if err := s.build(); err != nil {
		return nil, err
	}
	return s, nil
}

// build wires routes, middleware and the fasthttp server from fullConfig
func (s *Server) build() error {
	cfg := s.fullConfig

	router, err := NewRouter(s.logger)
	if err != nil {
		return fmt.Errorf("failed to create router: %w", err)
	}

	var metricsCollector *DefaultMetricsCollector
	if cfg.Metrics.Enabled {
		metricsCollector = NewDefaultMetricsCollector()
	}

	router.Handle(fasthttp.MethodGet, "/specs", ListSpecsHandler(s.specs))
	router.Handle(fasthttp.MethodGet, "/specs/{id}", GetSpecHandler(s.specs))
	router.Handle(fasthttp.MethodGet, "/specs/{id}/paths", GetPathsHandler(s.specs))
	router.Handle(fasthttp.MethodPost, "/resolve", ResolveHandler(s.specs, s.logger))
	router.Handle(fasthttp.MethodGet, HealthPath, HealthCheckHandler(s.specs, time.Now()))
	if cfg.Notifications.Enabled {
		router.Handle(fasthttp.MethodGet, "/notifications", NotificationsHandler(s.events))
		if s.events != nil {
			router.Handle(fasthttp.MethodGet, "/notifications/stream", NotificationStreamHandler(s.events, s.streamsDone, s.logger))
		}
	}
	if metricsCollector != nil {
		router.Handle(fasthttp.MethodGet, cfg.Metrics.Path, MetricsHandler(metricsCollector, s.events))
	}

	stack := NewStack()
	if cfg.Middleware.RequestID {
		stack.Use(RequestID(true))
	}
	stack.Use(Logger(s.logger))
	stack.Use(Recovery(s.logger, &cfg.Middleware.Recovery))
	stack.Use(CORS(&cfg.Middleware.CORS))
	stack.Use(RateLimit(&cfg.Middleware.RateLimit))
	stack.Use(Auth(&cfg.Middleware.Auth, s.logger, HealthPath))
	stack.Use(Timeout(&cfg.Middleware.Timeout))
	stack.Use(Metrics(&cfg.Metrics, metricsCollector))

	handler := stack.Apply(router.Handler)

	maxBody, err := config.ParseSize(cfg.Server.MaxRequestSize)
	if err != nil {
		return fmt.Errorf("invalid max request size: %w", err)
	}

	logger := s.logger
	s.router = router
	s.handler = handler
	s.metricsCollector = metricsCollector
	s.server = &fasthttp.Server{
		Handler:            handler,
		Name:               "specgraph",
		ReadTimeout:        cfg.Server.ReadTimeout,
		WriteTimeout:       cfg.Server.WriteTimeout,
		MaxConnsPerIP:      cfg.Server.MaxConnsPerIP,
		Concurrency:        cfg.Server.Concurrency,
		MaxRequestBodySize: int(maxBody),
		ErrorHandler: func(ctx *fasthttp.RequestCtx, err error) {
			logger.Error("FastHTTP error",
				zap.Error(err),
				zap.String("path", string(ctx.Path())),
				zap.String("method", string(ctx.Method())),
			)
		},
	}

	s.logger.Info("Routes registered", zap.Int("total_routes", router.Routes()))
	return nil
}

// Handler returns the request handler with the full middleware stack
func (s *Server) Handler() fasthttp.RequestHandler {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.handler
}

// Start binds the listener and serves in the background
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("server is already running")
	}

	addr := s.addr()
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.logger.Info("Starting HTTP server",
		zap.String("address", ln.Addr().String()),
		zap.Int("concurrency", s.config.Concurrency),
		zap.Duration("read_timeout", s.config.ReadTimeout),
		zap.Duration("write_timeout", s.config.WriteTimeout),
	)

	srv := s.server
	done := make(chan struct{})
	s.running = true
	s.startTime = time.Now()
	s.done = done
	s.streams = make(chan struct{})

	go func() {
		defer close(done)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, net.ErrClosed) {
			s.logger.Error("Server stopped with error", zap.Error(err))
		}
		s.mu.Lock()
		if s.server == srv {
			s.running = false
		}
		s.mu.Unlock()
	}()

	return nil
}

// Stop stops the HTTP server gracefully
func (s *Server) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		s.logger.Debug("Server is not running")
		return nil
	}
	srv, done := s.server, s.done
	s.running = false
	close(s.streams)
	s.mu.Unlock()

	s.logger.Info("Stopping HTTP server...")
	if err := srv.Shutdown(); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	<-done

	s.logger.Info("HTTP server stopped successfully")
	return nil
}

// Restart stops the server, rebuilds it from newConfig and starts it again.
// When the new configuration cannot be built the old server is restarted.
func (s *Server) Restart(newConfig *config.Config) error {
	s.logger.Info("Restarting server with new configuration")

	if err := s.Stop(); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	s.mu.Lock()
	old := *s.fullConfig
	s.fullConfig = newConfig
	s.config = &newConfig.Server
	err := s.build()
	if err != nil {
		s.fullConfig = &old
		s.config = &s.fullConfig.Server
		if rebuildErr := s.build(); rebuildErr != nil {
			s.mu.Unlock()
			return fmt.Errorf("failed to restore server: %w", rebuildErr)
		}
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("Failed to apply new configuration, restoring old one", zap.Error(err))
		if startErr := s.Start(); startErr != nil {
			return fmt.Errorf("failed to restore server: %w", startErr)
		}
		return fmt.Errorf("failed to create new server: %w", err)
	}

	if err := s.Start(); err != nil {
		return fmt.Errorf("failed to start server with new configuration: %w", err)
	}

	s.logger.Info("Server restarted successfully")
	return nil
}

// streamsDone is closed when the running server stops. It is nil, and
// never fires, while the server is not started.
func (s *Server) streamsDone() <-chan struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.streams
}

// GetAddr returns the configured server address
func (s *Server) GetAddr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addr()
}

func (s *Server) addr() string {
	return net.JoinHostPort(s.config.Host, fmt.Sprint(s.config.Port))
}

// IsRunning returns true if the server is currently running
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// ServerStats represents server statistics
type ServerStats struct {
	Addr      string         `json:"addr"`
	Specs     int            `json:"specs"`
	StartTime time.Time      `json:"start_time"`
	IsRunning bool           `json:"is_running"`
	Metrics   map[string]any `json:"metrics,omitempty"`
}

// GetStats returns server statistics
func (s *Server) GetStats() ServerStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := ServerStats{
		Addr:      s.addr(),
		Specs:     len(s.specs.IDs()),
		StartTime: s.startTime,
		IsRunning: s.running,
	}
	if s.metricsCollector != nil {
		stats.Metrics = s.metricsCollector.GetMetrics()
	}
	return stats
}
