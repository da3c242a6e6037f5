// Package api provides the HTTP server of the listing guard.
package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/estatehub/listingguard/internal/api/middleware"
	"github.com/estatehub/listingguard/internal/buildinfo"
	"github.com/estatehub/listingguard/internal/cache"
	"github.com/estatehub/listingguard/internal/conf"
	"github.com/estatehub/listingguard/internal/errors"
	"github.com/estatehub/listingguard/internal/logger"
	"github.com/estatehub/listingguard/internal/observability"
)

const (
	// DefaultShutdownTimeout bounds graceful shutdown when the settings carry none.
	DefaultShutdownTimeout = 10 * time.Second

	healthPath  = "/health"
	metricsPath = "/metrics"
)

// RouteRegistrar mounts routes onto the echo instance.
type RouteRegistrar interface {
	RegisterRoutes(e *echo.Echo)
}

// Server wraps echo with the middleware stack and lifecycle of the service.
type Server struct {
	echo      *echo.Echo
	settings  *conf.ServerSettings
	log       logger.Logger
	metrics   *observability.Metrics
	routes    []RouteRegistrar
	cacheInfo map[string]func() cache.Stats
	startTime time.Time

	mu      sync.Mutex
	started bool
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithLogger sets the logger, normally the "api" module logger.
func WithLogger(log logger.Logger) ServerOption {
	return func(s *Server) {
		s.log = log
	}
}

// WithMetrics enables HTTP metrics and the /metrics endpoint.
func WithMetrics(m *observability.Metrics) ServerOption {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithRoutes mounts the given registrars after the middleware stack.
func WithRoutes(r ...RouteRegistrar) ServerOption {
	return func(s *Server) {
		s.routes = append(s.routes, r...)
	}
}

// WithCacheStats reports the statistics of a named cache on /health.
func WithCacheStats(name string, stats func() cache.Stats) ServerOption {
	return func(s *Server) {
		if s.cacheInfo == nil {
			s.cacheInfo = make(map[string]func() cache.Stats)
		}
		s.cacheInfo[name] = stats
	}
}

// New creates a server for settings. Routes are registered immediately.
func New(settings *conf.ServerSettings, opts ...ServerOption) (*Server, error) {
	if settings == nil {
		return nil, errors.Newf("server settings are required").
			Component("api").
			Category(errors.CategoryConfiguration).
			Build()
	}

	s := &Server{
		echo:      echo.New(),
		settings:  settings,
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.NewSlogLogger(nil, logger.LogLevelWarn, nil)
	}

	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Server.ReadTimeout = settings.ReadTimeout
	s.echo.Server.WriteTimeout = settings.WriteTimeout

	s.setupMiddleware()

	s.echo.GET(healthPath, s.healthCheck)
	if s.metrics != nil {
		s.echo.GET(metricsPath, echo.WrapHandler(s.metrics.Handler()))
	}
	for _, r := range s.routes {
		r.RegisterRoutes(s.echo)
	}

	return s, nil
}

func (s *Server) setupMiddleware() {
	s.echo.Use(echomw.Recover())
	s.echo.Use(echomw.RequestID())

	skipProbes := func(c echo.Context) bool {
		p := c.Request().URL.Path
		return p == healthPath || p == metricsPath
	}
	s.echo.Use(middleware.NewRequestLoggerWithSkipper(s.log, skipProbes))

	if s.metrics != nil {
		s.echo.Use(middleware.NewMetrics(s.metrics.HTTP))
	}

	security := middleware.SecurityConfig{
		AllowedOrigins: s.settings.CORSOrigins,
		HSTSMaxAge:     middleware.HSTSMaxAge,
	}
	if len(security.AllowedOrigins) > 0 {
		s.echo.Use(middleware.NewCORS(security))
	}
	s.echo.Use(middleware.NewSecureHeaders(security))
	s.echo.Use(middleware.NewBodyLimit(middleware.DefaultBodyLimit))
}

// Echo returns the underlying echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

type healthResponse struct {
	Status           string                 `json:"status"`
	Version          string                 `json:"version"`
	Uptime           string                 `json:"uptime"`
	InFlightRequests float64                `json:"inflight_requests"`
	Caches           map[string]cache.Stats `json:"caches,omitempty"`
}

func (s *Server) healthCheck(c echo.Context) error {
	resp := healthResponse{
		Status:  "healthy",
		Version: buildinfo.Get().Version,
		Uptime:  time.Since(s.startTime).Round(time.Second).String(),
	}
	if s.metrics != nil {
		resp.InFlightRequests = s.metrics.HTTP.InFlight()
	}
	if len(s.cacheInfo) > 0 {
		resp.Caches = make(map[string]cache.Stats, len(s.cacheInfo))
		for name, stats := range s.cacheInfo {
			resp.Caches[name] = stats()
		}
	}
	return c.JSON(http.StatusOK, resp)
}

// Start begins serving and blocks until the server stops.
// http.ErrServerClosed is not reported as an error.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return errors.Newf("server already started").Component("api").Category(errors.CategoryConflict).Build()
	}
	s.started = true
	s.mu.Unlock()

	s.log.Info("starting HTTP server", logger.String("listen", s.settings.Listen))
	if err := s.echo.Start(s.settings.Listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.New(err).
			Component("api").
			Category(errors.CategoryNetwork).
			Context("listen", s.settings.Listen).
			Build()
	}
	return nil
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutdown signal received")
	timeout := s.settings.ShutdownTimeout
	if timeout <= 0 {
		timeout = DefaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		s.log.Error("HTTP server shutdown failed", logger.Error(err))
		return errors.New(err).Component("api").Category(errors.CategoryTimeout).Build()
	}
	s.log.Info("HTTP server stopped")
	_ = s.log.Flush()
	return nil
}
