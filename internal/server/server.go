package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/octobees/portal/internal/config"
	"github.com/octobees/portal/internal/handler"
	middlewarepkg "github.com/octobees/portal/internal/middleware"
	"github.com/octobees/portal/internal/passport"
	"github.com/octobees/portal/internal/router"
	"github.com/octobees/portal/internal/session"
)

const shutdownTimeout = 10 * time.Second

// Deps carries everything the HTTP server is assembled from.
type Deps struct {
	Config   *config.Config
	Logger   *zap.Logger
	Sessions *session.Manager
	Auth     *passport.Authenticator
	Renderer echo.Renderer
	// Public is served as static files from the site root.
	Public fs.FS
	// Registry receives the HTTP metrics and backs /metrics.
	Registry *prometheus.Registry
	Handlers router.Handlers
}

// Server is the portal HTTP server.
type Server struct {
	echo   *echo.Echo
	addr   string
	logger *zap.Logger
}

// New builds the echo instance. Middleware runs in registration order:
// request id, request log, panic recovery, metrics, static files, session,
// authentication, template locals, then the routes and the 404 responder.
func New(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	reg := deps.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = deps.Renderer
	e.HTTPErrorHandler = handler.ErrorHandler(logger)

	e.Use(middlewarepkg.RequestID())
	e.Use(middlewarepkg.Logging(logger))
	e.Use(echoMiddleware.Recover())
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "portal",
		Subsystem:  "http",
		Registerer: reg,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics" || c.Path() == "/healthz"
		},
	}))
	if deps.Public != nil {
		e.Use(echoMiddleware.StaticWithConfig(echoMiddleware.StaticConfig{
			Root:       ".",
			Filesystem: http.FS(deps.Public),
			Skipper: func(c echo.Context) bool {
				m := c.Request().Method
				return m != http.MethodGet && m != http.MethodHead
			},
		}))
	}
	e.Use(deps.Sessions.Middleware())
	e.Use(deps.Auth.Initialize(), deps.Auth.Session())
	e.Use(middlewarepkg.Locals())

	handlers := deps.Handlers
	if handlers.Metrics == nil {
		handlers.Metrics = echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: reg})
	}
	router.Register(e, deps.Config, deps.Auth, handlers)
	e.RouteNotFound("/*", handler.NotFound)

	return &Server{echo: e, addr: deps.Config.Addr(), logger: logger}
}

// Handler exposes the router for in-process use.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Addr returns the bound listener address once Run has started listening.
func (s *Server) Addr() net.Addr {
	return s.echo.ListenerAddr()
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.addr))
		serverErr <- s.echo.Start(s.addr)
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	if err := <-serverErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}
