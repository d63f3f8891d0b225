package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/nfrund/chatrelay/internal/app"
	"github.com/nfrund/chatrelay/internal/auth"
	"github.com/nfrund/chatrelay/internal/config"
	"github.com/nfrund/chatrelay/internal/middleware"
	"github.com/nfrund/chatrelay/internal/module"
	"github.com/nfrund/chatrelay/internal/presence"
	"github.com/nfrund/chatrelay/internal/pubsub"
	"github.com/nfrund/chatrelay/internal/registry"
	"github.com/nfrund/chatrelay/internal/websocket"
)

// Server holds the dependencies for the HTTP server.
type Server struct {
	E         *echo.Echo
	Cfg       *config.Config
	Bus       pubsub.Bus
	Hub       *websocket.Hub
	Registry  *registry.Registry
	validator *auth.Validator
	modules   []module.Module

	// subscriptions live until cancelSubs; closers run last, in reverse order.
	subsCtx    context.Context
	cancelSubs context.CancelFunc
	closers    []func()
}

// New wires the relay from cfg: backends, hub, registry and modules. Routes
// are registered and modules booted, but nothing listens until Start.
func New(ctx context.Context, cfg *config.Config) (*Server, error) {
	s := &Server{
		Cfg:       cfg,
		validator: auth.NewValidator(cfg.JWTSecret),
		modules:   app.NewModules(),
	}
	s.subsCtx, s.cancelSubs = context.WithCancel(context.Background())

	if err := s.setup(ctx); err != nil {
		s.cancelSubs()
		s.runClosers()
		return nil, err
	}
	return s, nil
}

func (s *Server) setup(ctx context.Context) error {
	b, err := openBackends(ctx, s.Cfg)
	if err != nil {
		return err
	}
	s.closers = append(s.closers, b.closers...)
	s.Bus = b.bus

	s.Hub = websocket.NewHub(
		websocket.WithOriginPatterns(s.Cfg.Origins()...),
		websocket.WithLifecycle(presence.NewWatcher(s.Bus)),
	)

	s.Registry = registry.New(s.Cfg)
	registerCoreServices(s.Registry, s.Cfg, b, s.Hub)

	s.E = echo.New()
	s.E.HideBanner = true
	s.E.Use(echomw.Recover())
	s.E.Use(echomw.RequestID())
	s.E.Use(middleware.Logger)
	setupErrorHandling(s.E)

	api := s.E.Group("/api")
	if err := bootModules(s.subsCtx, s.modules, api, s.Registry); err != nil {
		return err
	}
	s.RegisterRoutes()
	return nil
}

func (s *Server) runClosers() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// setupErrorHandling logs unhandled handler errors with a stack trace and
// hides their text from the client. echo.HTTPErrors keep echo's behavior.
func setupErrorHandling(e *echo.Echo) {
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			e.DefaultHTTPErrorHandler(err, c)
			return
		}

		middleware.FromContext(c.Request().Context()).Error("Internal Server Error (Unhandled)",
			"error", err,
			"method", c.Request().Method,
			"path", c.Request().URL.Path,
			"stack_trace", string(debug.Stack()),
		)
		if err := c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal server error"}); err != nil {
			slog.Error("Failed to write error response", "error", fmt.Sprint(err))
		}
	}
}
