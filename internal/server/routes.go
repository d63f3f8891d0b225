package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/chatrelay/internal/middleware"
)

// RegisterRoutes sets up the routes owned by the server itself. Module routes
// live under /api and are added at boot.
func (s *Server) RegisterRoutes() {
	s.E.GET("/ws", s.Hub.Handler(),
		middleware.RateLimiter(s.Cfg.UpgradeRateLimit),
		middleware.Handshake(s.validator),
	)

	s.E.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})
}
