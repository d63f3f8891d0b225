package middleware

import (
	"context"
	"log/slog"

	"github.com/labstack/echo/v4"
)

type contextKey string

const loggerKey = contextKey("logger")

// Logger injects a request-scoped logger tagged with the request id, method
// and path. It must run after the RequestID middleware.
func Logger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		requestLogger := slog.Default().With(
			"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
			"method", req.Method,
			"path", req.URL.Path,
		)
		c.SetRequest(req.WithContext(context.WithValue(req.Context(), loggerKey, requestLogger)))
		return next(c)
	}
}

// bindLogFields adds args to the request logger for the rest of the chain,
// so everything logged after the handshake names the connection.
func bindLogFields(c echo.Context, args ...any) *slog.Logger {
	req := c.Request()
	logger := FromContext(req.Context()).With(args...)
	c.SetRequest(req.WithContext(context.WithValue(req.Context(), loggerKey, logger)))
	return logger
}

// FromContext returns the request logger installed by Logger, or the
// default logger outside a request.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}
