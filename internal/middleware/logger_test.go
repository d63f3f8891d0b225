package middleware

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/chatrelay/internal/auth"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestLogger_InjectsRequestID(t *testing.T) {
	buf := captureLogs(t)

	e := echo.New()
	e.Use(echomw.RequestID(), Logger)
	e.GET("/", func(c echo.Context) error {
		FromContext(c.Request().Context()).Info("handled")
		return c.NoContent(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	reqID := rec.Header().Get(echo.HeaderXRequestID)
	assert.NotEmpty(t, reqID)
	assert.Contains(t, buf.String(), `"request_id":"`+reqID+`"`)
	assert.Contains(t, buf.String(), `"method":"GET"`)
	assert.Contains(t, buf.String(), `"path":"/"`)
}

func TestLogger_HandshakeNamesTheConnection(t *testing.T) {
	buf := captureLogs(t)

	validator := auth.NewValidator(testSecret)
	token, err := validator.Issue(auth.Identity{UserID: 3, Username: "carol"}, time.Hour)
	require.NoError(t, err)

	e := echo.New()
	e.Use(echomw.RequestID(), Logger)
	var connectionID string
	e.GET("/ws", func(c echo.Context) error {
		conn, ok := ConnectionFrom(c)
		require.True(t, ok)
		connectionID = conn.ConnectionID()
		FromContext(c.Request().Context()).Info("serving")
		return c.NoContent(http.StatusOK)
	}, Handshake(validator))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws?token="+token+"&roomId=9", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var served string
	for _, line := range bytes.Split(buf.Bytes(), []byte("\n")) {
		if bytes.Contains(line, []byte(`"msg":"serving"`)) {
			served = string(line)
		}
	}
	require.NotEmpty(t, served)
	assert.Contains(t, served, `"connection_id":"`+connectionID+`"`)
	assert.Contains(t, served, `"user_id":3`)
	assert.Contains(t, served, `"room_id":9`)
}

func TestFromContext_Default(t *testing.T) {
	assert.Equal(t, slog.Default(), FromContext(context.Background()))
}
