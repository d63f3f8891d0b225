package middleware

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/chatrelay/internal/auth"
	"github.com/nfrund/chatrelay/internal/domain"
)

// ConnectionContextKey is the echo context key holding the handshake's
// domain.ConnectionContext.
const ConnectionContextKey = "connection"

// IdentityResolver turns a bearer token into the identity it was issued to.
type IdentityResolver interface {
	Identity(token string) (auth.Identity, error)
}

// Handshake authenticates a connection upgrade from its token and roomId
// query parameters. A request that fails any check is answered 401 and
// never reaches next.
func Handshake(resolver IdentityResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			logger := FromContext(c.Request().Context())

			token := c.QueryParam("token")
			rawRoom := c.QueryParam("roomId")
			if token == "" || rawRoom == "" {
				logger.Info("Handshake rejected: missing token or roomId")
				return reject(c)
			}

			identity, err := resolver.Identity(token)
			if err != nil {
				logger.Info("Handshake rejected: invalid token")
				return reject(c)
			}

			roomID, err := strconv.ParseInt(rawRoom, 10, 64)
			if err != nil || roomID <= 0 {
				logger.Info("Handshake rejected: invalid roomId", "room_id", rawRoom)
				return reject(c)
			}

			conn := domain.NewConnectionContext(identity.UserID, identity.Username, roomID)
			c.Set(ConnectionContextKey, conn)
			bindLogFields(c,
				"connection_id", conn.ConnectionID(),
				"user_id", conn.UserID(),
				"room_id", conn.RoomID(),
			).Debug("Handshake accepted")

			return next(c)
		}
	}
}

// The body never says which check failed.
func reject(c echo.Context) error {
	return c.String(http.StatusUnauthorized, "Unauthorized")
}

// ConnectionFrom returns the ConnectionContext set by Handshake.
func ConnectionFrom(c echo.Context) (domain.ConnectionContext, bool) {
	conn, ok := c.Get(ConnectionContextKey).(domain.ConnectionContext)
	if !ok || !conn.Valid() {
		return domain.ConnectionContext{}, false
	}
	return conn, true
}
