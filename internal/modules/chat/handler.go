package chat

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/chatrelay/internal/domain"
	"github.com/nfrund/chatrelay/internal/middleware"
)

// Handler holds dependencies for the chat module's HTTP handlers.
type Handler struct {
	membership *Membership
}

// NewHandler creates a new chat handler with its dependencies.
func NewHandler(membership *Membership) *Handler {
	return &Handler{membership: membership}
}

// MembersResponse is the body of GET /rooms/:roomId/members.
type MembersResponse struct {
	RoomID int64         `json:"roomId"`
	Users  []domain.User `json:"users"`
	Count  int           `json:"count"`
}

// Members returns the resolved member list of a room, the same list the
// membership channel carries.
func (h *Handler) Members(c echo.Context) error {
	logger := middleware.FromContext(c.Request().Context())

	roomID, err := strconv.ParseInt(c.Param("roomId"), 10, 64)
	if err != nil || roomID <= 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid room id"})
	}

	users, err := h.membership.Snapshot(c.Request().Context(), roomID)
	if err != nil {
		logger.Error("Failed to read room membership", "room_id", roomID, "error", err)
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "presence store unavailable"})
	}

	return c.JSON(http.StatusOK, MembersResponse{RoomID: roomID, Users: users, Count: len(users)})
}
