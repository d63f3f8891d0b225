package collab

import (
	"context"
	"fmt"
	"strconv"

	"github.com/nfrund/chatrelay/internal/domain"
)

// HTTPRoomDirectory reads rooms from the chat service's
// GET /chatrooms/{id} endpoint.
type HTTPRoomDirectory struct {
	endpoint
}

var _ RoomDirectory = (*HTTPRoomDirectory)(nil)

// NewRoomDirectory returns a client for the chat service at baseURL.
func NewRoomDirectory(baseURL string, opts ...Option) *HTTPRoomDirectory {
	return &HTTPRoomDirectory{endpoint: newEndpoint(baseURL, opts)}
}

type roomDTO struct {
	ID       int64  `json:"id"`
	RoomName string `json:"roomName"`
}

func (d *HTTPRoomDirectory) Room(ctx context.Context, id int64) (domain.Room, error) {
	var dto roomDTO
	if err := d.getJSON(ctx, "/chatrooms/"+strconv.FormatInt(id, 10), nil, &dto); err != nil {
		return domain.Room{}, fmt.Errorf("room %d: %w", id, err)
	}
	return domain.Room{ID: dto.ID, Name: dto.RoomName}, nil
}
