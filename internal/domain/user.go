package domain

// User is the display record of a chat participant, as served by the user
// service.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Room is a chat room as known to the room registry.
type Room struct {
	ID   int64  `json:"id" validate:"required,gt=0"`
	Name string `json:"name"`
}
