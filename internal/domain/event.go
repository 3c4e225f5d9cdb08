package domain

import "errors"

var (
	ErrMalformedEvent = errors.New("malformed event")
	ErrNotJoined      = errors.New("session not joined")
	ErrBlocked        = errors.New("author blocked")
)

// JoinEvent is handed to the relay by the transport when a client asks to
// enter a room. An empty Room asks for a fresh one.
type JoinEvent struct {
	Username string `json:"username" validate:"required,max=36"`
	Room     string `json:"room" validate:"omitempty,max=32"`
}

// PublishEvent carries an opaque payload for every member of Room.
type PublishEvent struct {
	Username string `json:"user" validate:"required,max=36"`
	Room     string `json:"room" validate:"required,max=32"`
	Payload  string `json:"payload"`
}
