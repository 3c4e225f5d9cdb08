package core

import "github.com/dkeye/Relay/internal/domain"

type SessionID string

// SessionState follows Unjoined -> Joined -> Disconnected, nothing else.
type SessionState int

const (
	Unjoined SessionState = iota
	Joined
	Disconnected
)

func (s SessionState) String() string {
	switch s {
	case Unjoined:
		return "unjoined"
	case Joined:
		return "joined"
	case Disconnected:
		return "disconnected"
	}
	return "unknown"
}

// MemberSession binds a connected client and its transport endpoint.
// This is what the registry stores and fans out to.
type MemberSession interface {
	ID() SessionID
	Signal() SignalConnection
}

type memberSession struct {
	id     SessionID
	signal SignalConnection
}

func NewMemberSession(id SessionID, signal SignalConnection) MemberSession {
	return &memberSession{id: id, signal: signal}
}

func (m *memberSession) ID() SessionID            { return m.id }
func (m *memberSession) Signal() SignalConnection { return m.signal }

// SessionInfo is a read-only view of a live session.
type SessionInfo struct {
	ID       SessionID       `json:"sid"`
	Username domain.Username `json:"username,omitempty"`
	Room     domain.RoomCode `json:"room,omitempty"`
	State    string          `json:"state"`
}
