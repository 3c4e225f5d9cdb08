package domain

import "time"

// Message is immutable once created. Payload is opaque and never inspected.
type Message struct {
	Room      RoomCode
	Author    Username
	Payload   string
	CreatedAt time.Time
}

// Expired uses a strict comparison: a message exactly maxAge old is retained.
func (m Message) Expired(now time.Time, maxAge time.Duration) bool {
	return now.Sub(m.CreatedAt) > maxAge
}
