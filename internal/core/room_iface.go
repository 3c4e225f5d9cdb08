package core

import (
	"time"

	"github.com/dkeye/Relay/internal/domain"
)

// RoomInfo is a point-in-time view of a room for APIs. Participants is the
// join log in join order, duplicates included.
type RoomInfo struct {
	Code         domain.RoomCode   `json:"code"`
	Participants []domain.Username `json:"participants"`
	MessageCount int               `json:"message_count"`
}

// MessageDTO is a read-only view of a retained message.
type MessageDTO struct {
	Author    domain.Username `json:"author"`
	Payload   string          `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

func NewMessageDTO(m domain.Message) MessageDTO {
	return MessageDTO{Author: m.Author, Payload: m.Payload, CreatedAt: m.CreatedAt}
}

// RoomMessages pairs a room with its retained messages, oldest first.
type RoomMessages struct {
	Code     domain.RoomCode `json:"code"`
	Messages []MessageDTO    `json:"messages"`
}
