package core

import (
	"encoding/json"
	"fmt"

	"github.com/dkeye/Relay/internal/domain"
)

// Envelope is the outbound broadcast shape. System notices set System and
// Text; chat messages set User, Payload and Room.
type Envelope struct {
	Type    string          `json:"type"`
	System  bool            `json:"system,omitempty"`
	Text    string          `json:"text,omitempty"`
	User    domain.Username `json:"user,omitempty"`
	Payload string          `json:"payload,omitempty"`
	Room    domain.RoomCode `json:"room,omitempty"`
}

const EnvelopeMessage = "message"

func NoticeEnvelope(text string) Envelope {
	return Envelope{Type: EnvelopeMessage, System: true, Text: text}
}

func ChatEnvelope(m domain.Message) Envelope {
	return Envelope{Type: EnvelopeMessage, User: m.Author, Payload: m.Payload, Room: m.Room}
}

func JoinedNotice(user domain.Username, room domain.RoomCode) Envelope {
	return NoticeEnvelope(fmt.Sprintf("%s joined %s", user, room))
}

func KickedNotice(user domain.Username) Envelope {
	return NoticeEnvelope(fmt.Sprintf("%s was kicked by admin", user))
}

func ClearedNotice() Envelope {
	return NoticeEnvelope("All messages cleared by admin")
}

type noticeFrame struct {
	Type   string `json:"type"`
	System bool   `json:"system"`
	Text   string `json:"text"`
}

type chatFrame struct {
	Type    string          `json:"type"`
	User    domain.Username `json:"user"`
	Payload string          `json:"payload"`
	Room    domain.RoomCode `json:"room"`
}

// Frame encodes notices as {type, system, text} and chat messages as
// {type, user, payload, room}. Every field of the chosen shape is always present.
func (e Envelope) Frame() (Frame, error) {
	var v any = chatFrame{Type: e.Type, User: e.User, Payload: e.Payload, Room: e.Room}
	if e.System {
		v = noticeFrame{Type: e.Type, System: true, Text: e.Text}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	return Frame(b), nil
}
