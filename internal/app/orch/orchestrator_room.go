package orch

import (
	"errors"
	"fmt"

	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/dkeye/Relay/internal/metrics"
	"github.com/rs/zerolog/log"
)

var ErrAlreadyJoined = errors.New("session already joined")

// Join creates or joins a room, binds the session to it and announces the
// joiner to every member, the joiner included.
func (o *Orchestrator) Join(sid core.SessionID, evt domain.JoinEvent) (domain.RoomCode, error) {
	if err := validate.Struct(evt); err != nil {
		dropped(sid, "malformed", err)
		return "", fmt.Errorf("join: %w: %v", domain.ErrMalformedEvent, err)
	}
	username, err := domain.NewUsername(evt.Username)
	if err != nil {
		dropped(sid, "malformed", err)
		return "", fmt.Errorf("join: %w: %v", domain.ErrMalformedEvent, err)
	}
	switch o.Registry.State(sid) {
	case core.Unjoined:
	case core.Joined:
		dropped(sid, "already_joined", ErrAlreadyJoined)
		return "", ErrAlreadyJoined
	default:
		dropped(sid, "not_connected", domain.ErrNotJoined)
		return "", fmt.Errorf("join: %w", domain.ErrNotJoined)
	}

	requested := domain.NormalizeRoomCode(evt.Room)
	// Rooms are never destroyed, so an existing code stays valid under its lock.
	if requested != "" && o.Rooms.Exists(requested) {
		unlock := o.Registry.LockRoom(requested)
		defer unlock()
		code, created := o.Rooms.CreateOrJoin(requested, username)
		o.admit(sid, username, code, created)
		return code, nil
	}
	// A fresh code is unknown to everyone else until it is announced.
	code, created := o.Rooms.CreateOrJoin(requested, username)
	unlock := o.Registry.LockRoom(code)
	defer unlock()
	o.admit(sid, username, code, created)
	return code, nil
}

func (o *Orchestrator) admit(sid core.SessionID, username domain.Username, code domain.RoomCode, created bool) {
	metrics.Joins.Inc()
	if created {
		metrics.RoomsCreated.Inc()
	}
	if !o.Registry.BindRoom(sid, username, code) {
		log.Warn().Str("module", "orch").Str("sid", string(sid)).Str("room", string(code)).Msg("session gone before bind; participant kept")
	}
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("user", string(username)).Str("room", string(code)).Bool("created", created).Msg("joined")
	o.broadcast(code, core.JoinedNotice(username, code))
}

// Publish stores the payload and broadcasts it to the room, the sender
// included. Every rejection is logged and returned for the caller's benefit,
// but transports must not surface it to the client.
func (o *Orchestrator) Publish(sid core.SessionID, evt domain.PublishEvent) error {
	if err := validate.Struct(evt); err != nil {
		dropped(sid, "malformed", err)
		return fmt.Errorf("publish: %w: %v", domain.ErrMalformedEvent, err)
	}
	username, err := domain.NewUsername(evt.Username)
	if err != nil {
		dropped(sid, "malformed", err)
		return fmt.Errorf("publish: %w: %v", domain.ErrMalformedEvent, err)
	}
	code := domain.NormalizeRoomCode(evt.Room)
	if code == "" {
		dropped(sid, "malformed", domain.ErrMalformedEvent)
		return fmt.Errorf("publish: %w: empty room", domain.ErrMalformedEvent)
	}
	if o.Registry.State(sid) != core.Joined {
		dropped(sid, "not_joined", domain.ErrNotJoined)
		return fmt.Errorf("publish: %w", domain.ErrNotJoined)
	}
	if o.Blocked.IsBlocked(username) {
		dropped(sid, "blocked", nil)
		return fmt.Errorf("publish: %w", domain.ErrBlocked)
	}
	if !o.Rooms.Exists(code) {
		dropped(sid, "room_not_found", domain.ErrRoomNotFound)
		return fmt.Errorf("publish: %w", domain.ErrRoomNotFound)
	}

	unlock := o.Registry.LockRoom(code)
	defer unlock()
	msg, err := o.Rooms.Publish(code, username, evt.Payload)
	if err != nil {
		dropped(sid, "room_not_found", err)
		return err
	}
	metrics.MessagesPublished.Inc()
	o.broadcast(code, core.ChatEnvelope(msg))
	return nil
}
