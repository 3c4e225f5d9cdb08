package orch

import (
	"errors"

	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/dkeye/Relay/internal/metrics"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// ListOnlineUsers returns every room with its participant join log.
func (o *Orchestrator) ListOnlineUsers() []core.RoomInfo {
	metrics.AdminActions.WithLabelValues("list_users").Inc()
	return o.Rooms.List()
}

// ListRoomsAndMessages returns the retained messages of every room.
func (o *Orchestrator) ListRoomsAndMessages() []core.RoomMessages {
	metrics.AdminActions.WithLabelValues("list_rooms_and_messages").Inc()
	rooms := o.Rooms.List()
	out := make([]core.RoomMessages, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, core.RoomMessages{
			Code:     r.Code,
			Messages: lo.Map(o.Rooms.ListMessages(r.Code), func(m domain.Message, _ int) core.MessageDTO { return core.NewMessageDTO(m) }),
		})
	}
	return out
}

// ListSessions exposes the live session registry.
func (o *Orchestrator) ListSessions() []core.SessionInfo {
	return o.Registry.Sessions()
}

// Kick removes one occurrence of username from each room listing it and
// notifies those rooms. Live sessions of the user stay connected.
func (o *Orchestrator) Kick(username domain.Username) []domain.RoomCode {
	metrics.AdminActions.WithLabelValues("kick").Inc()
	var affected []domain.RoomCode
	for _, code := range o.Rooms.RoomsWith(username) {
		unlock := o.Registry.LockRoom(code)
		if o.Rooms.RemoveParticipant(code, username) {
			affected = append(affected, code)
			o.broadcast(code, core.KickedNotice(username))
		}
		unlock()
	}
	log.Info().Str("module", "orch.admin").Str("user", string(username)).Int("rooms", len(affected)).Msg("kick")
	return affected
}

// ClearRoom purges a room's history and notifies its members. A missing room
// is a no-op reported as false.
func (o *Orchestrator) ClearRoom(code domain.RoomCode) bool {
	metrics.AdminActions.WithLabelValues("clear").Inc()
	if !o.Rooms.Exists(code) {
		log.Info().Str("module", "orch.admin").Str("room", string(code)).Str("reason", "room_not_found").Msg("clear ignored")
		return false
	}
	unlock := o.Registry.LockRoom(code)
	defer unlock()
	n, err := o.Rooms.Purge(code)
	if errors.Is(err, domain.ErrRoomNotFound) {
		return false
	}
	o.broadcast(code, core.ClearedNotice())
	log.Info().Str("module", "orch.admin").Str("room", string(code)).Int("removed", n).Msg("room cleared")
	return true
}

func (o *Orchestrator) BlockUser(username domain.Username) bool {
	metrics.AdminActions.WithLabelValues("block").Inc()
	added := o.Blocked.Block(username)
	log.Info().Str("module", "orch.admin").Str("user", string(username)).Bool("changed", added).Msg("block")
	return added
}

func (o *Orchestrator) UnblockUser(username domain.Username) bool {
	metrics.AdminActions.WithLabelValues("unblock").Inc()
	removed := o.Blocked.Unblock(username)
	log.Info().Str("module", "orch.admin").Str("user", string(username)).Bool("changed", removed).Msg("unblock")
	return removed
}

func (o *Orchestrator) BlockedUsers() []domain.Username {
	return o.Blocked.List()
}
