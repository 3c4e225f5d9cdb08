package orch

import (
	"context"

	"github.com/dkeye/Relay/internal/app"
	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/dkeye/Relay/internal/metrics"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

var validate = validator.New()

// Orchestrator is the relay engine. It turns transport events into store
// mutations and fans the results out to the sessions bound to each room.
type Orchestrator struct {
	Registry *app.Registry
	Rooms    *app.RoomStore
	Blocked  *app.Blocklist
	Policy   app.Policy

	// PruneOnDisconnect removes one participant entry when a joined session
	// disconnects. Off by default: participant lists are a join log.
	PruneOnDisconnect bool
}

// Connect registers a transport session in the Unjoined state.
func (o *Orchestrator) Connect(sess core.MemberSession, cancel context.CancelFunc) {
	o.Registry.BindSignal(sess, cancel)
	metrics.Sessions.Inc()
}

// Disconnect is terminal for the session. The participant entry stays in the
// room unless PruneOnDisconnect is set.
func (o *Orchestrator) Disconnect(sid core.SessionID) {
	state, code, username, ok := o.Registry.Unbind(sid)
	if !ok {
		return
	}
	metrics.Sessions.Dec()
	if !o.PruneOnDisconnect || state != core.Joined {
		return
	}
	unlock := o.Registry.LockRoom(code)
	defer unlock()
	if o.Rooms.RemoveParticipant(code, username) {
		log.Info().Str("module", "orch").Str("sid", string(sid)).Str("user", string(username)).Str("room", string(code)).Msg("pruned participant on disconnect")
	}
}

// broadcast must run while the room's ordering lock is held.
func (o *Orchestrator) broadcast(code domain.RoomCode, env core.Envelope) app.PublishResult {
	frame, err := env.Frame()
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Str("room", string(code)).Msg("broadcast encode")
		return app.PublishResult{}
	}
	members := o.Registry.MembersOfRoom(code)
	res := app.Deliver(members, frame)
	log.Debug().Str("module", "orch").Str("room", string(code)).Int("sent_to", res.SendTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	if len(res.Dropped) == 0 {
		return res
	}
	metrics.FramesDropped.Add(float64(len(res.Dropped)))
	if o.Policy == nil {
		return res
	}
	for _, slow := range res.Dropped {
		switch o.Policy.OnBackPressure(code, slow) {
		case app.KickMember:
			log.Warn().Str("module", "orch").Str("sid", string(slow.ID())).Str("room", string(code)).Str("reason", "backpressure").Msg("disconnecting slow session")
			o.Registry.Cancel(slow.ID())
		case app.DropFrame, app.NoAction:
			log.Warn().Str("module", "orch").Str("sid", string(slow.ID())).Str("room", string(code)).Str("reason", "backpressure").Msg("frame dropped")
		}
	}
	return res
}

func dropped(sid core.SessionID, reason string, err error) {
	metrics.EventsDropped.WithLabelValues(reason).Inc()
	log.Warn().Err(err).Str("module", "orch").Str("sid", string(sid)).Str("reason", reason).Msg("event dropped")
}
