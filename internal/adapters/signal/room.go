package signal

import (
	"encoding/json"
	"errors"

	"github.com/dkeye/Relay/internal/app/orch"
	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/rs/zerolog/log"
)

// handleJoin answers an accepted join with the room code. Malformed joins are
// dropped without a reply, like malformed publishes.
func (ctl *SignalWSController) handleJoin(
	sid core.SessionID,
	conn core.SignalConnection,
	defaults loginDefaults,
	data []byte,
) {
	var evt domain.JoinEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		dropped(sid, "malformed", err)
		return
	}
	if evt.Username == "" {
		evt.Username = defaults.Username
	}
	if evt.Room == "" {
		evt.Room = defaults.Room
	}

	code, err := ctl.Orch.Join(sid, evt)
	switch {
	case err == nil:
	case errors.Is(err, orch.ErrAlreadyJoined):
		ctl.sendError(conn, "already_joined")
		return
	case errors.Is(err, domain.ErrMalformedEvent):
		// already logged as a drop; malformed events get no answer
		return
	default:
		ctl.sendError(conn, "join_failed")
		return
	}

	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room", string(code)).Msg("join")
	resp := struct {
		Type string          `json:"type"`
		Room domain.RoomCode `json:"room"`
	}{
		Type: "joined",
		Room: code,
	}
	ctl.sendJSON(conn, resp)
}

// handlePublish never answers the sender. Rejected events are only logged.
func (ctl *SignalWSController) handlePublish(sid core.SessionID, data []byte) {
	var evt domain.PublishEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		dropped(sid, "malformed", err)
		return
	}
	if !ctl.Limiter.Allow(sid) {
		dropped(sid, "rate_limited", nil)
		return
	}
	_ = ctl.Orch.Publish(sid, evt)
}

func (ctl *SignalWSController) sendError(conn core.SignalConnection, reason string) {
	ctl.sendJSON(conn, map[string]any{
		"type":  "error",
		"error": reason,
	})
}
