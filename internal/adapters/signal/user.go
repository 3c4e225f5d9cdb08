package signal

import (
	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
)

func (ctl *SignalWSController) handleWhoAmI(
	sid core.SessionID,
	conn core.SignalConnection,
) {
	resp := struct {
		Type     string          `json:"type"`
		SID      core.SessionID  `json:"sid"`
		State    string          `json:"state"`
		Username domain.Username `json:"username,omitempty"`
		Room     domain.RoomCode `json:"room,omitempty"`
	}{
		Type:  "whoami",
		SID:   sid,
		State: ctl.Orch.Registry.State(sid).String(),
	}
	if room, username, ok := ctl.Orch.Registry.RoomOf(sid); ok {
		resp.Room = room
		resp.Username = username
	}
	ctl.sendJSON(conn, resp)
}
