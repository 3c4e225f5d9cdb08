package app

import (
	"errors"

	"github.com/dkeye/Relay/internal/core"
	"github.com/rs/zerolog/log"
)

// PublishResult reports delivery stats/backpressure to orchestrator.
type PublishResult struct {
	SendTo  int
	Dropped []core.MemberSession
}

// Deliver hands frame to every member without blocking. A recipient whose
// buffer is full or whose connection is gone ends up in Dropped.
func Deliver(members []regSnap, frame core.Frame) PublishResult {
	res := PublishResult{}
	for _, m := range members {
		if err := m.Session.Signal().TrySend(frame); err != nil {
			if !errors.Is(err, core.ErrBackpressure) {
				log.Debug().Err(err).Str("module", "app.relay").Str("sid", string(m.SID)).Msg("send failed")
			}
			res.Dropped = append(res.Dropped, m.Session)
			continue
		}
		res.SendTo++
	}
	return res
}
