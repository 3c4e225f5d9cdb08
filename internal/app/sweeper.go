package app

import (
	"context"
	"time"

	"github.com/dkeye/Relay/internal/metrics"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/panics"
)

const (
	DefaultRetention     = 600 * time.Second
	DefaultSweepInterval = 60 * time.Second
)

// Sweeper purges expired messages on a fixed interval until its context ends.
type Sweeper struct {
	Store     *RoomStore
	Interval  time.Duration
	Retention time.Duration
}

func NewSweeper(store *RoomStore, interval, retention time.Duration) *Sweeper {
	return &Sweeper{Store: store, Interval: interval, Retention: retention}
}

func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	log.Info().Str("module", "app.sweeper").Dur("interval", s.Interval).Dur("retention", s.Retention).Msg("sweeper started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "app.sweeper").Msg("sweeper stopped")
			return nil
		case <-ticker.C:
			s.Tick()
		}
	}
}

// Tick runs one sweep. A panic inside the store is logged, not propagated.
func (s *Sweeper) Tick() int {
	var removed int
	var pc panics.Catcher
	pc.Try(func() { removed = s.Store.Sweep(s.Retention) })
	if r := pc.Recovered(); r != nil {
		log.Error().Err(r.AsError()).Str("module", "app.sweeper").Msg("sweep panicked")
		return 0
	}
	if removed > 0 {
		metrics.MessagesSwept.Add(float64(removed))
		log.Debug().Str("module", "app.sweeper").Int("removed", removed).Msg("expired messages swept")
	}
	return removed
}
