package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Joins = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_joins_total",
			Help: "Total accepted join events",
		},
	)

	RoomsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_rooms_created_total",
			Help: "Total rooms created",
		},
	)

	MessagesPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_messages_published_total",
			Help: "Total messages stored and broadcast",
		},
	)

	EventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_events_dropped_total",
			Help: "Total inbound events dropped",
		},
		[]string{"reason"}, // malformed, blocked, room_not_found, not_joined, rate_limited
	)

	FramesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_frames_dropped_total",
			Help: "Outbound frames a recipient could not accept",
		},
	)

	MessagesSwept = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_messages_swept_total",
			Help: "Total messages removed by the retention sweeper",
		},
	)

	AdminActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_admin_actions_total",
			Help: "Total admin control plane actions",
		},
		[]string{"action"},
	)

	Sessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_sessions",
			Help: "Live transport sessions",
		},
	)
)
