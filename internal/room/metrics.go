package room

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	activeRooms = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "signaling_active_rooms",
		Help: "Number of rooms with at least one session.",
	})
	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "signaling_active_sessions",
		Help: "Number of connected sessions across all rooms.",
	})
	framesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "signaling_frames_total",
		Help: "Inbound frames by type (malformed and unknown included).",
	}, []string{"type"})
	broadcastFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "signaling_broadcast_failures_total",
		Help: "Frame deliveries that failed and triggered peer cleanup.",
	})
	sessionsSwept = promauto.NewCounter(prometheus.CounterOpts{
		Name: "signaling_sessions_swept_total",
		Help: "Sessions reclaimed by the idle sweep.",
	})
)
