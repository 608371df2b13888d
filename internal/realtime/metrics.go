package realtime

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "forever",
		Subsystem: "realtime",
		Name:      "connections",
		Help:      "Live websocket connections.",
	})

	metricOnlineUsers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "forever",
		Subsystem: "realtime",
		Name:      "online_users",
		Help:      "Users with at least one live connection.",
	})

	metricMessagesRelayed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "forever",
		Subsystem: "realtime",
		Name:      "messages_relayed_total",
		Help:      "Messages persisted and fanned out.",
	})

	metricMessagesFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "forever",
		Subsystem: "realtime",
		Name:      "messages_failed_total",
		Help:      "Message sends rejected before fan-out.",
	}, []string{"reason"})

	metricTypingSignals = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "forever",
		Subsystem: "realtime",
		Name:      "typing_signals_total",
		Help:      "Typing indicators relayed.",
	})

	metricPresenceBroadcasts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "forever",
		Subsystem: "realtime",
		Name:      "presence_broadcasts_total",
		Help:      "Presence snapshot broadcasts.",
	})

	metricDroppedSends = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "forever",
		Subsystem: "realtime",
		Name:      "dropped_sends_total",
		Help:      "Frames dropped because a connection queue was full or closing.",
	})
)
