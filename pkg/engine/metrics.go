package engine

import "github.com/prometheus/client_golang/prometheus"

var (
	decisionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ghostline",
		Subsystem: "engine",
		Name:      "decisions_total",
		Help:      "Visibility decisions served, labeled by subject kind and state.",
	}, []string{"kind", "state"})

	countdownsArmed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ghostline",
		Subsystem: "engine",
		Name:      "countdowns_armed_total",
		Help:      "Per-viewer retention countdowns armed on first view.",
	})

	messagesSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ghostline",
		Subsystem: "engine",
		Name:      "messages_total",
		Help:      "Messages created, labeled by origin (send or forward).",
	}, []string{"origin"})

	deletionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ghostline",
		Subsystem: "engine",
		Name:      "deletions_total",
		Help:      "Applied deletions, labeled by scope (me or everyone).",
	}, []string{"scope"})

	grantsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ghostline",
		Subsystem: "engine",
		Name:      "grants_total",
		Help:      "Grant changes, labeled by action (issued or revoked).",
	}, []string{"action"})
)

func init() {
	prometheus.MustRegister(decisionsTotal)
	prometheus.MustRegister(countdownsArmed)
	prometheus.MustRegister(messagesSent)
	prometheus.MustRegister(deletionsTotal)
	prometheus.MustRegister(grantsTotal)
}
