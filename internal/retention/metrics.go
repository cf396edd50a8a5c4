package retention

import "github.com/prometheus/client_golang/prometheus"

var (
	runsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ghostline",
		Subsystem: "retention",
		Name:      "runs_total",
		Help:      "Retention sweeps, labeled by trigger and outcome.",
	}, []string{"trigger", "outcome"})

	viewersExpired = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ghostline",
		Subsystem: "retention",
		Name:      "viewers_expired_total",
		Help:      "Per-viewer countdowns moved into hiddenFor by sweeps.",
	})

	tombstoned = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ghostline",
		Subsystem: "retention",
		Name:      "tombstoned_total",
		Help:      "Messages tombstoned by sweeps.",
	})

	lastRun = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "ghostline",
		Subsystem: "retention",
		Name:      "last_run_timestamp_seconds",
		Help:      "Clock time of the last completed sweep.",
	})

	runDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "ghostline",
		Subsystem: "retention",
		Name:      "run_duration_seconds",
		Help:      "Wall time spent in a sweep.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 4, 8),
	})

	nudgesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ghostline",
		Subsystem: "retention",
		Name:      "nudges_total",
		Help:      "Single message sweeps requested by stale reads, labeled by result.",
	}, []string{"result"})
)

func init() {
	prometheus.MustRegister(runsTotal)
	prometheus.MustRegister(viewersExpired)
	prometheus.MustRegister(tombstoned)
	prometheus.MustRegister(lastRun)
	prometheus.MustRegister(runDuration)
	prometheus.MustRegister(nudgesTotal)
}
