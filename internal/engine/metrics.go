package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cyclesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "topomap_poll_cycles_total",
			Help: "Total number of completed poll cycles",
		},
	)

	cycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "topomap_poll_cycle_duration_seconds",
			Help:    "Time taken to poll every configured host once",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	hostPollsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "topomap_host_polls_total",
			Help: "Per-host poll outcomes",
		},
		[]string{"outcome"}, // ok, no_credentials, collect_failed, cache_write_failed
	)

	pollsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "topomap_host_polls_in_flight",
			Help: "Number of host polls currently executing",
		},
	)
)
