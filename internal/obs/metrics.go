package obs

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Sync and engine metrics.
var (
	ActionsApplied = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledgerkeep_actions_applied_total",
			Help: "Actions accepted by the reducer.",
		},
		[]string{"kind", "origin"},
	)

	QueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ledgerkeep_outbox_pending_items",
		Help: "Sync-queue items awaiting remote acknowledgment.",
	})

	ReplayOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledgerkeep_replay_items_total",
			Help: "Outbox replay attempts by outcome.",
		},
		[]string{"outcome"}, // acked | failed | dropped
	)

	Reconciliations = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledgerkeep_reconciliations_total",
		Help: "Full-snapshot reconciliations performed.",
	})

	SelfEchoes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledgerkeep_realtime_self_echoes_total",
		Help: "Real-time events suppressed as self-echoes.",
	})

	RemoteCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledgerkeep_remote_calls_total",
			Help: "Remote service calls by result class.",
		},
		[]string{"op", "result"}, // result: ok | network | auth | validation
	)
)

var registerOnce sync.Once

// Init registers the collectors with the default registry. Safe to call
// more than once; registration happens on the first call only.
func Init() {
	registerOnce.Do(register)
}

func register() {
	prometheus.MustRegister(
		ActionsApplied,
		QueueDepth,
		ReplayOutcomes,
		Reconciliations,
		SelfEchoes,
		RemoteCalls,
	)
}

// Handler serves the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
