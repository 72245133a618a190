// Package metrics holds the Prometheus collectors shared by the API and the
// worker.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// Verdicts counts SLA verdicts by phase and kind.
	Verdicts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sla_verdicts_total",
			Help: "SLA verdicts produced, by phase and kind.",
		},
		[]string{"phase", "kind"},
	)
	TicketErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sla_ticket_errors_total",
		Help: "Tickets whose evaluation failed and were marked as errors.",
	})
	// ConsistencyMismatches counts results whose phase sum disagrees with the
	// total beyond the configured tolerance.
	ConsistencyMismatches = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sla_consistency_mismatches_total",
		Help: "Working-time results whose phases do not add up to the total.",
	})
	BatchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sla_batch_duration_seconds",
			Help:    "Wall time spent evaluating a ticket batch.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"tenant"},
	)
	RateLimitRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_rejections_total",
			Help: "Number of requests rejected by rate limiting.",
		},
		[]string{"route"},
	)
	WSClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ws_clients",
		Help: "Number of connected WebSocket clients",
	})
)

// Register adds every collector to reg.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(Verdicts, TicketErrors, ConsistencyMismatches, BatchDuration, RateLimitRejectionsTotal, WSClients)
}
