package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "roombot"

var (
	once sync.Once

	listingsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listings_created_total",
			Help:      "Count of draft listings created by intake flow.",
		},
		[]string{"flow"},
	)

	duplicatesRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicates_rejected_total",
			Help:      "Count of listings rejected as duplicates by reason.",
		},
		[]string{"reason"},
	)

	groupBatches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "group_batches_total",
			Help:      "Count of media group batches by buffer and outcome.",
		},
		[]string{"buffer", "outcome"},
	)

	mediaSaved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "media_saved_total",
			Help:      "Count of media items persisted by outcome.",
		},
		[]string{"outcome"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(listingsCreated, duplicatesRejected, groupBatches, mediaSaved)
	})
}

func IncListingCreated(flow string) {
	listingsCreated.WithLabelValues(flow).Inc()
}

func IncDuplicateRejected(reason string) {
	duplicatesRejected.WithLabelValues(reason).Inc()
}

// IncGroupBatch counts a buffered media group. Outcome is "delivered",
// "flushed" or "discarded".
func IncGroupBatch(buffer, outcome string) {
	groupBatches.WithLabelValues(buffer, outcome).Inc()
}

// AddMediaSaved counts attached media. Outcome is "added", "failed" or
// "duplicate".
func AddMediaSaved(outcome string, n int) {
	if n <= 0 {
		return
	}
	mediaSaved.WithLabelValues(outcome).Add(float64(n))
}
