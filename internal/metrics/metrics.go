package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	reservationCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clubspace",
			Name:      "reservation_created_total",
			Help:      "Count of reservations created by kind.",
		},
		[]string{"kind"},
	)

	reservationCancelled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "clubspace",
			Name:      "reservation_cancelled_total",
			Help:      "Count of reservations cancelled.",
		},
	)

	conflictDetected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clubspace",
			Name:      "conflict_detected_total",
			Help:      "Count of slot requests rejected by the conflict resolver.",
		},
		[]string{"kind"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clubspace",
			Name:      "http_requests_total",
			Help:      "Count of API requests by endpoint.",
		},
		[]string{"endpoint"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(reservationCreated, reservationCancelled, conflictDetected, httpRequests)
	})
}

func IncReservationCreated(kind string) {
	reservationCreated.WithLabelValues(kind).Inc()
}

func IncReservationCancelled() {
	reservationCancelled.Inc()
}

func IncConflictDetected(kind string) {
	conflictDetected.WithLabelValues(kind).Inc()
}

func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}
