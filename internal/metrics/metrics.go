package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "slotnik",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	bookingsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "slotnik",
			Name:      "bookings_created_total",
			Help:      "Bookings successfully proposed.",
		},
	)

	bookingConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "slotnik",
			Name:      "booking_conflicts_total",
			Help:      "Proposals rejected because the slot was held.",
		},
	)

	notifyFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "slotnik",
			Name:      "notify_failures_total",
			Help:      "Notification deliveries that exhausted retries.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, bookingsCreated, bookingConflicts, notifyFailures)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// IncCreated counts a successful proposal.
func IncCreated() {
	bookingsCreated.Inc()
}

// IncConflict counts a rejected duplicate slot.
func IncConflict() {
	bookingConflicts.Inc()
}

// IncNotifyFailure counts a dropped notification.
func IncNotifyFailure() {
	notifyFailures.Inc()
}
