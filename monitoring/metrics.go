package monitoring

import (
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	accessScans = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "access_scans_total",
			Help: "Ticket scan decisions by outcome",
		},
		[]string{"event_id", "decision"},
	)

	ordersCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_created_total",
			Help: "Orders persisted in PENDING status",
		},
		[]string{"event_id"},
	)

	capacityRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "capacity_rejections_total",
			Help: "Sub-orders rejected at inventory or per-account cap",
		},
		[]string{"event_id", "kind"},
	)

	settlements = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "settlements_total",
			Help: "Settlement webhook outcomes",
		},
		[]string{"outcome"},
	)

	paymentIntentDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "payment_intent_duration_seconds",
			Help:    "Latency of payment intent creation",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
	)

	feedFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_publish_failures_total",
			Help: "Dropped tenant feed notifications",
		},
		[]string{"channel"},
	)
)

func TrackScan(eventID, decision string) {
	accessScans.WithLabelValues(eventID, decision).Inc()
}

func TrackOrderCreated(eventID string) {
	ordersCreated.WithLabelValues(eventID).Inc()
}

func TrackCapacityRejection(eventID, kind string) {
	capacityRejections.WithLabelValues(eventID, kind).Inc()
}

func TrackSettlement(outcome string) {
	settlements.WithLabelValues(outcome).Inc()
}

func TrackPaymentIntent(duration time.Duration) {
	paymentIntentDuration.Observe(duration.Seconds())
}

func TrackFeedFailure(channel string) {
	feedFailures.WithLabelValues(channel).Inc()
}

// Serve exposes the metrics endpoint on its own port.
func Serve(port string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		if err := http.ListenAndServe(":"+port, mux); err != nil {
			log.Printf("metrics server stopped: %v", err)
		}
	}()
}
