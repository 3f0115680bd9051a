package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		relayMessagesTotal,
		relayDeliveriesTotal,
		relayResolutionsTotal,
		relayDiagnosticsTotal,
		relayRouteDuration,
		relayEventsTotal,
	)
}

var (
	relayMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_messages_total",
			Help: "Routed personal messages by sender classification.",
		},
		[]string{"role"}, // 'privileged', 'ordinary', 'failed'
	)

	relayDeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_deliveries_total",
			Help: "Replies and forwards by outcome.",
		},
		[]string{"kind", "status"}, // kind: 'reply', 'forward'
	)

	relayResolutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_resolutions_total",
			Help: "Recipient identifier resolutions by outcome.",
		},
		[]string{"status"},
	)

	relayDiagnosticsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_diagnostics_total",
			Help: "Diagnostic reports sent to the operator chat.",
		},
		[]string{"status"}, // 'delivered', 'failed'
	)

	relayRouteDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "relay_route_duration_seconds",
			Help:    "Time to classify, reply and forward one message.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 9),
		},
	)

	relayEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_events_total",
			Help: "Inbound updates by classified event kind.",
		},
		[]string{"kind"},
	)
)

func IncRoutedMessage(role string) {
	relayMessagesTotal.WithLabelValues(norm(role)).Inc()
}

func IncDelivery(kind, status string) {
	relayDeliveriesTotal.WithLabelValues(norm(kind), norm(status)).Inc()
}

func IncResolution(status string) {
	relayResolutionsTotal.WithLabelValues(norm(status)).Inc()
}

func IncDiagnostic(status string) {
	relayDiagnosticsTotal.WithLabelValues(norm(status)).Inc()
}

func ObserveRoute(d time.Duration) {
	relayRouteDuration.Observe(d.Seconds())
}

func IncEvent(kind string) {
	relayEventsTotal.WithLabelValues(norm(kind)).Inc()
}
