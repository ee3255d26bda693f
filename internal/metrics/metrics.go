// Package metrics provides Prometheus instrumentation for portalwatch: poll
// outcomes, queue length, alerts and chat traffic.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// PollsTotal counts queue polls by screen and result:
	// "ok", "failed", "stale" (discarded out-of-order result).
	PollsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "portalwatch_polls_total",
		Help: "Queue polls by screen and result",
	}, []string{"screen", "result"})

	// FetchLatency records queue fetch duration in seconds.
	FetchLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "portalwatch_fetch_latency_seconds",
		Help:    "Queue fetch latency in seconds",
		Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"screen"})

	// QueueSize tracks the length of the last applied snapshot.
	QueueSize = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "portalwatch_queue_size",
		Help: "Entries in the last applied queue snapshot",
	}, []string{"screen"})

	// ViewerPosition is the viewer's 1-based position, 0 when not queued.
	ViewerPosition = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "portalwatch_viewer_position",
		Help: "Viewer position in the queue, 0 when absent",
	}, []string{"screen"})

	// AlertsTotal counts alerts raised by the notifier.
	AlertsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "portalwatch_alerts_total",
		Help: "Alerts raised by queue movement",
	}, []string{"screen"})

	// ChatMessagesTotal counts chat messages by type:
	// "sent", "received", "duplicate", "malformed", "replayed".
	ChatMessagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "portalwatch_chat_messages_total",
		Help: "Chat messages processed",
	}, []string{"type"})
)

func init() {
	prometheus.MustRegister(
		PollsTotal,
		FetchLatency,
		QueueSize,
		ViewerPosition,
		AlertsTotal,
		ChatMessagesTotal,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
