package notify

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "membify"

var (
	messagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "messages_sent_total",
			Help:      "Total notification messages by kind and outcome",
		},
		[]string{"kind", "status"},
	)
)

func recordSent(kind Kind, ok bool) {
	status := "ok"
	if !ok {
		status = "error"
	}
	messagesSent.WithLabelValues(string(kind), status).Inc()
}
