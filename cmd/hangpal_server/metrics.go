//nolint:gochecknoglobals
package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	transitionsMetric = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hangpal",
		Name:      "invite_transitions",
		Help:      "The total number of invite lifecycle transitions",
	}, []string{"action", "result"})

	settledFeesMetric = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hangpal",
		Name:      "fees_settled_cents",
		Help:      "The total amount of fees settled through payments",
	}, []string{"type"})

	wsClientsMetric = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "hangpal",
		Name:      "ws_clients",
		Help:      "The number of connected websocket clients",
	})
)

func countTransition(action string, err error) {
	result := "ok"

	if err != nil {
		result = "error"
	}

	transitionsMetric.With(prometheus.Labels{"action": action, "result": result}).Inc()
}
