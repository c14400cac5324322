// Package observability exposes Prometheus collectors for the presence and
// fan-out subsystem. Collectors are registered on an injected Registerer so
// tests can instantiate isolated instances.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	ConnectedUsers       prometheus.Gauge
	ConnectedConnections prometheus.Gauge
	EventsDispatched     prometheus.Counter
	PushesTotal          prometheus.Counter
	PushesFailed         prometheus.Counter
	MessagesStored       prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ConnectedUsers: factory.NewGauge(prometheus.GaugeOpts{
			Name: "chat_connected_users",
			Help: "Number of users with at least one live connection.",
		}),
		ConnectedConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "chat_connected_connections",
			Help: "Number of live connections across all users.",
		}),
		EventsDispatched: factory.NewCounter(prometheus.CounterOpts{
			Name: "chat_events_dispatched_total",
			Help: "Total number of dispatched domain events.",
		}),
		PushesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "chat_pushes_total",
			Help: "Total number of per-connection push attempts.",
		}),
		PushesFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "chat_pushes_failed_total",
			Help: "Total number of per-connection push failures.",
		}),
		MessagesStored: factory.NewCounter(prometheus.CounterOpts{
			Name: "chat_messages_stored_total",
			Help: "Total number of persisted messages.",
		}),
	}
}
