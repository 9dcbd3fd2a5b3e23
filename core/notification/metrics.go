package notification

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	published = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notifications_published_total",
		Help: "Notifications successfully handed to the broker.",
	})
	publishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notifications_publish_failures_total",
		Help: "Notifications the broker refused.",
	})
	relayed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notifications_relayed_total",
		Help: "Messages received from the broker by the relay.",
	})
	dropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notifications_dropped_total",
		Help: "Per-client deliveries dropped because the client queue was full.",
	})
	connectedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "notifications_connected_clients",
		Help: "Clients currently registered with the relay.",
	})
)
