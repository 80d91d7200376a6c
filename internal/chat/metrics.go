package chat

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	openConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chat_open_connections",
		Help: "Number of registered live connections.",
	})

	activeChannels = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chat_active_channels",
		Help: "Number of channels with at least one member.",
	})

	eventsBroadcast = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_events_broadcast_total",
		Help: "Events fanned out to channel members, by event type.",
	}, []string{"event"})

	droppedDeliveries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chat_dropped_deliveries_total",
		Help: "Per-recipient deliveries dropped because the send failed.",
	})
)
