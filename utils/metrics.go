package utils

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActiveConnections tracks live websocket connections.
	ActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "alerta_ws_active_connections",
			Help: "Number of live websocket connections",
		},
	)

	// OnlineUsers tracks identities holding at least one registered connection.
	OnlineUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "alerta_registry_online_users",
			Help: "Number of identities with a registered connection",
		},
	)

	// RegisteredConnections tracks connections mapped in the registry; displaced ones are excluded.
	RegisteredConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "alerta_registry_connections",
			Help: "Number of connections mapped in the registry",
		},
	)

	// HandshakeAttempts records websocket handshakes by result (accepted|refused|rejected_limit).
	HandshakeAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alerta_ws_handshakes_total",
			Help: "Total number of websocket handshakes",
		},
		[]string{"result"},
	)

	// EventsEmitted counts server->client events by event name and scope (user|global).
	EventsEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alerta_ws_events_emitted_total",
			Help: "Total number of events emitted to clients",
		},
		[]string{"event", "scope"},
	)

	// NotificationsPersisted counts notification rows by tipo.
	NotificationsPersisted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alerta_notifications_persisted_total",
			Help: "Total number of notifications written",
		},
		[]string{"tipo"},
	)

	// EmitterFailures counts swallowed emitter errors by emitter name.
	EmitterFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alerta_emitter_failures_total",
			Help: "Total number of emitter failures",
		},
		[]string{"emitter"},
	)
)
