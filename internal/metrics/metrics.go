package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hrportal_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hrportal_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Chat engine metrics
	RoomsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hrportal_chat_rooms_created_total",
			Help: "Total rooms created",
		},
	)

	MembershipChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hrportal_chat_membership_changes_total",
			Help: "Committed membership mutations",
		},
		[]string{"op"}, // join, leave, invite, role
	)

	MessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hrportal_chat_messages_sent_total",
			Help: "Total messages persisted",
		},
		[]string{"scope"},
	)

	Rejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hrportal_chat_rejections_total",
			Help: "Operations refused by the engine",
		},
		[]string{"kind"},
	)

	// Realtime metrics
	ConnectedClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hrportal_ws_connected_clients",
			Help: "Open websocket connections",
		},
	)
)
