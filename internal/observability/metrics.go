package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// Remote API metrics
	GatewayRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_request_duration_seconds",
			Help:    "Remote attractions API latency in seconds",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"operation"},
	)

	GatewayRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_requests_total",
			Help: "Total number of remote API calls by outcome",
		},
		[]string{"operation", "outcome"},
	)

	// List controller metrics
	ListLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "list_loads_total",
			Help: "Attraction page loads by result (ok, error, superseded)",
		},
		[]string{"result"},
	)

	FavoriteTogglesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "favorite_toggles_total",
			Help: "Favorite toggles by outcome",
		},
		[]string{"outcome"},
	)

	// WebSocket metrics
	WebSocketConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections_active",
			Help: "Number of active WebSocket connections",
		},
	)

	WebSocketEventsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_events_sent_total",
			Help: "Total number of view events pushed via WebSocket",
		},
		[]string{"type"},
	)

	// Workspace metrics
	WorkspacesActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "workspaces_active",
			Help: "Number of browser profiles with a live workspace",
		},
	)

	BookmarkEventsConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookmark_events_consumed_total",
			Help: "Bookmark events processed by the auditor",
		},
		[]string{"outcome"},
	)
)
