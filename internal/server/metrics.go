package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hullrect_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hullrect_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Geometry processing metrics
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hullrect_requests_total",
			Help: "Total number of geometry requests by outcome",
		},
		[]string{"operation", "outcome"}, // outcome: success or an error code
	)

	pointsReceived = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hullrect_points_received",
			Help:    "Number of input points per request",
			Buckets: prometheus.ExponentialBuckets(4, 4, 10),
		},
	)

	hullVertices = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hullrect_hull_vertices",
			Help:    "Number of vertices of computed hulls",
			Buckets: []float64{3, 4, 6, 8, 12, 16, 32, 64, 128, 256},
		},
	)

	solveDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hullrect_solve_duration_seconds",
			Help:    "Inscribed rectangle solve duration in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5},
		},
	)

	newtonIterations = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hullrect_newton_iterations",
			Help:    "Total Newton iterations per rectangle solve",
			Buckets: []float64{5, 10, 20, 40, 80, 160, 320, 640},
		},
	)

	// Rate limiting metrics
	rateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hullrect_rate_limit_hits_total",
			Help: "Total number of rate limit hits",
		},
		[]string{"type"}, // type: minute, hour, requests, data
	)

	uploadSizeBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hullrect_request_size_bytes",
			Help:    "Size of request bodies in bytes",
			Buckets: prometheus.ExponentialBuckets(256, 4, 10),
		},
	)

	// WebSocket metrics
	websocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hullrect_websocket_active_connections",
			Help: "Number of active WebSocket connections",
		},
	)

	websocketMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hullrect_websocket_messages_total",
			Help: "Total number of WebSocket messages",
		},
		[]string{"direction"}, // direction: sent, received
	)
)
