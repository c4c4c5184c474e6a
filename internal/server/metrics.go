package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dvocr_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dvocr_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	ocrRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dvocr_ocr_requests_total",
			Help: "Total number of OCR requests",
		},
		[]string{"kind", "status"}, // kind: image, has_text, websocket
	)

	ocrProcessingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dvocr_ocr_processing_duration_seconds",
			Help:    "OCR processing duration in seconds",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 25, 50},
		},
		[]string{"kind"},
	)

	ocrRegionsDetected = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dvocr_ocr_regions_detected",
			Help:    "Number of text regions detected per request",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250},
		},
		[]string{"kind"},
	)

	websocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dvocr_websocket_active_connections",
			Help: "Number of active WebSocket connections",
		},
	)

	websocketMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dvocr_websocket_messages_total",
			Help: "Total number of WebSocket messages",
		},
		[]string{"direction"}, // sent, received
	)
)
