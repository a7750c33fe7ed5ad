package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_requests_latency_seconds",
			Help:    "Latency of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// Callbacks
	CallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dragonpay_callbacks_total",
			Help: "Inbound callbacks by outcome",
		},
		[]string{"result"}, // authenticated|invalid|rejected|decode_failed
	)

	// Status transitions written locally
	StatusTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dragonpay_status_transitions_total",
			Help: "Status changes applied to local records",
		},
		[]string{"entity", "source", "to"},
	)

	// Gateway
	GatewayRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dragonpay_gateway_requests_total",
			Help: "Calls made to the Dragonpay gateway",
		},
		[]string{"op", "result"},
	)
	GatewayLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dragonpay_gateway_request_duration_seconds",
			Help:    "Latency of Dragonpay gateway calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)
	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dragonpay_circuit_breaker_state",
			Help: "Gateway circuit breaker state (0=closed, 1=open, 2=half-open)",
		},
		[]string{"circuit"},
	)

	// Worker queue
	WorkerQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "worker_queue_depth",
			Help: "Current worker queue depth",
		},
	)

	initOnce sync.Once
)

// Handler serves /metrics.
var Handler = promhttp.Handler

// Init registers the collectors once; later calls are no-ops.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestsTotal)
		prometheus.MustRegister(HTTPLatency)
		prometheus.MustRegister(CallbacksTotal)
		prometheus.MustRegister(StatusTransitions)
		prometheus.MustRegister(GatewayRequests)
		prometheus.MustRegister(GatewayLatency)
		prometheus.MustRegister(CircuitBreakerState)
		prometheus.MustRegister(WorkerQueueDepth)
	})
}
