// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "teamflow"

// Succession graph.
var (
	// GraphLoads counts bulk graph loads by result (success|rejected|error).
	GraphLoads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "graph_loads_total",
		Help:      "Succession graph bulk loads by result.",
	}, []string{"result"})

	GraphNodes = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "graph_nodes",
		Help:      "Tasks held by the live succession graph.",
	})

	// ChainResolutions counts chain lookups by outcome (terminated|cyclic|not_found).
	ChainResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "chain_resolutions_total",
		Help:      "Task chain resolutions by outcome.",
	}, []string{"outcome"})

	IntegrityViolations = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "integrity_violations",
		Help:      "Violations found by the last integrity sweep.",
	})
)

// Team scope.
var ScopeChanges = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "scope_changes_total",
	Help:      "Active team selections and clears.",
}, []string{"action"})

// HTTP and realtime transport.
var (
	APILatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "api_latency_seconds",
		Help:      "API request latency by route template.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "http_requests_in_flight",
		Help:      "Requests currently being served.",
	})

	PanicsRecovered = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_panics_recovered_total",
		Help:      "Handler panics turned into 500 responses.",
	})

	RealtimeClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "realtime_clients",
		Help:      "Connected websocket clients.",
	})

	// RealtimeDropped counts clients disconnected because their send buffer filled.
	RealtimeDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "realtime_slow_clients_total",
		Help:      "Websocket clients dropped for falling behind.",
	})
)
