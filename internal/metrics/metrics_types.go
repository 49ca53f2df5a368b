package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the application
type Registry struct {
	// HTTP Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Descriptor Metrics
	DescriptorsParsedTotal  *prometheus.CounterVec
	DescriptorParseDuration prometheus.Histogram
	DescriptorNodes         prometheus.Histogram

	// Level Metrics
	LevelsLoaded    prometheus.Gauge
	LevelNodes      *prometheus.GaugeVec
	LevelLinks      *prometheus.GaugeVec
	WatchEventsTotal *prometheus.CounterVec

	// Event stream Metrics
	EventClients   prometheus.Gauge
	EventsBroadcast *prometheus.CounterVec

	registry *prometheus.Registry
}

var (
	// Global registry instance
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
	}

	r.initHTTPMetrics()
	r.initDescriptorMetrics()
	r.initLevelMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
