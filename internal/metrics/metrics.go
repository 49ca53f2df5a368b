package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ResultOK labels a descriptor that parsed cleanly
const ResultOK = "ok"

// RecordHTTPRequest records an HTTP request with its duration
func (r *Registry) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordParse records one descriptor parse. result is ResultOK or the
// diagnostic kind that stopped the parse; nodes is ignored on failure.
func (r *Registry) RecordParse(result string, duration time.Duration, nodes int) {
	r.DescriptorsParsedTotal.WithLabelValues(result).Inc()
	r.DescriptorParseDuration.Observe(duration.Seconds())
	if result == ResultOK {
		r.DescriptorNodes.Observe(float64(nodes))
	}
}

// SetLevel updates the size gauges for a stored level
func (r *Registry) SetLevel(name string, nodes, links int) {
	r.LevelNodes.WithLabelValues(name).Set(float64(nodes))
	r.LevelLinks.WithLabelValues(name).Set(float64(links))
}

// RemoveLevel drops the size gauges of a deleted level
func (r *Registry) RemoveLevel(name string) {
	r.LevelNodes.DeleteLabelValues(name)
	r.LevelLinks.DeleteLabelValues(name)
}

// Handler exposes the registry in the Prometheus text format
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
