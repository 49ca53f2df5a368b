package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initDescriptorMetrics() {
	r.DescriptorsParsedTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "netgraph_descriptors_parsed_total",
			Help: "Descriptors parsed, by result (ok or diagnostic kind)",
		},
		[]string{"result"},
	)

	r.DescriptorParseDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "netgraph_descriptor_parse_duration_seconds",
			Help:    "Time spent reading and parsing one descriptor",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		},
	)

	r.DescriptorNodes = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "netgraph_descriptor_nodes",
			Help:    "Number of nodes in successfully parsed descriptors",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
	)
}

func (r *Registry) initLevelMetrics() {
	r.LevelsLoaded = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "netgraph_levels_loaded",
			Help: "Number of levels currently stored",
		},
	)

	r.LevelNodes = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "netgraph_level_nodes",
			Help: "Node count per stored level",
		},
		[]string{"level"},
	)

	r.LevelLinks = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "netgraph_level_links",
			Help: "Link count per stored level",
		},
		[]string{"level"},
	)

	r.WatchEventsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "netgraph_watch_events_total",
			Help: "Filesystem events handled by the level watcher",
		},
		[]string{"op"},
	)

	r.EventClients = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "netgraph_event_clients",
			Help: "Connected event stream clients",
		},
	)

	r.EventsBroadcast = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "netgraph_events_broadcast_total",
			Help: "Events broadcast to stream clients, by type",
		},
		[]string{"type"},
	)
}
