package handler

import (
	"net/http"

	"netgraph/internal/metrics"

	"github.com/rs/zerolog"
)

// NewRouter wires the level API, the event stream and the metrics endpoint
// into one handler with the standard middleware applied.
func NewRouter(levels *LevelHandler, events http.Handler, reg *metrics.Registry, logger zerolog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/levels", levels.ListLevels)
	mux.HandleFunc("GET /api/levels/{name}", levels.GetLevel)
	mux.HandleFunc("PUT /api/levels/{name}", levels.PutLevel)
	mux.HandleFunc("DELETE /api/levels/{name}", levels.DeleteLevel)
	mux.HandleFunc("GET /api/levels/{name}/export", levels.ExportLevel)

	mux.Handle("GET /events", events)
	mux.Handle("GET /metrics", reg.Handler())
	mux.HandleFunc("GET /health", levels.Health)

	return Chain(mux,
		Recover(logger),
		CORS,
		Logger(logger),
		Metrics(reg),
	)
}
