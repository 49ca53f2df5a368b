// Package handler implements the HTTP API of the netgraph server.
//
// # Routes
//
//	GET    /api/levels                     list stored levels
//	GET    /api/levels/{name}              one level with its graph
//	PUT    /api/levels/{name}              store a level from the request body
//	DELETE /api/levels/{name}              remove a level
//	GET    /api/levels/{name}/export       export as descriptor, json or yaml
//	GET    /events                         Server-Sent Events stream
//	GET    /metrics                        Prometheus exposition
//	GET    /health                         liveness
//
// # Response Format
//
// Success responses return JSON. Errors return {error, details}; a rejected
// descriptor answers 422 and adds the diagnostic kind and line number.
//
// Middleware provides panic recovery, CORS, request logging and request
// metrics.
package handler
