// Package api hosts the HTTP server, middleware, and REST handlers for
// on-demand extraction. Routes:
//   - GET /healthz for liveness, including the store's reachability.
//   - GET /metrics for Prometheus scraping.
//   - POST /v1/extract to run one batch synchronously.
package api
