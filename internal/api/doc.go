// Package api hosts the operator HTTP server that runs next to a batch.
// Routes:
//   - GET /healthz and /readyz for liveness probes.
//   - GET /metrics for Prometheus scraping.
//   - GET /v1/outcomes for the live per-stage outcome counts.
package api
