// Package api hosts the HTTP server, middleware, and JSON handlers the
// frontend talks to. Routes:
//   - GET / for service metadata.
//   - GET /health for liveness; healthy even when no webhook is configured.
//   - POST /submit to validate and forward an article submission.
//   - GET /metrics for Prometheus scraping.
//   - OPTIONS on any path acknowledges CORS preflight.
package api
