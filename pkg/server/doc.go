// Package server exposes the connector over HTTP.
//
// Routes:
//
//	POST /push     push notification webhook
//	GET  /healthz  liveness
//	GET  /status   queue state and the last run
//	GET  /runs     recorded run history
//	GET  /metrics  Prometheus metrics
//
// The push and history routes are only mounted when their collaborators are
// configured.
package server
