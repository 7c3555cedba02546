// Package http serves the optional observability endpoint of a batch run:
// /metrics (Prometheus exposition of the OpenTelemetry meter) and /healthz
// (liveness plus batch progress as JSON).
package http
