// Package instrumentation provides OpenTelemetry metrics and tracing for
// calendar-api.
//
// Metrics cover the HTTP surface (request counts and latency), the Google
// Calendar collaborator (per-operation counts and latency) and the credential
// lifecycle (refresh attempts). The default exporter is Prometheus, served on
// a dedicated metrics port; OTLP and stdout exporters are available for
// collector-based or development setups.
package instrumentation
