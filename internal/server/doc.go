// Package server implements the HTTP API for the calendar service.
//
// The gateway exposes CRUD and search operations over a single Google
// Calendar behind a static API key. Handlers are thin: validate input, call
// the calendar adapter, shape the response envelope. Cross-cutting concerns
// (API-key check, request metrics, request logging) live in middleware.
//
// Two HTTP servers run side by side: the APIServer carries application
// traffic, and a separate MetricsServer exposes Prometheus metrics on its
// own port so operational data never shares a listener with the API.
package server
