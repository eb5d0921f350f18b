package server

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"time"

	"github.com/teemow/calendar-api/internal/instrumentation"
)

// requireAPIKey returns middleware that rejects requests whose X-API-Key
// header does not match the configured key. The comparison is constant-time.
// Rejection happens before any handler runs, so an unauthenticated request
// never reaches the calendar adapter.
func requireAPIKey(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := r.Header.Get("X-API-Key")
			if subtle.ConstantTimeCompare([]byte(presented), []byte(apiKey)) != 1 {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"success": false,
					"error":   "Invalid or missing API key",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// statusRecorder captures the response status for the metrics middleware.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// withRequestMetrics records method, route pattern, status and duration for
// every request.
func withRequestMetrics(metrics *instrumentation.Metrics, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		route := r.Pattern
		if route == "" {
			route = r.URL.Path
		}
		metrics.RecordHTTPRequest(r.Context(), r.Method, route, recorder.status, time.Since(start))
	})
}
