// Package http pkg/http/middleware.go
package http

import (
	"net/http"
	"time"

	"github.com/carverauto/balena-sd/pkg/logger"
)

// statusRecorder captures the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// CommonMiddleware logs every request at debug level and rejects anything
// other than GET and HEAD. The observability listener is read-only.
func CommonMiddleware(next http.Handler, log logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			rec.Header().Set("Allow", "GET, HEAD")
			http.Error(rec, "method not allowed", http.StatusMethodNotAllowed)
		} else {
			next.ServeHTTP(rec, r)
		}

		log.Debug().
			Str("remote_addr", r.RemoteAddr).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("elapsed", time.Since(start)).
			Msg("HTTP request")
	})
}

// NewObservabilityMux serves metrics on /metrics and health on /healthz.
// A nil handler leaves its route unregistered.
func NewObservabilityMux(metrics, health http.Handler, log logger.Logger) http.Handler {
	mux := http.NewServeMux()

	if metrics != nil {
		mux.Handle("/metrics", metrics)
	}

	if health != nil {
		mux.Handle("/healthz", health)
	}

	return CommonMiddleware(mux, log)
}
