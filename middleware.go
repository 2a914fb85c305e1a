package main

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// statusRecorder wraps http.ResponseWriter to remember the status code,
// which ResponseWriter doesn't expose once WriteHeader has been called
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

// WriteHeader captures the status code before passing it through
func (r *statusRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

// withRequestLogging logs every request and records Prometheus metrics.
//
// It wraps the whole router, so the JSON API, the HTML page, /health and
// /metrics all go through it. The handler it returns:
//  1. swaps in a statusRecorder so the status is known afterwards
//  2. runs the wrapped handler
//  3. logs one line and updates the request counter and histogram
func withRequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK, // if WriteHeader is never called
		}

		// Call the actual handler
		next.ServeHTTP(recorder, r)

		duration := time.Since(start)
		metricPath := normalizePath(r.URL.Path)

		// Log the raw path, metrics get the normalized one
		slog.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", recorder.statusCode,
			"latency_ms", duration.Milliseconds(),
			"client_ip", r.RemoteAddr,
			"user_agent", r.UserAgent(),
		)

		// Metrics live in metrics.go, same package
		httpRequestsTotal.WithLabelValues(
			r.Method,
			metricPath,
			strconv.Itoa(recorder.statusCode),
		).Inc()

		httpRequestDuration.WithLabelValues(
			r.Method,
			metricPath,
		).Observe(duration.Seconds())
	})
}

// normalizePath replaces todo IDs with ":id" so each item doesn't get its own
// metric series
//
// Every distinct label value is a new Prometheus series. IDs are UUIDs, so
// the raw path would add a series per todo ever created. Unknown actions
// under /todos/<id>/ collapse to ":action" for the same reason.
//
//	/api/todos/0192...  -> /api/todos/:id
//	/todos/0192.../toggle -> /todos/:id/toggle
func normalizePath(path string) string {
	parts := strings.Split(path, "/")

	switch {
	case strings.HasPrefix(path, "/api/todos/"):
		// ["", "api", "todos", "<id>"]
		if len(parts) == 4 && parts[3] != "" && parts[3] != "clear-completed" {
			return "/api/todos/:id"
		}
	case strings.HasPrefix(path, "/todos/"):
		// ["", "todos", "<id>", "<action>"]
		if len(parts) == 4 && parts[2] != "" {
			switch parts[3] {
			case "toggle", "delete":
				return "/todos/:id/" + parts[3]
			}
			return "/todos/:id/:action"
		}
	}
	return path
}
