package server

import (
	"net/http"
	"strings"
	"time"

	"lexdesk/internal/logging"
)

const requestIDHeader = "X-Request-Id"

// statusWriter remembers the status and byte count of a response. Metrics
// and logging share one per request.
type statusWriter struct {
	http.ResponseWriter
	code    int
	written int64
}

func wrapResponse(w http.ResponseWriter) *statusWriter {
	if sw, ok := w.(*statusWriter); ok {
		return sw
	}
	return &statusWriter{ResponseWriter: w}
}

func (w *statusWriter) WriteHeader(code int) {
	if w.code == 0 {
		w.code = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(p []byte) (int, error) {
	if w.code == 0 {
		w.code = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(p)
	w.written += int64(n)
	return n, err
}

// Flush keeps the SSE handler working behind the middleware.
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// Status is the response code, 200 when the handler wrote nothing.
func (w *statusWriter) Status() int {
	if w.code == 0 {
		return http.StatusOK
	}
	return w.code
}

// LoggingMiddleware tags each request with an id, hands handlers a logger
// carrying it, and writes one http_request line per response. Server errors
// log at error, client errors at warn and health probes at debug.
func LoggingMiddleware(logger logging.Logger, next http.Handler) http.Handler {
	if logger == nil {
		logger = logging.Nop()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" {
			id = logging.NewRequestID()
		}
		w.Header().Set(requestIDHeader, id)
		log := logger.With(logging.F("request_id", id))

		started := time.Now()
		sw := wrapResponse(w)
		next.ServeHTTP(sw, r.WithContext(logging.WithContext(r.Context(), log)))

		fields := []logging.Field{
			logging.F("method", r.Method),
			logging.F("path", r.URL.Path),
			logging.F("route", routeLabel(r.URL.Path)),
			logging.F("status", sw.Status()),
			logging.F("bytes", sw.written),
			logging.F("latency_ms", time.Since(started).Milliseconds()),
		}
		switch status := sw.Status(); {
		case status >= 500:
			log.Error("http_request", fields...)
		case status >= 400:
			log.Warn("http_request", fields...)
		case r.URL.Path == "/health":
			log.Debug("http_request", fields...)
		default:
			log.Info("http_request", fields...)
		}
	})
}

// routeLabel replaces the record id segment of /v1/<collection>/<id>/... with
// ":id" so paths make bounded metric labels.
func routeLabel(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 3 || parts[0] != "v1" {
		return path
	}
	switch parts[2] {
	case "search", "upload", "export", "status":
		return path
	}
	parts[2] = ":id"
	return "/" + strings.Join(parts, "/")
}
