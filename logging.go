package docroute

import (
	"log/slog"
	"net/http"
	"time"
)

// statusWriter remembers the status code and body size of a response.
type statusWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (w *statusWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.size += n
	return n, err
}

// Unwrap returns the underlying ResponseWriter (supports http.ResponseController).
func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func (w *statusWriter) code() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

// Logger returns middleware that logs one record per request. Records for
// dispatched routes carry the route template, operation ID and tags of the
// matched operation, and the request ID when RequestID runs first. Server
// errors are logged at error level and client errors at warn level.
func Logger(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w}
			next.ServeHTTP(sw, r)

			status := sw.code()
			attrs := append(routeAttrs(r),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", status),
				slog.Int("size", sw.size),
				slog.Duration("latency", time.Since(start)),
			)
			if id := RequestIDFrom(r); id != "" {
				attrs = append(attrs, slog.String("request_id", id))
			}

			logger.LogAttrs(r.Context(), levelFor(status), "request", attrs...)
		})
	}
}

// routeAttrs describes the matched operation, if any.
func routeAttrs(r *http.Request) []slog.Attr {
	info, ok := Route(r)
	if !ok {
		return nil
	}
	attrs := []slog.Attr{slog.String("route", info.Template)}
	if info.OperationID != "" {
		attrs = append(attrs, slog.String("operation_id", info.OperationID))
	}
	if len(info.Tags) > 0 {
		attrs = append(attrs, slog.Any("tags", info.Tags))
	}
	return attrs
}

func levelFor(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
