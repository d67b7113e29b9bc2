package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// RequestIDHeader carries the request id. A client-supplied UUID is kept, anything
// else is replaced.
const RequestIDHeader = "X-Request-ID"

const requestInfoKey contextKey = "requestInfo"

// requestInfo is shared between the logging middleware and the handlers below it,
// so the access log can name the caller that authentication resolved.
type requestInfo struct {
	id     string
	userID string
}

// RequestIDFromContext returns the id Logging assigned to the request.
func RequestIDFromContext(ctx context.Context) string {
	if info, ok := ctx.Value(requestInfoKey).(*requestInfo); ok {
		return info.id
	}
	return ""
}

func recordCaller(ctx context.Context, userID string) {
	if info, ok := ctx.Value(requestInfoKey).(*requestInfo); ok {
		info.userID = userID
	}
}

// statusRecorder captures the status code and body size of a response.
type statusRecorder struct {
	http.ResponseWriter
	status  int
	written int64
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.written += int64(n)
	return n, err
}

// Logging assigns every request an id, echoes it in X-Request-ID and writes one
// access log line per request. Server errors log at error, client errors at warn
// and health checks at debug. Bodies are never logged.
func Logging(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		info := &requestInfo{id: requestID(r.Header.Get(RequestIDHeader))}
		w.Header().Set(RequestIDHeader, info.id)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), requestInfoKey, info)))

		attrs := []slog.Attr{
			slog.String("request_id", info.id),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Int64("bytes", rec.written),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
		}
		if info.userID != "" {
			attrs = append(attrs, slog.String("user_id", info.userID))
		}
		logger.LogAttrs(r.Context(), accessLevel(r.URL.Path, rec.status), "request", attrs...)
	})
}

func requestID(supplied string) string {
	if id, err := uuid.Parse(supplied); err == nil {
		return id.String()
	}
	return uuid.NewString()
}

func accessLevel(path string, status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	case path == "/healthz":
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}
