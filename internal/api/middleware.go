package api

import (
	"delivery-route-planner/internal/platform/obs"
	"log"
	"net/http"
	"time"
)

// statusWriter records the status code and body size sent to the client.
type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}

	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// loggingMiddleware tags each request with an id and logs its outcome.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := obs.WithRequestID(r.Context())
		reqID, _ := ctx.Value(obs.RequestIDKey).(string)

		sw := &statusWriter{ResponseWriter: w}
		sw.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(sw, r.WithContext(ctx))

		log.Printf(
			"req_id=%s method=%s path=%s status=%d bytes=%d dur=%dms",
			reqID, r.Method, r.URL.RequestURI(), sw.status, sw.bytes, time.Since(start).Milliseconds(),
		)
	})
}
