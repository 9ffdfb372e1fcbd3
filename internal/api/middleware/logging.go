package middleware

import (
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// statusWriter records the status code and body size of a response. Shared
// by the logging and metrics middlewares.
type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// RequestLogger logs requests with a short correlation id, echoed back in
// the X-Request-ID header. Error responses always log; successes only in
// verbose mode.
func RequestLogger(verbose bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := uuid.New().String()[:8]
			w.Header().Set("X-Request-ID", requestID)

			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)

			if !verbose && sw.status < 400 {
				return
			}
			log.Printf("[%s] %s %s %s %d %d %v",
				requestID,
				r.RemoteAddr,
				r.Method,
				r.URL.Path,
				sw.status,
				sw.bytes,
				time.Since(start),
			)
		})
	}
}
