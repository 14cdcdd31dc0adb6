package metrics

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// StatusRecorder captures the status code written through a ResponseWriter.
// Middlewares share one recorder per request via RecordStatus.
type StatusRecorder struct {
	http.ResponseWriter
	Status int
}

// RecordStatus returns w itself when it is already a *StatusRecorder and
// wraps it otherwise. The status defaults to 200 until WriteHeader is called.
func RecordStatus(w http.ResponseWriter) *StatusRecorder {
	if sr, ok := w.(*StatusRecorder); ok {
		return sr
	}
	return &StatusRecorder{ResponseWriter: w, Status: http.StatusOK}
}

// WriteHeader records code and forwards it.
func (sr *StatusRecorder) WriteHeader(code int) {
	sr.Status = code
	sr.ResponseWriter.WriteHeader(code)
}

// Unwrap exposes the wrapped writer to http.ResponseController.
func (sr *StatusRecorder) Unwrap() http.ResponseWriter {
	return sr.ResponseWriter
}

// Middleware observes the count and latency of each request, labelled by the
// matched chi route pattern ("unknown" when no route matched).
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		began := time.Now()
		sr := RecordStatus(w)
		next.ServeHTTP(sr, r)
		ObserveHTTPRequest(r.Method, routeOf(r), sr.Status, time.Since(began))
	})
}

func routeOf(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
