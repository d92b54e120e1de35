package httpadapter

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/nmorozov/docpipe/internal/config"
)

// rateLimitMiddleware throttles upload submissions only; query endpoints are
// expected to be polled and stay unthrottled.
func rateLimitMiddleware(next http.Handler, rps float64, burst int) http.Handler {
	if rps <= 0 || burst <= 0 {
		return next
	}
	limiter := rate.NewLimiter(rate.Limit(rps), burst)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/upload" || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		if !limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			writeJSON(w, http.StatusTooManyRequests, map[string]any{
				"success": false,
				"error":   "rate limit exceeded, retry later",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// backpressureMiddleware bounds concurrent requests with a semaphore and
// sheds load once the wait for a slot exceeds acquireTimeout.
func backpressureMiddleware(next http.Handler, maxInFlight int, acquireTimeout time.Duration) http.Handler {
	if maxInFlight <= 0 {
		return next
	}
	slots := make(chan struct{}, maxInFlight)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		timer := time.NewTimer(acquireTimeout)
		defer timer.Stop()

		select {
		case slots <- struct{}{}:
			defer func() { <-slots }()
			next.ServeHTTP(w, r)
		case <-timer.C:
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"error": "server is overloaded, retry later",
			})
		case <-r.Context().Done():
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"error": "request cancelled while waiting for capacity",
			})
		}
	})
}

func inFlightWait(cfg config.Config) time.Duration {
	if cfg.APIInFlightWaitMS <= 0 {
		return 100 * time.Millisecond
	}
	return time.Duration(cfg.APIInFlightWaitMS) * time.Millisecond
}
