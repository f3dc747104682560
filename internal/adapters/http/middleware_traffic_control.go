package httpadapter

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// backpressureWait bounds how long a request queues for an in-flight slot
// before the server sheds it.
const backpressureWait = 100 * time.Millisecond

func rateLimitMiddleware(next http.Handler, rps, burst int) http.Handler {
	if rps <= 0 {
		return next
	}
	if burst < rps {
		burst = rps
	}
	limiter := rate.NewLimiter(rate.Limit(rps), burst)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			writeJSON(w, http.StatusTooManyRequests, map[string]string{
				"error": "rate limit exceeded, retry later",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func backpressureMiddleware(next http.Handler, maxInFlight int, wait time.Duration) http.Handler {
	if maxInFlight <= 0 {
		return next
	}
	slots := make(chan struct{}, maxInFlight)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		timer := time.NewTimer(wait)
		defer timer.Stop()

		select {
		case slots <- struct{}{}:
			defer func() { <-slots }()
			next.ServeHTTP(w, r)
		case <-timer.C:
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"error": "server is saturated, retry later",
			})
		case <-r.Context().Done():
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"error": "request canceled while waiting for capacity",
			})
		}
	})
}
