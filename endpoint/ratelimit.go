package endpoint

import (
	"net/http"

	"golang.org/x/time/rate"
)

// RateLimit creates a processor that applies a token-bucket limit across
// all requests reaching the endpoint: r tokens per second with the given
// burst. Over-limit requests are refused with 429 before they touch the
// RPC core.
func RateLimit(r float64, burst int) Processor {
	limiter := rate.NewLimiter(rate.Limit(r), burst)
	return ProcessorFunc(func(w http.ResponseWriter, req *http.Request, next func(w http.ResponseWriter, r *http.Request) error) error {
		if !limiter.Allow() {
			return Error(http.StatusTooManyRequests, "rate limit exceeded", nil)
		}
		return next(w, req)
	})
}
