package rest

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// clientLimiter keeps one token bucket per client address.
type clientLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      int
	burst    int
}

func newClientLimiter(rps, burst int) *clientLimiter {
	if rps <= 0 {
		rps = 1
	}

	if burst <= 0 {
		burst = 1
	}

	return &clientLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rps,
		burst:    burst,
	}
}

func (that *clientLimiter) get(key string) *rate.Limiter {
	that.mu.Lock()
	defer that.mu.Unlock()

	if limiter, ok := that.limiters[key]; ok {
		return limiter
	}

	limiter := rate.NewLimiter(rate.Every(time.Second/time.Duration(that.rps)), that.burst)
	that.limiters[key] = limiter

	return limiter
}

func (that *clientLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !that.get(clientIP(r)).Allow() {
			writeError(w, http.StatusTooManyRequests, "too many requests, please slow down")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}
