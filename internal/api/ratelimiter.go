package api

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const clientIdleTTL = 10 * time.Minute

// rateLimiter decides whether a request from the given client may proceed.
type rateLimiter interface {
	Allow(client string) bool
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// clientLimiter keeps one token bucket per client address and forgets
// clients that stay idle for longer than clientIdleTTL.
type clientLimiter struct {
	mu        sync.Mutex
	rate      rate.Limit
	burst     int
	clients   map[string]*clientBucket
	lastSweep time.Time
	now       func() time.Time
}

func newTokenBucketLimiter(ratePerSecond float64, burst int) rateLimiter {
	if ratePerSecond <= 0 {
		ratePerSecond = 1
	}
	if burst <= 0 {
		burst = 1
	}

	return &clientLimiter{
		rate:    rate.Limit(ratePerSecond),
		burst:   burst,
		clients: make(map[string]*clientBucket),
		now:     time.Now,
	}
}

func (l *clientLimiter) Allow(client string) bool {
	if l == nil {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) > clientIdleTTL {
		for key, bucket := range l.clients {
			if now.Sub(bucket.lastSeen) > clientIdleTTL {
				delete(l.clients, key)
			}
		}
		l.lastSweep = now
	}

	bucket, ok := l.clients[client]
	if !ok {
		bucket = &clientBucket{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.clients[client] = bucket
	}
	bucket.lastSeen = now
	return bucket.limiter.AllowN(now, 1)
}

func rateLimitMiddleware(limiter rateLimiter, next http.Handler) http.Handler {
	if limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if limiter.Allow(clientKey(r)) {
			next.ServeHTTP(w, r)
			return
		}
		writeError(w, http.StatusTooManyRequests, "Too many requests", "rate limit exceeded, please retry shortly")
	})
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
