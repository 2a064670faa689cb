// Package middleware hardens the streamable HTTP transport. The MCP
// endpoint speaks JSON-RPC to trusted clients, so the defaults here are
// deliberately strict: browsers get nothing to interpret and every TCP peer
// is held to its own token bucket.
package middleware

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// staleAfter is how long an idle peer keeps its token bucket before the
// sweeper reclaims it.
const staleAfter = 3 * time.Minute

// Headers sets conservative response headers on every request. HSTS is only
// meaningful over TLS and is skipped on plain connections.
func Headers(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Content-Security-Policy", "default-src 'none'")
		h.Set("Referrer-Policy", "no-referrer")
		if r.TLS != nil {
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		next.ServeHTTP(w, r)
	})
}

// PerClientLimit returns middleware that enforces a token bucket per TCP
// peer. Forwarded headers are ignored: the limiter keys on the connection
// address, so a client cannot relabel itself into a fresh bucket. A sweeper
// goroutine reclaims idle buckets until ctx is canceled.
func PerClientLimit(ctx context.Context, rps float64, burst int) func(http.Handler) http.Handler {
	if burst < 1 {
		burst = 1
	}

	type bucket struct {
		limiter  *rate.Limiter
		lastSeen time.Time
	}

	var mu sync.Mutex
	buckets := make(map[string]*bucket)

	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				mu.Lock()
				for key, b := range buckets {
					if time.Since(b.lastSeen) > staleAfter {
						delete(buckets, key)
					}
				}
				mu.Unlock()
			case <-ctx.Done():
				return
			}
		}
	}()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := peerAddr(r)

			mu.Lock()
			b, ok := buckets[key]
			if !ok {
				b = &bucket{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
				buckets[key] = b
			}
			b.lastSeen = time.Now()
			limiter := b.limiter
			mu.Unlock()

			if !limiter.Allow() {
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// peerAddr strips the port from the request's remote address so every
// connection from one host shares a bucket.
func peerAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
