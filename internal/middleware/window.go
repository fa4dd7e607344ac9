package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/crucial707/brewlog/internal/metrics"
)

// WindowLimiter allows at most limit requests per key within any rolling window.
// It keeps the timestamps of accepted requests, so the quota is exact: a burst
// at the end of one hour cannot be followed by a second burst at the start of the next.
type WindowLimiter struct {
	name     string
	limit    int
	window   time.Duration
	clientIP ClientIPFunc
	now      func() time.Time

	mu   sync.Mutex
	hits map[string][]time.Time
}

func NewWindowLimiter(name string, limit int, window time.Duration, clientIP ClientIPFunc) *WindowLimiter {
	if clientIP == nil {
		clientIP = RemoteIP
	}
	return &WindowLimiter{
		name:     name,
		limit:    limit,
		window:   window,
		clientIP: clientIP,
		now:      time.Now,
		hits:     make(map[string][]time.Time),
	}
}

// Allow records a request for key if the quota permits it. When it does not,
// retryAfter is how long until the oldest request leaves the window.
func (l *WindowLimiter) Allow(key string) (ok bool, retryAfter time.Duration) {
	now := l.now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	hits := prune(l.hits[key], cutoff)
	if len(hits) >= l.limit {
		l.hits[key] = hits
		return false, hits[0].Sub(cutoff)
	}
	l.hits[key] = append(hits, now)
	return true, 0
}

// Sweep forgets keys with no request inside the window.
func (l *WindowLimiter) Sweep() int {
	cutoff := l.now().Add(-l.window)
	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for key, hits := range l.hits {
		if hits = prune(hits, cutoff); len(hits) == 0 {
			delete(l.hits, key)
			removed++
		} else {
			l.hits[key] = hits
		}
	}
	return removed
}

// Len returns the number of tracked keys.
func (l *WindowLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.hits)
}

func (l *WindowLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, retry := l.Allow(l.clientIP(r))
		if !ok {
			metrics.IncRateLimited(l.name)
			w.Header().Set("Retry-After", retryAfterSeconds(retry))
			writeJSONError(w, ErrMessageRateLimited, http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// prune drops timestamps at or before cutoff. hits is sorted oldest first.
func prune(hits []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(hits) && !hits[i].After(cutoff) {
		i++
	}
	if i == 0 {
		return hits
	}
	return append(hits[:0], hits[i:]...)
}
