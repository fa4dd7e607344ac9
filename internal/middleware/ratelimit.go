package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/crucial707/brewlog/internal/metrics"
)

// ErrMessageRateLimited is returned to clients that exceed a limiter.
const ErrMessageRateLimited = "Too many requests, please try again later."

// ClientIPFunc extracts the identity a limiter keys on.
type ClientIPFunc func(r *http.Request) string

// IPRateLimiter limits requests per client IP using a token bucket per IP.
type IPRateLimiter struct {
	name     string
	ips      map[string]*ipLimiter
	mu       sync.RWMutex
	limit    rate.Limit
	burst    int
	clientIP ClientIPFunc
}

type ipLimiter struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// NewIPRateLimiter creates a per-IP rate limiter. limit is events per second (e.g. rate.Every(time.Minute) for 1/min);
// for N per window use PerWindow. burst is max tokens per bucket.
func NewIPRateLimiter(name string, limit rate.Limit, burst int, clientIP ClientIPFunc) *IPRateLimiter {
	if clientIP == nil {
		clientIP = RemoteIP
	}
	return &IPRateLimiter{
		name:     name,
		ips:      make(map[string]*ipLimiter),
		limit:    limit,
		burst:    burst,
		clientIP: clientIP,
	}
}

// PerWindow returns a limiter allowing n requests per window, with a full bucket of n to start.
func PerWindow(name string, n int, window time.Duration, clientIP ClientIPFunc) *IPRateLimiter {
	return NewIPRateLimiter(name, rate.Limit(float64(n)/window.Seconds()), n, clientIP)
}

func (l *IPRateLimiter) getLimiter(ip string) *rate.Limiter {
	now := time.Now()
	l.mu.RLock()
	entry, ok := l.ips[ip]
	l.mu.RUnlock()
	if ok {
		l.mu.Lock()
		entry.lastSeen = now
		l.mu.Unlock()
		return entry.lim
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	// Double-check after acquiring write lock
	if entry, ok = l.ips[ip]; ok {
		entry.lastSeen = now
		return entry.lim
	}
	entry = &ipLimiter{lim: rate.NewLimiter(l.limit, l.burst), lastSeen: now}
	l.ips[ip] = entry
	return entry.lim
}

// Allow reports whether ip may make another request now.
func (l *IPRateLimiter) Allow(ip string) bool {
	return l.getLimiter(ip).Allow()
}

// Sweep drops buckets not used for idle. A dropped bucket is recreated full, so
// idle must be at least the time a bucket takes to refill.
func (l *IPRateLimiter) Sweep(idle time.Duration) int {
	cutoff := time.Now().Add(-idle)
	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for ip, entry := range l.ips {
		if entry.lastSeen.Before(cutoff) {
			delete(l.ips, ip)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked clients.
func (l *IPRateLimiter) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.ips)
}

// Middleware returns a chi-compatible middleware that returns 429 when the client IP exceeds the rate.
func (l *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(l.clientIP(r)) {
			metrics.IncRateLimited(l.name)
			writeJSONError(w, ErrMessageRateLimited, http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RemoteIP returns the host part of RemoteAddr.
func RemoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ProxyClientIP returns the client IP from X-Forwarded-For, X-Real-IP, or RemoteAddr.
// Only use it when a trusted proxy sets those headers.
func ProxyClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// First value is the client when behind a single proxy
		if ip := strings.TrimSpace(strings.Split(xff, ",")[0]); ip != "" {
			return ip
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	return RemoteIP(r)
}

// ClientIP picks ProxyClientIP or RemoteIP.
func ClientIP(trustProxy bool) ClientIPFunc {
	if trustProxy {
		return ProxyClientIP
	}
	return RemoteIP
}

func retryAfterSeconds(d time.Duration) string {
	s := int(d.Seconds())
	if d > time.Duration(s)*time.Second {
		s++
	}
	if s < 1 {
		s = 1
	}
	return strconv.Itoa(s)
}
