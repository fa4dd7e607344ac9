package middleware

import (
	"net/http"
)

// DefaultMaxBodyBytes is the default maximum request body size. Analyze requests
// carry a base64 photo, so this is well above what JSON coffee lists need.
const DefaultMaxBodyBytes = 10 << 20

// MaxBytes limits the request body size. Reads past maxBytes fail with
// *http.MaxBytesError, which handlers answer with 413.
func MaxBytes(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
