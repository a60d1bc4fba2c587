// Package middleware holds chi-compatible HTTP middleware shared across
// routes.
package middleware

import (
	"net/http"

	"github.com/noops-dev/noops/internal/api/response"
)

// BodyLimit rejects request bodies over maxBytes with 413, per spec.md
// §4.8's 10 MiB upload cap. Requests without bodies (GET/HEAD/OPTIONS)
// pass through untouched.
func BodyLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			// Fast path: reject on the declared Content-Length before
			// reading anything.
			if r.ContentLength > maxBytes {
				response.WriteError(w, http.StatusRequestEntityTooLarge, "request body exceeds maximum allowed size")
				return
			}

			// Content-Length may be absent or understated; enforce the
			// limit during the read too.
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}

			next.ServeHTTP(w, r)
		})
	}
}
