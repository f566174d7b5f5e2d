package auth

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
)

// APIKey returns HTTP middleware that enforces API key authentication on
// every request.
//
// Behaviour:
//   - If mode != "apikey" or key == "", all requests are allowed (pass-through).
//   - Otherwise the middleware reads header from the request and compares it
//     to key in constant time.
//   - A missing, empty, or incorrect key is answered with 401 and a JSON body.
func APIKey(mode, header, key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		// Non-apikey modes or unconfigured key → allow everything.
		if mode != "apikey" || key == "" {
			return next
		}
		want := []byte(key)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(header)
			if got == "" || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
				slog.Warn("auth: rejected request",
					"path", r.URL.Path,
					"method", r.Method,
					"remote_addr", r.RemoteAddr,
					"key_present", got != "",
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"invalid api key"}` + "\n")) //nolint:errcheck
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
