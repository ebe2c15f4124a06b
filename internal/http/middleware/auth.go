package middleware

import (
	"crypto/hmac"
	"net/http"
)

// RequireAdminToken guards the maintenance endpoints with a shared secret
// carried in the X-Admin-Token header. An empty configured token keeps the
// endpoints closed.
func RequireAdminToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get("X-Admin-Token")
			if token == "" || !hmac.Equal([]byte(got), []byte(token)) {
				http.Error(w, "invalid or missing admin token", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
