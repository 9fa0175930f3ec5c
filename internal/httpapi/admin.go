package httpapi

import (
	"crypto/subtle"
	"net/http"
)

const defaultAdminHeader = "X-Admin-Token"

// requireAdmin guards admin routes with a shared token carried in header.
// An empty configured token locks the routes entirely.
func requireAdmin(token, header string) func(http.Handler) http.Handler {
	if header == "" {
		header = defaultAdminHeader
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(header)
			switch {
			case token == "":
				IncrementAdminDenied("disabled")
			case got == "":
				IncrementAdminDenied("missing")
			case subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1:
				IncrementAdminDenied("mismatch")
			default:
				next.ServeHTTP(w, r)
				return
			}
			writeJSONError(w, http.StatusUnauthorized, "unauthorized")
		})
	}
}
