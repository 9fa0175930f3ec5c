package tunnel

import (
	"context"
	"net/http"
)

type peerKey struct{}

// CapturePeer records the connection's RemoteAddr before any middleware
// rewrites it from client-supplied headers.
func CapturePeer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), peerKey{}, r.RemoteAddr)))
	})
}

// peerAddr returns the address captured by CapturePeer, else r.RemoteAddr.
func peerAddr(r *http.Request) string {
	if v, ok := r.Context().Value(peerKey{}).(string); ok && v != "" {
		return v
	}
	return r.RemoteAddr
}
