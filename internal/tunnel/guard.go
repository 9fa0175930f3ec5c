package tunnel

import (
	"net/http"

	"github.com/rs/zerolog"
)

// Guard hard-closes upgrade requests for any path other than mount: the raw
// connection is hijacked and closed without writing a response. Plain
// requests pass through to next.
func Guard(mount string, log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isUpgrade(r) || r.URL.Path == mount {
				next.ServeHTTP(w, r)
				return
			}
			rejectedTotal.WithLabelValues("path").Inc()
			log.Debug().Str("path", r.URL.Path).Str("remote", r.RemoteAddr).Msg("upgrade on unknown path; closing")
			hardClose(w)
		})
	}
}

// hardClose drops the underlying connection. When the writer cannot be
// hijacked the handler panics with http.ErrAbortHandler, which makes the
// server close the connection without a response.
func hardClose(w http.ResponseWriter) {
	hj, ok := w.(http.Hijacker)
	if !ok {
		panic(http.ErrAbortHandler)
	}
	conn, _, err := hj.Hijack()
	if err != nil {
		panic(http.ErrAbortHandler)
	}
	_ = conn.Close()
}
