package middleware

import (
	"io"
	"net/http"
)

// bodies bigger than this are not worth reading to the end, the connection
// is dropped instead of reused
const maxDrainBytes = 256 << 10

// DrainAndCloseRequest drains what the handler left unread in the request
// body, so the keep-alive connection can be reused, and closes it.
func DrainAndCloseRequest() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)
			if r.Body != nil {
				_, _ = io.CopyN(io.Discard, r.Body, maxDrainBytes)
				_ = r.Body.Close()
			}
		})
	}
}
