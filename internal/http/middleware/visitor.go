package middleware

import (
	"net/http"

	scs "github.com/alexedwards/scs/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

// VisitorID assigns each session a random id on first contact and stamps it
// on the request log context, so a browsing session can be followed across
// requests without any account.
func VisitorID(sess *scs.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := sess.GetString(r.Context(), "visitor_id")
			if id == "" {
				id = uuid.NewString()
				sess.Put(r.Context(), "visitor_id", id)
			}
			hlog.FromRequest(r).UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("visitor_id", id)
			})
			next.ServeHTTP(w, r)
		})
	}
}
