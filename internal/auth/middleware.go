package auth

import (
	"context"
	"net/http"

	"academic-assist/internal/session"
	"academic-assist/internal/web"
)

type contextKey string

const adminKey contextKey = "admin"

// RequireAdmin redirects to /login unless the session carries an admin id.
func RequireAdmin(responder *web.Responder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := responder.Sessions().Load(r)
			if !sess.IsAdmin() {
				sess.AddFlash(session.FlashWarning, "Please log in first.")
				responder.Redirect(w, r, sess, "/login")
				return
			}

			ctx := context.WithValue(r.Context(), adminKey, sess.Username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminFromContext returns the username set by RequireAdmin.
func AdminFromContext(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(adminKey).(string)
	return username, ok
}
