package web

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type contextKey int

const sessionKey contextKey = iota

const sessionCookie = "flowlog_session"

// withSession makes sure every browser carries a session id, which keys the
// toast queue.
func withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := ""
		if cookie, err := r.Cookie(sessionCookie); err == nil && cookie.Value != "" {
			id = cookie.Value
		} else {
			id = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     sessionCookie,
				Value:    id,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey, id)))
	})
}

func sessionID(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey).(string)
	return id
}
