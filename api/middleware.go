package api

import (
	"context"
	"net/http"

	"BizBooks/api/auth"
)

type contextKey string

const sessionKey contextKey = "session"

// RequireSession gates a handler behind a valid session. The session ID is
// taken from the X-Session-ID header (query fallback for download links)
// and the resolved session is placed on the request context.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if authService == nil {
			RespondWithError(w, http.StatusInternalServerError, "Auth service unavailable")
			return
		}
		sessionID := r.Header.Get("X-Session-ID")
		if sessionID == "" {
			sessionID = r.URL.Query().Get("session_id")
		}
		if sessionID == "" {
			RespondWithError(w, http.StatusUnauthorized, "Missing session ID")
			return
		}
		session, err := authService.Validate(sessionID)
		if err != nil {
			RespondWithError(w, http.StatusUnauthorized, err.Error())
			return
		}
		ctx := context.WithValue(r.Context(), sessionKey, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetSessionFromCtx returns the session attached by RequireSession, or nil.
func GetSessionFromCtx(ctx context.Context) *auth.UserSession {
	if session, ok := ctx.Value(sessionKey).(*auth.UserSession); ok {
		return session
	}
	return nil
}
