package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"example.com/storefront/internal/usecase/session"
)

// SessionHeader carries the session id. A missing or malformed id starts a new session.
const SessionHeader = "X-Session-ID"

type ctxSessionKey struct{}

var errNoSession = errors.New("no session")

func (a *API) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(SessionHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(SessionHeader, id)

		ctx := context.WithValue(r.Context(), ctxSessionKey{}, a.sessions.Get(id))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func getSession(ctx context.Context) *session.Session {
	if s, ok := ctx.Value(ctxSessionKey{}).(*session.Session); ok {
		return s
	}
	return nil
}

// withSession resolves the request's session or answers 500 when the middleware is missing.
func withSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s := getSession(r.Context())
	if s == nil {
		respondError(w, http.StatusInternalServerError, errNoSession)
		return nil, false
	}
	return s, true
}
