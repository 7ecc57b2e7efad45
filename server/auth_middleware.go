package server

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-embed-gateway/sessions"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// ContextKeySession stores the request's validated session
const ContextKeySession ContextKey = "session"

func sessionFromContext(ctx context.Context) (sessions.Session, bool) {
	session, ok := ctx.Value(ContextKeySession).(sessions.Session)
	return session, ok
}

// RequireAuthorized is the gate for API routes: the request must carry a live
// session that has a resolved identity. Anything else is 401, including a
// session that logged in but never completed identity resolution.
func (s *Server) RequireAuthorized() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			session, err := s.sessionFromRequest(r)
			if err != nil {
				http.Error(w, "Authentication required", http.StatusUnauthorized)
				return
			}
			if !session.Authorized() {
				http.Error(w, "Authentication required", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeySession, session)
			next(w, r.WithContext(ctx))
		}
	}
}

// RequireAntiForgery enforces the double-submit check on state-changing
// routes: the echoed token must match the one bound to the session. Absence
// or mismatch is 403, deliberately distinct from the 401 of a missing or
// unauthorized session.
func (s *Server) RequireAntiForgery() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			session, ok := sessionFromContext(r.Context())
			if !ok {
				var err error
				session, err = s.sessionFromRequest(r)
				if err != nil {
					http.Error(w, "Invalid anti-forgery token", http.StatusForbidden)
					return
				}
			}

			if !tokenMatchesHash(echoedCSRFToken(r), session.CSRFTokenHash) {
				log.Warn().Str("sessionID", session.ID).Str("path", r.URL.Path).Msg("anti-forgery token mismatch")
				http.Error(w, "Invalid anti-forgery token", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeySession, session)
			next(w, r.WithContext(ctx))
		}
	}
}
