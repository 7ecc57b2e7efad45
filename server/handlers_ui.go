package server

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-embed-gateway/sessions"
)

// LoginPageHandler serves the login form with a fresh anti-forgery token
// embedded, creating an anonymous session if the browser has none yet.
func (s *Server) LoginPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := s.ensureSession(w, r)
		if err != nil {
			log.Error().Err(err).Msg("login page: session setup failed")
			http.Error(w, "Login unavailable", http.StatusInternalServerError)
			return
		}

		token, err := s.issueCSRFToken(&session)
		if err != nil {
			log.Error().Str("sessionID", session.ID).Err(err).Msg("login page: token issue failed")
			http.Error(w, "Login unavailable", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = loginTemplate.Execute(w, loginPageData{
			AppName:   s.config.GetAppName(),
			CSRFToken: token,
		})
	}
}

// LoginSubmissionHandler records the submitted identifier and rotates the
// session id. Resolution against the tenant directory happens on the first
// authenticated page load, not here.
func (s *Server) LoginSubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := sessionFromContext(r.Context())
		if !ok {
			http.Error(w, "Authentication required", http.StatusUnauthorized)
			return
		}

		email := r.PostFormValue("email")
		if email == "" {
			http.Error(w, "Please provide an email", http.StatusBadRequest)
			return
		}

		// Fresh id on privilege change; the anti-forgery binding carries
		// over so the already-loaded UI keeps working.
		now := s.nowTime()
		next := sessions.Session{
			ID:            uuid.New().String(),
			Email:         email,
			CSRFTokenHash: session.CSRFTokenHash,
			CreatedAt:     now,
			ExpiresAt:     now.Add(s.config.GetMaxSessionAge()),
		}
		if err := s.sessions.Upsert(next.ID, next); err != nil {
			log.Error().Str("sessionID", session.ID).Err(err).Msg("login: session store failed")
			http.Error(w, "Login failed", http.StatusInternalServerError)
			return
		}
		_ = s.sessions.Delete(session.ID)
		s.setSessionCookie(w, r, next.ID, int(s.config.GetMaxSessionAge().Seconds()))

		log.Info().Str("sessionID", next.ID).Msg("user logged in")
		http.Redirect(w, r, "/", http.StatusFound)
	}
}

// IndexHandler serves the home document. On the first authenticated hit it
// resolves the session's identity against the tenant directory; the resolved
// id is then pinned for the session's lifetime.
func (s *Server) IndexHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := s.sessionFromRequest(r)
		if err != nil || !session.Identified() {
			http.Redirect(w, r, RouteLogin, http.StatusFound)
			return
		}

		if !session.Authorized() {
			userID, err := s.resolver.Resolve(r.Context(), session.Email)
			if err != nil {
				// The session stays Identified; a later page load retries.
				log.Error().Str("operation", "resolve-identity").Str("sessionID", session.ID).Err(err).Msg("identity resolution failed")
				http.Error(w, "Error accessing user account", http.StatusInternalServerError)
				return
			}
			session.UserID = userID
			if err := s.sessions.Upsert(session.ID, session); err != nil {
				log.Error().Str("sessionID", session.ID).Err(err).Msg("home: session store failed")
				http.Error(w, "Error accessing user account", http.StatusInternalServerError)
				return
			}
			log.Info().Str("sessionID", session.ID).Str("userID", userID).Msg("resolved session identity")
		}

		token, err := s.issueCSRFToken(&session)
		if err != nil {
			log.Error().Str("sessionID", session.ID).Err(err).Msg("home: token issue failed")
			http.Error(w, "Error accessing user account", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = homeTemplate.Execute(w, homePageData{
			AppName:   s.config.GetAppName(),
			Email:     session.Email,
			CSRFToken: token,
			SheetID:   s.config.GetSheetID(),
			ObjectID:  s.config.GetObjectID(),
		})
	}
}

// LogoutHandler destroys the session unconditionally.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
			if err := s.sessions.Delete(cookie.Value); err != nil {
				log.Error().Err(err).Msg("logout: session delete failed")
			}
		}
		s.clearSessionCookie(w, r)
		http.Redirect(w, r, RouteLogin, http.StatusFound)
	}
}
