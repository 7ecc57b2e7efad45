package server

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/jrsteele09/go-embed-gateway/sessions"
)

const (
	// sessionCookieName is the cookie carrying the opaque session id.
	sessionCookieName = "session_id"
	// csrfHeaderName carries the echoed anti-forgery token on API calls.
	csrfHeaderName = "X-CSRF-Token"
	// csrfFormField carries the echoed anti-forgery token on form posts.
	csrfFormField = "_csrf"

	csrfTokenLength = 32
)

// generateRandomString creates a random base64url string
func generateRandomString(length int) string {
	b := make([]byte, length)
	rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

// hashToken digests an anti-forgery token for storage. Only the digest is
// kept server-side.
func hashToken(token string) string {
	digest := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(digest[:])
}

func tokenMatchesHash(token, hash string) bool {
	if token == "" || hash == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(hashToken(token)), []byte(hash)) == 1
}

func (s *Server) setSessionCookie(w http.ResponseWriter, r *http.Request, sessionID string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteStrictMode,
		MaxAge:   maxAge,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter, r *http.Request) {
	s.setSessionCookie(w, r, "", -1)
}

// sessionFromRequest returns the live session referenced by the request's
// cookie, or sessions.ErrNotFound.
func (s *Server) sessionFromRequest(r *http.Request) (sessions.Session, error) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return sessions.Session{}, sessions.ErrNotFound
	}
	return s.sessions.Get(cookie.Value)
}

// ensureSession returns the request's session, creating an anonymous one
// (and setting its cookie) if none exists.
func (s *Server) ensureSession(w http.ResponseWriter, r *http.Request) (sessions.Session, error) {
	session, err := s.sessionFromRequest(r)
	if err == nil {
		return session, nil
	}
	if !errors.Is(err, sessions.ErrNotFound) {
		return sessions.Session{}, err
	}

	now := s.nowTime()
	session = sessions.Session{
		ID:        uuid.New().String(),
		CreatedAt: now,
		ExpiresAt: now.Add(s.config.GetMaxSessionAge()),
	}
	if err := s.sessions.Upsert(session.ID, session); err != nil {
		return sessions.Session{}, err
	}
	s.setSessionCookie(w, r, session.ID, int(s.config.GetMaxSessionAge().Seconds()))
	return session, nil
}

// issueCSRFToken generates a fresh anti-forgery token for the session, stores
// its digest and returns the plaintext for the client. Issuing a new token
// invalidates any previously handed-out one; there is always exactly one
// canonical token per session.
func (s *Server) issueCSRFToken(session *sessions.Session) (string, error) {
	token := generateRandomString(csrfTokenLength)
	session.CSRFTokenHash = hashToken(token)
	if err := s.sessions.Upsert(session.ID, *session); err != nil {
		return "", err
	}
	return token, nil
}

// echoedCSRFToken extracts the anti-forgery token the client echoed on a
// mutating request.
func echoedCSRFToken(r *http.Request) string {
	if token := r.Header.Get(csrfHeaderName); token != "" {
		return token
	}
	_ = r.ParseForm()
	return r.PostFormValue(csrfFormField)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
