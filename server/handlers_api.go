package server

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-embed-gateway/broker"
	"github.com/jrsteele09/go-embed-gateway/engine"
)

// CSRFTokenHandler hands the session's anti-forgery token to the client,
// creating a session on demand so the login page's fetch can run before any
// authentication.
func (s *Server) CSRFTokenHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := s.ensureSession(w, r)
		if err != nil {
			log.Error().Err(err).Msg("csrf-token: session setup failed")
			http.Error(w, "Unable to issue token", http.StatusInternalServerError)
			return
		}

		token, err := s.issueCSRFToken(&session)
		if err != nil {
			log.Error().Str("sessionID", session.ID).Err(err).Msg("csrf-token: token issue failed")
			http.Error(w, "Unable to issue token", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"csrfToken": token})
	}
}

// AccessTokenHandler mints a fresh user-scoped access token for the embedded
// UI. A refused impersonation grant is an authorization outcome (401), never
// a server fault.
func (s *Server) AccessTokenHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, _ := sessionFromContext(r.Context())

		token, err := s.broker.MintUserToken(r.Context(), session.UserID, s.config.GetImpersonationScope())
		if err != nil {
			if errors.Is(err, broker.ErrUnauthenticated) || errors.Is(err, broker.ErrImpersonationFailed) {
				log.Warn().Str("operation", "mint-user-token").Str("sessionID", session.ID).Err(err).Msg("token mint refused")
				http.Error(w, "Authentication error", http.StatusUnauthorized)
				return
			}
			log.Error().Str("operation", "mint-user-token").Str("sessionID", session.ID).Err(err).Msg("token mint failed")
			http.Error(w, "Authentication error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write([]byte(token))
	}
}

// ConfigHandler returns the public embed parameters. The backend client
// secret is deliberately absent from this shape.
func (s *Server) ConfigHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"tenantUri":             s.config.GetTenantURI(),
			"oAuthFrontEndClientId": s.config.GetFrontendClientID(),
			"appId":                 s.config.GetAppID(),
			"sheetId":               s.config.GetSheetID(),
			"objectId":              s.config.GetObjectID(),
			"fieldId":               s.config.GetFieldID(),
		})
	}
}

// AppSheetsHandler lists the sheets of the configured app on behalf of the
// session's user.
func (s *Server) AppSheetsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, _ := sessionFromContext(r.Context())

		conn, ok := s.openAppSession(w, r, session.ID, session.UserID)
		if !ok {
			return
		}
		defer conn.Close(r.Context())

		sheets, err := conn.SheetList(r.Context())
		if err != nil {
			log.Error().Str("operation", "sheet-list").Str("sessionID", session.ID).Err(err).Msg("sheet list failed")
			http.Error(w, "Unable to retrieve sheet definitions", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, sheets)
	}
}

// HypercubeHandler assembles the full hypercube across all of its pages and
// returns the fixed dimension/measure projection.
func (s *Server) HypercubeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, _ := sessionFromContext(r.Context())

		conn, ok := s.openAppSession(w, r, session.ID, session.UserID)
		if !ok {
			return
		}
		defer conn.Close(r.Context())

		cube, err := s.aggregator.FetchHypercube(r.Context(), conn, engine.CubeDef{
			Dimension: s.config.GetHypercubeDimension(),
			Measure:   s.config.GetHypercubeMeasure(),
		})
		if err != nil {
			log.Error().Str("operation", "fetch-hypercube").Str("sessionID", session.ID).Err(err).Msg("hypercube fetch failed")
			http.Error(w, "Unable to retrieve hypercube", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, cube)
	}
}

func (s *Server) HealthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// openAppSession mints a per-request user token and opens an engine app
// session with it. On failure the response has already been written and ok is
// false.
func (s *Server) openAppSession(w http.ResponseWriter, r *http.Request, sessionID, userID string) (engine.AppConn, bool) {
	token, err := s.broker.MintUserToken(r.Context(), userID, s.config.GetImpersonationScope())
	if err != nil {
		if errors.Is(err, broker.ErrUnauthenticated) || errors.Is(err, broker.ErrImpersonationFailed) {
			log.Warn().Str("operation", "mint-user-token").Str("sessionID", sessionID).Err(err).Msg("token mint refused")
			http.Error(w, "Authentication error", http.StatusUnauthorized)
			return nil, false
		}
		log.Error().Str("operation", "mint-user-token").Str("sessionID", sessionID).Err(err).Msg("token mint failed")
		http.Error(w, "Authentication error", http.StatusInternalServerError)
		return nil, false
	}

	conn, err := s.engine.Open(r.Context(), s.config.GetAppID(), token)
	if err != nil {
		log.Error().Str("operation", "open-app-session").Str("sessionID", sessionID).Err(err).Msg("app session open failed")
		http.Error(w, "Unable to reach the analytics engine", http.StatusInternalServerError)
		return nil, false
	}
	return conn, true
}
