package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-embed-gateway/engine"
	"github.com/jrsteele09/go-embed-gateway/internal/config"
	"github.com/jrsteele09/go-embed-gateway/sessions"
)

// IdentityResolver maps a raw login identifier to a tenant directory id.
type IdentityResolver interface {
	Resolve(ctx context.Context, rawIdentifier string) (string, error)
}

// TokenMinter mints a short-lived, user-scoped access token.
type TokenMinter interface {
	MintUserToken(ctx context.Context, userID, scope string) (string, error)
}

// Deps holds the collaborators the server is wired with.
type Deps struct {
	Sessions   sessions.Repo
	Resolver   IdentityResolver
	Broker     TokenMinter
	Engine     engine.Dialer
	Aggregator *engine.Aggregator
}

type Server struct {
	env        string
	mux        *http.ServeMux
	routes     []string
	config     config.Config
	sessions   sessions.Repo
	resolver   IdentityResolver
	broker     TokenMinter
	engine     engine.Dialer
	aggregator *engine.Aggregator
	nowTime    func() time.Time
}

type ServerOption func(*Server)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServerOption {
	return func(s *Server) {
		s.nowTime = nowFunc
	}
}

func New(config config.Config, deps Deps, options ...ServerOption) (*Server, error) {
	if deps.Sessions == nil {
		return nil, fmt.Errorf("[Server New] Sessions repo is required")
	}
	if deps.Resolver == nil {
		return nil, fmt.Errorf("[Server New] Resolver is required")
	}
	if deps.Broker == nil {
		return nil, fmt.Errorf("[Server New] Broker is required")
	}
	if deps.Engine == nil {
		return nil, fmt.Errorf("[Server New] Engine dialer is required")
	}

	s := &Server{
		env:        config.GetEnv(),
		mux:        http.NewServeMux(),
		config:     config,
		sessions:   deps.Sessions,
		resolver:   deps.Resolver,
		broker:     deps.Broker,
		engine:     deps.Engine,
		aggregator: deps.Aggregator,
		nowTime:    time.Now,
	}
	if s.aggregator == nil {
		s.aggregator = engine.NewAggregator()
	}
	for _, opt := range options {
		opt(s)
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	log.Printf("[%-19s] %s", displayMethod, path)
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
