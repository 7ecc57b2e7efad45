package broker_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-embed-gateway/broker"
	"github.com/stretchr/testify/require"
)

func TestMintUserTokenRequiresResolvedIdentity(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	t.Cleanup(ts.Close)

	b := broker.New(ts.URL, "frontend-client", "secret", broker.WithTokenURL(ts.URL+"/oauth/token"))

	_, err := b.MintUserToken(context.Background(), "", "user_default")
	require.ErrorIs(t, err, broker.ErrUnauthenticated)
	require.Zero(t, calls.Load(), "no exchange may be attempted without an identity")
}

func TestMintUserTokenExchange(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/oauth/token", r.URL.Path)
		require.NoError(t, r.ParseForm())
		require.Equal(t, "client_credentials", r.FormValue("grant_type"))
		require.Equal(t, "user-1", r.FormValue("user_id"))
		require.Equal(t, "user_default", r.FormValue("scope"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "opaque-user-token",
			"token_type":   "bearer",
			"expires_in":   300,
		})
	}))
	t.Cleanup(ts.Close)

	b := broker.New(ts.URL, "frontend-client", "secret", broker.WithTokenURL(ts.URL+"/oauth/token"))

	token, err := b.MintUserToken(context.Background(), "user-1", "user_default")
	require.NoError(t, err)
	require.Equal(t, "opaque-user-token", token)
}

func TestMintUserTokenNeverCaches(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "opaque-user-token",
			"token_type":   "bearer",
			"expires_in":   3600,
		})
	}))
	t.Cleanup(ts.Close)

	b := broker.New(ts.URL, "frontend-client", "secret", broker.WithTokenURL(ts.URL+"/oauth/token"))

	for i := 0; i < 3; i++ {
		_, err := b.MintUserToken(context.Background(), "user-1", "user_default")
		require.NoError(t, err)
	}
	require.EqualValues(t, 3, calls.Load(), "every mint must hit the token endpoint")
}

func TestMintUserTokenRefused(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"access_denied"}`, http.StatusUnauthorized)
	}))
	t.Cleanup(ts.Close)

	b := broker.New(ts.URL, "frontend-client", "secret", broker.WithTokenURL(ts.URL+"/oauth/token"))

	_, err := b.MintUserToken(context.Background(), "user-1", "user_default")
	require.ErrorIs(t, err, broker.ErrImpersonationFailed)
}

func TestMintUserTokenSubjectMismatch(t *testing.T) {
	wrongSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "someone-else",
	}).SignedString([]byte("test-key"))
	require.NoError(t, err)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": wrongSubject,
			"token_type":   "bearer",
		})
	}))
	t.Cleanup(ts.Close)

	b := broker.New(ts.URL, "frontend-client", "secret", broker.WithTokenURL(ts.URL+"/oauth/token"))

	_, err = b.MintUserToken(context.Background(), "user-1", "user_default")
	require.ErrorIs(t, err, broker.ErrImpersonationFailed)
}

func TestMintUserTokenMatchingSubject(t *testing.T) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
	}).SignedString([]byte("test-key"))
	require.NoError(t, err)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": signed,
			"token_type":   "bearer",
		})
	}))
	t.Cleanup(ts.Close)

	b := broker.New(ts.URL, "frontend-client", "secret", broker.WithTokenURL(ts.URL+"/oauth/token"))

	token, err := b.MintUserToken(context.Background(), "user-1", "user_default")
	require.NoError(t, err)
	require.Equal(t, signed, token)
}

// Tenants without a discovery document fall back to the conventional
// /oauth/token path.
func TestTokenEndpointFallback(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("POST /oauth/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "fallback-token",
			"token_type":   "bearer",
		})
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	b := broker.New(ts.URL, "frontend-client", "secret")

	token, err := b.MintUserToken(context.Background(), "user-1", "user_default")
	require.NoError(t, err)
	require.Equal(t, "fallback-token", token)
}
