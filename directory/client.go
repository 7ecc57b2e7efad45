package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2/clientcredentials"
)

// Client talks to the tenant's user directory REST API. All calls are
// authenticated with the backend (admin-capable) OAuth client via a
// client-credentials token source; that credential never leaves this process.
type Client struct {
	tenantURI  string
	httpClient *http.Client
	timeout    time.Duration
}

var _ Repo = (*Client)(nil)

type ClientOption func(*Client)

// WithHTTPClient replaces the OAuth-authenticated HTTP client (primarily for
// testing against unauthenticated fixtures).
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// NewClient creates a directory client for the given tenant. The backend
// client id and secret are exchanged for admin-scoped tokens on demand; the
// oauth2 transport handles refresh.
func NewClient(tenantURI, backendClientID, backendClientSecret string, options ...ClientOption) *Client {
	cc := clientcredentials.Config{
		ClientID:     backendClientID,
		ClientSecret: backendClientSecret,
		TokenURL:     strings.TrimSuffix(tenantURI, "/") + "/oauth/token",
		Scopes:       []string{"admin_classic", "user_default"},
	}

	c := &Client{
		tenantURI:  strings.TrimSuffix(tenantURI, "/"),
		httpClient: cc.Client(context.Background()),
		timeout:    30 * time.Second,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// FindByEmail lists directory entries whose email attribute equals email,
// using the directory's filter expression syntax.
func (c *Client) FindByEmail(ctx context.Context, email string) ([]User, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	filter := fmt.Sprintf("email eq %q", email)
	endpoint := c.tenantURI + "/api/v1/users?filter=" + url.QueryEscape(filter)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("[Client.FindByEmail] build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("[Client.FindByEmail] directory request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("[Client.FindByEmail] directory returned %s", resp.Status)
	}

	var payload struct {
		Data []User `json:"data"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&payload); err != nil {
		return nil, fmt.Errorf("[Client.FindByEmail] decode response: %w", err)
	}
	return payload.Data, nil
}

// Create provisions a new directory entry and returns it with its assigned id.
func (c *Client) Create(ctx context.Context, user NewUser) (User, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(user)
	if err != nil {
		return User{}, fmt.Errorf("[Client.Create] marshal user: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tenantURI+"/api/v1/users", bytes.NewReader(body))
	if err != nil {
		return User{}, fmt.Errorf("[Client.Create] build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return User{}, fmt.Errorf("[Client.Create] directory request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return User{}, fmt.Errorf("[Client.Create] directory returned %s", resp.Status)
	}

	var created User
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&created); err != nil {
		return User{}, fmt.Errorf("[Client.Create] decode response: %w", err)
	}
	return created, nil
}
