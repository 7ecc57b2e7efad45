package config

// OAuthConfig carries the two OAuth clients registered on the tenant.
//
// The backend client is confidential and admin-capable: it may look up and
// create users in the tenant directory. The frontend client id is public and
// is only ever used to mint user_default-scoped tokens. The backend secret
// must never reach a network-facing response.
type OAuthConfig interface {
	GetBackendClientID() string
	GetBackendClientSecret() string
	GetFrontendClientID() string
	GetImpersonationScope() string
}

type OAuth struct{}

var _ OAuthConfig = OAuth{}

func (OAuth) GetBackendClientID() string {
	return GetEnv("OAUTH_BACKEND_CLIENT_ID", "")
}

func (OAuth) GetBackendClientSecret() string {
	return GetEnv("OAUTH_BACKEND_CLIENT_SECRET", "")
}

func (OAuth) GetFrontendClientID() string {
	return GetEnv("OAUTH_FRONTEND_CLIENT_ID", "")
}

func (OAuth) GetImpersonationScope() string {
	return "user_default"
}
