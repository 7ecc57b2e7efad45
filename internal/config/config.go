package config

type Config interface {
	EnvConfig
	TenantConfig
	OAuthConfig
	SecurityConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetRedisAddr() string
	GetRedisPassword() string
	GetEnv() string
}

type mainConfig struct {
	EnvVars
	Tenant
	OAuth
	Security
}

func New() Config {
	return mainConfig{}
}
