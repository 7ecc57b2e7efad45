package config

import "time"

type SecurityConfig interface {
	GetMaxSessionAge() time.Duration
	GetRemoteCallTimeout() time.Duration
}

type Security struct{}

var _ SecurityConfig = Security{}

// GetMaxSessionAge is an absolute expiry: sessions are never renewed by
// activity.
func (Security) GetMaxSessionAge() time.Duration {
	return 1 * time.Hour
}

func (Security) GetRemoteCallTimeout() time.Duration {
	return 30 * time.Second
}
