package broker

import "errors"

var (
	// ErrUnauthenticated is a caller contract violation: minting was
	// requested for a session with no resolved identity.
	ErrUnauthenticated = errors.New("no resolved identity for token request")

	// ErrImpersonationFailed means the tenant refused the impersonation
	// grant. This is an authorization outcome, not a server fault.
	ErrImpersonationFailed = errors.New("impersonation token exchange refused")
)
