package sessions

import "time"

// Session tracks one browser session's progress through the login state
// machine: Anonymous -> Identified (Email set) -> Authorized (UserID set).
// Logout or absolute expiry is terminal.
type Session struct {
	ID string

	// Email is the raw, client-supplied login identifier. It is not
	// validated beyond being non-empty.
	Email string

	// UserID is the tenant directory id the session resolved to. Once set
	// it is never re-resolved for the lifetime of the session.
	UserID string

	// CSRFTokenHash is the sha256 digest of the anti-forgery token handed
	// to the client. The plaintext token is never stored server-side.
	CSRFTokenHash string

	CreatedAt time.Time
	ExpiresAt time.Time
}

// Identified reports whether a login identifier has been submitted.
func (s Session) Identified() bool {
	return s.Email != ""
}

// Authorized reports whether the session has a resolved directory identity.
func (s Session) Authorized() bool {
	return s.UserID != ""
}

// Expired reports whether the session's absolute TTL has passed.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
