package sessions

import "errors"

// ErrNotFound is returned for sessions that do not exist or have expired.
var ErrNotFound = errors.New("session not found")

// Repo stores sessions keyed by session id. Implementations must be safe for
// concurrent use; concurrent mutation of one session is last-writer-wins.
type Repo interface {
	Upsert(sessionID string, session Session) error
	Get(sessionID string) (Session, error)
	Delete(sessionID string) error
}
