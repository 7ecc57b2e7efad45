package identity

import "errors"

var (
	// ErrConflict means the directory holds more than one entry for a key
	// that is supposed to be unique. Resolution refuses to guess.
	ErrConflict = errors.New("multiple directory entries for identifier")

	ErrLookupFailed = errors.New("directory lookup failed")
	ErrCreateFailed = errors.New("directory create failed")
)
