// Package identity maps raw login identifiers to canonical tenant directory
// ids, provisioning a directory entry on first sight.
package identity

import (
	"context"
	"fmt"

	"github.com/jrsteele09/go-embed-gateway/directory"
)

const activeStatus = "active"

// Resolver resolves a raw identifier (typically an email address) to the id
// of a tenant directory entry.
//
// Resolve is lookup-then-maybe-create and is NOT atomic: two concurrent
// first-time resolutions of the same identifier can race and create two
// entries. Callers must resolve at most once per session; stronger
// guarantees need a uniqueness constraint upstream.
type Resolver struct {
	dir    directory.Repo
	prefix string
}

func NewResolver(dir directory.Repo, prefix string) *Resolver {
	return &Resolver{
		dir:    dir,
		prefix: prefix,
	}
}

// Key returns the namespaced directory key for a raw identifier.
func (r *Resolver) Key(rawIdentifier string) string {
	return r.prefix + rawIdentifier
}

// Resolve returns the directory id for rawIdentifier, creating the entry if
// it does not exist yet.
func (r *Resolver) Resolve(ctx context.Context, rawIdentifier string) (string, error) {
	key := r.Key(rawIdentifier)

	matches, err := r.dir.FindByEmail(ctx, key)
	if err != nil {
		return "", fmt.Errorf("[Resolver.Resolve] %w: %w", ErrLookupFailed, err)
	}

	switch len(matches) {
	case 1:
		return matches[0].ID, nil
	case 0:
		created, err := r.dir.Create(ctx, directory.NewUser{
			Name:    key,
			Email:   key,
			Subject: key,
			Status:  activeStatus,
		})
		if err != nil {
			return "", fmt.Errorf("[Resolver.Resolve] %w: %w", ErrCreateFailed, err)
		}
		return created.ID, nil
	default:
		return "", fmt.Errorf("[Resolver.Resolve] %w: %d entries for key", ErrConflict, len(matches))
	}
}
