package identity_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jrsteele09/go-embed-gateway/directory"
	"github.com/jrsteele09/go-embed-gateway/directory/directoryfakes"
	"github.com/jrsteele09/go-embed-gateway/identity"
	"github.com/stretchr/testify/require"
)

func TestResolveExistingUser(t *testing.T) {
	dir := directoryfakes.NewFakeDirectoryRepo()
	dir.Seed(directory.User{ID: "user-1", Email: "embed_john.doe@example.com", Status: "active"})

	resolver := identity.NewResolver(dir, "embed_")

	id, err := resolver.Resolve(context.Background(), "john.doe@example.com")
	require.NoError(t, err)
	require.Equal(t, "user-1", id)
	require.Equal(t, 0, dir.CreateCalls())
}

func TestResolveCreatesMissingUser(t *testing.T) {
	dir := directoryfakes.NewFakeDirectoryRepo()
	resolver := identity.NewResolver(dir, "embed_")

	id, err := resolver.Resolve(context.Background(), "john.doe@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, id)
	require.Equal(t, 1, dir.CreateCalls())

	users := dir.Users()
	require.Len(t, users, 1)
	require.Equal(t, "embed_john.doe@example.com", users[0].Email)
	require.Equal(t, "embed_john.doe@example.com", users[0].Subject)
	require.Equal(t, "active", users[0].Status)
}

// Resolving the same identifier twice must not create a second directory
// entry: the second resolution finds the entry created by the first.
func TestResolveTwiceCreatesOneUser(t *testing.T) {
	dir := directoryfakes.NewFakeDirectoryRepo()
	resolver := identity.NewResolver(dir, "embed_")

	first, err := resolver.Resolve(context.Background(), "john.doe@example.com")
	require.NoError(t, err)

	second, err := resolver.Resolve(context.Background(), "john.doe@example.com")
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Equal(t, 1, dir.CreateCalls())
	require.Len(t, dir.Users(), 1)
}

func TestResolveConflict(t *testing.T) {
	dir := directoryfakes.NewFakeDirectoryRepo()
	dir.Seed(directory.User{ID: "user-1", Email: "embed_dup@example.com"})
	dir.Seed(directory.User{ID: "user-2", Email: "embed_dup@example.com"})

	resolver := identity.NewResolver(dir, "embed_")

	_, err := resolver.Resolve(context.Background(), "dup@example.com")
	require.ErrorIs(t, err, identity.ErrConflict)
}

func TestResolveLookupFailure(t *testing.T) {
	dir := directoryfakes.NewFakeDirectoryRepo()
	dir.FindErr = errors.New("upstream down")

	resolver := identity.NewResolver(dir, "embed_")

	_, err := resolver.Resolve(context.Background(), "john.doe@example.com")
	require.ErrorIs(t, err, identity.ErrLookupFailed)
}

func TestResolveCreateFailure(t *testing.T) {
	dir := directoryfakes.NewFakeDirectoryRepo()
	dir.CreateErr = errors.New("upstream down")

	resolver := identity.NewResolver(dir, "embed_")

	_, err := resolver.Resolve(context.Background(), "john.doe@example.com")
	require.ErrorIs(t, err, identity.ErrCreateFailed)
}
