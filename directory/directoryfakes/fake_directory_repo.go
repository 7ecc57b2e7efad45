package directoryfakes

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-embed-gateway/directory"
)

var _ directory.Repo = (*FakeDirectoryRepo)(nil)

// FakeDirectoryRepo is an in-memory stand-in for the tenant user directory.
type FakeDirectoryRepo struct {
	lock  sync.RWMutex
	users []directory.User

	FindErr   error
	CreateErr error

	findCalls   int
	createCalls int
}

func NewFakeDirectoryRepo() *FakeDirectoryRepo {
	return &FakeDirectoryRepo{}
}

func (r *FakeDirectoryRepo) FindByEmail(_ context.Context, email string) ([]directory.User, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.findCalls++
	if r.FindErr != nil {
		return nil, r.FindErr
	}

	var matches []directory.User
	for _, u := range r.users {
		if u.Email == email {
			matches = append(matches, u)
		}
	}
	return matches, nil
}

func (r *FakeDirectoryRepo) Create(_ context.Context, user directory.NewUser) (directory.User, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.createCalls++
	if r.CreateErr != nil {
		return directory.User{}, r.CreateErr
	}

	created := directory.User{
		ID:      uuid.New().String(),
		Name:    user.Name,
		Email:   user.Email,
		Subject: user.Subject,
		Status:  user.Status,
	}
	r.users = append(r.users, created)
	return created, nil
}

// Seed adds a user directly, bypassing call counting.
func (r *FakeDirectoryRepo) Seed(user directory.User) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.users = append(r.users, user)
}

func (r *FakeDirectoryRepo) Users() []directory.User {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return append([]directory.User(nil), r.users...)
}

func (r *FakeDirectoryRepo) FindCalls() int {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.findCalls
}

func (r *FakeDirectoryRepo) CreateCalls() int {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.createCalls
}
