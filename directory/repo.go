package directory

import "context"

// User is a tenant directory entry.
type User struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Status  string `json:"status"`
}

// NewUser is the creation payload for a directory entry.
type NewUser struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Status  string `json:"status"`
}

// Repo is the tenant user directory. The hosted directory enforces
// uniqueness on the email attribute; FindByEmail returning more than one
// entry means the upstream store is in an inconsistent state.
type Repo interface {
	FindByEmail(ctx context.Context, email string) ([]User, error)
	Create(ctx context.Context, user NewUser) (User, error)
}
