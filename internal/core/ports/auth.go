package ports

import (
	"context"

	"github.com/lcalzada-xor/eapolsupd/internal/core/domain"
)

// AuthService coordinates credentials validation and session management
// for the control HTTP surface (distinct from the EAPOL controller's own
// attach handshake).
type AuthService interface {
	// Login performs credential validation and returns a secure session token.
	Login(ctx context.Context, creds domain.Credentials) (token string, err error)

	// ValidateToken verifies the authenticity and expiration of a session token.
	ValidateToken(ctx context.Context, token string) (*domain.User, error)

	// Logout invalidates the provided session token.
	Logout(ctx context.Context, token string) error

	// CreateUser provisions a new user. Typically restricted to admin roles.
	CreateUser(ctx context.Context, user domain.User, password string) error
}

// UserRepository provides access to stored operator profiles.
type UserRepository interface {
	Save(ctx context.Context, user domain.User) error
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
}
