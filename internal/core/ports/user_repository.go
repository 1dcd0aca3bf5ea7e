package ports

import (
	"context"

	"github.com/webwaymark/identity-service/internal/core/domain"
)

// UserRepository defines the persistence interface for user records.
//
// Uniqueness of username and email is enforced by the store itself; Create
// returns domain.ErrTaken when either unique constraint rejects the insert.
// The in-service duplicate checks are only a fast-path hint.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	UpdatePassword(ctx context.Context, email, passwordHash string) error
}
