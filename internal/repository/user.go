package repository

import (
	"context"

	"color-clash/internal/domain"
)

// UserRepository stores and retrieves user accounts.
type UserRepository interface {
	// Create inserts a new user. Returns ErrDuplicateEntry when the
	// username or email is already taken.
	Create(ctx context.Context, user *domain.User) error

	// FindByID looks up a user by ID. Returns ErrUserNotFound when missing.
	FindByID(ctx context.Context, id uint) (*domain.User, error)

	// FindByUsername looks up a user by username. Returns ErrUserNotFound
	// when missing.
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
}
