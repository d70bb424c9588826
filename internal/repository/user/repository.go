package user

import (
	"context"

	"modelgallery/internal/domain"
)

// Repository persists and fetches gallery accounts.
type Repository interface {
	Create(ctx context.Context, u domain.User) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
}
