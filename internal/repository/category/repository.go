package category

import (
	"context"

	"modelgallery/internal/domain"
)

// Repository lists the categories present in the catalog.
type Repository interface {
	List(ctx context.Context) ([]domain.Category, error)
}
