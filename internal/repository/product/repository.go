package product

import (
	"context"

	"modelgallery/internal/domain"
)

// Repository reads and writes catalog products.
type Repository interface {
	List(ctx context.Context, query string) ([]domain.ProductRecord, error)
	GetByID(ctx context.Context, id int64) (*domain.ProductRecord, error)
	Upsert(ctx context.Context, p domain.ProductRecord) (*domain.ProductRecord, error)
}
