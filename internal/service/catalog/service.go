package catalog

import (
	"context"

	"modelgallery/internal/domain"
	productrepo "modelgallery/internal/repository/product"
)

// Service serves the gallery grid and the single-product endpoint.
type Service struct {
	repo productrepo.Repository
}

func New(repo productrepo.Repository) *Service {
	return &Service{repo: repo}
}

// List returns products matching query on name or category.
func (s *Service) List(ctx context.Context, query string) ([]domain.ProductRecord, error) {
	return s.repo.List(ctx, query)
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.ProductRecord, error) {
	return s.repo.GetByID(ctx, id)
}
