package category

import (
	"context"

	"modelgallery/internal/domain"
	"modelgallery/internal/repository/category"
)

type Service struct {
	repo category.Repository
}

func New(repo category.Repository) *Service {
	return &Service{repo: repo}
}

// List returns the gallery's category facets, never nil.
func (s *Service) List(ctx context.Context) ([]domain.Category, error) {
	cats, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if cats == nil {
		cats = []domain.Category{}
	}
	return cats, nil
}
