package category

import "context"

// Reader abstracts repository operations for the service.
type Reader interface {
	GetByID(ctx context.Context, id string) (Category, error)
	List(ctx context.Context, limit int) ([]Category, error)
}

// Service exposes category lookups to the presentation layer.
type Service struct {
	repo Reader
}

func NewService(repo Reader) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetByID(ctx context.Context, id string) (Category, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, limit int) ([]Category, error) {
	return s.repo.List(ctx, limit)
}
