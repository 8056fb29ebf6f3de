package catalog

import (
	"context"
)

// Catalog exposes read access to the service offerings.
type Catalog interface {
	List(ctx context.Context) ([]*Service, error)
	GetByID(ctx context.Context, id string) (*Service, error)
}

type catalog struct {
	repo Repository
}

func NewCatalog(repo Repository) Catalog {
	return &catalog{repo: repo}
}

func (s *catalog) List(ctx context.Context) ([]*Service, error) {
	return s.repo.List(ctx)
}

func (s *catalog) GetByID(ctx context.Context, id string) (*Service, error) {
	return s.repo.GetByID(ctx, id)
}
