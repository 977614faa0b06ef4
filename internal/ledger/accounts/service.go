package accounts

import (
	"context"

	"github.com/aurora-books/aurora-books/internal/ledger/shared"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, scope shared.Scope) ([]Account, error) {
	return s.repo.List(ctx, scope)
}

func (s *Service) Get(ctx context.Context, scope shared.Scope, id int64) (Account, error) {
	return s.repo.Get(ctx, scope, id)
}

func (s *Service) Deactivate(ctx context.Context, scope shared.Scope, id int64) error {
	return s.repo.Deactivate(ctx, scope, id)
}
