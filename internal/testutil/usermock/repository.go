package usermock

import (
	"context"

	domain "lending-ledger/internal/domain/user"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
type Repo struct {
	CreateFn      func(ctx context.Context, u *domain.User) error
	GetByUserIDFn func(ctx context.Context, userID string) (*domain.User, error)
}

func (m *Repo) Create(ctx context.Context, u *domain.User) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, u)
	}
	return nil
}

func (m *Repo) GetByUserID(ctx context.Context, userID string) (*domain.User, error) {
	if m.GetByUserIDFn != nil {
		return m.GetByUserIDFn(ctx, userID)
	}
	return nil, context.Canceled
}

// Fixed returns a Repo whose lookups resolve against users by public id.
func Fixed(users ...*domain.User) *Repo {
	byID := make(map[string]*domain.User, len(users))
	for _, u := range users {
		byID[u.UserID] = u
	}
	return &Repo{
		GetByUserIDFn: func(_ context.Context, userID string) (*domain.User, error) {
			if u, ok := byID[userID]; ok {
				return u, nil
			}
			return nil, domain.ErrNotFound
		},
	}
}
