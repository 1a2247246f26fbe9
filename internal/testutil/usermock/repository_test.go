package usermock

import (
	"context"
	"errors"
	"testing"

	domain "lending-ledger/internal/domain/user"
)

func TestRepo_GetByUserID_Default(t *testing.T) {
	m := &Repo{}
	got, err := m.GetByUserID(context.Background(), "u1")
	if err != context.Canceled || got != nil {
		t.Fatalf("default: want context.Canceled, got %+v, %v", got, err)
	}
}

func TestFixed(t *testing.T) {
	ctx := context.Background()
	lender := &domain.User{UserID: "u1", Role: domain.RoleLender}
	m := Fixed(lender)

	got, err := m.GetByUserID(ctx, "u1")
	if err != nil || got != lender {
		t.Fatalf("Fixed hit: got %+v, %v", got, err)
	}
	if _, err := m.GetByUserID(ctx, "nobody"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Fixed miss: want ErrNotFound, got %v", err)
	}
}
