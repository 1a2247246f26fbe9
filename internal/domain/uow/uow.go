package uow

import (
	"context"

	"lending-ledger/internal/domain/loan"
	"lending-ledger/internal/domain/user"
)

type Repos struct {
	Users      user.Repository
	Loans      loan.Repository
	Fundings   loan.FundingRepository
	Repayments loan.RepaymentRepository
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// read-only snapshot; every query inside fn sees the same point in time
	WithinReadTx(ctx context.Context, fn func(r Repos) error) error
	// convenience: lock loan first, then pass it in
	WithinLoanTx(ctx context.Context, loanID string, fn func(r Repos, l *loan.LoanRequest) error) error
}
