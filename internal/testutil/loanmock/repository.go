package loanmock

import (
	"context"
	"time"

	domain "lending-ledger/internal/domain/loan"

	"github.com/shopspring/decimal"
)

var (
	_ domain.Repository          = (*Repo)(nil)
	_ domain.FundingRepository   = (*FundingRepo)(nil)
	_ domain.RepaymentRepository = (*RepaymentRepo)(nil)
)

// Repo is a function-backed mock that satisfies domain.Repository.
// Unset lookups return context.Canceled; unset writes succeed.
type Repo struct {
	CreateFn               func(ctx context.Context, l *domain.LoanRequest) error
	GetByLoanIDFn          func(ctx context.Context, loanID string) (*domain.LoanRequest, error)
	GetByLoanIDForUpdateFn func(ctx context.Context, loanID string) (*domain.LoanRequest, error)
	GetByIDForUpdateFn     func(ctx context.Context, id uint64) (*domain.LoanRequest, error)
	GetDetailFn            func(ctx context.Context, loanID string) (*domain.LoanRequest, error)
	ListFn                 func(ctx context.Context, f domain.ListFilter) ([]domain.LoanRequest, int64, error)
	UpdateFundingFn        func(ctx context.Context, id, version uint64, amountFunded decimal.Decimal, status domain.Status) error
	UpdateStatusFn         func(ctx context.Context, id, version uint64, status domain.Status) error
	CountByBorrowerFn      func(ctx context.Context, borrowerID string, statuses ...domain.Status) (int64, error)
	SumAmountByBorrowerFn  func(ctx context.Context, borrowerID string) (decimal.Decimal, error)
	ListSettleableFn       func(ctx context.Context, limit int) ([]domain.LoanRequest, error)
}

func (m *Repo) Create(ctx context.Context, l *domain.LoanRequest) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, l)
	}
	return nil
}

func (m *Repo) GetByLoanID(ctx context.Context, loanID string) (*domain.LoanRequest, error) {
	if m.GetByLoanIDFn != nil {
		return m.GetByLoanIDFn(ctx, loanID)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByLoanIDForUpdate(ctx context.Context, loanID string) (*domain.LoanRequest, error) {
	if m.GetByLoanIDForUpdateFn != nil {
		return m.GetByLoanIDForUpdateFn(ctx, loanID)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByIDForUpdate(ctx context.Context, id uint64) (*domain.LoanRequest, error) {
	if m.GetByIDForUpdateFn != nil {
		return m.GetByIDForUpdateFn(ctx, id)
	}
	return nil, context.Canceled
}

func (m *Repo) GetDetail(ctx context.Context, loanID string) (*domain.LoanRequest, error) {
	if m.GetDetailFn != nil {
		return m.GetDetailFn(ctx, loanID)
	}
	return nil, context.Canceled
}

func (m *Repo) List(ctx context.Context, f domain.ListFilter) ([]domain.LoanRequest, int64, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, f)
	}
	return nil, 0, nil
}

func (m *Repo) UpdateFunding(ctx context.Context, id, version uint64, amountFunded decimal.Decimal, status domain.Status) error {
	if m.UpdateFundingFn != nil {
		return m.UpdateFundingFn(ctx, id, version, amountFunded, status)
	}
	return nil
}

func (m *Repo) UpdateStatus(ctx context.Context, id, version uint64, status domain.Status) error {
	if m.UpdateStatusFn != nil {
		return m.UpdateStatusFn(ctx, id, version, status)
	}
	return nil
}

func (m *Repo) CountByBorrower(ctx context.Context, borrowerID string, statuses ...domain.Status) (int64, error) {
	if m.CountByBorrowerFn != nil {
		return m.CountByBorrowerFn(ctx, borrowerID, statuses...)
	}
	return 0, nil
}

func (m *Repo) SumAmountByBorrower(ctx context.Context, borrowerID string) (decimal.Decimal, error) {
	if m.SumAmountByBorrowerFn != nil {
		return m.SumAmountByBorrowerFn(ctx, borrowerID)
	}
	return decimal.Zero, nil
}

func (m *Repo) ListSettleable(ctx context.Context, limit int) ([]domain.LoanRequest, error) {
	if m.ListSettleableFn != nil {
		return m.ListSettleableFn(ctx, limit)
	}
	return nil, nil
}

// FundingRepo is a function-backed mock that satisfies domain.FundingRepository.
type FundingRepo struct {
	CreateFn            func(ctx context.Context, f *domain.Funding) error
	CountByLenderFn     func(ctx context.Context, lenderID string, loanStatuses ...domain.Status) (int64, error)
	SumAmountByLenderFn func(ctx context.Context, lenderID string) (decimal.Decimal, error)
	ListByLenderFn      func(ctx context.Context, lenderID string, p domain.Page) ([]domain.Funding, int64, error)
	ListInvestmentsFn   func(ctx context.Context, lenderID string, p domain.Page) ([]domain.Funding, int64, error)
}

func (m *FundingRepo) Create(ctx context.Context, f *domain.Funding) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, f)
	}
	return nil
}

func (m *FundingRepo) CountByLender(ctx context.Context, lenderID string, loanStatuses ...domain.Status) (int64, error) {
	if m.CountByLenderFn != nil {
		return m.CountByLenderFn(ctx, lenderID, loanStatuses...)
	}
	return 0, nil
}

func (m *FundingRepo) SumAmountByLender(ctx context.Context, lenderID string) (decimal.Decimal, error) {
	if m.SumAmountByLenderFn != nil {
		return m.SumAmountByLenderFn(ctx, lenderID)
	}
	return decimal.Zero, nil
}

func (m *FundingRepo) ListByLender(ctx context.Context, lenderID string, p domain.Page) ([]domain.Funding, int64, error) {
	if m.ListByLenderFn != nil {
		return m.ListByLenderFn(ctx, lenderID, p)
	}
	return nil, 0, nil
}

func (m *FundingRepo) ListInvestments(ctx context.Context, lenderID string, p domain.Page) ([]domain.Funding, int64, error) {
	if m.ListInvestmentsFn != nil {
		return m.ListInvestmentsFn(ctx, lenderID, p)
	}
	return nil, 0, nil
}

// RepaymentRepo is a function-backed mock that satisfies domain.RepaymentRepository.
type RepaymentRepo struct {
	CreateBatchFn       func(ctx context.Context, rs []domain.Repayment) error
	GetByRepaymentIDFn  func(ctx context.Context, repaymentID string) (*domain.Repayment, error)
	ListByLoanFn        func(ctx context.Context, loanID uint64) ([]domain.Repayment, error)
	MarkPaidFn          func(ctx context.Context, id uint64, paidAt time.Time) error
	CountPendingFn      func(ctx context.Context, loanID uint64) (int64, error)
	SumPaidByBorrowerFn func(ctx context.Context, borrowerID string) (decimal.Decimal, error)
	SumPaidByLoansFn    func(ctx context.Context, loanIDs []uint64) (map[uint64]decimal.Decimal, error)
}

func (m *RepaymentRepo) CreateBatch(ctx context.Context, rs []domain.Repayment) error {
	if m.CreateBatchFn != nil {
		return m.CreateBatchFn(ctx, rs)
	}
	return nil
}

func (m *RepaymentRepo) GetByRepaymentID(ctx context.Context, repaymentID string) (*domain.Repayment, error) {
	if m.GetByRepaymentIDFn != nil {
		return m.GetByRepaymentIDFn(ctx, repaymentID)
	}
	return nil, context.Canceled
}

func (m *RepaymentRepo) ListByLoan(ctx context.Context, loanID uint64) ([]domain.Repayment, error) {
	if m.ListByLoanFn != nil {
		return m.ListByLoanFn(ctx, loanID)
	}
	return nil, nil
}

func (m *RepaymentRepo) MarkPaid(ctx context.Context, id uint64, paidAt time.Time) error {
	if m.MarkPaidFn != nil {
		return m.MarkPaidFn(ctx, id, paidAt)
	}
	return nil
}

func (m *RepaymentRepo) CountPending(ctx context.Context, loanID uint64) (int64, error) {
	if m.CountPendingFn != nil {
		return m.CountPendingFn(ctx, loanID)
	}
	return 0, nil
}

func (m *RepaymentRepo) SumPaidByBorrower(ctx context.Context, borrowerID string) (decimal.Decimal, error) {
	if m.SumPaidByBorrowerFn != nil {
		return m.SumPaidByBorrowerFn(ctx, borrowerID)
	}
	return decimal.Zero, nil
}

func (m *RepaymentRepo) SumPaidByLoans(ctx context.Context, loanIDs []uint64) (map[uint64]decimal.Decimal, error) {
	if m.SumPaidByLoansFn != nil {
		return m.SumPaidByLoansFn(ctx, loanIDs)
	}
	return map[uint64]decimal.Decimal{}, nil
}
