package loan

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Page is an offset window; Limit < 0 means unbounded.
type Page struct {
	Offset int
	Limit  int
}

type ListFilter struct {
	BorrowerID string
	Statuses   []Status
	Page       Page

	WithBorrower   bool
	WithFundings   bool
	WithRepayments bool
}

type Repository interface {
	Create(ctx context.Context, l *LoanRequest) error
	GetByLoanID(ctx context.Context, loanID string) (*LoanRequest, error)
	// GetByLoanIDForUpdate row-locks the loan for the surrounding transaction.
	GetByLoanIDForUpdate(ctx context.Context, loanID string) (*LoanRequest, error)
	GetByIDForUpdate(ctx context.Context, id uint64) (*LoanRequest, error)
	// GetDetail preloads borrower, fundings with lenders, and repayments.
	GetDetail(ctx context.Context, loanID string) (*LoanRequest, error)
	List(ctx context.Context, f ListFilter) ([]LoanRequest, int64, error)

	// UpdateFunding and UpdateStatus are compare-and-swap writes keyed on version.
	// They return ErrVersionConflict when the row moved underneath the caller.
	UpdateFunding(ctx context.Context, id, version uint64, amountFunded decimal.Decimal, status Status) error
	UpdateStatus(ctx context.Context, id, version uint64, status Status) error

	CountByBorrower(ctx context.Context, borrowerID string, statuses ...Status) (int64, error)
	SumAmountByBorrower(ctx context.Context, borrowerID string) (decimal.Decimal, error)
	// ListSettleable returns FUNDED loans whose repayments exist and are all PAID.
	ListSettleable(ctx context.Context, limit int) ([]LoanRequest, error)
}

type FundingRepository interface {
	Create(ctx context.Context, f *Funding) error
	CountByLender(ctx context.Context, lenderID string, loanStatuses ...Status) (int64, error)
	SumAmountByLender(ctx context.Context, lenderID string) (decimal.Decimal, error)
	// ListByLender preloads each funding's loan (without nested rows).
	ListByLender(ctx context.Context, lenderID string, p Page) ([]Funding, int64, error)
	// ListInvestments preloads the loan with borrower, fundings, lenders and repayments.
	ListInvestments(ctx context.Context, lenderID string, p Page) ([]Funding, int64, error)
}

type RepaymentRepository interface {
	CreateBatch(ctx context.Context, rs []Repayment) error
	GetByRepaymentID(ctx context.Context, repaymentID string) (*Repayment, error)
	ListByLoan(ctx context.Context, loanID uint64) ([]Repayment, error)
	// MarkPaid only flips PENDING rows; an already-paid row yields ErrAlreadyPaid.
	MarkPaid(ctx context.Context, id uint64, paidAt time.Time) error
	CountPending(ctx context.Context, loanID uint64) (int64, error)
	SumPaidByBorrower(ctx context.Context, borrowerID string) (decimal.Decimal, error)
	SumPaidByLoans(ctx context.Context, loanIDs []uint64) (map[uint64]decimal.Decimal, error)
}
