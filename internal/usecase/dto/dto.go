// Package dto holds the JSON views the usecases hand to the HTTP layer.
// Every derived figure is computed here from rows already loaded.
package dto

import (
	"time"

	"lending-ledger/internal/domain/loan"
	"lending-ledger/internal/domain/metrics"
	"lending-ledger/internal/domain/user"

	"github.com/shopspring/decimal"
)

type UserSummary struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Role        user.Role `json:"role"`
	CreditScore int       `json:"creditScore"`
	TrustScore  int       `json:"trustScore"`
}

type Funding struct {
	ID        string          `json:"id"`
	LoanID    string          `json:"loanRequestId,omitempty"`
	LenderID  string          `json:"lenderId"`
	Lender    *UserSummary    `json:"lender,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"createdAt"`
}

type Repayment struct {
	ID      string               `json:"id"`
	LoanID  string               `json:"loanRequestId,omitempty"`
	Amount  decimal.Decimal      `json:"amount"`
	DueDate time.Time            `json:"dueDate"`
	Status  loan.RepaymentStatus `json:"status"`
	PaidAt  *time.Time           `json:"paidAt,omitempty"`
}

type Loan struct {
	ID                string          `json:"id"`
	BorrowerID        string          `json:"borrowerId"`
	Borrower          *UserSummary    `json:"borrower,omitempty"`
	Amount            decimal.Decimal `json:"amount"`
	Purpose           string          `json:"purpose"`
	RepaymentTerm     int             `json:"repaymentTerm"`
	AmountFunded      decimal.Decimal `json:"amountFunded"`
	Status            loan.Status     `json:"status"`
	FundingProgress   decimal.Decimal `json:"fundingProgress"`
	RemainingCapacity decimal.Decimal `json:"remainingCapacity"`
	TotalRepaid       decimal.Decimal `json:"totalRepaid"`
	RemainingAmount   decimal.Decimal `json:"remainingAmount"`
	FundingCount      int             `json:"fundingCount"`
	Fundings          []Funding       `json:"fundings,omitempty"`
	Repayments        []Repayment     `json:"repayments,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// Investment is one funding seen from the lender's side.
type Investment struct {
	Funding
	ExpectedReturn   decimal.Decimal `json:"expectedReturn"`
	ReturnPercentage decimal.Decimal `json:"returnPercentage"`
	Loan             *Loan           `json:"loanRequest,omitempty"`
}

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100

	// MaxPage keeps (page-1)*limit well inside int32.
	MaxPage = 1_000_000
)

// NormalizePage clamps a 1-based page and its limit to sane bounds.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return page, limit
}

// Offset is the row offset of a normalized page.
func Offset(page, limit int) int { return (page - 1) * limit }

func NewPagination(page, limit int, total int64) Pagination {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}

func FromUser(u *user.User) *UserSummary {
	if u == nil {
		return nil
	}
	return &UserSummary{
		ID:          u.UserID,
		Name:        u.Name,
		Role:        u.Role,
		CreditScore: u.CreditScore,
		TrustScore:  u.TrustScore,
	}
}

func FromFunding(f *loan.Funding, loanID string) Funding {
	return Funding{
		ID:        f.FundingID,
		LoanID:    loanID,
		LenderID:  f.LenderID,
		Lender:    FromUser(f.Lender),
		Amount:    f.Amount,
		CreatedAt: f.CreatedAt,
	}
}

func FromRepayment(r *loan.Repayment, loanID string) Repayment {
	return Repayment{
		ID:      r.RepaymentID,
		LoanID:  loanID,
		Amount:  r.Amount,
		DueDate: r.DueDate,
		Status:  r.Status,
		PaidAt:  r.PaidAt,
	}
}

// FromLoan includes whatever associations l has loaded. TotalRepaid and
// RemainingAmount only reflect l.Repayments.
func FromLoan(l *loan.LoanRequest) Loan {
	out := Loan{
		ID:                l.LoanID,
		BorrowerID:        l.BorrowerID,
		Borrower:          FromUser(l.Borrower),
		Amount:            l.Amount,
		Purpose:           l.Purpose,
		RepaymentTerm:     l.RepaymentTerm,
		AmountFunded:      l.AmountFunded,
		Status:            l.Status,
		FundingProgress:   metrics.FundingProgress(l),
		RemainingCapacity: l.RemainingCapacity(),
		TotalRepaid:       metrics.TotalRepaid(l),
		RemainingAmount:   metrics.OutstandingAmount(l),
		FundingCount:      len(l.Fundings),
		CreatedAt:         l.CreatedAt,
		UpdatedAt:         l.UpdatedAt,
	}
	for i := range l.Fundings {
		out.Fundings = append(out.Fundings, FromFunding(&l.Fundings[i], ""))
	}
	for i := range l.Repayments {
		out.Repayments = append(out.Repayments, FromRepayment(&l.Repayments[i], ""))
	}
	return out
}

// FromInvestment needs f.LoanRequest with its repayments loaded.
func FromInvestment(f *loan.Funding) Investment {
	inv := Investment{ExpectedReturn: decimal.Zero, ReturnPercentage: decimal.Zero}
	if f.LoanRequest == nil {
		inv.Funding = FromFunding(f, "")
		return inv
	}
	l := f.LoanRequest
	inv.Funding = FromFunding(f, l.LoanID)
	inv.ExpectedReturn = metrics.ExpectedReturn(f, l)
	inv.ReturnPercentage = metrics.ReturnPercentage(f, l)
	view := FromLoan(l)
	inv.Loan = &view
	return inv
}
