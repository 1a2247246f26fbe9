package dashboard

import (
	"context"
	"log/slog"
	"strings"

	"lending-ledger/internal/domain/loan"
	"lending-ledger/internal/domain/metrics"
	"lending-ledger/internal/domain/uow"
	"lending-ledger/internal/domain/user"
	"lending-ledger/internal/usecase/dto"

	"github.com/shopspring/decimal"
)

var (
	activeLoanStatuses       = []loan.Status{loan.StatusPending, loan.StatusFunding, loan.StatusFunded}
	activeInvestmentStatuses = []loan.Status{loan.StatusFunding, loan.StatusFunded}
)

// Usecase computes role-specific rollups. Every call reads through one
// read-only transaction, so totals and sub-counts share a snapshot.
type Usecase struct {
	uow uow.UnitOfWork
	log *slog.Logger
}

func NewUsecase(tx uow.UnitOfWork, log *slog.Logger) *Usecase {
	if log == nil {
		log = slog.Default()
	}
	return &Usecase{uow: tx, log: log}
}

func (u *Usecase) Stats(ctx context.Context, who user.Identity) (*Stats, error) {
	switch who.Role {
	case user.RoleBorrower:
		s, err := u.BorrowerStats(ctx, who.UserID)
		if err != nil {
			return nil, err
		}
		return &Stats{Role: who.Role, BorrowerStats: s}, nil
	case user.RoleLender:
		s, err := u.LenderStats(ctx, who.UserID)
		if err != nil {
			return nil, err
		}
		return &Stats{Role: who.Role, LenderStats: s}, nil
	}
	return nil, loan.Invalid("role", "must be BORROWER or LENDER")
}

func (u *Usecase) BorrowerStats(ctx context.Context, borrowerID string) (*BorrowerStats, error) {
	var s BorrowerStats
	err := u.uow.WithinReadTx(ctx, func(r uow.Repos) error {
		var err error
		if s.TotalLoans, err = r.Loans.CountByBorrower(ctx, borrowerID); err != nil {
			return err
		}
		if s.ActiveLoans, err = r.Loans.CountByBorrower(ctx, borrowerID, activeLoanStatuses...); err != nil {
			return err
		}
		if s.FundedLoans, err = r.Loans.CountByBorrower(ctx, borrowerID, loan.StatusFunded); err != nil {
			return err
		}
		if s.TotalBorrowed, err = r.Loans.SumAmountByBorrower(ctx, borrowerID); err != nil {
			return err
		}
		if s.TotalRepaid, err = r.Repayments.SumPaidByBorrower(ctx, borrowerID); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		u.log.ErrorContext(ctx, "borrower stats failed", "borrower_id", borrowerID, "err", err)
		return nil, err
	}
	s.OutstandingAmount = s.TotalBorrowed.Sub(s.TotalRepaid)
	return &s, nil
}

func (u *Usecase) LenderStats(ctx context.Context, lenderID string) (*LenderStats, error) {
	var s LenderStats
	err := u.uow.WithinReadTx(ctx, func(r uow.Repos) error {
		var err error
		if s.TotalInvestments, err = r.Fundings.CountByLender(ctx, lenderID); err != nil {
			return err
		}
		if s.ActiveInvestments, err = r.Fundings.CountByLender(ctx, lenderID, activeInvestmentStatuses...); err != nil {
			return err
		}
		if s.TotalInvested, err = r.Fundings.SumAmountByLender(ctx, lenderID); err != nil {
			return err
		}
		s.TotalReturns, err = proRatedReturns(ctx, r, lenderID)
		return err
	})
	if err != nil {
		u.log.ErrorContext(ctx, "lender stats failed", "lender_id", lenderID, "err", err)
		return nil, err
	}
	s.NetProfit = s.TotalReturns.Sub(s.TotalInvested)
	return &s, nil
}

// proRatedReturns sums metrics.ExpectedReturn over every funding of the lender.
func proRatedReturns(ctx context.Context, r uow.Repos, lenderID string) (decimal.Decimal, error) {
	fundings, _, err := r.Fundings.ListByLender(ctx, lenderID, loan.Page{Limit: -1})
	if err != nil {
		return decimal.Zero, err
	}
	ids := make([]uint64, 0, len(fundings))
	seen := make(map[uint64]bool, len(fundings))
	for _, f := range fundings {
		if !seen[f.LoanRequestID] {
			seen[f.LoanRequestID] = true
			ids = append(ids, f.LoanRequestID)
		}
	}
	paid, err := r.Repayments.SumPaidByLoans(ctx, ids)
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, f := range fundings {
		if f.LoanRequest == nil {
			continue
		}
		total = total.Add(metrics.ExpectedReturnFrom(f.Amount, f.LoanRequest.Amount, paid[f.LoanRequestID]))
	}
	return total, nil
}

// MyLoans lists the borrower's own loans, newest first, with repayment
// progress filled in.
func (u *Usecase) MyLoans(ctx context.Context, borrowerID string, q PageQuery) (*LoanPage, error) {
	var statuses []loan.Status
	if strings.TrimSpace(q.Status) != "" {
		s, err := loan.ParseStatus(q.Status)
		if err != nil {
			return nil, err
		}
		statuses = []loan.Status{s}
	}
	page, limit := dto.NormalizePage(q.Page, q.Limit)

	var out LoanPage
	err := u.uow.WithinReadTx(ctx, func(r uow.Repos) error {
		rows, total, err := r.Loans.List(ctx, loan.ListFilter{
			BorrowerID:     borrowerID,
			Statuses:       statuses,
			Page:           loan.Page{Offset: dto.Offset(page, limit), Limit: limit},
			WithFundings:   true,
			WithRepayments: true,
		})
		if err != nil {
			return err
		}
		out.Loans = make([]dto.Loan, 0, len(rows))
		for i := range rows {
			out.Loans = append(out.Loans, dto.FromLoan(&rows[i]))
		}
		out.Pagination = dto.NewPagination(page, limit, total)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// MyInvestments lists the lender's fundings, newest first, each with its
// expected return and the loan it went into.
func (u *Usecase) MyInvestments(ctx context.Context, lenderID string, q PageQuery) (*InvestmentPage, error) {
	page, limit := dto.NormalizePage(q.Page, q.Limit)

	var out InvestmentPage
	err := u.uow.WithinReadTx(ctx, func(r uow.Repos) error {
		rows, total, err := r.Fundings.ListInvestments(ctx, lenderID, loan.Page{Offset: dto.Offset(page, limit), Limit: limit})
		if err != nil {
			return err
		}
		out.Investments = make([]dto.Investment, 0, len(rows))
		for i := range rows {
			out.Investments = append(out.Investments, dto.FromInvestment(&rows[i]))
		}
		out.Pagination = dto.NewPagination(page, limit, total)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
