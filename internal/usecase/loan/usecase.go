package loan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"lending-ledger/internal/domain/loan"
	"lending-ledger/internal/domain/uow"
	"lending-ledger/internal/domain/user"
	"lending-ledger/internal/usecase/dto"
	"lending-ledger/pkg/id"

	"github.com/shopspring/decimal"
)

type Usecase struct {
	uow uow.UnitOfWork
	log *slog.Logger
	now func() time.Time
}

func NewUsecase(tx uow.UnitOfWork, log *slog.Logger) *Usecase {
	if log == nil {
		log = slog.Default()
	}
	return &Usecase{uow: tx, log: log, now: func() time.Time { return time.Now().UTC() }}
}

func (u *Usecase) Create(ctx context.Context, borrowerID string, in CreateLoanInput) (*dto.Loan, error) {
	in.Purpose = strings.TrimSpace(in.Purpose)
	if err := validateCreate(in); err != nil {
		return nil, err
	}

	var out dto.Loan
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		b, err := r.Users.GetByUserID(ctx, borrowerID)
		if errors.Is(err, user.ErrNotFound) {
			return loan.Invalid("borrowerId", "unknown borrower")
		}
		if err != nil {
			return err
		}
		if b.Role != user.RoleBorrower {
			return loan.Invalid("borrowerId", "user is not a borrower")
		}

		l := &loan.LoanRequest{
			LoanID:        id.NewID32(),
			BorrowerID:    b.UserID,
			Amount:        in.Amount,
			Purpose:       in.Purpose,
			RepaymentTerm: in.RepaymentTerm,
			AmountFunded:  decimal.Zero,
			Status:        loan.StatusPending,
			Version:       1,
		}
		if err := r.Loans.Create(ctx, l); err != nil {
			return err
		}
		l.Borrower = b
		out = dto.FromLoan(l)
		return nil
	})
	if err != nil {
		return nil, err
	}
	u.log.InfoContext(ctx, "loan request created", "loan_id", out.ID, "borrower_id", borrowerID, "amount", out.Amount.String())
	return &out, nil
}

func (u *Usecase) Get(ctx context.Context, loanID string) (*dto.Loan, error) {
	if !id.Valid(loanID) {
		return nil, loan.ErrNotFound
	}
	var out dto.Loan
	err := u.uow.WithinReadTx(ctx, func(r uow.Repos) error {
		l, err := r.Loans.GetDetail(ctx, loanID)
		if err != nil {
			return err
		}
		out = dto.FromLoan(l)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListMarketplace lists loans lenders can browse, newest first.
func (u *Usecase) ListMarketplace(ctx context.Context, q ListQuery) (*LoanList, error) {
	statuses := []loan.Status{loan.StatusPending, loan.StatusFunding}
	if strings.TrimSpace(q.Status) != "" {
		s, err := loan.ParseStatus(q.Status)
		if err != nil {
			return nil, err
		}
		statuses = []loan.Status{s}
	}
	page, limit := dto.NormalizePage(q.Page, q.Limit)

	var out LoanList
	err := u.uow.WithinReadTx(ctx, func(r uow.Repos) error {
		rows, total, err := r.Loans.List(ctx, loan.ListFilter{
			Statuses:     statuses,
			Page:         loan.Page{Offset: dto.Offset(page, limit), Limit: limit},
			WithBorrower: true,
			WithFundings: true,
		})
		if err != nil {
			return err
		}
		out.Loans = make([]dto.Loan, 0, len(rows))
		for i := range rows {
			v := dto.FromLoan(&rows[i])
			v.Fundings = nil
			out.Loans = append(out.Loans, v)
		}
		out.Pagination = dto.NewPagination(page, limit, total)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// PayRepayment marks one installment of the caller's own loan as PAID and
// settles the loan when nothing is left pending.
func (u *Usecase) PayRepayment(ctx context.Context, borrowerID, repaymentID string) (*PayResult, error) {
	if !id.Valid(repaymentID) {
		return nil, loan.ErrRepaymentNotFound
	}
	var out PayResult
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		rep, err := r.Repayments.GetByRepaymentID(ctx, repaymentID)
		if err != nil {
			return err
		}
		l, err := r.Loans.GetByIDForUpdate(ctx, rep.LoanRequestID)
		if err != nil {
			return err
		}
		if l.BorrowerID != borrowerID {
			return loan.ErrRepaymentNotFound
		}
		if l.Status != loan.StatusFunded {
			return &loan.StateError{Reason: fmt.Sprintf("Loan is %s, not in repayment", l.Status)}
		}

		paidAt := u.now()
		if err := r.Repayments.MarkPaid(ctx, rep.ID, paidAt); err != nil {
			return err
		}
		rep.Status = loan.RepaymentPaid
		rep.PaidAt = &paidAt

		if _, err := complete(ctx, r, l); err != nil {
			return err
		}
		detail, err := r.Loans.GetDetail(ctx, l.LoanID)
		if err != nil {
			return err
		}
		out = PayResult{Repayment: dto.FromRepayment(rep, l.LoanID), Loan: dto.FromLoan(detail)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	u.log.InfoContext(ctx, "repayment paid", "repayment_id", repaymentID, "loan_id", out.Loan.ID, "loan_status", out.Loan.Status)
	return &out, nil
}

// CompleteRepayment moves a FUNDED loan whose schedule is fully PAID to
// REPAID. It reports whether the transition happened.
func (u *Usecase) CompleteRepayment(ctx context.Context, loanID string) (bool, error) {
	var done bool
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *loan.LoanRequest) error {
		var err error
		done, err = complete(ctx, r, l)
		return err
	})
	return done, err
}

// SettleRepaidLoans sweeps every loan eligible for CompleteRepayment.
func (u *Usecase) SettleRepaidLoans(ctx context.Context) (int, error) {
	var candidates []loan.LoanRequest
	err := u.uow.WithinReadTx(ctx, func(r uow.Repos) error {
		var err error
		candidates, err = r.Loans.ListSettleable(ctx, settleBatch)
		return err
	})
	if err != nil {
		return 0, err
	}

	settled := 0
	var errs []error
	for _, c := range candidates {
		done, err := u.CompleteRepayment(ctx, c.LoanID)
		if err != nil {
			u.log.WarnContext(ctx, "settle loan failed", "loan_id", c.LoanID, "err", err)
			errs = append(errs, fmt.Errorf("settle %s: %w", c.LoanID, err))
			continue
		}
		if done {
			settled++
		}
	}
	if settled > 0 {
		u.log.InfoContext(ctx, "repaid loans settled", "count", settled)
	}
	return settled, errors.Join(errs...)
}

func complete(ctx context.Context, r uow.Repos, l *loan.LoanRequest) (bool, error) {
	if l.Status != loan.StatusFunded {
		return false, nil
	}
	rs, err := r.Repayments.ListByLoan(ctx, l.ID)
	if err != nil {
		return false, err
	}
	if len(rs) == 0 {
		return false, nil
	}
	pending, err := r.Repayments.CountPending(ctx, l.ID)
	if err != nil {
		return false, err
	}
	if pending > 0 {
		return false, nil
	}
	if err := r.Loans.UpdateStatus(ctx, l.ID, l.Version, loan.StatusRepaid); err != nil {
		return false, err
	}
	l.Status = loan.StatusRepaid
	l.Version++
	return true, nil
}

func validateCreate(in CreateLoanInput) error {
	switch {
	case in.Amount.LessThan(MinLoanAmount) || in.Amount.GreaterThan(MaxLoanAmount):
		return loan.Invalid("amount", fmt.Sprintf("must be between %s and %s", MinLoanAmount, MaxLoanAmount))
	case !loan.HasCents(in.Amount):
		return loan.Invalid("amount", "must have at most 2 decimal places")
	}
	if n := utf8.RuneCountInString(in.Purpose); n < MinPurposeLen || n > MaxPurposeLen {
		return loan.Invalid("purpose", fmt.Sprintf("must be %d to %d characters", MinPurposeLen, MaxPurposeLen))
	}
	if in.RepaymentTerm < MinTerm || in.RepaymentTerm > MaxTerm {
		return loan.Invalid("repaymentTerm", fmt.Sprintf("must be %d to %d months", MinTerm, MaxTerm))
	}
	return nil
}
