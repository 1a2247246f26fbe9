package funding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	domainLoan "lending-ledger/internal/domain/loan"
	domainUser "lending-ledger/internal/domain/user"
	"lending-ledger/internal/domain/uow"
	"lending-ledger/internal/usecase/dto"
	"lending-ledger/pkg/id"

	"github.com/shopspring/decimal"
)

// Locker serializes fundings of one loan across processes. unlock must be
// safe to call after the lock already expired.
type Locker interface {
	Lock(ctx context.Context, loanID string) (unlock func(), err error)
}

type Option func(*Usecase)

func WithLocker(l Locker) Option { return func(u *Usecase) { u.locker = l } }
func WithLogger(l *slog.Logger) Option { return func(u *Usecase) { u.log = l } }
func WithClock(now func() time.Time) Option { return func(u *Usecase) { u.now = now } }

type Usecase struct {
	uow    uow.UnitOfWork
	cfg    Config
	locker Locker
	log    *slog.Logger
	now    func() time.Time
}

func NewUsecase(tx uow.UnitOfWork, cfg Config, opts ...Option) *Usecase {
	def := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.MinAmount.IsNegative() {
		cfg.MinAmount = def.MinAmount
	}
	u := &Usecase{uow: tx, cfg: cfg, log: slog.Default(), now: func() time.Time { return time.Now().UTC() }}
	for _, o := range opts {
		o(u)
	}
	return u
}

// FundLoan applies one lender contribution atomically. The loan row is locked
// for the duration of the transaction and the write is a version
// compare-and-swap, so a lost race rolls back and retries from a fresh read.
func (u *Usecase) FundLoan(ctx context.Context, in FundInput) (*FundResult, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, u.cfg.Timeout)
	defer cancel()

	if u.locker != nil {
		unlock, err := u.locker.Lock(ctx, in.LoanID)
		if err != nil {
			u.log.WarnContext(ctx, "loan lock not acquired", "loan_id", in.LoanID, "err", err)
			return nil, fmt.Errorf("%w: %v", domainLoan.ErrBusy, err)
		}
		defer unlock()
	}

	var (
		res *FundResult
		err error
	)
	for attempt := 1; ; attempt++ {
		res, err = u.fundOnce(ctx, in)
		if !errors.Is(err, domainLoan.ErrVersionConflict) {
			break
		}
		if attempt >= u.cfg.MaxAttempts {
			err = fmt.Errorf("%w: lost version race %d times", domainLoan.ErrBusy, attempt)
			break
		}
		u.log.DebugContext(ctx, "funding retry after version conflict", "loan_id", in.LoanID, "attempt", attempt)
	}
	if err != nil {
		return nil, u.surface(ctx, in, err)
	}

	u.log.InfoContext(ctx, "loan funded",
		"loan_id", in.LoanID,
		"funding_id", res.Funding.ID,
		"lender_id", in.LenderID,
		"amount", in.Amount.String(),
		"status", res.Loan.Status,
	)
	return res, nil
}

func (u *Usecase) fundOnce(ctx context.Context, in FundInput) (*FundResult, error) {
	var res *FundResult
	err := u.uow.WithinLoanTx(ctx, in.LoanID, func(r uow.Repos, l *domainLoan.LoanRequest) error {
		remaining := l.RemainingCapacity()
		if l.Status == domainLoan.StatusFunded || (l.Status.AcceptsFunding() && !remaining.IsPositive()) {
			return &domainLoan.LimitExceededError{Remaining: decimal.Max(remaining, decimal.Zero), Closed: true}
		}
		if !l.Status.AcceptsFunding() {
			return domainLoan.ErrNotAcceptingFunding
		}
		if in.Amount.GreaterThan(remaining) {
			return &domainLoan.LimitExceededError{Remaining: remaining}
		}
		if in.Amount.LessThan(u.cfg.MinAmount) && !in.Amount.Equal(remaining) {
			return domainLoan.Invalid("amount", "must be at least "+u.cfg.MinAmount.String()+" unless it closes the loan")
		}

		lender, err := r.Users.GetByUserID(ctx, in.LenderID)
		if errors.Is(err, domainUser.ErrNotFound) {
			return domainLoan.Invalid("lenderId", "unknown lender")
		}
		if err != nil {
			return err
		}
		if lender.Role != domainUser.RoleLender {
			return domainLoan.Invalid("lenderId", "user is not a lender")
		}

		now := u.now()
		f := &domainLoan.Funding{
			FundingID:     id.NewID32(),
			LoanRequestID: l.ID,
			LenderID:      lender.UserID,
			Amount:        in.Amount,
			CreatedAt:     now,
		}
		if err := r.Fundings.Create(ctx, f); err != nil {
			return err
		}

		funded := l.AmountFunded.Add(in.Amount)
		status := domainLoan.StatusFor(l.Status, funded, l.Amount)
		if err := r.Loans.UpdateFunding(ctx, l.ID, l.Version, funded, status); err != nil {
			return err
		}

		if status == domainLoan.StatusFunded {
			if err := r.Repayments.CreateBatch(ctx, scheduleFor(l, now)); err != nil {
				return err
			}
		}

		detail, err := r.Loans.GetDetail(ctx, l.LoanID)
		if err != nil {
			return err
		}
		f.Lender = lender
		res = &FundResult{Funding: dto.FromFunding(f, l.LoanID), Loan: dto.FromLoan(detail)}
		return nil
	})
	return res, err
}

// surface keeps domain errors as they are, folds deadlines into ErrBusy and
// hides anything else behind ErrInternal after logging it.
func (u *Usecase) surface(ctx context.Context, in FundInput, err error) error {
	switch {
	case errors.Is(err, domainLoan.ErrNotFound),
		errors.Is(err, domainLoan.ErrInvalidState),
		errors.Is(err, domainLoan.ErrLimitExceeded),
		errors.Is(err, domainLoan.ErrValidation):
		return err
	case errors.Is(err, domainLoan.ErrBusy):
		u.log.WarnContext(ctx, "funding busy", "loan_id", in.LoanID, "err", err)
		return err
	case errors.Is(err, context.DeadlineExceeded):
		u.log.WarnContext(ctx, "funding timed out", "loan_id", in.LoanID, "timeout", u.cfg.Timeout)
		return fmt.Errorf("%w: %v", domainLoan.ErrBusy, err)
	}
	u.log.ErrorContext(ctx, "funding failed", "loan_id", in.LoanID, "err", err)
	return fmt.Errorf("%w: fund loan", domainLoan.ErrInternal)
}

func validate(in FundInput) error {
	if !id.Valid(in.LoanID) {
		return domainLoan.Invalid("loanId", "must be a 32-char hex id")
	}
	if !id.Valid(in.LenderID) {
		return domainLoan.Invalid("lenderId", "must be a 32-char hex id")
	}
	if !in.Amount.IsPositive() {
		return domainLoan.Invalid("amount", "must be greater than 0")
	}
	if !domainLoan.HasCents(in.Amount) {
		return domainLoan.Invalid("amount", "must have at most 2 decimal places")
	}
	return nil
}

func scheduleFor(l *domainLoan.LoanRequest, start time.Time) []domainLoan.Repayment {
	plan := domainLoan.BuildSchedule(l.Amount, l.RepaymentTerm, start)
	out := make([]domainLoan.Repayment, 0, len(plan))
	for _, in := range plan {
		out = append(out, domainLoan.Repayment{
			RepaymentID:   id.NewID32(),
			LoanRequestID: l.ID,
			Amount:        in.Amount,
			DueDate:       in.DueDate,
			Status:        domainLoan.RepaymentPending,
		})
	}
	return out
}
