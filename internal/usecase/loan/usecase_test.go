package loan

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"lending-ledger/internal/adapter/repository/mysql"
	domain "lending-ledger/internal/domain/loan"
	"lending-ledger/internal/domain/uow"
	"lending-ledger/internal/domain/user"
	"lending-ledger/internal/testutil/loanmock"
	"lending-ledger/internal/testutil/sqlitedb"
	"lending-ledger/internal/testutil/uowmock"
	"lending-ledger/internal/testutil/usermock"
	"lending-ledger/pkg/id"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

const borrowerID = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"

// ----- mock-backed tests -----

func TestCreate_Validation(t *testing.T) {
	borrower := &user.User{UserID: borrowerID, Role: user.RoleBorrower}
	lender := &user.User{UserID: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", Role: user.RoleLender}

	valid := CreateLoanInput{Amount: dec("5000"), Purpose: "Buy a second sewing machine", RepaymentTerm: 6}
	tests := []struct {
		name    string
		caller  string
		mutate  func(*CreateLoanInput)
		wantErr error
		field   string
	}{
		{name: "ok", caller: borrowerID},
		{name: "amount below minimum", caller: borrowerID, mutate: func(in *CreateLoanInput) { in.Amount = dec("1999.99") }, wantErr: domain.ErrValidation, field: "amount"},
		{name: "amount above maximum", caller: borrowerID, mutate: func(in *CreateLoanInput) { in.Amount = dec("100000.01") }, wantErr: domain.ErrValidation, field: "amount"},
		{name: "sub-cent amount", caller: borrowerID, mutate: func(in *CreateLoanInput) { in.Amount = dec("2500.505") }, wantErr: domain.ErrValidation, field: "amount"},
		{name: "purpose too short after trim", caller: borrowerID, mutate: func(in *CreateLoanInput) { in.Purpose = "   rent    " }, wantErr: domain.ErrValidation, field: "purpose"},
		{name: "purpose too long", caller: borrowerID, mutate: func(in *CreateLoanInput) { in.Purpose = strings.Repeat("x", 501) }, wantErr: domain.ErrValidation, field: "purpose"},
		{name: "term zero", caller: borrowerID, mutate: func(in *CreateLoanInput) { in.RepaymentTerm = 0 }, wantErr: domain.ErrValidation, field: "repaymentTerm"},
		{name: "term too long", caller: borrowerID, mutate: func(in *CreateLoanInput) { in.RepaymentTerm = 25 }, wantErr: domain.ErrValidation, field: "repaymentTerm"},
		{name: "lender cannot borrow", caller: lender.UserID, wantErr: domain.ErrValidation, field: "borrowerId"},
		{name: "unknown borrower", caller: "cccccccccccccccccccccccccccccccc", wantErr: domain.ErrValidation, field: "borrowerId"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var created *domain.LoanRequest
			loans := &loanmock.Repo{CreateFn: func(_ context.Context, l *domain.LoanRequest) error {
				created = l
				return nil
			}}
			uc := NewUsecase(uowmock.Over(uow.Repos{Users: usermock.Fixed(borrower, lender), Loans: loans}), quiet)

			in := valid
			if tt.mutate != nil {
				tt.mutate(&in)
			}
			got, err := uc.Create(context.Background(), tt.caller, in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("want %v, got %v", tt.wantErr, err)
				}
				var ve *domain.ValidationError
				if !errors.As(err, &ve) || ve.Field != tt.field {
					t.Fatalf("want field %q, got %+v", tt.field, ve)
				}
				if created != nil {
					t.Fatalf("nothing may be persisted on validation failure")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if created == nil || created.Status != domain.StatusPending || !created.AmountFunded.IsZero() {
				t.Fatalf("bad persisted loan: %+v", created)
			}
			if !id.Valid(got.ID) || got.Borrower == nil || got.BorrowerID != borrowerID {
				t.Fatalf("bad view: %+v", got)
			}
		})
	}
}

func TestListMarketplace_StatusFilter(t *testing.T) {
	var seen domain.ListFilter
	loans := &loanmock.Repo{ListFn: func(_ context.Context, f domain.ListFilter) ([]domain.LoanRequest, int64, error) {
		seen = f
		return []domain.LoanRequest{{LoanID: "x", Amount: dec("2000"), AmountFunded: dec("500"), Status: domain.StatusFunding,
			Fundings: []domain.Funding{{Amount: dec("500")}}}}, 21, nil
	}}
	uc := NewUsecase(uowmock.Over(uow.Repos{Loans: loans}), quiet)

	out, err := uc.ListMarketplace(context.Background(), ListQuery{Page: 3, Limit: 10})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(seen.Statuses) != 2 || seen.Page.Offset != 20 || seen.Page.Limit != 10 || !seen.WithBorrower {
		t.Fatalf("unexpected filter: %+v", seen)
	}
	if out.Pagination.Pages != 3 || out.Pagination.Total != 21 {
		t.Fatalf("pagination: %+v", out.Pagination)
	}
	if out.Loans[0].FundingCount != 1 || out.Loans[0].Fundings != nil {
		t.Fatalf("marketplace rows carry the count, not the fundings: %+v", out.Loans[0])
	}

	if _, err := uc.ListMarketplace(context.Background(), ListQuery{Status: "funded"}); err != nil {
		t.Fatalf("explicit status: %v", err)
	}
	if len(seen.Statuses) != 1 || seen.Statuses[0] != domain.StatusFunded {
		t.Fatalf("explicit status not applied: %+v", seen.Statuses)
	}
	if _, err := uc.ListMarketplace(context.Background(), ListQuery{Status: "bogus"}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("bogus status: want ErrValidation, got %v", err)
	}
}

func TestGet_MalformedIDIsNotFound(t *testing.T) {
	uc := NewUsecase(uowmock.New(), quiet)
	if _, err := uc.Get(context.Background(), "LN-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

// ----- sqlite-backed lifecycle -----

type fixture struct {
	db       *gorm.DB
	uc       *Usecase
	borrower *user.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := sqlitedb.Open(t)
	b := &user.User{UserID: id.NewID32(), Name: "Dewi", Email: "dewi@example.com", PasswordHash: "x", Role: user.RoleBorrower, CreditScore: 690, TrustScore: 70}
	if err := mysql.NewUserRepository(db).Create(context.Background(), b); err != nil {
		t.Fatalf("seed borrower: %v", err)
	}
	return &fixture{db: db, uc: NewUsecase(mysql.NewGormUoW(db), quiet), borrower: b}
}

// fundedLoan creates a FUNDED loan with a PENDING schedule of n installments.
func (f *fixture) fundedLoan(t *testing.T, amount string, n int) *domain.LoanRequest {
	t.Helper()
	ctx := context.Background()
	l := &domain.LoanRequest{
		LoanID: id.NewID32(), BorrowerID: f.borrower.UserID, Amount: dec(amount), Purpose: "Restock the warung",
		RepaymentTerm: n, AmountFunded: dec(amount), Status: domain.StatusFunded,
	}
	if err := mysql.NewLoanRepository(f.db).Create(ctx, l); err != nil {
		t.Fatalf("seed loan: %v", err)
	}
	var rs []domain.Repayment
	for _, in := range domain.BuildSchedule(l.Amount, n, time.Now().UTC()) {
		rs = append(rs, domain.Repayment{RepaymentID: id.NewID32(), LoanRequestID: l.ID, Amount: in.Amount, DueDate: in.DueDate, Status: domain.RepaymentPending})
	}
	if err := mysql.NewRepaymentRepository(f.db).CreateBatch(ctx, rs); err != nil {
		t.Fatalf("seed schedule: %v", err)
	}
	return l
}

func (f *fixture) schedule(t *testing.T, l *domain.LoanRequest) []domain.Repayment {
	t.Helper()
	rs, err := mysql.NewRepaymentRepository(f.db).ListByLoan(context.Background(), l.ID)
	if err != nil {
		t.Fatalf("ListByLoan: %v", err)
	}
	return rs
}

func TestCreateAndGet_SQLite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.uc.Create(ctx, f.borrower.UserID, CreateLoanInput{Amount: dec("7500.25"), Purpose: "  Expand the chicken coop  ", RepaymentTerm: 12})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, err := f.uc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Purpose != "Expand the chicken coop" || !got.Amount.Equal(dec("7500.25")) || got.Status != domain.StatusPending {
		t.Fatalf("unexpected loan: %+v", got)
	}
	if got.Borrower == nil || got.Borrower.CreditScore != 690 {
		t.Fatalf("borrower summary missing: %+v", got.Borrower)
	}
	if !got.FundingProgress.IsZero() || !got.RemainingCapacity.Equal(dec("7500.25")) {
		t.Fatalf("derived fields: %+v", got)
	}

	if _, err := f.uc.Get(ctx, id.NewID32()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("missing loan: want ErrNotFound, got %v", err)
	}
}

func TestPayRepayment_CompletesLoan(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l := f.fundedLoan(t, "8000", 2)
	rs := f.schedule(t, l)

	res, err := f.uc.PayRepayment(ctx, f.borrower.UserID, rs[0].RepaymentID)
	if err != nil {
		t.Fatalf("first payment: %v", err)
	}
	if res.Loan.Status != domain.StatusFunded || !res.Loan.TotalRepaid.Equal(dec("4000")) || !res.Loan.RemainingAmount.Equal(dec("4000")) {
		t.Fatalf("after first payment: %+v", res.Loan)
	}
	if res.Repayment.Status != domain.RepaymentPaid || res.Repayment.PaidAt == nil {
		t.Fatalf("repayment view: %+v", res.Repayment)
	}

	if _, err := f.uc.PayRepayment(ctx, f.borrower.UserID, rs[0].RepaymentID); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("double payment: want ErrInvalidState, got %v", err)
	}

	res, err = f.uc.PayRepayment(ctx, f.borrower.UserID, rs[1].RepaymentID)
	if err != nil {
		t.Fatalf("second payment: %v", err)
	}
	if res.Loan.Status != domain.StatusRepaid || !res.Loan.TotalRepaid.Equal(dec("8000")) || !res.Loan.RemainingAmount.IsZero() {
		t.Fatalf("loan should be REPAID: %+v", res.Loan)
	}
}

func TestPayRepayment_OnlyOwner(t *testing.T) {
	f := newFixture(t)
	l := f.fundedLoan(t, "3000", 3)
	rs := f.schedule(t, l)

	_, err := f.uc.PayRepayment(context.Background(), id.NewID32(), rs[0].RepaymentID)
	if !errors.Is(err, domain.ErrRepaymentNotFound) {
		t.Fatalf("want ErrRepaymentNotFound, got %v", err)
	}
	if got := f.schedule(t, l); got[0].Status != domain.RepaymentPending {
		t.Fatalf("foreign caller must not change the schedule")
	}
}

func TestCompleteRepayment_And_Settle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	repayments := mysql.NewRepaymentRepository(f.db)

	done := f.fundedLoan(t, "2000", 2)
	open := f.fundedLoan(t, "2000", 2)
	for _, r := range f.schedule(t, done) {
		if err := repayments.MarkPaid(ctx, r.ID, time.Now()); err != nil {
			t.Fatalf("MarkPaid: %v", err)
		}
	}

	ok, err := f.uc.CompleteRepayment(ctx, open.LoanID)
	if err != nil || ok {
		t.Fatalf("loan with pending installments must not complete: %v %v", ok, err)
	}

	n, err := f.uc.SettleRepaidLoans(ctx)
	if err != nil {
		t.Fatalf("SettleRepaidLoans: %v", err)
	}
	if n != 1 {
		t.Fatalf("want 1 settled, got %d", n)
	}
	got, _ := mysql.NewLoanRepository(f.db).GetByLoanID(ctx, done.LoanID)
	if got.Status != domain.StatusRepaid {
		t.Fatalf("want REPAID, got %s", got.Status)
	}

	// idempotent: nothing left to sweep, and completing again is a no-op
	if n, err := f.uc.SettleRepaidLoans(ctx); err != nil || n != 0 {
		t.Fatalf("second sweep: %d %v", n, err)
	}
	if ok, err := f.uc.CompleteRepayment(ctx, done.LoanID); err != nil || ok {
		t.Fatalf("REPAID loan completes once: %v %v", ok, err)
	}
}
