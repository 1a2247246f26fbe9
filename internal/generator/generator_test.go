package generator

import (
	"context"
	"errors"
	"math/rand"
	"reflect"
	"testing"

	"lending-ledger/internal/adapter/repository/mysql"
	"lending-ledger/internal/domain/loan"
	"lending-ledger/internal/domain/user"
	"lending-ledger/internal/testutil/sqlitedb"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generate(t *testing.T, cfg Config, seed int64) *Dataset {
	t.Helper()
	ds, err := New(cfg, rand.New(rand.NewSource(seed))).Generate()
	require.NoError(t, err)
	return ds
}

func TestGenerate_SatisfiesInvariantsAcrossSeeds(t *testing.T) {
	for seed := int64(1); seed <= 200; seed++ {
		ds := generate(t, DefaultConfig(), seed)
		if err := Verify(ds); err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	a := generate(t, DefaultConfig(), 42)
	b := generate(t, DefaultConfig(), 42)
	if !reflect.DeepEqual(a, b) {
		t.Fatal("same seed produced different datasets")
	}
	c := generate(t, DefaultConfig(), 43)
	assert.NotEqual(t, a.Users[0].UserID, c.Users[0].UserID)
}

func TestGenerate_Shape(t *testing.T) {
	cfg := DefaultConfig()
	ds := generate(t, cfg, 7)

	assert.Len(t, ds.Borrowers(), cfg.Borrowers)
	assert.Len(t, ds.Lenders(), cfg.Lenders)
	assert.Len(t, ds.Loans, cfg.LoanRequests)

	funded, scheduled := 0, 0
	borrowers := map[string]bool{}
	for _, l := range ds.Loans {
		assert.False(t, borrowers[l.BorrowerID], "one loan per borrower")
		borrowers[l.BorrowerID] = true
		assert.GreaterOrEqual(t, l.RepaymentTerm, minTerm)
		assert.LessOrEqual(t, l.RepaymentTerm, maxTerm)
		assert.LessOrEqual(t, len(l.Fundings), cfg.MaxLendersPerLoan)
		lenders := map[string]bool{}
		for _, f := range l.Fundings {
			assert.False(t, lenders[f.LenderID], "loan %s: generator reused lender %s", l.LoanID, f.LenderID)
			lenders[f.LenderID] = true
		}
		if len(l.Fundings) > 0 {
			funded++
		}
		if len(l.Repayments) > 0 {
			scheduled++
			assert.Len(t, l.Repayments, l.RepaymentTerm)
		}
	}
	assert.Equal(t, cfg.FundedLoans, funded)
	assert.LessOrEqual(t, scheduled, cfg.Schedules)
}

func TestGenerate_ContributionsBelowMinimumOnlyCloseTheLoan(t *testing.T) {
	cfg := DefaultConfig()
	for seed := int64(1); seed <= 50; seed++ {
		for _, l := range generate(t, cfg, seed).Loans {
			running := decimal.Zero
			for _, f := range l.Fundings {
				running = running.Add(f.Amount)
				if f.Amount.LessThan(cfg.MinContribution) {
					assert.True(t, running.Equal(l.Amount), "seed %d loan %s: small contribution %s did not close it", seed, l.LoanID, f.Amount)
				}
			}
		}
	}
}

func TestNew_ClampsConfig(t *testing.T) {
	cfg := Config{Borrowers: 3, Lenders: 2, LoanRequests: 10, FundedLoans: 10, Schedules: 10, MinContribution: decimal.NewFromInt(100)}
	ds := generate(t, cfg, 1)
	assert.Len(t, ds.Loans, 3)
	require.NoError(t, Verify(ds))
}

func TestGenerate_NoLendersLeavesLoansPending(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Lenders = 0
	ds := generate(t, cfg, 3)
	for _, l := range ds.Loans {
		assert.Equal(t, loan.StatusPending, l.Status)
	}
	require.NoError(t, Verify(ds))
}

func TestVerify_ReportsEveryViolation(t *testing.T) {
	ds := generate(t, DefaultConfig(), 11)

	var victim *loan.LoanRequest
	for i := range ds.Loans {
		if len(ds.Loans[i].Fundings) > 0 && len(ds.Loans[i].Repayments) > 0 {
			victim = &ds.Loans[i]
			break
		}
	}
	require.NotNil(t, victim, "seed 11 should produce a scheduled loan")

	victim.AmountFunded = victim.AmountFunded.Add(decimal.NewFromInt(1))
	victim.Repayments[0].Amount = victim.Repayments[0].Amount.Add(decimal.NewFromInt(5))
	ds.Users[0].CreditScore = 9000
	ds.Users[1].Role = user.Role("ADMIN")

	err := Verify(ds)
	require.Error(t, err)
	var joined interface{ Unwrap() []error }
	require.True(t, errors.As(err, &joined))
	assert.GreaterOrEqual(t, len(joined.Unwrap()), 4)
	assert.Contains(t, err.Error(), "fundings sum to")
	assert.Contains(t, err.Error(), "schedule sums to")
	assert.Contains(t, err.Error(), "scores out of range")
}

func TestVerify_CatchesForeignRoles(t *testing.T) {
	ds := generate(t, DefaultConfig(), 5)
	for i := range ds.Loans {
		if len(ds.Loans[i].Fundings) > 0 {
			ds.Loans[i].Fundings[0].LenderID = ds.Loans[i].BorrowerID
			break
		}
	}
	assert.ErrorContains(t, Verify(ds), "is not a known lender")
}

func TestWriter_PersistsDataset(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Borrowers, cfg.Lenders, cfg.LoanRequests, cfg.FundedLoans, cfg.Schedules = 12, 6, 10, 6, 3
	ds := generate(t, cfg, 99)
	require.NoError(t, Verify(ds))

	db := sqlitedb.Open(t)
	ctx := context.Background()
	require.NoError(t, NewWriter(mysql.NewGormUoW(db)).Write(ctx, ds))

	var users, loans, fundings, repayments int64
	require.NoError(t, db.Model(&user.User{}).Count(&users).Error)
	require.NoError(t, db.Model(&loan.LoanRequest{}).Count(&loans).Error)
	require.NoError(t, db.Model(&loan.Funding{}).Count(&fundings).Error)
	require.NoError(t, db.Model(&loan.Repayment{}).Count(&repayments).Error)

	wantFundings, wantRepayments := 0, 0
	for _, l := range ds.Loans {
		wantFundings += len(l.Fundings)
		wantRepayments += len(l.Repayments)
	}
	assert.EqualValues(t, 18, users)
	assert.EqualValues(t, 10, loans)
	assert.EqualValues(t, wantFundings, fundings)
	assert.EqualValues(t, wantRepayments, repayments)

	loanRepo := mysql.NewLoanRepository(db)
	for _, l := range ds.Loans {
		got, err := loanRepo.GetDetail(ctx, l.LoanID)
		require.NoError(t, err)
		assert.True(t, got.AmountFunded.Equal(l.AmountFunded), "loan %s", l.LoanID)
		assert.Equal(t, l.Status, got.Status)
		assert.Len(t, got.Fundings, len(l.Fundings))
	}
}

func TestWriter_RollsBackOnFailure(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Borrowers, cfg.Lenders, cfg.LoanRequests, cfg.FundedLoans, cfg.Schedules = 4, 2, 3, 2, 1
	ds := generate(t, cfg, 4)
	ds.Users[1].Email = ds.Users[0].Email

	db := sqlitedb.Open(t)
	require.Error(t, NewWriter(mysql.NewGormUoW(db)).Write(context.Background(), ds))

	var users int64
	require.NoError(t, db.Model(&user.User{}).Count(&users).Error)
	assert.Zero(t, users)
}
