// Package generator builds synthetic ledgers that satisfy the same invariants
// as the live funding engine. All randomness comes from the injected source,
// so a seed always reproduces the same dataset.
package generator

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"lending-ledger/internal/domain/loan"
	"lending-ledger/internal/domain/user"
	"lending-ledger/pkg/id"

	"github.com/shopspring/decimal"
)

// Dataset is a whole ledger. Loans carry their Fundings and Repayments; the
// foreign keys inside them are filled in when persisted.
type Dataset struct {
	Users []user.User
	Loans []loan.LoanRequest
}

func (d *Dataset) Borrowers() []user.User { return d.byRole(user.RoleBorrower) }
func (d *Dataset) Lenders() []user.User   { return d.byRole(user.RoleLender) }

func (d *Dataset) byRole(r user.Role) []user.User {
	var out []user.User
	for _, u := range d.Users {
		if u.Role == r {
			out = append(out, u)
		}
	}
	return out
}

type Generator struct {
	cfg Config
	rng *rand.Rand
}

func New(cfg Config, rng *rand.Rand) *Generator {
	if cfg.LoanRequests > cfg.Borrowers {
		cfg.LoanRequests = cfg.Borrowers
	}
	if cfg.FundedLoans > cfg.LoanRequests {
		cfg.FundedLoans = cfg.LoanRequests
	}
	if cfg.MaxLendersPerLoan < 1 {
		cfg.MaxLendersPerLoan = 1
	}
	if cfg.Now.IsZero() {
		cfg.Now = DefaultConfig().Now
	}
	return &Generator{cfg: cfg, rng: rng}
}

func (g *Generator) Generate() (*Dataset, error) {
	ds := &Dataset{}

	borrowers, err := g.users(user.RoleBorrower, g.cfg.Borrowers, 0)
	if err != nil {
		return nil, err
	}
	lenders, err := g.users(user.RoleLender, g.cfg.Lenders, g.cfg.Borrowers)
	if err != nil {
		return nil, err
	}
	ds.Users = append(borrowers, lenders...)

	for _, bi := range g.rng.Perm(len(borrowers))[:g.cfg.LoanRequests] {
		l, err := g.loanFor(&borrowers[bi])
		if err != nil {
			return nil, err
		}
		ds.Loans = append(ds.Loans, l)
	}

	if len(lenders) > 0 {
		for _, li := range g.rng.Perm(len(ds.Loans))[:g.cfg.FundedLoans] {
			if err := g.fund(&ds.Loans[li], lenders); err != nil {
				return nil, err
			}
		}
	}

	scheduled := 0
	for i := range ds.Loans {
		if scheduled >= g.cfg.Schedules {
			break
		}
		if ds.Loans[i].Status != loan.StatusFunded {
			continue
		}
		if err := g.schedule(&ds.Loans[i]); err != nil {
			return nil, err
		}
		scheduled++
	}
	return ds, nil
}

func (g *Generator) users(role user.Role, n, offset int) ([]user.User, error) {
	out := make([]user.User, 0, n)
	for i := 0; i < n; i++ {
		uid, err := id.FromReader(g.rng)
		if err != nil {
			return nil, fmt.Errorf("user id: %w", err)
		}
		first := firstNames[g.rng.Intn(len(firstNames))]
		last := lastNames[g.rng.Intn(len(lastNames))]
		out = append(out, user.User{
			UserID:       uid,
			Name:         first + " " + last,
			Email:        fmt.Sprintf("%s.%s%d@example.com", strings.ToLower(first), strings.ToLower(last), offset+i+1),
			PasswordHash: g.cfg.PasswordHash,
			Role:         role,
			CreditScore:  user.MinCreditScore + g.rng.Intn(user.MaxCreditScore-user.MinCreditScore+1),
			TrustScore:   minTrust + g.rng.Intn(user.MaxTrustScore-minTrust+1),
			CreatedAt:    g.cfg.Now.Add(-time.Duration(g.rng.Intn(24*365)) * time.Hour),
		})
	}
	return out, nil
}

func (g *Generator) loanFor(b *user.User) (loan.LoanRequest, error) {
	lid, err := id.FromReader(g.rng)
	if err != nil {
		return loan.LoanRequest{}, fmt.Errorf("loan id: %w", err)
	}
	return loan.LoanRequest{
		LoanID:        lid,
		BorrowerID:    b.UserID,
		Amount:        cents(minLoanCents + g.rng.Int63n(maxLoanCents-minLoanCents+1)),
		Purpose:       purposes[g.rng.Intn(len(purposes))],
		RepaymentTerm: minTerm + g.rng.Intn(maxTerm-minTerm+1),
		AmountFunded:  decimal.Zero,
		Status:        loan.StatusPending,
		Version:       1,
		CreatedAt:     g.cfg.Now.Add(-time.Duration(g.rng.Intn(24*90)) * time.Hour),
	}, nil
}

// fund applies 1..MaxLendersPerLoan contributions from distinct lenders. Each
// one lies in [min(MinContribution, remaining), min(remaining, 2*amount/n)],
// except a closing last contribution which takes the whole remainder.
func (g *Generator) fund(l *loan.LoanRequest, lenders []user.User) error {
	n := 1 + g.rng.Intn(min(g.cfg.MaxLendersPerLoan, len(lenders)))
	amount := toCents(l.Amount)
	minC := toCents(g.cfg.MinContribution)
	funded := int64(0)

	for k, li := range g.rng.Perm(len(lenders))[:n] {
		remaining := amount - funded
		if remaining <= 0 {
			break
		}
		lo := min(minC, remaining)
		hi := min(remaining, amount*2/int64(n))
		if hi < lo {
			hi = lo
		}
		c := lo + g.rng.Int63n(hi-lo+1)
		if k == n-1 && g.rng.Float64() < g.cfg.CloseProbability {
			c = remaining
		}

		fid, err := id.FromReader(g.rng)
		if err != nil {
			return fmt.Errorf("funding id: %w", err)
		}
		l.Fundings = append(l.Fundings, loan.Funding{
			FundingID: fid,
			LenderID:  lenders[li].UserID,
			Amount:    cents(c),
			CreatedAt: l.CreatedAt.Add(time.Duration(len(l.Fundings)+1) * time.Hour),
		})
		funded += c
	}

	l.AmountFunded = cents(funded)
	l.Status = loan.StatusFor(loan.StatusPending, l.AmountFunded, l.Amount)
	return nil
}

// schedule writes the full installment plan. A random prefix of it gets
// paid, each installment with PaidProbability; a fully paid plan makes the
// loan REPAID.
func (g *Generator) schedule(l *loan.LoanRequest) error {
	start := l.CreatedAt.Add(24 * time.Hour)
	plan := loan.BuildSchedule(l.Amount, l.RepaymentTerm, start)
	attempted := 1 + g.rng.Intn(len(plan))

	allPaid := true
	for i, in := range plan {
		rid, err := id.FromReader(g.rng)
		if err != nil {
			return fmt.Errorf("repayment id: %w", err)
		}
		r := loan.Repayment{
			RepaymentID: rid,
			Amount:      in.Amount,
			DueDate:     in.DueDate,
			Status:      loan.RepaymentPending,
		}
		if i < attempted && g.rng.Float64() < g.cfg.PaidProbability {
			paidAt := in.DueDate.Add(-time.Duration(g.rng.Intn(72)) * time.Hour)
			r.Status = loan.RepaymentPaid
			r.PaidAt = &paidAt
		} else {
			allPaid = false
		}
		l.Repayments = append(l.Repayments, r)
	}
	if allPaid {
		l.Status = loan.StatusRepaid
	}
	return nil
}

func cents(c int64) decimal.Decimal { return decimal.New(c, -2) }

func toCents(d decimal.Decimal) int64 { return d.Shift(2).IntPart() }
