package generator

import (
	"errors"
	"fmt"

	"lending-ledger/internal/domain/loan"
	"lending-ledger/internal/domain/user"
	"lending-ledger/pkg/id"

	"github.com/shopspring/decimal"
)

// Verify checks a dataset against the ledger invariants and reports every
// violation it finds, not only the first.
func Verify(ds *Dataset) error {
	var errs []error
	fail := func(format string, args ...any) { errs = append(errs, fmt.Errorf(format, args...)) }

	users := make(map[string]*user.User, len(ds.Users))
	emails := make(map[string]bool, len(ds.Users))
	for i := range ds.Users {
		u := &ds.Users[i]
		if !id.Valid(u.UserID) {
			fail("user %q: malformed id", u.UserID)
		}
		if _, dup := users[u.UserID]; dup {
			fail("user %s: duplicate id", u.UserID)
		}
		if emails[u.Email] {
			fail("user %s: duplicate email %s", u.UserID, u.Email)
		}
		if !u.Role.Valid() {
			fail("user %s: role %q", u.UserID, u.Role)
		}
		if !u.ScoresInRange() {
			fail("user %s: scores out of range (credit %d, trust %d)", u.UserID, u.CreditScore, u.TrustScore)
		}
		users[u.UserID] = u
		emails[u.Email] = true
	}

	ids := map[string]bool{}
	unique := func(kind, v string) {
		if ids[v] {
			fail("%s %s: duplicate id", kind, v)
		}
		ids[v] = true
	}

	for i := range ds.Loans {
		l := &ds.Loans[i]
		unique("loan", l.LoanID)

		if b, ok := users[l.BorrowerID]; !ok || b.Role != user.RoleBorrower {
			fail("loan %s: borrower %s is not a known borrower", l.LoanID, l.BorrowerID)
		}
		if !l.Amount.IsPositive() || !loan.HasCents(l.Amount) {
			fail("loan %s: amount %s", l.LoanID, l.Amount)
		}

		// A lender may contribute to the same loan more than once.
		funded := decimal.Zero
		for _, f := range l.Fundings {
			unique("funding", f.FundingID)
			if !f.Amount.IsPositive() || !loan.HasCents(f.Amount) {
				fail("funding %s: amount %s", f.FundingID, f.Amount)
			}
			if lu, ok := users[f.LenderID]; !ok || lu.Role != user.RoleLender {
				fail("funding %s: lender %s is not a known lender", f.FundingID, f.LenderID)
			}
			funded = funded.Add(f.Amount)
		}
		if !funded.Equal(l.AmountFunded) {
			fail("loan %s: fundings sum to %s, amountFunded is %s", l.LoanID, funded, l.AmountFunded)
		}
		if l.AmountFunded.GreaterThan(l.Amount) {
			fail("loan %s: over-funded %s > %s", l.LoanID, l.AmountFunded, l.Amount)
		}

		verifyLifecycle(l, fail)
	}

	return errors.Join(errs...)
}

func verifyLifecycle(l *loan.LoanRequest, fail func(string, ...any)) {
	fullyFunded := l.AmountFunded.Equal(l.Amount)

	switch l.Status {
	case loan.StatusPending, loan.StatusFunding, loan.StatusFunded:
		if want := loan.StatusFor(loan.StatusPending, l.AmountFunded, l.Amount); want != l.Status {
			fail("loan %s: status %s, funding implies %s", l.LoanID, l.Status, want)
		}
	case loan.StatusRepaid:
		if !fullyFunded {
			fail("loan %s: REPAID without full funding", l.LoanID)
		}
	default:
		fail("loan %s: unknown status %q", l.LoanID, l.Status)
	}

	if len(l.Repayments) == 0 {
		if l.Status == loan.StatusRepaid {
			fail("loan %s: REPAID without a schedule", l.LoanID)
		}
		return
	}
	if !fullyFunded {
		fail("loan %s: schedule on a loan that is not fully funded", l.LoanID)
	}

	total := decimal.Zero
	allPaid := true
	for _, r := range l.Repayments {
		total = total.Add(r.Amount)
		switch r.Status {
		case loan.RepaymentPaid:
			if r.PaidAt == nil {
				fail("repayment %s: PAID without paidAt", r.RepaymentID)
			}
		case loan.RepaymentPending:
			allPaid = false
			if r.PaidAt != nil {
				fail("repayment %s: PENDING with paidAt", r.RepaymentID)
			}
		default:
			fail("repayment %s: unknown status %q", r.RepaymentID, r.Status)
		}
	}
	if !total.Equal(l.Amount) {
		fail("loan %s: schedule sums to %s, principal is %s", l.LoanID, total, l.Amount)
	}
	if allPaid != (l.Status == loan.StatusRepaid) {
		fail("loan %s: status %s with all installments paid=%t", l.LoanID, l.Status, allPaid)
	}
}
