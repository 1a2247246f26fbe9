// Package metrics derives read-side figures from ledger rows that were already
// fetched. Nothing here performs I/O or mutates its inputs.
package metrics

import (
	"lending-ledger/internal/domain/loan"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Round2 rounds half-up to two places. Only percentages go through it; money
// amounts keep their source precision.
func Round2(d decimal.Decimal) decimal.Decimal { return d.Round(2) }

// FundingProgress is the percentage of principal raised so far, clamped to [0, 100].
func FundingProgress(l *loan.LoanRequest) decimal.Decimal {
	if !l.Amount.IsPositive() {
		return decimal.Zero
	}
	p := Round2(l.AmountFunded.Mul(hundred).Div(l.Amount))
	switch {
	case p.IsNegative():
		return decimal.Zero
	case p.GreaterThan(hundred):
		return hundred
	}
	return p
}

// TotalRepaid sums PAID installments of l.Repayments.
func TotalRepaid(l *loan.LoanRequest) decimal.Decimal {
	total := decimal.Zero
	for _, r := range l.Repayments {
		if r.Status == loan.RepaymentPaid {
			total = total.Add(r.Amount)
		}
	}
	return total
}

// OutstandingAmount is what the borrower still owes: amount - totalRepaid.
// Not to be confused with LoanRequest.RemainingCapacity.
func OutstandingAmount(l *loan.LoanRequest) decimal.Decimal {
	return l.Amount.Sub(TotalRepaid(l))
}

// ExpectedReturn is the lender's pro-rata share of everything repaid so far,
// weighted by their share of total principal.
func ExpectedReturn(inv *loan.Funding, l *loan.LoanRequest) decimal.Decimal {
	return ExpectedReturnFrom(inv.Amount, l.Amount, TotalRepaid(l))
}

// ExpectedReturnFrom is ExpectedReturn over pre-aggregated figures.
func ExpectedReturnFrom(invested, principal, repaid decimal.Decimal) decimal.Decimal {
	if !principal.IsPositive() {
		return decimal.Zero
	}
	return repaid.Mul(invested).Div(principal)
}

func ReturnPercentage(inv *loan.Funding, l *loan.LoanRequest) decimal.Decimal {
	if !l.Amount.IsPositive() || !inv.Amount.IsPositive() {
		return decimal.Zero
	}
	return Round2(ExpectedReturn(inv, l).Mul(hundred).Div(inv.Amount))
}
