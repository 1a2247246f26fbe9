package loan

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// AcceptsFunding reports whether new fundings may be applied.
func (s Status) AcceptsFunding() bool {
	return s == StatusPending || s == StatusFunding
}

// Active covers every state before the loan is repaid.
func (s Status) Active() bool {
	return s == StatusPending || s == StatusFunding || s == StatusFunded
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusFunding, StatusFunded, StatusRepaid:
		return true
	}
	return false
}

func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", &ValidationError{Field: "status", Message: fmt.Sprintf("unknown loan status %q", raw)}
	}
	return s, nil
}

// StatusFor derives the funding status from amountFunded vs amount.
// REPAID is terminal and only reached through repayment completion.
func StatusFor(current Status, funded, amount decimal.Decimal) Status {
	switch {
	case current == StatusRepaid:
		return StatusRepaid
	case funded.GreaterThanOrEqual(amount):
		return StatusFunded
	case funded.IsPositive():
		return StatusFunding
	default:
		return StatusPending
	}
}

// HasCents reports whether d has at most two decimal places.
func HasCents(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(2))
}
