package loan

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestStatusFor(t *testing.T) {
	amount := decimal.NewFromInt(10000)
	tests := []struct {
		name    string
		current Status
		funded  int64
		want    Status
	}{
		{"untouched stays pending", StatusPending, 0, StatusPending},
		{"first partial funding", StatusPending, 3000, StatusFunding},
		{"further partial funding", StatusFunding, 9999, StatusFunding},
		{"exactly funded", StatusFunding, 10000, StatusFunded},
		{"pending straight to funded", StatusPending, 10000, StatusFunded},
		{"repaid is terminal", StatusRepaid, 10000, StatusRepaid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StatusFor(tt.current, decimal.NewFromInt(tt.funded), amount)
			if got != tt.want {
				t.Fatalf("StatusFor(%s, %d) = %s, want %s", tt.current, tt.funded, got, tt.want)
			}
		})
	}
}

func TestStatusPredicates(t *testing.T) {
	if !StatusPending.AcceptsFunding() || !StatusFunding.AcceptsFunding() {
		t.Fatal("pending/funding must accept funding")
	}
	if StatusFunded.AcceptsFunding() || StatusRepaid.AcceptsFunding() {
		t.Fatal("funded/repaid must not accept funding")
	}
	if !StatusFunded.Active() || StatusRepaid.Active() {
		t.Fatal("active covers pending, funding, funded only")
	}
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus(" funding ")
	if err != nil || s != StatusFunding {
		t.Fatalf("ParseStatus = %q, %v", s, err)
	}
	if _, err := ParseStatus("CLOSED"); !errors.Is(err, ErrValidation) {
		t.Fatalf("want ErrValidation, got %v", err)
	}
}

func TestErrorsMatchTaxonomy(t *testing.T) {
	var err error = &LimitExceededError{Remaining: decimal.NewFromInt(1000)}
	if !errors.Is(err, ErrLimitExceeded) {
		t.Fatal("LimitExceededError must match ErrLimitExceeded")
	}
	if err.Error() != "Maximum funding amount is 1000" {
		t.Fatalf("message = %q", err.Error())
	}
	if !errors.Is(ErrNotAcceptingFunding, ErrInvalidState) {
		t.Fatal("ErrNotAcceptingFunding must match ErrInvalidState")
	}
	if errors.Is(err, ErrInvalidState) {
		t.Fatal("an open loan over its limit is not an invalid state")
	}
	var closed error = &LimitExceededError{Remaining: decimal.Zero, Closed: true}
	if !errors.Is(closed, ErrLimitExceeded) || !errors.Is(closed, ErrInvalidState) {
		t.Fatal("a closed limit error must match both ErrLimitExceeded and ErrInvalidState")
	}
	if closed.Error() != "Loan is no longer accepting funding" {
		t.Fatalf("closed message = %q", closed.Error())
	}
	var ve *ValidationError
	if !errors.As(Invalid("amount", "must be positive"), &ve) || ve.Field != "amount" {
		t.Fatalf("Invalid did not build a ValidationError: %+v", ve)
	}
}

func TestHasCents(t *testing.T) {
	if !HasCents(decimal.RequireFromString("12.30")) {
		t.Fatal("12.30 has cents precision")
	}
	if HasCents(decimal.RequireFromString("12.301")) {
		t.Fatal("12.301 has sub-cent precision")
	}
}

func TestRemainingCapacity(t *testing.T) {
	l := &LoanRequest{Amount: decimal.NewFromInt(5000), AmountFunded: decimal.NewFromInt(4000)}
	if !l.RemainingCapacity().Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("RemainingCapacity = %s", l.RemainingCapacity())
	}
}
