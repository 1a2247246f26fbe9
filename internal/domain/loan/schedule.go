package loan

import (
	"time"

	"github.com/shopspring/decimal"
)

type Installment struct {
	Amount  decimal.Decimal
	DueDate time.Time
}

// BuildSchedule splits amount into term monthly installments truncated to cents.
// The last installment absorbs the remainder so the schedule sums to amount exactly.
func BuildSchedule(amount decimal.Decimal, term int, start time.Time) []Installment {
	if term <= 0 || !amount.IsPositive() {
		return nil
	}
	base := amount.Div(decimal.NewFromInt(int64(term))).Truncate(2)
	out := make([]Installment, term)
	allocated := decimal.Zero
	for i := 0; i < term; i++ {
		amt := base
		if i == term-1 {
			amt = amount.Sub(allocated)
		}
		allocated = allocated.Add(amt)
		out[i] = Installment{Amount: amt, DueDate: start.AddDate(0, i+1, 0)}
	}
	return out
}
