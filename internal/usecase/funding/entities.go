package funding

import (
	"time"

	"lending-ledger/internal/usecase/dto"

	"github.com/shopspring/decimal"
)

type FundInput struct {
	LoanID   string
	LenderID string          // 32-char hex, from the verified identity
	Amount   decimal.Decimal // > 0, at most 2 decimals
}

type FundResult struct {
	Funding dto.Funding `json:"funding"`
	Loan    dto.Loan    `json:"loanRequest"`
}

type Config struct {
	// Timeout bounds a whole FundLoan call, lock waits included.
	Timeout time.Duration
	// MaxAttempts caps retries after losing a version race.
	MaxAttempts int
	// MinAmount is the smallest contribution, waived when it closes the loan.
	MinAmount decimal.Decimal
}

func DefaultConfig() Config {
	return Config{
		Timeout:     5 * time.Second,
		MaxAttempts: 3,
		MinAmount:   decimal.NewFromInt(100),
	}
}
