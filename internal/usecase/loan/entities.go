package loan

import (
	"lending-ledger/internal/usecase/dto"

	"github.com/shopspring/decimal"
)

var (
	MinLoanAmount = decimal.NewFromInt(2000)
	MaxLoanAmount = decimal.NewFromInt(100000)
)

const (
	MinPurposeLen = 10
	MaxPurposeLen = 500
	MinTerm       = 1
	MaxTerm       = 24

	settleBatch = 100
)

type CreateLoanInput struct {
	Amount        decimal.Decimal `json:"amount"`
	Purpose       string          `json:"purpose"`
	RepaymentTerm int             `json:"repaymentTerm"`
}

// ListQuery is the marketplace filter. An empty Status means PENDING and FUNDING.
type ListQuery struct {
	Status string
	Page   int
	Limit  int
}

type LoanList struct {
	Loans      []dto.Loan     `json:"loans"`
	Pagination dto.Pagination `json:"pagination"`
}

type PayResult struct {
	Repayment dto.Repayment `json:"repayment"`
	Loan      dto.Loan      `json:"loanRequest"`
}
