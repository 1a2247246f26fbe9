package dashboard

import (
	"lending-ledger/internal/domain/user"
	"lending-ledger/internal/usecase/dto"

	"github.com/shopspring/decimal"
)

type BorrowerStats struct {
	TotalLoans        int64           `json:"totalLoans"`
	ActiveLoans       int64           `json:"activeLoans"`
	FundedLoans       int64           `json:"fundedLoans"`
	TotalBorrowed     decimal.Decimal `json:"totalBorrowed"`
	TotalRepaid       decimal.Decimal `json:"totalRepaid"`
	OutstandingAmount decimal.Decimal `json:"outstandingAmount"`
}

// LenderStats.TotalReturns is pro-rated: the lender's share of what each
// funded loan has repaid, not the loans' full repaid totals.
type LenderStats struct {
	TotalInvestments  int64           `json:"totalInvestments"`
	ActiveInvestments int64           `json:"activeInvestments"`
	TotalInvested     decimal.Decimal `json:"totalInvested"`
	TotalReturns      decimal.Decimal `json:"totalReturns"`
	NetProfit         decimal.Decimal `json:"netProfit"`
}

// Stats carries exactly one of the role rollups; JSON flattens it next to role.
type Stats struct {
	Role user.Role `json:"role"`
	*BorrowerStats
	*LenderStats
}

type PageQuery struct {
	Status string
	Page   int
	Limit  int
}

type LoanPage struct {
	Loans      []dto.Loan     `json:"loans"`
	Pagination dto.Pagination `json:"pagination"`
}

type InvestmentPage struct {
	Investments []dto.Investment `json:"investments"`
	Pagination  dto.Pagination   `json:"pagination"`
}
