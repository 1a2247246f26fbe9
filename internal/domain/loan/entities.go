package loan

import (
	"time"

	"lending-ledger/internal/domain/user"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending Status = "PENDING"
	StatusFunding Status = "FUNDING"
	StatusFunded  Status = "FUNDED"
	StatusRepaid  Status = "REPAID"
)

type RepaymentStatus string

const (
	RepaymentPending RepaymentStatus = "PENDING"
	RepaymentPaid    RepaymentStatus = "PAID"
)

type LoanRequest struct {
	ID            uint64          `gorm:"primaryKey;column:id"`
	LoanID        string          `gorm:"size:32;column:loan_id;not null;uniqueIndex:ux_loan_requests_loan_id"`
	BorrowerID    string          `gorm:"size:32;column:borrower_id;not null;index:idx_loan_requests_borrower_status,priority:1"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,2);column:amount;not null"`
	Purpose       string          `gorm:"size:500;column:purpose;not null"`
	RepaymentTerm int             `gorm:"column:repayment_term;not null"`
	AmountFunded  decimal.Decimal `gorm:"type:decimal(18,2);column:amount_funded;not null;default:0"`
	Status        Status          `gorm:"size:16;column:status;not null;default:'PENDING';index:idx_loan_requests_borrower_status,priority:2;index:idx_loan_requests_status_created,priority:1"`
	Version       uint64          `gorm:"column:version;not null;default:1"`
	CreatedAt     time.Time       `gorm:"autoCreateTime;column:created_at;index:idx_loan_requests_status_created,priority:2"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime;column:updated_at"`

	Borrower   *user.User  `gorm:"foreignKey:BorrowerID;references:UserID"`
	Fundings   []Funding   `gorm:"foreignKey:LoanRequestID;constraint:OnDelete:CASCADE"`
	Repayments []Repayment `gorm:"foreignKey:LoanRequestID;constraint:OnDelete:CASCADE"`
}

func (LoanRequest) TableName() string { return "loan_requests" }

// RemainingCapacity is the principal still open for new fundings.
// Not to be confused with metrics.OutstandingAmount.
func (l *LoanRequest) RemainingCapacity() decimal.Decimal {
	return l.Amount.Sub(l.AmountFunded)
}

// Funding rows are immutable once written.
type Funding struct {
	ID            uint64          `gorm:"primaryKey;column:id"`
	FundingID     string          `gorm:"size:32;column:funding_id;not null;uniqueIndex:ux_fundings_funding_id"`
	LoanRequestID uint64          `gorm:"column:loan_request_id;not null;index"`
	LenderID      string          `gorm:"size:32;column:lender_id;not null;index"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,2);column:amount;not null"`
	CreatedAt     time.Time       `gorm:"autoCreateTime;column:created_at"`

	Lender      *user.User   `gorm:"foreignKey:LenderID;references:UserID"`
	LoanRequest *LoanRequest `gorm:"foreignKey:LoanRequestID"`
}

func (Funding) TableName() string { return "fundings" }

type Repayment struct {
	ID            uint64          `gorm:"primaryKey;column:id"`
	RepaymentID   string          `gorm:"size:32;column:repayment_id;not null;uniqueIndex:ux_repayments_repayment_id"`
	LoanRequestID uint64          `gorm:"column:loan_request_id;not null;index:idx_repayments_loan_status,priority:1"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,2);column:amount;not null"`
	DueDate       time.Time       `gorm:"column:due_date;not null"`
	Status        RepaymentStatus `gorm:"size:16;column:status;not null;default:'PENDING';index:idx_repayments_loan_status,priority:2"`
	PaidAt        *time.Time      `gorm:"column:paid_at"`
	CreatedAt     time.Time       `gorm:"autoCreateTime;column:created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime;column:updated_at"`
}

func (Repayment) TableName() string { return "repayments" }
