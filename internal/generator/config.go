package generator

import (
	"time"

	"github.com/shopspring/decimal"
)

type Config struct {
	Borrowers int
	Lenders   int
	// LoanRequests are spread over distinct borrowers, so it is capped at Borrowers.
	LoanRequests int
	FundedLoans  int
	// Schedules is how many FUNDED loans get a repayment schedule.
	Schedules int

	MaxLendersPerLoan int
	MinContribution   decimal.Decimal
	PaidProbability   float64
	// CloseProbability is the chance that a loan's last lender takes exactly
	// what is left, closing the loan.
	CloseProbability float64

	// PasswordHash is copied onto every user; hashing is the caller's job.
	PasswordHash string
	Now          time.Time
}

func DefaultConfig() Config {
	return Config{
		Borrowers:         120,
		Lenders:           30,
		LoanRequests:      80,
		FundedLoans:       50,
		Schedules:         20,
		MaxLendersPerLoan: 5,
		MinContribution:   decimal.NewFromInt(100),
		CloseProbability:  0.6,
		PaidProbability:   0.7,
		Now:               time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

var purposes = []string{
	"Education expenses for my child",
	"Medical emergency treatment",
	"Small business expansion",
	"Home renovation project",
	"Debt consolidation",
	"Wedding expenses",
	"Vehicle purchase",
	"Agricultural equipment",
	"Emergency fund",
	"Technology upgrade for business",
	"Home appliance purchase",
	"Travel for family emergency",
	"Starting a new business",
	"Educational course fees",
	"Home repair after natural disaster",
}

var (
	firstNames = []string{"Ayu", "Budi", "Citra", "Dewi", "Eko", "Fajar", "Gita", "Hendra", "Indah", "Joko", "Kartika", "Lestari", "Made", "Nur", "Putri", "Rizky", "Sari", "Taufik", "Wulan", "Yusuf"}
	lastNames  = []string{"Santoso", "Wijaya", "Saputra", "Hidayat", "Pratama", "Kusuma", "Nugroho", "Lubis", "Siregar", "Halim", "Gunawan", "Setiawan", "Rahman", "Utami", "Permana"}
)

const (
	minLoanCents = 2000_00
	maxLoanCents = 100000_00
	minTerm      = 3
	maxTerm      = 12
	minTrust     = 50
)
