package user

import (
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("user not found")
)

type Role string

const (
	RoleBorrower Role = "BORROWER"
	RoleLender   Role = "LENDER"
)

func (r Role) Valid() bool { return r == RoleBorrower || r == RoleLender }

const (
	MinCreditScore = 300
	MaxCreditScore = 850
	MinTrustScore  = 0
	MaxTrustScore  = 100
)

// Table: users. Scores are inputs to the ledger, never derived here.
type User struct {
	ID           uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	UserID       string    `gorm:"column:user_id;size:32;not null;uniqueIndex:ux_users_user_id"`
	Name         string    `gorm:"column:name;size:120;not null"`
	Email        string    `gorm:"column:email;size:190;not null;uniqueIndex:ux_users_email"`
	PasswordHash string    `gorm:"column:password_hash;size:72;not null"`
	Role         Role      `gorm:"column:role;size:16;not null;index"`
	CreditScore  int       `gorm:"column:credit_score;not null"`
	TrustScore   int       `gorm:"column:trust_score;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string { return "users" }

// ScoresInRange reports whether both scores sit inside their published bands.
func (u *User) ScoresInRange() bool {
	return u.CreditScore >= MinCreditScore && u.CreditScore <= MaxCreditScore &&
		u.TrustScore >= MinTrustScore && u.TrustScore <= MaxTrustScore
}

// Identity is the authenticated caller, passed explicitly into usecases.
type Identity struct {
	UserID string
	Role   Role
}
