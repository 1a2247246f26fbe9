package mysql

import (
	"context"
	"errors"

	loanDomain "lending-ledger/internal/domain/loan"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LoanRepository struct{ db *gorm.DB }

func NewLoanRepository(db *gorm.DB) *LoanRepository { return &LoanRepository{db: db} }

func (r *LoanRepository) Create(ctx context.Context, l *loanDomain.LoanRequest) error {
	if l.Version == 0 {
		l.Version = 1
	}
	return classify(r.db.WithContext(ctx).Omit(clause.Associations).Create(l).Error)
}

func (r *LoanRepository) GetByLoanID(ctx context.Context, loanID string) (*loanDomain.LoanRequest, error) {
	var out loanDomain.LoanRequest
	res := r.db.WithContext(ctx).Where("loan_id = ?", loanID).First(&out)
	return loanOrErr(&out, res.Error)
}

func (r *LoanRepository) GetByLoanIDForUpdate(ctx context.Context, loanID string) (*loanDomain.LoanRequest, error) {
	var out loanDomain.LoanRequest
	res := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("loan_id = ?", loanID).
		First(&out)
	return loanOrErr(&out, res.Error)
}

func (r *LoanRepository) GetByIDForUpdate(ctx context.Context, id uint64) (*loanDomain.LoanRequest, error) {
	var out loanDomain.LoanRequest
	res := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&out)
	return loanOrErr(&out, res.Error)
}

func (r *LoanRepository) GetDetail(ctx context.Context, loanID string) (*loanDomain.LoanRequest, error) {
	var out loanDomain.LoanRequest
	res := r.db.WithContext(ctx).
		Preload("Borrower").
		Preload("Fundings", func(db *gorm.DB) *gorm.DB { return db.Order("created_at DESC, id DESC") }).
		Preload("Fundings.Lender").
		Preload("Repayments", func(db *gorm.DB) *gorm.DB { return db.Order("due_date ASC, id ASC") }).
		Where("loan_id = ?", loanID).
		First(&out)
	return loanOrErr(&out, res.Error)
}

func (r *LoanRepository) List(ctx context.Context, f loanDomain.ListFilter) ([]loanDomain.LoanRequest, int64, error) {
	q := r.db.WithContext(ctx).Model(&loanDomain.LoanRequest{})
	if f.BorrowerID != "" {
		q = q.Where("borrower_id = ?", f.BorrowerID)
	}
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", f.Statuses)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, classify(err)
	}

	find := q.Order("created_at DESC, id DESC")
	if f.WithBorrower {
		find = find.Preload("Borrower")
	}
	if f.WithFundings {
		find = find.Preload("Fundings", func(db *gorm.DB) *gorm.DB { return db.Order("created_at DESC, id DESC") }).
			Preload("Fundings.Lender")
	}
	if f.WithRepayments {
		find = find.Preload("Repayments", func(db *gorm.DB) *gorm.DB { return db.Order("due_date ASC, id ASC") })
	}
	find = paginate(find, f.Page)

	var out []loanDomain.LoanRequest
	if err := find.Find(&out).Error; err != nil {
		return nil, 0, classify(err)
	}
	return out, total, nil
}

func (r *LoanRepository) UpdateFunding(ctx context.Context, id, version uint64, amountFunded decimal.Decimal, status loanDomain.Status) error {
	return r.casUpdate(ctx, id, version, map[string]any{
		"amount_funded": amountFunded,
		"status":        status,
	})
}

func (r *LoanRepository) UpdateStatus(ctx context.Context, id, version uint64, status loanDomain.Status) error {
	return r.casUpdate(ctx, id, version, map[string]any{"status": status})
}

// casUpdate bumps version only when the caller still holds the latest one.
func (r *LoanRepository) casUpdate(ctx context.Context, id, version uint64, cols map[string]any) error {
	cols["version"] = gorm.Expr("version + 1")
	res := r.db.WithContext(ctx).
		Model(&loanDomain.LoanRequest{}).
		Where("id = ? AND version = ?", id, version).
		Updates(cols)
	if res.Error != nil {
		return classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return loanDomain.ErrVersionConflict
	}
	return nil
}

func (r *LoanRepository) CountByBorrower(ctx context.Context, borrowerID string, statuses ...loanDomain.Status) (int64, error) {
	q := r.db.WithContext(ctx).Model(&loanDomain.LoanRequest{}).Where("borrower_id = ?", borrowerID)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	var n int64
	return n, classify(q.Count(&n).Error)
}

func (r *LoanRepository) SumAmountByBorrower(ctx context.Context, borrowerID string) (decimal.Decimal, error) {
	var row sumRow
	err := r.db.WithContext(ctx).
		Model(&loanDomain.LoanRequest{}).
		Select("COALESCE(SUM(amount), 0) AS total").
		Where("borrower_id = ?", borrowerID).
		Scan(&row).Error
	return row.money(), classify(err)
}

func (r *LoanRepository) ListSettleable(ctx context.Context, limit int) ([]loanDomain.LoanRequest, error) {
	q := r.db.WithContext(ctx).
		Where("status = ?", loanDomain.StatusFunded).
		Where("EXISTS (SELECT 1 FROM repayments rp WHERE rp.loan_request_id = loan_requests.id)").
		Where("NOT EXISTS (SELECT 1 FROM repayments rp WHERE rp.loan_request_id = loan_requests.id AND rp.status = ?)", loanDomain.RepaymentPending).
		Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []loanDomain.LoanRequest
	if err := q.Find(&out).Error; err != nil {
		return nil, classify(err)
	}
	return out, nil
}

func loanOrErr(l *loanDomain.LoanRequest, err error) (*loanDomain.LoanRequest, error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, loanDomain.ErrNotFound
	}
	if err != nil {
		return nil, classify(err)
	}
	return l, nil
}

func paginate(q *gorm.DB, p loanDomain.Page) *gorm.DB {
	if p.Limit < 0 {
		return q
	}
	if p.Offset > 0 {
		q = q.Offset(p.Offset)
	}
	if p.Limit > 0 {
		q = q.Limit(p.Limit)
	}
	return q
}

// sumRow receives COALESCE(SUM(...)) AS total. SQLite hands sums back as
// floats, so the result is rounded to cents.
type sumRow struct {
	Total decimal.Decimal
}

func (s sumRow) money() decimal.Decimal { return s.Total.Round(2) }
