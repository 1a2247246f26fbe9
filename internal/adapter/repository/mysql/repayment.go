package mysql

import (
	"context"
	"errors"
	"time"

	loanDomain "lending-ledger/internal/domain/loan"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type RepaymentRepository struct{ db *gorm.DB }

func NewRepaymentRepository(db *gorm.DB) *RepaymentRepository { return &RepaymentRepository{db: db} }

func (r *RepaymentRepository) CreateBatch(ctx context.Context, rs []loanDomain.Repayment) error {
	if len(rs) == 0 {
		return nil
	}
	return classify(r.db.WithContext(ctx).Create(&rs).Error)
}

func (r *RepaymentRepository) GetByRepaymentID(ctx context.Context, repaymentID string) (*loanDomain.Repayment, error) {
	var out loanDomain.Repayment
	err := r.db.WithContext(ctx).Where("repayment_id = ?", repaymentID).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, loanDomain.ErrRepaymentNotFound
	}
	if err != nil {
		return nil, classify(err)
	}
	return &out, nil
}

func (r *RepaymentRepository) ListByLoan(ctx context.Context, loanID uint64) ([]loanDomain.Repayment, error) {
	var out []loanDomain.Repayment
	err := r.db.WithContext(ctx).
		Where("loan_request_id = ?", loanID).
		Order("due_date ASC, id ASC").
		Find(&out).Error
	if err != nil {
		return nil, classify(err)
	}
	return out, nil
}

func (r *RepaymentRepository) MarkPaid(ctx context.Context, id uint64, paidAt time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&loanDomain.Repayment{}).
		Where("id = ? AND status = ?", id, loanDomain.RepaymentPending).
		Updates(map[string]any{
			"status":  loanDomain.RepaymentPaid,
			"paid_at": paidAt,
		})
	if res.Error != nil {
		return classify(res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var n int64
	if err := r.db.WithContext(ctx).Model(&loanDomain.Repayment{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return classify(err)
	}
	if n == 0 {
		return loanDomain.ErrRepaymentNotFound
	}
	return loanDomain.ErrAlreadyPaid
}

func (r *RepaymentRepository) CountPending(ctx context.Context, loanID uint64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&loanDomain.Repayment{}).
		Where("loan_request_id = ? AND status = ?", loanID, loanDomain.RepaymentPending).
		Count(&n).Error
	return n, classify(err)
}

func (r *RepaymentRepository) SumPaidByBorrower(ctx context.Context, borrowerID string) (decimal.Decimal, error) {
	var row sumRow
	err := r.db.WithContext(ctx).
		Model(&loanDomain.Repayment{}).
		Select("COALESCE(SUM(repayments.amount), 0) AS total").
		Joins("JOIN loan_requests ON loan_requests.id = repayments.loan_request_id").
		Where("loan_requests.borrower_id = ? AND repayments.status = ?", borrowerID, loanDomain.RepaymentPaid).
		Scan(&row).Error
	return row.money(), classify(err)
}

func (r *RepaymentRepository) SumPaidByLoans(ctx context.Context, loanIDs []uint64) (map[uint64]decimal.Decimal, error) {
	out := make(map[uint64]decimal.Decimal, len(loanIDs))
	if len(loanIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		LoanRequestID uint64
		Total         decimal.Decimal
	}
	err := r.db.WithContext(ctx).
		Model(&loanDomain.Repayment{}).
		Select("loan_request_id, COALESCE(SUM(amount), 0) AS total").
		Where("loan_request_id IN ? AND status = ?", loanIDs, loanDomain.RepaymentPaid).
		Group("loan_request_id").
		Scan(&rows).Error
	if err != nil {
		return nil, classify(err)
	}
	for _, row := range rows {
		out[row.LoanRequestID] = row.Total.Round(2)
	}
	return out, nil
}
