package mysql

import (
	"context"

	loanDomain "lending-ledger/internal/domain/loan"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FundingRepository struct{ db *gorm.DB }

func NewFundingRepository(db *gorm.DB) *FundingRepository { return &FundingRepository{db: db} }

func (r *FundingRepository) Create(ctx context.Context, f *loanDomain.Funding) error {
	return classify(r.db.WithContext(ctx).Omit(clause.Associations).Create(f).Error)
}

func (r *FundingRepository) CountByLender(ctx context.Context, lenderID string, loanStatuses ...loanDomain.Status) (int64, error) {
	q := r.db.WithContext(ctx).Model(&loanDomain.Funding{}).Where("fundings.lender_id = ?", lenderID)
	if len(loanStatuses) > 0 {
		q = q.Joins("JOIN loan_requests ON loan_requests.id = fundings.loan_request_id").
			Where("loan_requests.status IN ?", loanStatuses)
	}
	var n int64
	return n, classify(q.Count(&n).Error)
}

func (r *FundingRepository) SumAmountByLender(ctx context.Context, lenderID string) (decimal.Decimal, error) {
	var row sumRow
	err := r.db.WithContext(ctx).
		Model(&loanDomain.Funding{}).
		Select("COALESCE(SUM(amount), 0) AS total").
		Where("lender_id = ?", lenderID).
		Scan(&row).Error
	return row.money(), classify(err)
}

func (r *FundingRepository) ListByLender(ctx context.Context, lenderID string, p loanDomain.Page) ([]loanDomain.Funding, int64, error) {
	return r.listByLender(ctx, lenderID, p, "LoanRequest")
}

func (r *FundingRepository) ListInvestments(ctx context.Context, lenderID string, p loanDomain.Page) ([]loanDomain.Funding, int64, error) {
	return r.listByLender(ctx, lenderID, p,
		"LoanRequest",
		"LoanRequest.Borrower",
		"LoanRequest.Fundings",
		"LoanRequest.Fundings.Lender",
		"LoanRequest.Repayments",
	)
}

func (r *FundingRepository) listByLender(ctx context.Context, lenderID string, p loanDomain.Page, preloads ...string) ([]loanDomain.Funding, int64, error) {
	q := r.db.WithContext(ctx).Model(&loanDomain.Funding{}).Where("lender_id = ?", lenderID).Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, classify(err)
	}

	find := q.Order("created_at DESC, id DESC")
	for _, name := range preloads {
		find = find.Preload(name)
	}
	find = paginate(find, p)

	var out []loanDomain.Funding
	if err := find.Find(&out).Error; err != nil {
		return nil, 0, classify(err)
	}
	return out, total, nil
}
