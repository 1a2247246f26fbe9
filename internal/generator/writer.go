package generator

import (
	"context"
	"fmt"

	"lending-ledger/internal/domain/uow"
)

// Writer persists a dataset in one transaction so a failed seed leaves
// nothing behind.
type Writer struct {
	tx uow.UnitOfWork
}

func NewWriter(tx uow.UnitOfWork) *Writer { return &Writer{tx: tx} }

func (w *Writer) Write(ctx context.Context, ds *Dataset) error {
	return w.tx.WithinTx(ctx, func(r uow.Repos) error {
		for i := range ds.Users {
			if err := r.Users.Create(ctx, &ds.Users[i]); err != nil {
				return fmt.Errorf("user %s: %w", ds.Users[i].UserID, err)
			}
		}
		for i := range ds.Loans {
			l := &ds.Loans[i]
			if err := r.Loans.Create(ctx, l); err != nil {
				return fmt.Errorf("loan %s: %w", l.LoanID, err)
			}
			for j := range l.Fundings {
				l.Fundings[j].LoanRequestID = l.ID
				if err := r.Fundings.Create(ctx, &l.Fundings[j]); err != nil {
					return fmt.Errorf("funding %s: %w", l.Fundings[j].FundingID, err)
				}
			}
			for j := range l.Repayments {
				l.Repayments[j].LoanRequestID = l.ID
			}
			if err := r.Repayments.CreateBatch(ctx, l.Repayments); err != nil {
				return fmt.Errorf("repayments of %s: %w", l.LoanID, err)
			}
		}
		return nil
	})
}
