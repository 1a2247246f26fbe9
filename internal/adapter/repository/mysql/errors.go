package mysql

import (
	"errors"
	"fmt"

	loanDomain "lending-ledger/internal/domain/loan"

	mysqldrv "github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"
)

const (
	mysqlLockWaitTimeout = 1205
	mysqlDeadlock        = 1213
)

// classify folds lock contention from either driver into loan.ErrBusy and
// leaves everything else untouched.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var me *mysqldrv.MySQLError
	if errors.As(err, &me) && (me.Number == mysqlLockWaitTimeout || me.Number == mysqlDeadlock) {
		return fmt.Errorf("%w: %v", loanDomain.ErrBusy, err)
	}
	var se sqlite3.Error
	if errors.As(err, &se) && (se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked) {
		return fmt.Errorf("%w: %v", loanDomain.ErrBusy, err)
	}
	return err
}
