package loan

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound        = errors.New("loan not found")
	ErrInvalidState    = errors.New("invalid loan state")
	ErrLimitExceeded   = errors.New("funding limit exceeded")
	ErrValidation      = errors.New("validation failed")
	ErrBusy            = errors.New("loan is busy, retry later")
	ErrInternal        = errors.New("internal error")
	ErrVersionConflict = errors.New("loan version conflict")

	ErrRepaymentNotFound = errors.New("repayment not found")
)

// StateError carries the user-facing reason an operation is illegal right now.
type StateError struct{ Reason string }

func (e *StateError) Error() string        { return e.Reason }
func (e *StateError) Is(target error) bool { return target == ErrInvalidState }

var (
	ErrNotAcceptingFunding = &StateError{Reason: "Loan is no longer accepting funding"}
	ErrAlreadyPaid         = &StateError{Reason: "Repayment is already paid"}
)

// LimitExceededError reports the capacity still open so callers can retry.
// Closed marks a fully funded loan: no capacity left and no longer accepting
// funding, so it matches ErrInvalidState as well.
type LimitExceededError struct {
	Remaining decimal.Decimal
	Closed    bool
}

func (e *LimitExceededError) Error() string {
	if e.Closed {
		return ErrNotAcceptingFunding.Reason
	}
	return "Maximum funding amount is " + e.Remaining.String()
}

func (e *LimitExceededError) Is(target error) bool {
	return target == ErrLimitExceeded || (e.Closed && target == ErrInvalidState)
}

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string        { return e.Field + " " + e.Message }
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Invalid builds a ValidationError for field.
func Invalid(field, msg string) error { return &ValidationError{Field: field, Message: msg} }
