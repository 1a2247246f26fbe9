package http

import (
	"errors"
	"log/slog"
	"net/http"

	"lending-ledger/internal/domain/loan"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// retryAfterSeconds is sent with 503 Busy responses.
const retryAfterSeconds = "1"

type limitResponse struct {
	Message   string          `json:"message"`
	Remaining decimal.Decimal `json:"remaining"`
}

// writeError maps domain errors onto status codes. Anything it does not
// recognise is logged and answered with a bare 500.
func writeError(c echo.Context, log *slog.Logger, err error) error {
	var (
		limit *loan.LimitExceededError
		state *loan.StateError
		field *loan.ValidationError
	)
	switch {
	case errors.Is(err, loan.ErrNotFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{Message: "Loan not found"})
	case errors.Is(err, loan.ErrRepaymentNotFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{Message: "Repayment not found"})
	case errors.As(err, &limit):
		return c.JSON(http.StatusBadRequest, limitResponse{Message: limit.Error(), Remaining: limit.Remaining})
	case errors.As(err, &state):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: state.Reason})
	case errors.As(err, &field):
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "validation failed",
			Details: []FieldError{{Field: field.Field, Message: field.Message}},
		})
	case errors.Is(err, loan.ErrValidation):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "validation failed"})
	case errors.Is(err, loan.ErrBusy):
		c.Response().Header().Set("Retry-After", retryAfterSeconds)
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Message: "Loan is busy, please retry"})
	}
	log.ErrorContext(c.Request().Context(), "request failed",
		"method", c.Request().Method, "path", c.Path(), "err", err)
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "internal server error"})
}

// bindAndValidate answers 400 for unreadable bodies and 422 for bodies that
// fail validation. ok is false once a response has been written.
func bindAndValidate(c echo.Context, req any) (ok bool, err error) {
	if err := c.Bind(req); err != nil {
		return false, c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid body"})
	}
	if err := c.Validate(req); err != nil {
		return false, c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	return true, nil
}
