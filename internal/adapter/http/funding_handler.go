package http

import (
	"log/slog"
	"net/http"

	"lending-ledger/internal/adapter/middleware"
	"lending-ledger/internal/domain/loan"
	"lending-ledger/internal/usecase/funding"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type FundingHandler struct {
	uc  *funding.Usecase
	log *slog.Logger
}

func NewFundingHandler(uc *funding.Usecase, log *slog.Logger) *FundingHandler {
	return &FundingHandler{uc: uc, log: log}
}

type fundLoanReq struct {
	Amount decimal.Decimal `json:"amount" validate:"required,gt=0,dec2"`
}

func (h *FundingHandler) FundLoan(c echo.Context) error {
	who, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "unauthenticated"})
	}
	loanID, ok := pathParam(c, "loan_id")
	if !ok {
		return writeError(c, h.log, loan.ErrNotFound)
	}
	var req fundLoanReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	res, err := h.uc.FundLoan(c.Request().Context(), funding.FundInput{
		LoanID:   loanID,
		LenderID: who.UserID,
		Amount:   req.Amount,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"message":     "Loan funded successfully",
		"funding":     res.Funding,
		"loanRequest": res.Loan,
	})
}
