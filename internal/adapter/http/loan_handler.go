package http

import (
	"log/slog"
	"net/http"

	"lending-ledger/internal/adapter/middleware"
	domain "lending-ledger/internal/domain/loan"
	"lending-ledger/internal/usecase/loan"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type LoanHandler struct {
	uc  *loan.Usecase
	log *slog.Logger
}

func NewLoanHandler(uc *loan.Usecase, log *slog.Logger) *LoanHandler {
	return &LoanHandler{uc: uc, log: log}
}

type createLoanReq struct {
	Amount        decimal.Decimal `json:"amount"        validate:"required,gte=2000,lte=100000,dec2"`
	Purpose       string          `json:"purpose"       validate:"required,min=10,max=500"`
	RepaymentTerm int             `json:"repaymentTerm" validate:"required,gte=1,lte=24"`
}

type listLoansReq struct {
	Status string `query:"status"`
	Page   int    `query:"page"`
	Limit  int    `query:"limit"`
}

func (h *LoanHandler) CreateLoan(c echo.Context) error {
	who, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "unauthenticated"})
	}
	var req createLoanReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	out, err := h.uc.Create(c.Request().Context(), who.UserID, loan.CreateLoanInput(req))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, map[string]any{
		"message":     "Loan request created successfully",
		"loanRequest": out,
	})
}

func (h *LoanHandler) GetLoan(c echo.Context) error {
	loanID, ok := pathParam(c, "loan_id")
	if !ok {
		return writeError(c, h.log, domain.ErrNotFound)
	}
	out, err := h.uc.Get(c.Request().Context(), loanID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *LoanHandler) ListLoans(c echo.Context) error {
	var req listLoansReq
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid query"})
	}
	out, err := h.uc.ListMarketplace(c.Request().Context(), loan.ListQuery(req))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *LoanHandler) PayRepayment(c echo.Context) error {
	who, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "unauthenticated"})
	}
	repaymentID, ok := pathParam(c, "repayment_id")
	if !ok {
		return writeError(c, h.log, domain.ErrRepaymentNotFound)
	}
	out, err := h.uc.PayRepayment(c.Request().Context(), who.UserID, repaymentID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, out)
}
