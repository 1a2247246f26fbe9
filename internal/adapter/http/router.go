package http

import (
	"lending-ledger/internal/adapter/middleware"
	"lending-ledger/internal/domain/user"

	"github.com/labstack/echo/v4"
)

type Routes struct {
	Health    *Handler
	Loans     *LoanHandler
	Fundings  *FundingHandler
	Dashboard *DashboardHandler

	// Auth verifies bearer tokens; Idempotency guards mutating routes.
	Auth        echo.MiddlewareFunc
	Idempotency echo.MiddlewareFunc
}

func Register(e *echo.Echo, r Routes) {
	e.GET("/health", r.Health.Health)

	e.GET("/loans", r.Loans.ListLoans)
	e.GET("/loans/:loan_id", r.Loans.GetLoan)

	borrower := middleware.RequireRole(user.RoleBorrower)
	lender := middleware.RequireRole(user.RoleLender)

	// Route middleware runs in order: identity, then idempotency keyed on it, then role.
	e.POST("/loans", r.Loans.CreateLoan, r.Auth, r.Idempotency, borrower)
	e.POST("/loans/:loan_id/fund", r.Fundings.FundLoan, r.Auth, r.Idempotency, lender)
	e.POST("/repayments/:repayment_id/pay", r.Loans.PayRepayment, r.Auth, r.Idempotency, borrower)

	e.GET("/dashboard/stats", r.Dashboard.Stats, r.Auth)
	e.GET("/dashboard/my-loans", r.Dashboard.MyLoans, r.Auth, borrower)
	e.GET("/dashboard/my-investments", r.Dashboard.MyInvestments, r.Auth, lender)
}
