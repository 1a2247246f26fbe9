package http

import (
	"log/slog"
	"net/http"

	"lending-ledger/internal/adapter/middleware"
	"lending-ledger/internal/usecase/dashboard"

	"github.com/labstack/echo/v4"
)

type DashboardHandler struct {
	uc  *dashboard.Usecase
	log *slog.Logger
}

func NewDashboardHandler(uc *dashboard.Usecase, log *slog.Logger) *DashboardHandler {
	return &DashboardHandler{uc: uc, log: log}
}

type pageReq struct {
	Status string `query:"status"`
	Page   int    `query:"page"`
	Limit  int    `query:"limit"`
}

func (h *DashboardHandler) Stats(c echo.Context) error {
	who, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "unauthenticated"})
	}
	out, err := h.uc.Stats(c.Request().Context(), who)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *DashboardHandler) MyLoans(c echo.Context) error {
	who, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "unauthenticated"})
	}
	var req pageReq
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid query"})
	}
	out, err := h.uc.MyLoans(c.Request().Context(), who.UserID, dashboard.PageQuery(req))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *DashboardHandler) MyInvestments(c echo.Context) error {
	who, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "unauthenticated"})
	}
	var req pageReq
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid query"})
	}
	out, err := h.uc.MyInvestments(c.Request().Context(), who.UserID, dashboard.PageQuery(req))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, out)
}
