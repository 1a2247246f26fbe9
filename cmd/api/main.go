package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/shopspring/decimal"

	httpadp "lending-ledger/internal/adapter/http"
	authmw "lending-ledger/internal/adapter/middleware"
	"lending-ledger/internal/adapter/repository/mysql"
	"lending-ledger/internal/config"
	"lending-ledger/internal/infrastructure/cache"
	"lending-ledger/internal/infrastructure/db"
	"lending-ledger/internal/infrastructure/scheduler"
	"lending-ledger/internal/logging"
	"lending-ledger/internal/usecase/dashboard"
	"lending-ledger/internal/usecase/funding"
	"lending-ledger/internal/usecase/loan"
	"lending-ledger/pkg/token"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "api: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	decimal.MarshalJSONWithoutQuotes = true

	gdb, err := db.OpenGorm(cfg.MySQLDSN(), cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("open mysql: %w", err)
	}
	if cfg.AutoMigrate {
		if err := db.Migrate(gdb); err != nil {
			return err
		}
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	ctx := context.Background()
	rdb, err := cache.OpenRedis(ctx, cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		return fmt.Errorf("open redis: %w", err)
	}
	defer rdb.Close()

	tx := mysql.NewGormUoW(gdb)
	opts := []funding.Option{funding.WithLogger(logger)}
	if cfg.LoanLockEnabled {
		opts = append(opts, funding.WithLocker(cache.NewLoanLocker(rdb, cfg.LoanLockTTL, logger)))
	}
	fundingUC := funding.NewUsecase(tx, funding.Config{
		Timeout:     cfg.FundingTimeout,
		MaxAttempts: cfg.FundingMaxAttempts,
		MinAmount:   cfg.FundingMinAmount,
	}, opts...)
	loanUC := loan.NewUsecase(tx, logger)
	dashboardUC := dashboard.NewUsecase(tx, logger)

	sched := scheduler.New(logger, time.Minute)
	if err := sched.Add(cfg.SettleCron, "settle-repaid-loans", loanUC.SettleRepaidLoans); err != nil {
		return err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = httpadp.NewValidator()
	e.Use(middleware.Recover(), requestLogger(logger))

	httpadp.Register(e, httpadp.Routes{
		Health: httpadp.NewHandler(
			httpadp.Check{Name: "mysql", Fn: sqlDB.PingContext},
			httpadp.Check{Name: "redis", Fn: func(ctx context.Context) error { return rdb.Ping(ctx).Err() }},
		),
		Loans:       httpadp.NewLoanHandler(loanUC, logger),
		Fundings:    httpadp.NewFundingHandler(fundingUC, logger),
		Dashboard:   httpadp.NewDashboardHandler(dashboardUC, logger),
		Auth:        authmw.Authenticate(token.NewSigner(cfg.JWTSecret, time.Duration(cfg.JWTTTLHours)*time.Hour)),
		Idempotency: authmw.IdempotencyMiddleware(rdb, time.Duration(cfg.IdempTTLSecs)*time.Second, logger),
	})

	sched.Start()

	addr := ":" + cfg.AppPort
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr)
		errCh <- e.Start(addr)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped unexpectedly", "err", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "err", err)
	}
	sched.Stop(shutdownCtx)
	return nil
}

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency}
			if v.Error != nil {
				logger.ErrorContext(c.Request().Context(), "request", append(attrs, "err", v.Error)...)
				return nil
			}
			logger.InfoContext(c.Request().Context(), "request", attrs...)
			return nil
		},
	})
}
