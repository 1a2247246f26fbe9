package db

import (
	"fmt"
	"strings"
	"time"

	"lending-ledger/internal/domain/loan"
	"lending-ledger/internal/domain/user"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func OpenGorm(dsn, logLevel string) (*gorm.DB, error) {
	return openGorm(mysql.Open(dsn), logLevel)
}

// OpenGormWithDialector lets tests hand in a dialector backed by a fake *sql.DB.
func OpenGormWithDialector(d gorm.Dialector) (*gorm.DB, error) {
	return openGorm(d, "warn")
}

func openGorm(d gorm.Dialector, logLevel string) (*gorm.DB, error) {
	cfg := &gorm.Config{
		Logger: logger.Default.LogMode(gormLevel(logLevel)),
	}
	db, err := gorm.Open(d, cfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(30)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}

func gormLevel(level string) logger.LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return logger.Info
	case "error":
		return logger.Error
	case "silent":
		return logger.Silent
	default:
		return logger.Warn
	}
}

// Migrate creates the ledger tables in dependency order.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&user.User{}, &loan.LoanRequest{}, &loan.Funding{}, &loan.Repayment{}); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

// Purge empties the ledger tables, children first. Only the seed tool calls it.
func Purge(db *gorm.DB) error {
	all := db.Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, m := range []any{&loan.Repayment{}, &loan.Funding{}, &loan.LoanRequest{}, &user.User{}} {
		if err := all.Delete(m).Error; err != nil {
			return fmt.Errorf("purge %T: %w", m, err)
		}
	}
	return nil
}
