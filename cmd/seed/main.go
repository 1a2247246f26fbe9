package main

import (
	"fmt"
	"os"
	"time"

	"lending-ledger/internal/config"
	"lending-ledger/internal/infrastructure/db"

	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed: load config: %v\n", err)
		os.Exit(1)
	}
	cmd := newRootCommand(env{
		open:     func() (*gorm.DB, error) { return db.OpenGorm(cfg.MySQLDSN(), cfg.LogLevel) },
		secret:   cfg.JWTSecret,
		tokenTTL: time.Duration(cfg.JWTTTLHours) * time.Hour,
	})
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "seed: %v\n", err)
		os.Exit(1)
	}
}
