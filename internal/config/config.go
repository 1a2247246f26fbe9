package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
)

type Config struct {
	AppPort string

	MySQLHost string
	MySQLPort string
	MySQLDB   string
	MySQLUser string
	MySQLPass string
	// LockWaitSecs feeds innodb_lock_wait_timeout on every connection.
	LockWaitSecs int
	AutoMigrate  bool

	RedisAddr string
	RedisDB   int

	IdempTTLSecs int

	JWTSecret   string
	JWTTTLHours int

	FundingTimeout     time.Duration
	FundingMaxAttempts int
	FundingMinAmount   decimal.Decimal

	LoanLockEnabled bool
	LoanLockTTL     time.Duration

	SettleCron string

	LogLevel  string
	LogFormat string
}

func getenv(k, d string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return d
}

// Load reads an optional .env file and then the environment. Values already
// set in the environment win over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read .env: %w", err)
	}
	return FromEnv()
}

func FromEnv() (*Config, error) {
	p := &parser{}
	c := &Config{
		AppPort:   getenv("APP_PORT", "8080"),
		MySQLHost: getenv("MYSQL_HOST", "mysql"),
		MySQLPort: getenv("MYSQL_PORT", "3306"),
		MySQLDB:   getenv("MYSQL_DB", "lending"),
		MySQLUser: getenv("MYSQL_USER", "lending"),
		MySQLPass: getenv("MYSQL_PASS", "lending"),

		LockWaitSecs: p.int("MYSQL_LOCK_WAIT_SECONDS", 3),
		AutoMigrate:  p.bool("AUTO_MIGRATE", true),

		RedisAddr: getenv("REDIS_ADDR", "redis:6379"),
		RedisDB:   p.int("REDIS_DB", 0),

		IdempTTLSecs: p.int("IDEMPOTENCY_TTL_SECONDS", 300),

		JWTSecret:   getenv("JWT_SECRET", ""),
		JWTTTLHours: p.int("JWT_TTL_HOURS", 24),

		FundingTimeout:     time.Duration(p.int("FUNDING_TIMEOUT_MS", 5000)) * time.Millisecond,
		FundingMaxAttempts: p.int("FUNDING_MAX_ATTEMPTS", 3),
		FundingMinAmount:   p.decimal("FUNDING_MIN_AMOUNT", decimal.NewFromInt(100)),

		LoanLockEnabled: p.bool("LOAN_LOCK_ENABLED", false),
		LoanLockTTL:     time.Duration(p.int("LOAN_LOCK_TTL_SECONDS", 10)) * time.Second,

		SettleCron: getenv("SETTLE_CRON", "@every 1m"),

		LogLevel:  getenv("LOG_LEVEL", "info"),
		LogFormat: getenv("LOG_FORMAT", "text"),
	}
	if err := errors.Join(p.errs...); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
		return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
	}
	// ensure port is valid
	if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
		return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
	}
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	if len(c.JWTSecret) < 16 {
		return errors.New("JWT_SECRET must be at least 16 characters")
	}
	if c.FundingTimeout <= 0 || c.FundingMaxAttempts < 1 {
		return errors.New("FUNDING_TIMEOUT_MS and FUNDING_MAX_ATTEMPTS must be positive")
	}
	if c.FundingMinAmount.IsNegative() {
		return errors.New("FUNDING_MIN_AMOUNT must not be negative")
	}
	if c.LockWaitSecs < 1 {
		return errors.New("MYSQL_LOCK_WAIT_SECONDS must be positive")
	}
	if c.LoanLockEnabled && c.LoanLockTTL <= 0 {
		return errors.New("LOAN_LOCK_TTL_SECONDS must be positive when LOAN_LOCK_ENABLED")
	}
	if _, err := cron.ParseStandard(c.SettleCron); err != nil {
		return fmt.Errorf("invalid SETTLE_CRON %q: %w", c.SettleCron, err)
	}
	return nil
}

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// parseTime needed for DATETIME; lock waits are bounded per session
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=UTC&charset=utf8mb4,utf8&innodb_lock_wait_timeout=%d",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB, c.LockWaitSecs)
}

// parser collects every malformed variable instead of stopping at the first.
type parser struct{ errs []error }

func (p *parser) int(k string, d int) int {
	v := getenv(k, "")
	if v == "" {
		return d
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %q is not an integer", k, v))
		return d
	}
	return n
}

func (p *parser) bool(k string, d bool) bool {
	v := getenv(k, "")
	if v == "" {
		return d
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %q is not a boolean", k, v))
		return d
	}
	return b
}

func (p *parser) decimal(k string, d decimal.Decimal) decimal.Decimal {
	v := getenv(k, "")
	if v == "" {
		return d
	}
	n, err := decimal.NewFromString(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %q is not a decimal", k, v))
		return d
	}
	return n
}
