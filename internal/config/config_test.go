package config

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestFromEnv_Defaults(t *testing.T) {
	c, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if c.AppPort != "8080" || c.MySQLPort != "3306" || c.RedisAddr != "redis:6379" {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if c.FundingTimeout != 5*time.Second || c.FundingMaxAttempts != 3 || !c.FundingMinAmount.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("funding defaults: %v %d %s", c.FundingTimeout, c.FundingMaxAttempts, c.FundingMinAmount)
	}
	if c.IdempTTLSecs != 300 || c.LoanLockEnabled || !c.AutoMigrate {
		t.Fatalf("misc defaults: %+v", c)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("REDIS_DB", "4")
	t.Setenv("FUNDING_TIMEOUT_MS", "750")
	t.Setenv("FUNDING_MIN_AMOUNT", "50.5")
	t.Setenv("LOAN_LOCK_ENABLED", "true")
	t.Setenv("LOAN_LOCK_TTL_SECONDS", "7")
	t.Setenv("SETTLE_CRON", "*/5 * * * *")

	c, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if c.AppPort != "9090" || c.RedisDB != 4 || c.FundingTimeout != 750*time.Millisecond {
		t.Fatalf("overrides not applied: %+v", c)
	}
	if !c.FundingMinAmount.Equal(decimal.RequireFromString("50.5")) || !c.LoanLockEnabled || c.LoanLockTTL != 7*time.Second {
		t.Fatalf("overrides not applied: %+v", c)
	}
	if c.SettleCron != "*/5 * * * *" {
		t.Fatalf("SettleCron = %q", c.SettleCron)
	}
}

func TestFromEnv_ReportsEveryMalformedValue(t *testing.T) {
	t.Setenv("REDIS_DB", "zero")
	t.Setenv("AUTO_MIGRATE", "sometimes")
	t.Setenv("FUNDING_MIN_AMOUNT", "lots")

	_, err := FromEnv()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, k := range []string{"REDIS_DB", "AUTO_MIGRATE", "FUNDING_MIN_AMOUNT"} {
		if !strings.Contains(err.Error(), k) {
			t.Fatalf("error does not mention %s: %v", k, err)
		}
	}
}

func validConfig(t *testing.T) *Config {
	t.Helper()
	t.Setenv("JWT_SECRET", "0123456789abcdef-secret")
	c, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	return c
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing host", func(c *Config) { c.MySQLHost = "" }, "missing MySQL config"},
		{"bad port", func(c *Config) { c.MySQLPort = "not-a-port" }, "invalid MYSQL_PORT"},
		{"missing app port", func(c *Config) { c.AppPort = "" }, "missing APP_PORT"},
		{"short secret", func(c *Config) { c.JWTSecret = "short" }, "JWT_SECRET"},
		{"zero attempts", func(c *Config) { c.FundingMaxAttempts = 0 }, "FUNDING_MAX_ATTEMPTS"},
		{"negative minimum", func(c *Config) { c.FundingMinAmount = decimal.NewFromInt(-1) }, "FUNDING_MIN_AMOUNT"},
		{"lock without ttl", func(c *Config) { c.LoanLockEnabled, c.LoanLockTTL = true, 0 }, "LOAN_LOCK_TTL_SECONDS"},
		{"bad cron", func(c *Config) { c.SettleCron = "whenever" }, "SETTLE_CRON"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig(t)
			tt.mutate(c)
			err := c.Validate()
			if tt.want == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestMySQLDSN(t *testing.T) {
	c := &Config{MySQLUser: "u", MySQLPass: "p", MySQLHost: "db", MySQLPort: "3307", MySQLDB: "ledger", LockWaitSecs: 4}
	dsn := c.MySQLDSN()
	if !strings.HasPrefix(dsn, "u:p@tcp(db:3307)/ledger?") {
		t.Fatalf("dsn = %q", dsn)
	}
	for _, want := range []string{"parseTime=true", "innodb_lock_wait_timeout=4"} {
		if !strings.Contains(dsn, want) {
			t.Fatalf("dsn %q missing %s", dsn, want)
		}
	}
}
