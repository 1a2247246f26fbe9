package main

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"time"

	"lending-ledger/internal/adapter/repository/mysql"
	"lending-ledger/internal/domain/loan"
	"lending-ledger/internal/domain/user"
	"lending-ledger/internal/generator"
	"lending-ledger/internal/infrastructure/db"
	"lending-ledger/pkg/token"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// env carries what the commands need from the outside world.
type env struct {
	open     func() (*gorm.DB, error)
	secret   string
	tokenTTL time.Duration
}

type seedOptions struct {
	seed       int64
	purge      bool
	dryRun     bool
	password   string
	bcryptCost int

	borrowers, lenders, loans, funded, schedules int
}

func newRootCommand(e env) *cobra.Command {
	opts := &seedOptions{}
	def := generator.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Generate and load a synthetic lending ledger",
		Long: `Generate a deterministic synthetic ledger, check it against the ledger
invariants, and write it to the database in one transaction.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSeed(cmd, e, opts)
		},
	}

	f := cmd.Flags()
	f.Int64Var(&opts.seed, "seed", 42, "random seed; the same seed yields the same ids and amounts")
	f.BoolVar(&opts.purge, "purge", false, "delete existing ledger rows first")
	f.BoolVar(&opts.dryRun, "dry-run", false, "generate and verify only, do not touch the database")
	f.StringVar(&opts.password, "password", "password123", "password shared by every seeded user")
	f.IntVar(&opts.bcryptCost, "bcrypt-cost", bcrypt.DefaultCost, "bcrypt cost for the shared password hash")
	f.IntVar(&opts.borrowers, "borrowers", def.Borrowers, "number of borrowers")
	f.IntVar(&opts.lenders, "lenders", def.Lenders, "number of lenders")
	f.IntVar(&opts.loans, "loans", def.LoanRequests, "number of loan requests")
	f.IntVar(&opts.funded, "funded", def.FundedLoans, "number of loans that receive fundings")
	f.IntVar(&opts.schedules, "schedules", def.Schedules, "number of FUNDED loans that get a repayment schedule")

	cmd.AddCommand(newVerifyCommand(e))
	return cmd
}

func runSeed(cmd *cobra.Command, e env, opts *seedOptions) error {
	out := cmd.OutOrStdout()

	hash, err := bcrypt.GenerateFromPassword([]byte(opts.password), opts.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	cfg := generator.DefaultConfig()
	cfg.Borrowers, cfg.Lenders = opts.borrowers, opts.lenders
	cfg.LoanRequests, cfg.FundedLoans, cfg.Schedules = opts.loans, opts.funded, opts.schedules
	cfg.PasswordHash = string(hash)
	cfg.Now = time.Now().UTC()

	ds, err := generator.New(cfg, rand.New(rand.NewSource(opts.seed))).Generate()
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}
	if err := generator.Verify(ds); err != nil {
		return fmt.Errorf("generated ledger breaks invariants: %w", err)
	}
	printSummary(out, ds)
	if opts.dryRun {
		return nil
	}

	gdb, err := e.open()
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if err := db.Migrate(gdb); err != nil {
		return err
	}
	if opts.purge {
		if err := db.Purge(gdb); err != nil {
			return err
		}
		fmt.Fprintln(out, "purged existing ledger")
	}
	if err := generator.NewWriter(mysql.NewGormUoW(gdb)).Write(cmd.Context(), ds); err != nil {
		return fmt.Errorf("write ledger: %w", err)
	}
	fmt.Fprintln(out, "ledger written")

	return printDemoTokens(out, e, ds)
}

func printSummary(w io.Writer, ds *generator.Dataset) {
	byStatus := map[loan.Status]int{}
	fundings, repayments := 0, 0
	for _, l := range ds.Loans {
		byStatus[l.Status]++
		fundings += len(l.Fundings)
		repayments += len(l.Repayments)
	}
	fmt.Fprintf(w, "users: %d borrowers, %d lenders\n", len(ds.Borrowers()), len(ds.Lenders()))
	fmt.Fprintf(w, "loans: %d (pending %d, funding %d, funded %d, repaid %d)\n", len(ds.Loans),
		byStatus[loan.StatusPending], byStatus[loan.StatusFunding], byStatus[loan.StatusFunded], byStatus[loan.StatusRepaid])
	fmt.Fprintf(w, "fundings: %d, repayments: %d\n", fundings, repayments)
}

func printDemoTokens(w io.Writer, e env, ds *generator.Dataset) error {
	if e.secret == "" {
		fmt.Fprintln(w, "JWT_SECRET not set, skipping demo tokens")
		return nil
	}
	signer := token.NewSigner(e.secret, e.tokenTTL)
	for _, group := range [][]user.User{ds.Borrowers(), ds.Lenders()} {
		if len(group) == 0 {
			continue
		}
		u := group[0]
		tok, err := signer.Issue(u.UserID, string(u.Role))
		if err != nil {
			return fmt.Errorf("issue demo token: %w", err)
		}
		fmt.Fprintf(w, "%s %s <%s>\n  Bearer %s\n", u.Role, u.Name, u.Email, tok)
	}
	return nil
}

func newVerifyCommand(e env) *cobra.Command {
	return &cobra.Command{
		Use:           "verify",
		Short:         "Check the persisted ledger against the ledger invariants",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			gdb, err := e.open()
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			ds, err := loadDataset(gdb.WithContext(cmd.Context()))
			if err != nil {
				return err
			}
			if err := generator.Verify(ds); err != nil {
				return fmt.Errorf("ledger breaks invariants: %w", err)
			}
			printSummary(cmd.OutOrStdout(), ds)
			fmt.Fprintln(cmd.OutOrStdout(), "ledger ok")
			return nil
		},
	}
}

func loadDataset(gdb *gorm.DB) (*generator.Dataset, error) {
	ds := &generator.Dataset{}
	if err := gdb.Order("id").Find(&ds.Users).Error; err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	err := gdb.Order("id").
		Preload("Fundings", func(q *gorm.DB) *gorm.DB { return q.Order("id") }).
		Preload("Repayments", func(q *gorm.DB) *gorm.DB { return q.Order("due_date") }).
		Find(&ds.Loans).Error
	if err != nil {
		return nil, fmt.Errorf("load loans: %w", err)
	}
	// sqlite hands decimals back as floats; the ledger only ever holds cents
	for i := range ds.Loans {
		l := &ds.Loans[i]
		l.Amount, l.AmountFunded = cents(l.Amount), cents(l.AmountFunded)
		for j := range l.Fundings {
			l.Fundings[j].Amount = cents(l.Fundings[j].Amount)
		}
		for j := range l.Repayments {
			l.Repayments[j].Amount = cents(l.Repayments[j].Amount)
		}
	}
	if len(ds.Users) == 0 {
		return nil, errors.New("ledger is empty")
	}
	return ds, nil
}

func cents(d decimal.Decimal) decimal.Decimal { return d.Round(2) }
