package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/aurora-books/aurora-books/cmd/aurora/cli"
	"github.com/aurora-books/aurora-books/internal/app"
	"github.com/aurora-books/aurora-books/internal/ledger/accounts"
	"github.com/aurora-books/aurora-books/internal/ledger/purposes"
	"github.com/aurora-books/aurora-books/internal/ledger/shared"
	"github.com/aurora-books/aurora-books/internal/platform/db"
)

const usage = `aurora - ledger operations

Usage:
  aurora jobs trigger <name> [-tenant N] [-company N] [-period YYYY-MM]
  aurora jobs stats
  aurora jobs scheduled [-n N]
  aurora mappings seed -tenant N -company N
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)
	ctx := context.Background()

	var runErr error
	switch os.Args[1] {
	case "jobs":
		runErr = runJobs(ctx, cfg, os.Args[2:])
	case "mappings":
		runErr = runMappings(ctx, cfg, logger, os.Args[2:])
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if runErr != nil {
		logger.Error("command failed", slog.String("command", os.Args[1]), slog.Any("error", runErr))
		os.Exit(1)
	}
}

func runJobs(ctx context.Context, cfg *app.Config, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("jobs: subcommand required")
	}

	jobsCLI, err := cli.NewJobsCLI(cfg.RedisAddr)
	if err != nil {
		return err
	}
	defer func() { _ = jobsCLI.Close() }()

	switch args[0] {
	case "trigger":
		if len(args) < 2 {
			return fmt.Errorf("jobs trigger: job name required")
		}
		fs := flag.NewFlagSet("trigger", flag.ExitOnError)
		tenant := fs.Int64("tenant", 0, "tenant id")
		company := fs.Int64("company", 0, "company id")
		period := fs.String("period", "", "period YYYY-MM")
		if err := fs.Parse(args[2:]); err != nil {
			return err
		}
		info, err := jobsCLI.Trigger(ctx, args[1], cli.TriggerOptions{
			TenantID:  *tenant,
			CompanyID: *company,
			Period:    *period,
		})
		if err != nil {
			return err
		}
		fmt.Printf("enqueued %s id=%s queue=%s\n", info.Type, info.ID, info.Queue)
		return nil
	case "stats":
		stats, err := jobsCLI.InspectQueue(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("queue=%s pending=%d active=%d scheduled=%d retry=%d\n",
			stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry)
		return nil
	case "scheduled":
		fs := flag.NewFlagSet("scheduled", flag.ExitOnError)
		size := fs.Int("n", 10, "page size")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		tasks, err := jobsCLI.ListScheduled(ctx, *size)
		if err != nil {
			return err
		}
		for _, t := range tasks {
			fmt.Printf("%s id=%s next=%s\n", t.Type, t.ID, t.NextProcessAt.Format("2006-01-02 15:04:05"))
		}
		return nil
	default:
		return fmt.Errorf("jobs: unknown subcommand %s", args[0])
	}
}

// runMappings seeds the default chart of accounts and purpose mappings for
// a scope, so a fresh company can post without manual account setup.
func runMappings(ctx context.Context, cfg *app.Config, logger *slog.Logger, args []string) error {
	if len(args) < 1 || args[0] != "seed" {
		return fmt.Errorf("mappings: unknown subcommand")
	}
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	tenant := fs.Int64("tenant", 0, "tenant id")
	company := fs.Int64("company", 0, "company id")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	scope := shared.Scope{TenantID: *tenant, CompanyID: *company}
	if err := scope.Validate(); err != nil {
		return err
	}

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		return err
	}
	defer pool.Close()

	resolver := purposes.NewResolver(purposes.NewRepository(pool), accounts.NewRepository(pool), true)
	resolved, err := resolver.ResolveAll(ctx, scope, purposes.All())
	if err != nil {
		return err
	}
	for purpose, acc := range resolved {
		logger.Info("mapping ready",
			slog.String("purpose", string(purpose)),
			slog.String("code", acc.Code),
			slog.Int64("account_id", acc.ID))
	}
	return nil
}
