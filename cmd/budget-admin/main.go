package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/nan5895/church-budget-app/internal/backend"
	"github.com/nan5895/church-budget-app/internal/cli"
	"github.com/nan5895/church-budget-app/internal/config"
	"github.com/nan5895/church-budget-app/internal/core"
	"github.com/nan5895/church-budget-app/internal/log"
	gsheet "github.com/nan5895/church-budget-app/internal/sheets/google"
)

func main() {
	cli.LoadEnvFile()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	command := os.Args[1]
	if command == "help" || command == "-h" || command == "--help" {
		usage()
		return
	}

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	var err error
	switch command {
	case "migrate-budgets":
		err = runMigrateBudgets(cfg, logger, os.Args[2:])
	case "backfill-ids":
		err = runBackfillIDs(cfg, os.Args[2:])
	case "queue-stats":
		err = runQueueStats(cfg, logger, os.Args[2:])
	case "requeue-failed":
		err = runRequeueFailed(cfg, logger, os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", command)
		usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Error("Command failed", "command", command, log.FieldError, err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `Usage: budget-admin <command> [flags]

Commands:
  migrate-budgets   assign a concrete month to budget rows imported without one
                    flags: -year YYYY  -month M (1-12, required)  -dry-run
  backfill-ids      write IDs into spreadsheet rows whose ID cell is empty
  queue-stats       show pending and errored counts for the local sync queue
  requeue-failed    put errored sync items back into the queue
  help              show this message

Commands read the same environment as budget-server (.env is honored).
queue-stats and requeue-failed operate on the local SQLite database;
backfill-ids talks to the spreadsheet directly; migrate-budgets goes
through the configured data backend.
`)
}

// runMigrateBudgets assigns a month to every unassigned budget row of the
// given year. Spreadsheet rows imported from the pre-monthly era carry no
// month and are excluded from totals until someone places them.
func runMigrateBudgets(cfg *config.Config, logger *log.Logger, args []string) error {
	fs := flag.NewFlagSet("migrate-budgets", flag.ExitOnError)
	year := fs.Int("year", time.Now().Year(), "budget year to migrate")
	month := fs.Int("month", 0, "target month (1-12)")
	dryRun := fs.Bool("dry-run", false, "list matching entries without changing them")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *month < 1 || *month > 12 {
		return fmt.Errorf("month must be between 1 and 12, got %d", *month)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	result, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return fmt.Errorf("initialize backend: %w", err)
	}
	defer func() {
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				logger.Warn("Backend cleanup failed", log.FieldError, err)
			}
		}
	}()

	entries, err := result.Backend.ListBudgets(ctx)
	if err != nil {
		return fmt.Errorf("list budgets: %w", err)
	}
	unassigned := core.UnassignedBudgets(entries, *year)
	if len(unassigned) == 0 {
		fmt.Printf("No unassigned budget entries for %d.\n", *year)
		return nil
	}

	target := core.AssignedMonth(*month)
	for _, entry := range unassigned {
		if *dryRun {
			fmt.Printf("would migrate %s  %-12s %s -> %s\n",
				entry.ID, entry.Category, core.FormatWon(entry.MonthlyBudget.Won), target)
			continue
		}
		entry.Month = target
		if err := entry.Validate(); err != nil {
			return fmt.Errorf("entry %s: %w", entry.ID, err)
		}
		if err := result.Backend.UpdateBudget(ctx, entry.ID, entry); err != nil {
			return fmt.Errorf("update budget %s: %w", entry.ID, err)
		}
		fmt.Printf("migrated %s  %-12s %s -> %s\n",
			entry.ID, entry.Category, core.FormatWon(entry.MonthlyBudget.Won), target)
	}

	if *dryRun {
		fmt.Printf("%d entries would move to %s.\n", len(unassigned), target)
	} else {
		fmt.Printf("%d entries moved to %s.\n", len(unassigned), target)
	}
	return nil
}

// runBackfillIDs repairs spreadsheet rows written before the app stamped
// IDs. Such rows are listed but cannot be edited or deleted until they
// get one.
func runBackfillIDs(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("backfill-ids", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if cfg.GoogleSpreadsheetID == "" {
		return fmt.Errorf("GOOGLE_SPREADSHEET_ID is required for backfill-ids")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	client, err := gsheet.NewFromEnv(ctx)
	if err != nil {
		return fmt.Errorf("initialize sheets client: %w", err)
	}
	n, err := client.BackfillIDs(ctx)
	if err != nil {
		return err
	}
	if n == 0 {
		fmt.Println("All rows already have IDs.")
		return nil
	}
	fmt.Printf("%d rows received new IDs.\n", n)
	return nil
}

func runQueueStats(cfg *config.Config, logger *log.Logger, args []string) error {
	fs := flag.NewFlagSet("queue-stats", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	stats, err := repo.SyncQueueStats(ctx)
	if err != nil {
		return fmt.Errorf("read sync queue: %w", err)
	}

	fmt.Printf("pending: %d\n", stats.Pending)
	fmt.Printf("errored: %d\n", stats.Errored)
	if !stats.OldestPending.IsZero() {
		fmt.Printf("oldest pending: %s (%s ago)\n",
			stats.OldestPending.Format(time.RFC3339),
			time.Since(stats.OldestPending).Round(time.Second))
	}
	return nil
}

func runRequeueFailed(cfg *config.Config, logger *log.Logger, args []string) error {
	fs := flag.NewFlagSet("requeue-failed", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	n, err := repo.RequeueFailedSyncs(ctx)
	if err != nil {
		return fmt.Errorf("requeue failed syncs: %w", err)
	}
	fmt.Printf("%d items returned to the sync queue.\n", n)
	return nil
}
