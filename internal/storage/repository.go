package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/nan5895/church-budget-app/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is the local-first store: transactions and budgets
// land here immediately, and a sync queue records what still has to
// reach the spreadsheet.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateTransaction stores a record locally. The caller assigns the ID.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, tx core.Transaction) error {
	if err := r.queries.CreateTransaction(ctx, tx); err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"record_id", tx.ID,
		"category", tx.Category,
		"amount_won", tx.Amount.Won)

	return nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	txs, err := r.queries.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	tx, err := r.queries.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %s: %w", id, err)
	}
	return tx, nil
}

// UpdateTransaction changes the mutable fields only; Amount is never
// written by any edit path.
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, id, category, description, payment, submittedBy string) error {
	n, err := r.queries.UpdateTransaction(ctx, id, category, description, payment, submittedBy)
	if err != nil {
		return fmt.Errorf("update transaction %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("update transaction %s: %w", id, sql.ErrNoRows)
	}
	return nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id string) error {
	n, err := r.queries.DeleteTransaction(ctx, id)
	if err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete transaction %s: %w", id, sql.ErrNoRows)
	}
	return nil
}

func (r *SQLiteRepository) CreateBudget(ctx context.Context, e core.BudgetEntry) error {
	if err := r.queries.CreateBudget(ctx, e); err != nil {
		return fmt.Errorf("create budget: %w", err)
	}

	slog.InfoContext(ctx, "Budget entry saved to SQLite",
		"record_id", e.ID,
		"category", e.Category,
		"year", e.Year,
		"month", e.Month.Number())

	return nil
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context) ([]core.BudgetEntry, error) {
	entries, err := r.queries.ListBudgets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	return entries, nil
}

func (r *SQLiteRepository) GetBudget(ctx context.Context, id string) (core.BudgetEntry, error) {
	e, err := r.queries.GetBudget(ctx, id)
	if err != nil {
		return core.BudgetEntry{}, fmt.Errorf("get budget %s: %w", id, err)
	}
	return e, nil
}

func (r *SQLiteRepository) UpdateBudget(ctx context.Context, id string, e core.BudgetEntry) error {
	n, err := r.queries.UpdateBudget(ctx, id, e)
	if err != nil {
		return fmt.Errorf("update budget %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("update budget %s: %w", id, sql.ErrNoRows)
	}
	return nil
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, id string) error {
	n, err := r.queries.DeleteBudget(ctx, id)
	if err != nil {
		return fmt.Errorf("delete budget %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete budget %s: %w", id, sql.ErrNoRows)
	}
	return nil
}

// EnqueueSync records that a local change still has to reach the
// spreadsheet.
func (r *SQLiteRepository) EnqueueSync(ctx context.Context, recordType, recordID, action string) (int64, error) {
	id, err := r.queries.EnqueueSync(ctx, recordType, recordID, action)
	if err != nil {
		return 0, fmt.Errorf("enqueue sync: %w", err)
	}

	slog.InfoContext(ctx, "Sync queued",
		"queue_id", id,
		"record_type", recordType,
		"record_id", recordID,
		"action", action)

	return id, nil
}

func (r *SQLiteRepository) PendingSyncItems(ctx context.Context, limit int) ([]SyncItem, error) {
	items, err := r.queries.PendingSyncItems(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("pending sync items: %w", err)
	}
	return items, nil
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64) error {
	if err := r.queries.MarkSynced(ctx, id); err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64, message string) error {
	if err := r.queries.MarkSyncError(ctx, id, message); err != nil {
		return fmt.Errorf("mark sync error: %w", err)
	}
	slog.WarnContext(ctx, "Sync attempt failed", "queue_id", id, "error", message)
	return nil
}

func (r *SQLiteRepository) MarkSyncFailed(ctx context.Context, id int64, message string) error {
	if err := r.queries.MarkSyncFailed(ctx, id, message); err != nil {
		return fmt.Errorf("mark sync failed: %w", err)
	}
	slog.ErrorContext(ctx, "Sync entry parked after repeated failures", "queue_id", id, "error", message)
	return nil
}

func (r *SQLiteRepository) RequeueFailedSyncs(ctx context.Context) (int64, error) {
	n, err := r.queries.RequeueFailedSyncs(ctx)
	if err != nil {
		return 0, fmt.Errorf("requeue failed syncs: %w", err)
	}
	if n > 0 {
		slog.InfoContext(ctx, "Failed sync entries requeued", "count", n)
	}
	return n, nil
}

func (r *SQLiteRepository) SyncQueueStats(ctx context.Context) (SyncStats, error) {
	stats, err := r.queries.SyncQueueStats(ctx)
	if err != nil {
		return SyncStats{}, fmt.Errorf("sync queue stats: %w", err)
	}
	return stats, nil
}
