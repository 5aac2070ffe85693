package adapters

import (
	"context"
	"database/sql"
	"errors"

	"github.com/nan5895/church-budget-app/internal/core"
	"github.com/nan5895/church-budget-app/internal/services"
	"github.com/nan5895/church-budget-app/internal/sheets"
	"github.com/nan5895/church-budget-app/internal/storage"
)

// SQLiteAdapter adapts SQLiteRepository and RecordService to the sheets.Store
// ports. HTTP handlers work unchanged while reads come straight from SQLite
// and writes go through the local-first sync pipeline.
type SQLiteAdapter struct {
	storage *storage.SQLiteRepository
	service *services.RecordService
}

var _ sheets.Store = (*SQLiteAdapter)(nil)

func NewSQLiteAdapter(storage *storage.SQLiteRepository, service *services.RecordService) *SQLiteAdapter {
	return &SQLiteAdapter{
		storage: storage,
		service: service,
	}
}

// AppendTransaction implements sheets.TransactionStore
func (a *SQLiteAdapter) AppendTransaction(ctx context.Context, tx core.Transaction) (string, error) {
	return a.service.CreateTransaction(ctx, tx)
}

// ListTransactions implements sheets.TransactionStore
func (a *SQLiteAdapter) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	return a.storage.ListTransactions(ctx)
}

// UpdateTransaction implements sheets.TransactionStore
func (a *SQLiteAdapter) UpdateTransaction(ctx context.Context, id string, upd sheets.TransactionUpdate) error {
	return mapNotFound(a.service.UpdateTransaction(ctx, id, upd))
}

// DeleteTransaction implements sheets.TransactionStore
func (a *SQLiteAdapter) DeleteTransaction(ctx context.Context, id string) error {
	return mapNotFound(a.service.DeleteTransaction(ctx, id))
}

// AppendBudget implements sheets.BudgetStore
func (a *SQLiteAdapter) AppendBudget(ctx context.Context, e core.BudgetEntry) (string, error) {
	return a.service.CreateBudget(ctx, e)
}

// ListBudgets implements sheets.BudgetStore
func (a *SQLiteAdapter) ListBudgets(ctx context.Context) ([]core.BudgetEntry, error) {
	return a.storage.ListBudgets(ctx)
}

// UpdateBudget implements sheets.BudgetStore
func (a *SQLiteAdapter) UpdateBudget(ctx context.Context, id string, e core.BudgetEntry) error {
	return mapNotFound(a.service.UpdateBudget(ctx, id, e))
}

// DeleteBudget implements sheets.BudgetStore
func (a *SQLiteAdapter) DeleteBudget(ctx context.Context, id string) error {
	return mapNotFound(a.service.DeleteBudget(ctx, id))
}

// mapNotFound translates the SQL missing-row error onto the port's
// sentinel so callers never depend on a database error type.
func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return sheets.ErrNotFound
	}
	return err
}
