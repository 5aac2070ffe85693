package sheets

import (
	"context"
	"errors"

	"github.com/nan5895/church-budget-app/internal/core"
)

// ErrNotFound is returned by ID-addressed operations when no row
// currently holds the given ID.
var ErrNotFound = errors.New("record not found")

// TransactionUpdate carries the editable fields of a transaction.
// Amount, receipt data and the creation timestamp have no place here:
// no edit path may touch them.
type TransactionUpdate struct {
	Category      string
	Description   string
	PaymentMethod core.PaymentMethod
	SubmittedBy   string
}

// Ports for outbound adapters. Stores are ID-addressed: adapters
// re-locate the physical row by ID immediately before every write, so
// a remembered position can never hit the wrong record.
type (
	TransactionStore interface {
		// AppendTransaction persists the record, assigning a fresh ID when
		// it carries none, and returns the stored ID.
		AppendTransaction(ctx context.Context, tx core.Transaction) (id string, err error)
		ListTransactions(ctx context.Context) ([]core.Transaction, error)
		UpdateTransaction(ctx context.Context, id string, upd TransactionUpdate) error
		DeleteTransaction(ctx context.Context, id string) error
	}

	BudgetStore interface {
		AppendBudget(ctx context.Context, e core.BudgetEntry) (id string, err error)
		ListBudgets(ctx context.Context) ([]core.BudgetEntry, error)
		// UpdateBudget replaces the full row holding id with the given entry.
		UpdateBudget(ctx context.Context, id string, e core.BudgetEntry) error
		DeleteBudget(ctx context.Context, id string) error
	}

	// Store combines both worksheets of the spreadsheet.
	Store interface {
		TransactionStore
		BudgetStore
	}
)
