package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nan5895/church-budget-app/internal/core"
	ports "github.com/nan5895/church-budget-app/internal/sheets"
)

// Store keeps both worksheets in memory. It backs tests and
// dependency-free development runs; semantics mirror the spreadsheet
// adapter, including ID addressing and the legacy empty-ID rule.
type Store struct {
	mu      sync.Mutex
	txs     []core.Transaction
	budgets []core.BudgetEntry
}

var (
	_ ports.TransactionStore = (*Store)(nil)
	_ ports.BudgetStore      = (*Store)(nil)
	_ ports.Store            = (*Store)(nil)
)

func New() *Store {
	return &Store{}
}

// AppendTransaction stores the record, assigning a fresh ID when it
// carries none, and returns the stored ID.
func (s *Store) AppendTransaction(_ context.Context, tx core.Transaction) (string, error) {
	if err := tx.Validate(); err != nil {
		return "", err
	}
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txs = append(s.txs, tx)
	return tx.ID, nil
}

func (s *Store) ListTransactions(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.txs...), nil
}

// UpdateTransaction rewrites the editable fields of the record holding
// id. The amount is deliberately left alone.
func (s *Store) UpdateTransaction(_ context.Context, id string, upd ports.TransactionUpdate) error {
	if id == "" {
		return ports.ErrNotFound
	}
	if err := upd.PaymentMethod.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.txs {
		if s.txs[i].ID != id {
			continue
		}
		s.txs[i].Category = upd.Category
		s.txs[i].Description = upd.Description
		s.txs[i].PaymentMethod = upd.PaymentMethod
		s.txs[i].SubmittedBy = upd.SubmittedBy
		return nil
	}
	return ports.ErrNotFound
}

func (s *Store) DeleteTransaction(_ context.Context, id string) error {
	if id == "" {
		return ports.ErrNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.txs {
		if s.txs[i].ID == id {
			s.txs = append(s.txs[:i], s.txs[i+1:]...)
			return nil
		}
	}
	return ports.ErrNotFound
}

// AppendBudget stores the entry, assigning a fresh ID when it carries
// none, and returns the stored ID.
func (s *Store) AppendBudget(_ context.Context, e core.BudgetEntry) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.budgets = append(s.budgets, e)
	return e.ID, nil
}

func (s *Store) ListBudgets(_ context.Context) ([]core.BudgetEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.BudgetEntry(nil), s.budgets...), nil
}

// UpdateBudget replaces the full entry holding id, keeping the ID.
func (s *Store) UpdateBudget(_ context.Context, id string, e core.BudgetEntry) error {
	if id == "" {
		return ports.ErrNotFound
	}
	if err := e.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.budgets {
		if s.budgets[i].ID != id {
			continue
		}
		e.ID = id
		s.budgets[i] = e
		return nil
	}
	return ports.ErrNotFound
}

func (s *Store) DeleteBudget(_ context.Context, id string) error {
	if id == "" {
		return ports.ErrNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.budgets {
		if s.budgets[i].ID == id {
			s.budgets = append(s.budgets[:i], s.budgets[i+1:]...)
			return nil
		}
	}
	return ports.ErrNotFound
}
