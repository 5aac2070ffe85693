package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/nan5895/church-budget-app/internal/core"
	"github.com/nan5895/church-budget-app/internal/sheets"
	"github.com/nan5895/church-budget-app/internal/storage"
)

func newTestService(t *testing.T) (*RecordService, *storage.SQLiteRepository) {
	t.Helper()

	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "budget.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	// No AMQP client: the service must still queue work for the poll ticker.
	return NewRecordService(repo, nil), repo
}

func validTransaction() core.Transaction {
	return core.Transaction{
		Date:          core.NewDate(2026, 3, 14),
		Category:      "음향장비",
		Description:   "마이크 케이블",
		Amount:        core.Money{Won: 27190},
		PaymentMethod: core.Card,
		SubmittedBy:   "김찬양",
	}
}

func pendingItems(t *testing.T, repo *storage.SQLiteRepository) []storage.SyncItem {
	t.Helper()

	items, err := repo.PendingSyncItems(context.Background(), 100)
	if err != nil {
		t.Fatalf("PendingSyncItems() error = %v", err)
	}
	return items
}

func TestCreateTransactionQueuesSync(t *testing.T) {
	service, repo := newTestService(t)
	ctx := context.Background()

	id, err := service.CreateTransaction(ctx, validTransaction())
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}
	if id == "" {
		t.Fatal("CreateTransaction() should assign an ID")
	}

	stored, err := repo.GetTransaction(ctx, id)
	if err != nil {
		t.Fatalf("GetTransaction() error = %v", err)
	}
	if stored.CreatedAt.IsZero() {
		t.Error("CreateTransaction() should stamp CreatedAt")
	}

	items := pendingItems(t, repo)
	if len(items) != 1 {
		t.Fatalf("pending sync items = %d, want 1", len(items))
	}
	if items[0].RecordType != storage.RecordTransaction {
		t.Errorf("RecordType = %q, want %q", items[0].RecordType, storage.RecordTransaction)
	}
	if items[0].RecordID != id {
		t.Errorf("RecordID = %q, want %q", items[0].RecordID, id)
	}
	if items[0].Action != storage.ActionAppend {
		t.Errorf("Action = %q, want %q", items[0].Action, storage.ActionAppend)
	}
}

func TestCreateTransactionRejectsInvalid(t *testing.T) {
	service, repo := newTestService(t)
	ctx := context.Background()

	tx := validTransaction()
	tx.Category = ""

	if _, err := service.CreateTransaction(ctx, tx); !errors.Is(err, core.ErrEmptyCategory) {
		t.Fatalf("CreateTransaction() error = %v, want ErrEmptyCategory", err)
	}

	if items := pendingItems(t, repo); len(items) != 0 {
		t.Errorf("rejected transaction should queue nothing, got %d items", len(items))
	}
}

func TestUpdateTransactionQueuesSync(t *testing.T) {
	service, repo := newTestService(t)
	ctx := context.Background()

	id, err := service.CreateTransaction(ctx, validTransaction())
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}

	upd := sheets.TransactionUpdate{
		Category:      "악기/장비",
		Description:   "기타 줄",
		PaymentMethod: core.Cash,
		SubmittedBy:   "박드럼",
	}
	if err := service.UpdateTransaction(ctx, id, upd); err != nil {
		t.Fatalf("UpdateTransaction() error = %v", err)
	}

	stored, err := repo.GetTransaction(ctx, id)
	if err != nil {
		t.Fatalf("GetTransaction() error = %v", err)
	}
	if stored.Description != "기타 줄" {
		t.Errorf("Description = %q, want 기타 줄", stored.Description)
	}
	if stored.Amount.Won != 27190 {
		t.Errorf("Amount.Won = %d, update must not touch the amount", stored.Amount.Won)
	}

	items := pendingItems(t, repo)
	if len(items) != 2 {
		t.Fatalf("pending sync items = %d, want 2", len(items))
	}
	if items[1].Action != storage.ActionUpdate {
		t.Errorf("second queued action = %q, want %q", items[1].Action, storage.ActionUpdate)
	}
}

func TestUpdateTransactionRejectsBadPayment(t *testing.T) {
	service, repo := newTestService(t)
	ctx := context.Background()

	id, err := service.CreateTransaction(ctx, validTransaction())
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}

	upd := sheets.TransactionUpdate{
		Category:      "음향장비",
		Description:   "마이크 케이블",
		PaymentMethod: core.PaymentMethod("포인트"),
	}
	if err := service.UpdateTransaction(ctx, id, upd); !errors.Is(err, core.ErrInvalidPayment) {
		t.Fatalf("UpdateTransaction() error = %v, want ErrInvalidPayment", err)
	}

	if items := pendingItems(t, repo); len(items) != 1 {
		t.Errorf("rejected update should queue nothing, got %d items", len(items))
	}
}

func TestDeleteTransactionQueuesSync(t *testing.T) {
	service, repo := newTestService(t)
	ctx := context.Background()

	id, err := service.CreateTransaction(ctx, validTransaction())
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}
	if err := service.DeleteTransaction(ctx, id); err != nil {
		t.Fatalf("DeleteTransaction() error = %v", err)
	}

	if _, err := repo.GetTransaction(ctx, id); err == nil {
		t.Error("GetTransaction() should fail after delete")
	}

	items := pendingItems(t, repo)
	if len(items) != 2 {
		t.Fatalf("pending sync items = %d, want 2", len(items))
	}
	if items[1].Action != storage.ActionDelete {
		t.Errorf("second queued action = %q, want %q", items[1].Action, storage.ActionDelete)
	}
}

func TestBudgetWritesQueueSyncInOrder(t *testing.T) {
	service, repo := newTestService(t)
	ctx := context.Background()

	entry := core.BudgetEntry{
		Category:      "악기/장비",
		MonthlyBudget: core.Money{Won: 300000},
		Year:          2026,
		Month:         core.AssignedMonth(3),
	}

	id, err := service.CreateBudget(ctx, entry)
	if err != nil {
		t.Fatalf("CreateBudget() error = %v", err)
	}

	entry.MonthlyBudget = core.Money{Won: 350000}
	if err := service.UpdateBudget(ctx, id, entry); err != nil {
		t.Fatalf("UpdateBudget() error = %v", err)
	}
	if err := service.DeleteBudget(ctx, id); err != nil {
		t.Fatalf("DeleteBudget() error = %v", err)
	}

	items := pendingItems(t, repo)
	if len(items) != 3 {
		t.Fatalf("pending sync items = %d, want 3", len(items))
	}
	wantActions := []string{storage.ActionAppend, storage.ActionUpdate, storage.ActionDelete}
	for i, want := range wantActions {
		if items[i].Action != want {
			t.Errorf("items[%d].Action = %q, want %q", i, items[i].Action, want)
		}
		if items[i].RecordType != storage.RecordBudget {
			t.Errorf("items[%d].RecordType = %q, want %q", i, items[i].RecordType, storage.RecordBudget)
		}
	}
}

func TestCreateBudgetRejectsInvalidYear(t *testing.T) {
	service, repo := newTestService(t)
	ctx := context.Background()

	entry := core.BudgetEntry{
		Category:      "악기/장비",
		MonthlyBudget: core.Money{Won: 300000},
		Year:          1999,
		Month:         core.AssignedMonth(3),
	}
	if _, err := service.CreateBudget(ctx, entry); !errors.Is(err, core.ErrInvalidYear) {
		t.Fatalf("CreateBudget() error = %v, want ErrInvalidYear", err)
	}

	if items := pendingItems(t, repo); len(items) != 0 {
		t.Errorf("rejected budget should queue nothing, got %d items", len(items))
	}
}

func TestRecordService_Close(t *testing.T) {
	t.Run("nil components", func(t *testing.T) {
		service := &RecordService{}

		if err := service.Close(); err != nil {
			t.Fatalf("Close should not return error with nil components: %v", err)
		}
	})
}
