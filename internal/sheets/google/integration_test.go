//go:build integration

package google

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/nan5895/church-budget-app/internal/core"
	ports "github.com/nan5895/church-budget-app/internal/sheets"
)

// Integration tests require real Google Sheets credentials
// Run with: go test -tags=integration ./internal/sheets/google

func TestIntegration_TransactionLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	if os.Getenv("GOOGLE_SPREADSHEET_ID") == "" {
		t.Skip("GOOGLE_SPREADSHEET_ID not set, skipping integration test")
	}
	if os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON") == "" &&
		os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE") == "" &&
		os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") == "" {
		t.Skip("service account credentials not configured, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	client, err := NewFromEnv(ctx)
	if err != nil {
		t.Fatalf("NewFromEnv: %v", err)
	}
	if err := client.EnsureWorksheets(ctx); err != nil {
		t.Fatalf("EnsureWorksheets: %v", err)
	}

	tx := core.Transaction{
		Date:          core.NewDate(2025, 1, 2),
		Category:      "기타",
		Description:   "integration test row",
		Amount:        core.Money{Won: 1234},
		PaymentMethod: core.Card,
		SubmittedBy:   "integration",
	}
	id, err := client.AppendTransaction(ctx, tx)
	if err != nil {
		t.Fatalf("AppendTransaction: %v", err)
	}
	t.Cleanup(func() {
		_ = client.DeleteTransaction(context.Background(), id)
	})

	list, err := client.ListTransactions(ctx)
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	var got *core.Transaction
	for i := range list {
		if list[i].ID == id {
			got = &list[i]
			break
		}
	}
	if got == nil {
		t.Fatalf("appended row %s not found in list", id)
	}
	if got.Amount.Won != 1234 {
		t.Fatalf("amount round trip: got %d", got.Amount.Won)
	}

	upd := ports.TransactionUpdate{
		Category:      "식비/간식",
		Description:   "integration test row (edited)",
		PaymentMethod: core.Cash,
		SubmittedBy:   "integration",
	}
	if err := client.UpdateTransaction(ctx, id, upd); err != nil {
		t.Fatalf("UpdateTransaction: %v", err)
	}

	list, err = client.ListTransactions(ctx)
	if err != nil {
		t.Fatalf("ListTransactions after update: %v", err)
	}
	for _, cur := range list {
		if cur.ID != id {
			continue
		}
		if cur.Category != "식비/간식" || cur.PaymentMethod != core.Cash {
			t.Fatalf("update not applied: %+v", cur)
		}
		if cur.Amount.Won != 1234 {
			t.Fatalf("update touched the amount: %d", cur.Amount.Won)
		}
	}

	if err := client.DeleteTransaction(ctx, id); err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}
	if err := client.DeleteTransaction(ctx, id); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("second delete should be ErrNotFound, got %v", err)
	}
}
