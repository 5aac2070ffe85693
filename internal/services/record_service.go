package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nan5895/church-budget-app/internal/amqp"
	"github.com/nan5895/church-budget-app/internal/core"
	"github.com/nan5895/church-budget-app/internal/sheets"
	"github.com/nan5895/church-budget-app/internal/storage"
)

// RecordService orchestrates transaction and budget writes across SQLite
// and AMQP. Every write lands in SQLite first, then a sync queue entry is
// recorded and the worker is woken over AMQP. The HTTP request never waits
// on the spreadsheet.
type RecordService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
}

func NewRecordService(storage *storage.SQLiteRepository, amqpClient *amqp.Client) *RecordService {
	return &RecordService{
		storage:    storage,
		amqpClient: amqpClient,
	}
}

// CreateTransaction saves a transaction locally and queues it for sync.
// A fresh ID is assigned when the record carries none.
func (s *RecordService) CreateTransaction(ctx context.Context, tx core.Transaction) (string, error) {
	if err := tx.Validate(); err != nil {
		return "", err
	}
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}

	if err := s.storage.CreateTransaction(ctx, tx); err != nil {
		return "", fmt.Errorf("save transaction: %w", err)
	}

	s.queueSync(ctx, storage.RecordTransaction, tx.ID, storage.ActionAppend)
	return tx.ID, nil
}

// UpdateTransaction applies the editable fields to a local transaction and
// queues the change. Amount, date and receipt data are not editable.
func (s *RecordService) UpdateTransaction(ctx context.Context, id string, upd sheets.TransactionUpdate) error {
	if err := upd.PaymentMethod.Validate(); err != nil {
		return err
	}

	err := s.storage.UpdateTransaction(ctx, id, upd.Category, upd.Description, string(upd.PaymentMethod), upd.SubmittedBy)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}

	s.queueSync(ctx, storage.RecordTransaction, id, storage.ActionUpdate)
	return nil
}

// DeleteTransaction removes a local transaction and queues the deletion.
func (s *RecordService) DeleteTransaction(ctx context.Context, id string) error {
	if err := s.storage.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	s.queueSync(ctx, storage.RecordTransaction, id, storage.ActionDelete)
	return nil
}

// CreateBudget saves a budget entry locally and queues it for sync.
func (s *RecordService) CreateBudget(ctx context.Context, e core.BudgetEntry) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}

	if err := s.storage.CreateBudget(ctx, e); err != nil {
		return "", fmt.Errorf("save budget: %w", err)
	}

	s.queueSync(ctx, storage.RecordBudget, e.ID, storage.ActionAppend)
	return e.ID, nil
}

// UpdateBudget replaces the local budget row holding id and queues the change.
func (s *RecordService) UpdateBudget(ctx context.Context, id string, e core.BudgetEntry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	e.ID = id

	if err := s.storage.UpdateBudget(ctx, id, e); err != nil {
		return fmt.Errorf("update budget: %w", err)
	}

	s.queueSync(ctx, storage.RecordBudget, id, storage.ActionUpdate)
	return nil
}

// DeleteBudget removes a local budget entry and queues the deletion.
func (s *RecordService) DeleteBudget(ctx context.Context, id string) error {
	if err := s.storage.DeleteBudget(ctx, id); err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}

	s.queueSync(ctx, storage.RecordBudget, id, storage.ActionDelete)
	return nil
}

// queueSync records the pending change and wakes the worker. The record is
// already saved locally, so neither a queue nor a publish failure is
// surfaced to the caller.
func (s *RecordService) queueSync(ctx context.Context, recordType, recordID, action string) {
	if _, err := s.storage.EnqueueSync(ctx, recordType, recordID, action); err != nil {
		slog.ErrorContext(ctx, "Failed to queue sync",
			"record_type", recordType, "record_id", recordID, "action", action, "error", err)
		return
	}

	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping record event")
		return
	}

	if err := s.amqpClient.PublishRecordEvent(ctx, recordType, recordID, action); err != nil {
		// The poll ticker picks the entry up even when the wake-up is lost.
		slog.ErrorContext(ctx, "Failed to publish record event",
			"record_type", recordType, "record_id", recordID, "error", err)
	}
}

// Close closes both storage and AMQP connections
func (s *RecordService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close record service: %v", errs)
	}

	return nil
}
