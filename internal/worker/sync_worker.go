package worker

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nan5895/church-budget-app/internal/sheets"
	"github.com/nan5895/church-budget-app/internal/storage"
)

// Config holds configuration for the sync worker
type Config struct {
	// PollInterval is how often to check for pending items (default: 10s)
	PollInterval time.Duration

	// BatchSize is the max number of items to process per cycle (default: 10)
	BatchSize int

	// MaxRetries is the maximum retry attempts before parking an item (default: 3)
	MaxRetries int
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		PollInterval: 10 * time.Second,
		BatchSize:    10,
		MaxRetries:   3,
	}
}

// SyncWorker drains the SQLite sync queue into the spreadsheet. It polls
// on a ticker and can additionally be woken through Wake, so a record
// event arriving over AMQP shortens the wait without replacing the poll.
type SyncWorker struct {
	storage *storage.SQLiteRepository
	remote  sheets.Store
	config  Config

	wakeCh chan struct{}

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewSyncWorker creates a new sync worker
func NewSyncWorker(storage *storage.SQLiteRepository, remote sheets.Store, config Config) *SyncWorker {
	def := DefaultConfig()
	if config.PollInterval <= 0 {
		config.PollInterval = def.PollInterval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = def.BatchSize
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = def.MaxRetries
	}

	return &SyncWorker{
		storage: storage,
		remote:  remote,
		config:  config,
		wakeCh:  make(chan struct{}, 1),
	}
}

// Start begins the processing loop. Returns an error if already running.
func (w *SyncWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("sync worker is already running")
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	go w.runLoop(ctx)

	slog.InfoContext(ctx, "Sync worker started",
		"poll_interval", w.config.PollInterval,
		"batch_size", w.config.BatchSize)

	return nil
}

// Stop gracefully stops the worker and waits for completion.
func (w *SyncWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	// Signal stop
	close(w.stopCh)

	// Wait for completion or context cancellation
	select {
	case <-w.doneCh:
		slog.InfoContext(ctx, "Sync worker stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Sync worker stop timed out")
		return ctx.Err()
	}

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	return nil
}

// IsRunning returns whether the worker is currently running
func (w *SyncWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// Wake nudges the worker to drain the queue now instead of waiting for
// the next poll tick. Safe to call from any goroutine; a wake-up arriving
// while one is already queued is dropped.
func (w *SyncWorker) Wake() {
	select {
	case w.wakeCh <- struct{}{}:
	default:
	}
}

// runLoop is the main processing loop
func (w *SyncWorker) runLoop(ctx context.Context) {
	defer close(w.doneCh)

	pollTicker := time.NewTicker(w.config.PollInterval)
	defer pollTicker.Stop()

	// Process immediately on startup
	w.processBatch(ctx)

	for {
		select {
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		case <-pollTicker.C:
			w.processBatch(ctx)
		case <-w.wakeCh:
			w.processBatch(ctx)
		}
	}
}

// processBatch processes a single batch of pending items. Queue order is
// insertion order, so an append always reaches the spreadsheet before the
// updates that follow it.
func (w *SyncWorker) processBatch(ctx context.Context) {
	items, err := w.storage.PendingSyncItems(ctx, w.config.BatchSize)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to load pending sync items", "error", err)
		return
	}

	if len(items) == 0 {
		return
	}

	slog.DebugContext(ctx, "Processing sync batch", "count", len(items))

	for _, item := range items {
		// Check if we should stop
		select {
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		default:
		}

		var processErr error
		switch item.RecordType {
		case storage.RecordTransaction:
			processErr = w.syncTransaction(ctx, item)
		case storage.RecordBudget:
			processErr = w.syncBudget(ctx, item)
		default:
			processErr = fmt.Errorf("unknown record type: %s", item.RecordType)
		}

		if processErr != nil {
			w.handleFailure(ctx, item, processErr)
		} else {
			w.handleSuccess(ctx, item)
		}
	}
}

// syncTransaction applies one queued transaction change to the spreadsheet.
func (w *SyncWorker) syncTransaction(ctx context.Context, item storage.SyncItem) error {
	switch item.Action {
	case storage.ActionAppend:
		tx, err := w.storage.GetTransaction(ctx, item.RecordID)
		if errors.Is(err, sql.ErrNoRows) {
			// A later queue entry already deleted the record locally;
			// the append is superseded.
			slog.InfoContext(ctx, "Skipping append of deleted transaction",
				"record_id", item.RecordID)
			return nil
		}
		if err != nil {
			return fmt.Errorf("load transaction %s: %w", item.RecordID, err)
		}
		if _, err := w.remote.AppendTransaction(ctx, tx); err != nil {
			return fmt.Errorf("append to sheets: %w", err)
		}
		return nil

	case storage.ActionUpdate:
		tx, err := w.storage.GetTransaction(ctx, item.RecordID)
		if errors.Is(err, sql.ErrNoRows) {
			slog.InfoContext(ctx, "Skipping update of deleted transaction",
				"record_id", item.RecordID)
			return nil
		}
		if err != nil {
			return fmt.Errorf("load transaction %s: %w", item.RecordID, err)
		}
		upd := sheets.TransactionUpdate{
			Category:      tx.Category,
			Description:   tx.Description,
			PaymentMethod: tx.PaymentMethod,
			SubmittedBy:   tx.SubmittedBy,
		}
		err = w.remote.UpdateTransaction(ctx, item.RecordID, upd)
		if errors.Is(err, sheets.ErrNotFound) {
			// The row never reached the spreadsheet; append the full
			// record instead of updating a row that is not there.
			if _, err := w.remote.AppendTransaction(ctx, tx); err != nil {
				return fmt.Errorf("append missing row to sheets: %w", err)
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("update in sheets: %w", err)
		}
		return nil

	case storage.ActionDelete:
		err := w.remote.DeleteTransaction(ctx, item.RecordID)
		if errors.Is(err, sheets.ErrNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("delete from sheets: %w", err)
		}
		return nil
	}

	return fmt.Errorf("unknown action: %s", item.Action)
}

// syncBudget applies one queued budget change to the spreadsheet.
func (w *SyncWorker) syncBudget(ctx context.Context, item storage.SyncItem) error {
	switch item.Action {
	case storage.ActionAppend:
		entry, err := w.storage.GetBudget(ctx, item.RecordID)
		if errors.Is(err, sql.ErrNoRows) {
			slog.InfoContext(ctx, "Skipping append of deleted budget entry",
				"record_id", item.RecordID)
			return nil
		}
		if err != nil {
			return fmt.Errorf("load budget %s: %w", item.RecordID, err)
		}
		if _, err := w.remote.AppendBudget(ctx, entry); err != nil {
			return fmt.Errorf("append to sheets: %w", err)
		}
		return nil

	case storage.ActionUpdate:
		entry, err := w.storage.GetBudget(ctx, item.RecordID)
		if errors.Is(err, sql.ErrNoRows) {
			slog.InfoContext(ctx, "Skipping update of deleted budget entry",
				"record_id", item.RecordID)
			return nil
		}
		if err != nil {
			return fmt.Errorf("load budget %s: %w", item.RecordID, err)
		}
		err = w.remote.UpdateBudget(ctx, item.RecordID, entry)
		if errors.Is(err, sheets.ErrNotFound) {
			if _, err := w.remote.AppendBudget(ctx, entry); err != nil {
				return fmt.Errorf("append missing row to sheets: %w", err)
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("update in sheets: %w", err)
		}
		return nil

	case storage.ActionDelete:
		err := w.remote.DeleteBudget(ctx, item.RecordID)
		if errors.Is(err, sheets.ErrNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("delete from sheets: %w", err)
		}
		return nil
	}

	return fmt.Errorf("unknown action: %s", item.Action)
}

// handleSuccess removes a completed item from the queue
func (w *SyncWorker) handleSuccess(ctx context.Context, item storage.SyncItem) {
	if err := w.storage.MarkSynced(ctx, item.ID); err != nil {
		slog.ErrorContext(ctx, "Failed to mark item synced",
			"id", item.ID, "error", err)
		return
	}

	slog.InfoContext(ctx, "Synced record to Google Sheets",
		"record_type", item.RecordType,
		"record_id", item.RecordID,
		"action", item.Action)
}

// handleFailure handles a failed sync attempt with retry logic
func (w *SyncWorker) handleFailure(ctx context.Context, item storage.SyncItem, processErr error) {
	slog.WarnContext(ctx, "Sync processing failed",
		"id", item.ID,
		"record_id", item.RecordID,
		"action", item.Action,
		"attempt", item.Attempts+1,
		"error", processErr)

	if item.Attempts+1 >= w.config.MaxRetries {
		if err := w.storage.MarkSyncFailed(ctx, item.ID, processErr.Error()); err != nil {
			slog.ErrorContext(ctx, "Failed to park sync item",
				"id", item.ID, "error", err)
			return
		}

		slog.ErrorContext(ctx, "Sync item parked after max retries",
			"id", item.ID,
			"record_id", item.RecordID,
			"attempts", item.Attempts+1)
		return
	}

	if err := w.storage.MarkSyncError(ctx, item.ID, processErr.Error()); err != nil {
		slog.ErrorContext(ctx, "Failed to record sync attempt",
			"id", item.ID, "error", err)
	}
}

// Stats returns current queue statistics
func (w *SyncWorker) Stats(ctx context.Context) (storage.SyncStats, error) {
	return w.storage.SyncQueueStats(ctx)
}

// RequeueFailed resets all parked items for another round of attempts
func (w *SyncWorker) RequeueFailed(ctx context.Context) (int64, error) {
	return w.storage.RequeueFailedSyncs(ctx)
}
