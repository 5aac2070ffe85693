package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/nan5895/church-budget-app/internal/core"
)

const (
	dateLayout      = "2006-01-02"
	timestampLayout = "2006-01-02 15:04:05"
)

// Sync queue record types and actions.
const (
	RecordTransaction = "transaction"
	RecordBudget      = "budget"

	ActionAppend = "append"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// SyncItem is one entry in the pending-sync queue.
type SyncItem struct {
	ID         int64
	RecordType string
	RecordID   string
	Action     string
	Attempts   int
	LastError  string
	CreatedAt  time.Time
}

// SyncStats summarizes the sync queue for operators.
type SyncStats struct {
	Pending       int64
	Errored       int64
	OldestPending time.Time
}

// Queries holds the SQL statements for the local database.
type Queries struct {
	db *sql.DB
}

func New(db *sql.DB) *Queries {
	return &Queries{db: db}
}

const createTransaction = `
INSERT INTO transactions (id, date, category, description, amount_won, payment_method, receipt_url, ocr_amount, submitted_by, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateTransaction(ctx context.Context, tx core.Transaction) error {
	_, err := q.db.ExecContext(ctx, createTransaction,
		tx.ID,
		tx.Date.Format(dateLayout),
		tx.Category,
		tx.Description,
		tx.Amount.Won,
		string(tx.PaymentMethod),
		tx.ReceiptURL,
		tx.OCRAmount,
		tx.SubmittedBy,
		tx.CreatedAt.Format(timestampLayout),
	)
	return err
}

const listTransactions = `
SELECT id, date, category, description, amount_won, payment_method, receipt_url, ocr_amount, submitted_by, created_at
FROM transactions ORDER BY rowid`

func (q *Queries) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := q.db.QueryContext(ctx, listTransactions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

const getTransaction = `
SELECT id, date, category, description, amount_won, payment_method, receipt_url, ocr_amount, submitted_by, created_at
FROM transactions WHERE id = ?`

func (q *Queries) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	return scanTransaction(q.db.QueryRowContext(ctx, getTransaction, id))
}

const updateTransaction = `
UPDATE transactions SET category = ?, description = ?, payment_method = ?, submitted_by = ?
WHERE id = ?`

// UpdateTransaction changes the mutable fields only. Amount, date and
// receipt columns are never touched by this statement.
func (q *Queries) UpdateTransaction(ctx context.Context, id, category, description, payment, submittedBy string) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateTransaction, category, description, payment, submittedBy, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteTransaction = `DELETE FROM transactions WHERE id = ?`

func (q *Queries) DeleteTransaction(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteTransaction, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const createBudget = `
INSERT INTO budgets (id, category, monthly_budget, year, month, notes)
VALUES (?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateBudget(ctx context.Context, e core.BudgetEntry) error {
	_, err := q.db.ExecContext(ctx, createBudget,
		e.ID,
		e.Category,
		e.MonthlyBudget.Won,
		e.Year,
		e.Month.Number(),
		e.Notes,
	)
	return err
}

const listBudgets = `
SELECT id, category, monthly_budget, year, month, notes FROM budgets ORDER BY rowid`

func (q *Queries) ListBudgets(ctx context.Context) ([]core.BudgetEntry, error) {
	rows, err := q.db.QueryContext(ctx, listBudgets)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []core.BudgetEntry
	for rows.Next() {
		e, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

const getBudget = `
SELECT id, category, monthly_budget, year, month, notes FROM budgets WHERE id = ?`

func (q *Queries) GetBudget(ctx context.Context, id string) (core.BudgetEntry, error) {
	return scanBudget(q.db.QueryRowContext(ctx, getBudget, id))
}

const updateBudget = `
UPDATE budgets SET category = ?, monthly_budget = ?, year = ?, month = ?, notes = ?
WHERE id = ?`

func (q *Queries) UpdateBudget(ctx context.Context, id string, e core.BudgetEntry) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateBudget,
		e.Category, e.MonthlyBudget.Won, e.Year, e.Month.Number(), e.Notes, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteBudget = `DELETE FROM budgets WHERE id = ?`

func (q *Queries) DeleteBudget(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteBudget, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const enqueueSync = `
INSERT INTO sync_queue (record_type, record_id, action) VALUES (?, ?, ?)`

func (q *Queries) EnqueueSync(ctx context.Context, recordType, recordID, action string) (int64, error) {
	res, err := q.db.ExecContext(ctx, enqueueSync, recordType, recordID, action)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const pendingSyncItems = `
SELECT id, record_type, record_id, action, attempts, last_error, created_at
FROM sync_queue WHERE status = 'pending' ORDER BY id LIMIT ?`

func (q *Queries) PendingSyncItems(ctx context.Context, limit int) ([]SyncItem, error) {
	rows, err := q.db.QueryContext(ctx, pendingSyncItems, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []SyncItem
	for rows.Next() {
		var item SyncItem
		var created string
		if err := rows.Scan(&item.ID, &item.RecordType, &item.RecordID, &item.Action, &item.Attempts, &item.LastError, &created); err != nil {
			return nil, err
		}
		item.CreatedAt, _ = time.Parse(timestampLayout, created)
		items = append(items, item)
	}
	return items, rows.Err()
}

const markSynced = `DELETE FROM sync_queue WHERE id = ?`

// MarkSynced removes a completed entry; the queue only holds work that
// still needs doing.
func (q *Queries) MarkSynced(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, markSynced, id)
	return err
}

const markSyncError = `
UPDATE sync_queue SET attempts = attempts + 1, last_error = ?, updated_at = datetime('now')
WHERE id = ?`

// MarkSyncError records a failed attempt; the entry stays pending for
// the next pass.
func (q *Queries) MarkSyncError(ctx context.Context, id int64, message string) error {
	_, err := q.db.ExecContext(ctx, markSyncError, message, id)
	return err
}

const markSyncFailed = `
UPDATE sync_queue SET status = 'error', attempts = attempts + 1, last_error = ?, updated_at = datetime('now')
WHERE id = ?`

// MarkSyncFailed parks an entry after too many attempts; only an
// explicit requeue revives it.
func (q *Queries) MarkSyncFailed(ctx context.Context, id int64, message string) error {
	_, err := q.db.ExecContext(ctx, markSyncFailed, message, id)
	return err
}

const requeueFailedSyncs = `
UPDATE sync_queue SET status = 'pending', attempts = 0, last_error = '', updated_at = datetime('now')
WHERE status = 'error'`

func (q *Queries) RequeueFailedSyncs(ctx context.Context) (int64, error) {
	res, err := q.db.ExecContext(ctx, requeueFailedSyncs)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const syncQueueCounts = `
SELECT status, COUNT(*) FROM sync_queue GROUP BY status`

const oldestPendingSync = `
SELECT MIN(created_at) FROM sync_queue WHERE status = 'pending'`

func (q *Queries) SyncQueueStats(ctx context.Context) (SyncStats, error) {
	var stats SyncStats

	rows, err := q.db.QueryContext(ctx, syncQueueCounts)
	if err != nil {
		return stats, err
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return stats, err
		}
		switch status {
		case "pending":
			stats.Pending = count
		case "error":
			stats.Errored = count
		}
	}
	if err := rows.Err(); err != nil {
		return stats, err
	}

	var oldest sql.NullString
	if err := q.db.QueryRowContext(ctx, oldestPendingSync).Scan(&oldest); err != nil {
		return stats, err
	}
	if oldest.Valid {
		stats.OldestPending, _ = time.Parse(timestampLayout, oldest.String)
	}

	return stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var tx core.Transaction
	var date, payment, created string
	var won int64
	if err := row.Scan(&tx.ID, &date, &tx.Category, &tx.Description, &won, &payment, &tx.ReceiptURL, &tx.OCRAmount, &tx.SubmittedBy, &created); err != nil {
		return core.Transaction{}, err
	}
	tx.Amount = core.Money{Won: won}
	tx.PaymentMethod = core.PaymentMethod(payment)
	if t, err := time.Parse(dateLayout, date); err == nil {
		tx.Date = core.Date{Time: t}
	}
	if t, err := time.Parse(timestampLayout, created); err == nil {
		tx.CreatedAt = t
	}
	return tx, nil
}

func scanBudget(row rowScanner) (core.BudgetEntry, error) {
	var e core.BudgetEntry
	var won int64
	var month int
	if err := row.Scan(&e.ID, &e.Category, &won, &e.Year, &month, &e.Notes); err != nil {
		return core.BudgetEntry{}, err
	}
	e.MonthlyBudget = core.Money{Won: won}
	if month < 0 || month > 12 {
		month = 0
	}
	e.Month = core.MonthFromNumber(month)
	return e, nil
}
