package google

import (
	"strconv"
	"strings"
	"time"

	"github.com/nan5895/church-budget-app/internal/core"
)

const (
	dateLayout      = "2006-01-02"
	timestampLayout = "2006-01-02 15:04:05"
)

func transactionHeader() []any {
	return []any{"ID", "Date", "Category", "Description", "Amount", "Payment Method", "Receipt URL", "OCR Amount", "Submitted By", "Timestamp"}
}

func budgetHeader() []any {
	return []any{"ID", "Category", "Monthly Budget", "Year", "Month", "Notes"}
}

// transactionRow renders a transaction as one worksheet row, columns A:J.
func transactionRow(tx core.Transaction) []any {
	return []any{
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
	}
}

// budgetRow renders a budget entry as one worksheet row, columns A:F.
// An unassigned month is written back as 0, exactly as read.
func budgetRow(e core.BudgetEntry) []any {
	return []any{
		e.ID,
		e.Category,
		e.MonthlyBudget.Won,
		e.Year,
		e.Month.Number(),
		e.Notes,
	}
}

// parseTransactionRow converts one worksheet row back into a
// transaction. Parsing is lenient: dirty numeric cells become zero and
// an unparseable date becomes the zero date, so one hand-edited row
// never hides the rest of the sheet. Rows written before IDs existed
// come back with an empty ID and stay read-only until backfilled.
func parseTransactionRow(cols []string) (core.Transaction, bool) {
	if rowEmpty(cols) {
		return core.Transaction{}, false
	}
	tx := core.Transaction{
		ID:            safeGet(cols, 0),
		Category:      safeGet(cols, 2),
		Description:   safeGet(cols, 3),
		Amount:        core.Money{Won: parseWonCell(safeGet(cols, 4))},
		PaymentMethod: core.PaymentMethod(safeGet(cols, 5)),
		ReceiptURL:    safeGet(cols, 6),
		OCRAmount:     safeGet(cols, 7),
		SubmittedBy:   safeGet(cols, 8),
	}
	if t, err := time.Parse(dateLayout, safeGet(cols, 1)); err == nil {
		tx.Date = core.Date{Time: t}
	}
	if t, err := time.Parse(timestampLayout, safeGet(cols, 9)); err == nil {
		tx.CreatedAt = t
	}
	return tx, true
}

// parseBudgetRow converts one worksheet row back into a budget entry.
// A month cell of 0 is the unassigned variant; out-of-range month
// values also land there so they surface in the migration banner
// instead of silently matching nothing.
func parseBudgetRow(cols []string) (core.BudgetEntry, bool) {
	if rowEmpty(cols) {
		return core.BudgetEntry{}, false
	}
	month := parseIntCell(safeGet(cols, 4))
	if month < 0 || month > 12 {
		month = 0
	}
	return core.BudgetEntry{
		ID:            safeGet(cols, 0),
		Category:      safeGet(cols, 1),
		MonthlyBudget: core.Money{Won: parseWonCell(safeGet(cols, 2))},
		Year:          parseIntCell(safeGet(cols, 3)),
		Month:         core.MonthFromNumber(month),
		Notes:         safeGet(cols, 5),
	}, true
}

// parseWonCell coerces an amount cell to whole won. A dirty cell is
// zero, never an error.
func parseWonCell(s string) int64 {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "₩")
	s = strings.TrimSuffix(s, "원")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(f + 0.5)
	}
	return 0
}

func parseIntCell(s string) int {
	s = strings.TrimSpace(s)
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return 0
}

func rowEmpty(cols []string) bool {
	for _, c := range cols {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
