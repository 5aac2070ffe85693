package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"github.com/nan5895/church-budget-app/internal/core"
	ports "github.com/nan5895/church-budget-app/internal/sheets"
)

type Client struct {
	svc               *gsheet.Service
	spreadsheetID     string
	transactionsSheet string
	budgetSheet       string
}

// Ensure interface conformance
var (
	_ ports.TransactionStore = (*Client)(nil)
	_ ports.BudgetStore      = (*Client)(nil)
	_ ports.Store            = (*Client)(nil)
)

// NewFromEnv creates a Sheets client using environment variables and a
// service account credential.
// Required: GOOGLE_SPREADSHEET_ID
// Optional sheet names: GOOGLE_TRANSACTIONS_SHEET_NAME (default "Transactions"),
// GOOGLE_BUDGET_SHEET_NAME (default "Budget").
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	txSheet := strings.TrimSpace(os.Getenv("GOOGLE_TRANSACTIONS_SHEET_NAME"))
	if txSheet == "" {
		txSheet = "Transactions"
	}
	budgetSheet := strings.TrimSpace(os.Getenv("GOOGLE_BUDGET_SHEET_NAME"))
	if budgetSheet == "" {
		budgetSheet = "Budget"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:               svc,
		spreadsheetID:     spreadsheetID,
		transactionsSheet: txSheet,
		budgetSheet:       budgetSheet,
	}, nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	credentialsJSON, err := ServiceAccountJSON(ctx)
	if err != nil {
		return nil, err
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// ServiceAccountJSON loads the service account credential shared by
// every Google adapter (Sheets, Drive, Vision).
// Uses GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS.
func ServiceAccountJSON(ctx context.Context) ([]byte, error) {
	inline := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	file := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		slog.InfoContext(ctx, "Using inline service account credentials", "json_length", len(inline))
		return []byte(inline), nil
	case file != "":
		slog.InfoContext(ctx, "Reading service account credentials from file", "path", file)
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// EnsureWorksheets creates the two worksheets with their header rows
// when the spreadsheet does not have them yet. Safe to call on every
// startup.
func (c *Client) EnsureWorksheets(ctx context.Context) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get spreadsheet: %w", err)
	}
	existing := map[string]bool{}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil {
			existing[sh.Properties.Title] = true
		}
	}

	wants := []struct {
		title  string
		rows   int64
		cols   int64
		header []any
	}{
		{c.transactionsSheet, 1000, 10, transactionHeader()},
		{c.budgetSheet, 100, 6, budgetHeader()},
	}
	for _, w := range wants {
		if existing[w.title] {
			continue
		}
		req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{
				Title:          w.title,
				GridProperties: &gsheet.GridProperties{RowCount: w.rows, ColumnCount: w.cols},
			}},
		}}}
		if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
			return fmt.Errorf("create sheet %s: %w", w.title, err)
		}
		vr := &gsheet.ValueRange{Values: [][]any{w.header}}
		rng := fmt.Sprintf("%s!A1", w.title)
		if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
			ValueInputOption("RAW").Context(ctx).Do(); err != nil {
			return fmt.Errorf("write header for %s: %w", w.title, err)
		}
		slog.InfoContext(ctx, "Created worksheet", "title", w.title)
	}
	return nil
}

// AppendTransaction persists the record, assigning a fresh ID when it
// carries none, and returns the stored ID.
func (c *Client) AppendTransaction(ctx context.Context, tx core.Transaction) (string, error) {
	if err := tx.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now()
	}

	vr := &gsheet.ValueRange{Values: [][]any{transactionRow(tx)}}
	rng := fmt.Sprintf("%s!A:J", c.transactionsSheet)
	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", c.transactionsSheet, err)
	}
	return tx.ID, nil
}

// ListTransactions reads every data row of the transactions worksheet.
// Parsing is best-effort: dirty rows come back with zeroed numerics
// rather than hiding the rest of the sheet.
func (c *Client) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A2:J", c.transactionsSheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	var out []core.Transaction
	for _, row := range resp.Values {
		if tx, ok := parseTransactionRow(toStrings(row)); ok {
			out = append(out, tx)
		}
	}
	return out, nil
}

// UpdateTransaction rewrites the editable columns of the row holding
// id. The amount, receipt columns and timestamp are never part of the
// write.
func (c *Client) UpdateTransaction(ctx context.Context, id string, upd ports.TransactionUpdate) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	if err := upd.PaymentMethod.Validate(); err != nil {
		return err
	}
	row, err := c.locateRow(ctx, c.transactionsSheet, id)
	if err != nil {
		return err
	}

	req := &gsheet.BatchUpdateValuesRequest{
		ValueInputOption: "RAW",
		Data: []*gsheet.ValueRange{
			{
				Range:  fmt.Sprintf("%s!C%d:D%d", c.transactionsSheet, row, row),
				Values: [][]any{{upd.Category, upd.Description}},
			},
			{
				Range:  fmt.Sprintf("%s!F%d", c.transactionsSheet, row),
				Values: [][]any{{string(upd.PaymentMethod)}},
			},
			{
				Range:  fmt.Sprintf("%s!I%d", c.transactionsSheet, row),
				Values: [][]any{{upd.SubmittedBy}},
			},
		},
	}
	if _, err := c.svc.Spreadsheets.Values.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("update row %d in sheet %s: %w", row, c.transactionsSheet, err)
	}
	return nil
}

// DeleteTransaction removes the physical row holding id.
func (c *Client) DeleteTransaction(ctx context.Context, id string) error {
	return c.deleteRow(ctx, c.transactionsSheet, id)
}

// AppendBudget persists the entry, assigning a fresh ID when it carries
// none, and returns the stored ID.
func (c *Client) AppendBudget(ctx context.Context, e core.BudgetEntry) (string, error) {
	if err := e.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}

	vr := &gsheet.ValueRange{Values: [][]any{budgetRow(e)}}
	rng := fmt.Sprintf("%s!A:F", c.budgetSheet)
	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", c.budgetSheet, err)
	}
	return e.ID, nil
}

// ListBudgets reads every data row of the budget worksheet. A legacy
// month cell of 0 round-trips as the unassigned variant, never as a
// concrete month.
func (c *Client) ListBudgets(ctx context.Context) ([]core.BudgetEntry, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A2:F", c.budgetSheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	var out []core.BudgetEntry
	for _, row := range resp.Values {
		if e, ok := parseBudgetRow(toStrings(row)); ok {
			out = append(out, e)
		}
	}
	return out, nil
}

// UpdateBudget replaces the full row holding id with the given entry.
// The ID column stays untouched.
func (c *Client) UpdateBudget(ctx context.Context, id string, e core.BudgetEntry) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	row, err := c.locateRow(ctx, c.budgetSheet, id)
	if err != nil {
		return err
	}

	rng := fmt.Sprintf("%s!B%d:F%d", c.budgetSheet, row, row)
	vr := &gsheet.ValueRange{Values: [][]any{{e.Category, e.MonthlyBudget.Won, e.Year, e.Month.Number(), e.Notes}}}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return fmt.Errorf("update row %d in sheet %s: %w", row, c.budgetSheet, err)
	}
	return nil
}

// DeleteBudget removes the physical row holding id.
func (c *Client) DeleteBudget(ctx context.Context, id string) error {
	return c.deleteRow(ctx, c.budgetSheet, id)
}

// BackfillIDs assigns a fresh ID to every data row whose ID cell is
// empty, in both worksheets, and returns how many rows were filled.
// Rows keep their position; only column A is written. Until a row has
// an ID it is listed but not addressable for edits or deletes.
func (c *Client) BackfillIDs(ctx context.Context) (int, error) {
	if c.svc == nil {
		return 0, errors.New("sheets service not initialized")
	}
	total := 0
	for _, sheet := range []struct {
		name    string
		lastCol string
	}{
		{c.transactionsSheet, "J"},
		{c.budgetSheet, "F"},
	} {
		n, err := c.backfillSheet(ctx, sheet.name, sheet.lastCol)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func (c *Client) backfillSheet(ctx context.Context, sheetName, lastCol string) (int, error) {
	// Full-width read so a row with data only in later columns still counts.
	rng := fmt.Sprintf("%s!A2:%s", sheetName, lastCol)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", rng, err)
	}

	var data []*gsheet.ValueRange
	for i, row := range resp.Values {
		cols := toStrings(row)
		if rowEmpty(cols) || safeGet(cols, 0) != "" {
			continue
		}
		data = append(data, &gsheet.ValueRange{
			Range:  fmt.Sprintf("%s!A%d", sheetName, i+2),
			Values: [][]any{{uuid.NewString()}},
		})
	}
	if len(data) == 0 {
		return 0, nil
	}

	req := &gsheet.BatchUpdateValuesRequest{ValueInputOption: "RAW", Data: data}
	if _, err := c.svc.Spreadsheets.Values.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return 0, fmt.Errorf("backfill ids in sheet %s: %w", sheetName, err)
	}
	slog.InfoContext(ctx, "Backfilled row IDs", "sheet", sheetName, "rows", len(data))
	return len(data), nil
}

// locateRow re-reads the ID column and returns the 1-based sheet row
// currently holding the given ID. Called immediately before every write
// so edits address the record, not a remembered position.
func (c *Client) locateRow(ctx context.Context, sheetName, id string) (int, error) {
	if strings.TrimSpace(id) == "" {
		return 0, ports.ErrNotFound
	}
	rng := fmt.Sprintf("%s!A:A", sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", rng, err)
	}
	for i, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(row[0])) == id {
			return i + 1, nil
		}
	}
	return 0, ports.ErrNotFound
}

func (c *Client) deleteRow(ctx context.Context, sheetName, id string) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	row, err := c.locateRow(ctx, sheetName, id)
	if err != nil {
		return err
	}
	sheetID, err := c.sheetID(ctx, sheetName)
	if err != nil {
		return err
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{{
		DeleteDimension: &gsheet.DeleteDimensionRequest{Range: &gsheet.DimensionRange{
			SheetId:    sheetID,
			Dimension:  "ROWS",
			StartIndex: int64(row - 1),
			EndIndex:   int64(row),
		}},
	}}}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete row %d from sheet %s: %w", row, sheetName, err)
	}
	return nil
}

func (c *Client) sheetID(ctx context.Context, sheetName string) (int64, error) {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == sheetName {
			return sh.Properties.SheetId, nil
		}
	}
	return 0, fmt.Errorf("sheet %s not found", sheetName)
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
