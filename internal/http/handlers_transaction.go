package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/nan5895/church-budget-app/internal/core"
	"github.com/nan5895/church-budget-app/internal/log"
	"github.com/nan5895/church-budget-app/internal/sheets"
)

const maxUploadBytes = 10 << 20

// transactionRow is the template-friendly shape of one list entry.
type transactionRow struct {
	ID          string
	Date        string
	Category    string
	Description string
	Amount      string
	Payment     string
	ReceiptURL  string
	SubmittedBy string
}

// handleCreateTransaction saves one expense. The form may arrive as
// multipart (with a receipt file) or as plain urlencoded data.
func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		if !errors.Is(err, http.ErrNotMultipart) {
			BadRequest("요청 형식이 올바르지 않습니다").Write(w)
			return
		}
		if err := r.ParseForm(); err != nil {
			BadRequest("요청 형식이 올바르지 않습니다").Write(w)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	date := core.Date{Time: time.Now()}
	if v := strings.TrimSpace(r.FormValue("date")); v != "" {
		parsed, err := parseDate(v)
		if err != nil {
			UnprocessableEntity("날짜가 올바르지 않습니다").Write(w)
			return
		}
		date = parsed
	}

	amount, err := core.ParseWon(r.FormValue("amount"))
	if err != nil {
		UnprocessableEntity("금액이 올바르지 않습니다").Write(w)
		return
	}

	tx := core.Transaction{
		Date:          date,
		Category:      sanitizeInput(r.FormValue("category")),
		Description:   sanitizeInput(r.FormValue("description")),
		Amount:        core.Money{Won: amount},
		PaymentMethod: core.PaymentMethod(sanitizeInput(r.FormValue("payment_method"))),
		OCRAmount:     r.FormValue("ocr_amount"),
		SubmittedBy:   sanitizeInput(r.FormValue("submitted_by")),
	}
	tx.ReceiptURL = s.uploadReceipt(ctx, r)

	if err := tx.Validate(); err != nil {
		UnprocessableEntity(validationMessage(err)).Write(w)
		return
	}

	id, err := s.store.AppendTransaction(ctx, tx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Transaction append failed",
			log.FieldCategory, tx.Category, log.FieldError, err.Error())
		InternalServer("저장 중 오류가 발생했습니다").Write(w)
		return
	}

	atomic.AddInt64(&s.metrics.transactionsCreated, 1)
	s.logger.InfoContext(ctx, "Transaction created",
		log.FieldRecordID, id,
		log.FieldCategory, tx.Category,
		log.FieldAmountWon, tx.Amount.Won,
		log.FieldPaymentMethod, string(tx.PaymentMethod))
	s.invalidate()

	NewHTMXResponse().
		TriggerTransactionCreated(tx.Date.Year(), int(tx.Date.Month())).
		TriggerDashboardRefresh(tx.Date.Year(), int(tx.Date.Month())).
		TriggerFormReset().
		TriggerSuccessNotification("지출이 저장되었습니다").
		BodyHTML("success", "저장 완료: "+tx.Description+" "+core.FormatWon(tx.Amount.Won)).
		Write(w)
}

// uploadReceipt stores the attached receipt and returns its URL.
// A missing file, missing uploader or failed upload all return the
// empty string; the receipt must never block saving the expense.
func (s *Server) uploadReceipt(ctx context.Context, r *http.Request) string {
	if s.uploader == nil {
		return ""
	}

	file, header, err := r.FormFile("receipt")
	if err != nil {
		if !errors.Is(err, http.ErrMissingFile) {
			s.logger.WarnContext(ctx, "Receipt form file read failed", log.FieldError, err.Error())
		}
		return ""
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.logger.WarnContext(ctx, "Receipt read failed", log.FieldError, err.Error())
		return ""
	}

	filename := time.Now().Format("20060102150405") + "_" + header.Filename
	url, err := s.uploader.Upload(ctx, data, filename, header.Header.Get("Content-Type"))
	if err != nil {
		s.logger.WarnContext(ctx, "Receipt upload failed",
			log.FieldFilename, filename, log.FieldError, err.Error())
		return ""
	}
	return url
}

// handleTransactionList renders the filterable transaction table.
// Filters: category (exact), q (substring over description and
// submitter), from/to (inclusive date bounds). Invalid filter values
// are ignored rather than rejected.
func (s *Server) handleTransactionList(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 7*time.Second)
	defer cancel()

	snap, err := s.loadSnapshot(ctx)
	if err != nil {
		InternalServer("거래 내역을 불러오지 못했습니다").Write(w)
		return
	}

	query := r.URL.Query()
	category := strings.TrimSpace(query.Get("category"))
	search := strings.ToLower(strings.TrimSpace(query.Get("q")))

	var from, to time.Time
	var hasFrom, hasTo bool
	if v := strings.TrimSpace(query.Get("from")); v != "" {
		if d, err := time.Parse("2006-01-02", v); err == nil {
			from, hasFrom = d, true
		}
	}
	if v := strings.TrimSpace(query.Get("to")); v != "" {
		if d, err := time.Parse("2006-01-02", v); err == nil {
			to, hasTo = d, true
		}
	}

	filtered := make([]core.Transaction, 0, len(snap.Transactions))
	for _, tx := range snap.Transactions {
		if category != "" && tx.Category != category {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(tx.Description), search) &&
			!strings.Contains(strings.ToLower(tx.SubmittedBy), search) {
			continue
		}
		if hasFrom && tx.Date.Before(from) {
			continue
		}
		if hasTo && tx.Date.After(to) {
			continue
		}
		filtered = append(filtered, tx)
	}

	sort.Slice(filtered, func(i, j int) bool {
		if !filtered[i].Date.Equal(filtered[j].Date.Time) {
			return filtered[i].Date.After(filtered[j].Date.Time)
		}
		return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
	})

	rows := make([]transactionRow, 0, len(filtered))
	var sum int64
	for _, tx := range filtered {
		sum += tx.Amount.Won
		rows = append(rows, transactionRow{
			ID:          tx.ID,
			Date:        tx.Date.Format("2006-01-02"),
			Category:    tx.Category,
			Description: tx.Description,
			Amount:      core.FormatWon(tx.Amount.Won),
			Payment:     string(tx.PaymentMethod),
			ReceiptURL:  tx.ReceiptURL,
			SubmittedBy: tx.SubmittedBy,
		})
	}

	data := map[string]interface{}{
		"Rows":       rows,
		"Count":      len(rows),
		"Total":      core.FormatWon(sum),
		"Category":   category,
		"Query":      strings.TrimSpace(query.Get("q")),
		"From":       strings.TrimSpace(query.Get("from")),
		"To":         strings.TrimSpace(query.Get("to")),
		"Categories": core.DefaultCategories(),
	}

	if err := s.templates.ExecuteTemplate(w, "transaction_list", data); err != nil {
		s.logger.ErrorContext(ctx, "Transaction list template execution failed", log.FieldError, err.Error())
		http.Error(w, "거래 내역을 불러오지 못했습니다", http.StatusInternalServerError)
	}
}

// handleUpdateTransaction edits the mutable fields of one transaction.
// Amount, date, receipt and timestamps stay as recorded; corrections
// to those mean delete and re-enter.
func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if !ParseFormOrFail(w, r) {
		return
	}

	id := sanitizeInput(r.FormValue("id"))
	if id == "" {
		BadRequest("거래 ID가 필요합니다").Write(w)
		return
	}

	upd := sheets.TransactionUpdate{
		Category:      sanitizeInput(r.FormValue("category")),
		Description:   sanitizeInput(r.FormValue("description")),
		PaymentMethod: core.PaymentMethod(sanitizeInput(r.FormValue("payment_method"))),
		SubmittedBy:   sanitizeInput(r.FormValue("submitted_by")),
	}
	if upd.Category == "" {
		UnprocessableEntity("카테고리를 선택해 주세요").Write(w)
		return
	}
	if upd.Description == "" {
		UnprocessableEntity("내용을 입력해 주세요").Write(w)
		return
	}
	if err := upd.PaymentMethod.Validate(); err != nil {
		UnprocessableEntity("결제수단이 올바르지 않습니다").Write(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := s.store.UpdateTransaction(ctx, id, upd); err != nil {
		if errors.Is(err, sheets.ErrNotFound) {
			NotFound("거래를 찾을 수 없습니다").Write(w)
			return
		}
		s.logger.ErrorContext(ctx, "Transaction update failed",
			log.FieldRecordID, id, log.FieldError, err.Error())
		InternalServer("저장 중 오류가 발생했습니다").Write(w)
		return
	}

	s.invalidate()

	NewHTMXResponse().
		TriggerTransactionUpdated().
		TriggerSuccessNotification("거래가 수정되었습니다").
		BodyHTML("success", "수정 완료").
		Write(w)
}

// handleDeleteTransaction removes one transaction. HTMX sends the id
// either as a JSON body or as form data.
func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if resp := RequireDeleteOrPOST(r); resp != nil {
		resp.Write(w)
		return
	}

	parser := NewRequestBodyParser(r)
	id := parser.Get("id")
	if id == "" {
		BadRequest("거래 ID가 필요합니다").Write(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		if errors.Is(err, sheets.ErrNotFound) {
			NotFound("거래를 찾을 수 없습니다").Write(w)
			return
		}
		s.logger.ErrorContext(ctx, "Transaction delete failed",
			log.FieldRecordID, id, log.FieldError, err.Error())
		InternalServer("삭제 중 오류가 발생했습니다").Write(w)
		return
	}

	s.logger.InfoContext(ctx, "Transaction deleted", log.FieldRecordID, id)
	s.invalidate()

	NewHTMXResponse().
		TriggerTransactionDeleted().
		TriggerSuccessNotification("거래가 삭제되었습니다").
		Write(w)
}
