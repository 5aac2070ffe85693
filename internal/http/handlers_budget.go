package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/nan5895/church-budget-app/internal/core"
	"github.com/nan5895/church-budget-app/internal/log"
	"github.com/nan5895/church-budget-app/internal/sheets"
)

// budgetRow is the template-friendly shape of one budget table line.
type budgetRow struct {
	ID       string
	Category string
	Month    string
	Amount   string
	Notes    string
	Assigned bool
}

// handleBudgetList renders the budget table for one year. Rows sort
// by category, then month, with legacy unassigned rows last.
func (s *Server) handleBudgetList(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 7*time.Second)
	defer cancel()

	year := time.Now().Year()
	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil && y > 0 {
			year = y
		}
	}

	snap, err := s.loadSnapshot(ctx)
	if err != nil {
		InternalServer("예산을 불러오지 못했습니다").Write(w)
		return
	}

	entries := make([]core.BudgetEntry, 0, len(snap.Budgets))
	for _, e := range snap.Budgets {
		if e.Year == year {
			entries = append(entries, e)
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Category != entries[j].Category {
			return entries[i].Category < entries[j].Category
		}
		mi, mj := entries[i].Month.Number(), entries[j].Month.Number()
		if mi == 0 {
			mi = 13
		}
		if mj == 0 {
			mj = 13
		}
		return mi < mj
	})

	rows := make([]budgetRow, 0, len(entries))
	var total int64
	for _, e := range entries {
		total += e.MonthlyBudget.Won
		rows = append(rows, budgetRow{
			ID:       e.ID,
			Category: e.Category,
			Month:    e.Month.String(),
			Amount:   core.FormatWon(e.MonthlyBudget.Won),
			Notes:    e.Notes,
			Assigned: e.Month.Assigned,
		})
	}

	unassigned := make([]unassignedRow, 0)
	for _, e := range core.UnassignedBudgets(snap.Budgets, year) {
		unassigned = append(unassigned, unassignedRow{
			ID:       e.ID,
			Category: e.Category,
			Amount:   core.FormatWon(e.MonthlyBudget.Won),
			Notes:    e.Notes,
		})
	}

	months := make([]int, 0, 12)
	for m := 1; m <= 12; m++ {
		months = append(months, m)
	}

	data := map[string]interface{}{
		"Year":       year,
		"Rows":       rows,
		"Count":      len(rows),
		"Total":      core.FormatWon(total),
		"Unassigned": unassigned,
		"Months":     months,
		"Categories": core.DefaultCategories(),
	}

	if err := s.templates.ExecuteTemplate(w, "budget_list", data); err != nil {
		s.logger.ErrorContext(ctx, "Budget list template execution failed", log.FieldError, err.Error())
		http.Error(w, "예산을 불러오지 못했습니다", http.StatusInternalServerError)
	}
}

// handleCreateBudget saves one monthly budget row. New rows always
// carry a concrete month; the unassigned state exists only for legacy
// data.
func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if !ParseFormOrFail(w, r) {
		return
	}

	year := time.Now().Year()
	if v := strings.TrimSpace(r.FormValue("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			UnprocessableEntity("연도가 올바르지 않습니다").Write(w)
			return
		}
		year = y
	}

	month, err := strconv.Atoi(strings.TrimSpace(r.FormValue("month")))
	if err != nil || month < 1 || month > 12 {
		UnprocessableEntity("월이 올바르지 않습니다").Write(w)
		return
	}

	amount, err := core.ParseWon(r.FormValue("amount"))
	if err != nil {
		UnprocessableEntity("금액이 올바르지 않습니다").Write(w)
		return
	}

	entry := core.BudgetEntry{
		Category:      sanitizeInput(r.FormValue("category")),
		MonthlyBudget: core.Money{Won: amount},
		Year:          year,
		Month:         core.AssignedMonth(month),
		Notes:         sanitizeInput(r.FormValue("notes")),
	}
	if err := entry.Validate(); err != nil {
		UnprocessableEntity(validationMessage(err)).Write(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	id, err := s.store.AppendBudget(ctx, entry)
	if err != nil {
		s.logger.ErrorContext(ctx, "Budget append failed",
			log.FieldCategory, entry.Category, log.FieldError, err.Error())
		InternalServer("저장 중 오류가 발생했습니다").Write(w)
		return
	}

	s.logger.InfoContext(ctx, "Budget saved",
		log.FieldRecordID, id,
		log.FieldCategory, entry.Category,
		log.FieldYear, entry.Year,
		log.FieldMonth, month)
	s.invalidate()

	NewHTMXResponse().
		TriggerBudgetSaved(entry.Year).
		TriggerFormReset().
		TriggerSuccessNotification("예산이 저장되었습니다").
		BodyHTML("success", "저장 완료: "+entry.Category+" "+core.FormatWon(entry.MonthlyBudget.Won)).
		Write(w)
}

// handleUpdateBudget replaces one budget row.
func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if !ParseFormOrFail(w, r) {
		return
	}

	id := sanitizeInput(r.FormValue("id"))
	if id == "" {
		BadRequest("예산 ID가 필요합니다").Write(w)
		return
	}

	year, err := strconv.Atoi(strings.TrimSpace(r.FormValue("year")))
	if err != nil {
		UnprocessableEntity("연도가 올바르지 않습니다").Write(w)
		return
	}
	month, err := strconv.Atoi(strings.TrimSpace(r.FormValue("month")))
	if err != nil || month < 1 || month > 12 {
		UnprocessableEntity("월이 올바르지 않습니다").Write(w)
		return
	}
	amount, err := core.ParseWon(r.FormValue("amount"))
	if err != nil {
		UnprocessableEntity("금액이 올바르지 않습니다").Write(w)
		return
	}

	entry := core.BudgetEntry{
		ID:            id,
		Category:      sanitizeInput(r.FormValue("category")),
		MonthlyBudget: core.Money{Won: amount},
		Year:          year,
		Month:         core.AssignedMonth(month),
		Notes:         sanitizeInput(r.FormValue("notes")),
	}
	if err := entry.Validate(); err != nil {
		UnprocessableEntity(validationMessage(err)).Write(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := s.store.UpdateBudget(ctx, id, entry); err != nil {
		if errors.Is(err, sheets.ErrNotFound) {
			NotFound("예산 항목을 찾을 수 없습니다").Write(w)
			return
		}
		s.logger.ErrorContext(ctx, "Budget update failed",
			log.FieldRecordID, id, log.FieldError, err.Error())
		InternalServer("저장 중 오류가 발생했습니다").Write(w)
		return
	}

	s.invalidate()

	NewHTMXResponse().
		TriggerBudgetSaved(entry.Year).
		TriggerSuccessNotification("예산이 수정되었습니다").
		BodyHTML("success", "수정 완료").
		Write(w)
}

// handleDeleteBudget removes one budget row.
func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	if resp := RequireDeleteOrPOST(r); resp != nil {
		resp.Write(w)
		return
	}

	parser := NewRequestBodyParser(r)
	id := parser.Get("id")
	if id == "" {
		BadRequest("예산 ID가 필요합니다").Write(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := s.store.DeleteBudget(ctx, id); err != nil {
		if errors.Is(err, sheets.ErrNotFound) {
			NotFound("예산 항목을 찾을 수 없습니다").Write(w)
			return
		}
		s.logger.ErrorContext(ctx, "Budget delete failed",
			log.FieldRecordID, id, log.FieldError, err.Error())
		InternalServer("삭제 중 오류가 발생했습니다").Write(w)
		return
	}

	s.logger.InfoContext(ctx, "Budget deleted", log.FieldRecordID, id)
	s.invalidate()

	NewHTMXResponse().
		TriggerBudgetDeleted().
		TriggerSuccessNotification("예산이 삭제되었습니다").
		Write(w)
}

// handleMigrateBudget assigns a concrete month to a legacy budget row
// that predates per-month budgeting.
func (s *Server) handleMigrateBudget(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if !ParseFormOrFail(w, r) {
		return
	}

	id := sanitizeInput(r.FormValue("id"))
	if id == "" {
		BadRequest("예산 ID가 필요합니다").Write(w)
		return
	}
	month, err := strconv.Atoi(strings.TrimSpace(r.FormValue("month")))
	if err != nil || month < 1 || month > 12 {
		UnprocessableEntity("월이 올바르지 않습니다").Write(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	entries, err := s.store.ListBudgets(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Budget list for migration failed", log.FieldError, err.Error())
		InternalServer("예산을 불러오지 못했습니다").Write(w)
		return
	}

	var entry core.BudgetEntry
	found := false
	for _, e := range entries {
		if e.ID == id {
			entry = e
			found = true
			break
		}
	}
	if !found {
		NotFound("예산 항목을 찾을 수 없습니다").Write(w)
		return
	}

	entry.Month = core.AssignedMonth(month)
	if err := entry.Validate(); err != nil {
		UnprocessableEntity(validationMessage(err)).Write(w)
		return
	}

	if err := s.store.UpdateBudget(ctx, id, entry); err != nil {
		if errors.Is(err, sheets.ErrNotFound) {
			NotFound("예산 항목을 찾을 수 없습니다").Write(w)
			return
		}
		s.logger.ErrorContext(ctx, "Budget migration failed",
			log.FieldRecordID, id, log.FieldError, err.Error())
		InternalServer("저장 중 오류가 발생했습니다").Write(w)
		return
	}

	s.logger.InfoContext(ctx, "Budget migrated",
		log.FieldRecordID, id, log.FieldMonth, month)
	s.invalidate()

	NewHTMXResponse().
		TriggerBudgetSaved(entry.Year).
		TriggerSuccessNotification(fmt.Sprintf("예산이 %d월로 이동되었습니다", month)).
		Write(w)
}
