package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/nan5895/church-budget-app/internal/core"
	"github.com/nan5895/church-budget-app/internal/log"
)

// handleIndex renders the application shell.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	if s.templates == nil {
		s.logger.ErrorContext(r.Context(), "Templates not loaded")
		http.Error(w, "페이지를 불러올 수 없습니다", http.StatusInternalServerError)
		return
	}

	now := time.Now()
	data := map[string]interface{}{
		"Year":       now.Year(),
		"Month":      int(now.Month()),
		"Today":      now.Format("2006-01-02"),
		"Categories": core.DefaultCategories(),
		"Payments":   core.PaymentMethods(),
	}

	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		s.logger.ErrorContext(r.Context(), "Index template execution failed", log.FieldError, err.Error())
		http.Error(w, "페이지를 불러올 수 없습니다", http.StatusInternalServerError)
	}
}

// categoryRow is the template-friendly shape of one dashboard line.
type categoryRow struct {
	Category    string
	MonthBudget string
	Carryover   string
	Available   string
	MonthSpent  string
	Remaining   string
	Utilization string
	Width       int
	Over        bool
}

// unassignedRow surfaces legacy budget rows that still lack a month.
type unassignedRow struct {
	ID       string
	Category string
	Amount   string
	Notes    string
}

// handleDashboard renders the dashboard partial for one year+month.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 7*time.Second)
	defer cancel()

	year, month := parseYearMonth(r)
	ov, err := s.getOverview(ctx, year, month)
	if err != nil {
		s.logger.ErrorContext(ctx, "Dashboard overview failed",
			log.FieldYear, year, log.FieldMonth, month, log.FieldError, err.Error())
		InternalServer("대시보드를 불러오지 못했습니다").Write(w)
		return
	}

	rows := make([]categoryRow, 0, len(ov.ByCategory))
	for _, line := range ov.ByCategory {
		rows = append(rows, categoryRow{
			Category:    line.Category,
			MonthBudget: core.FormatWon(line.MonthBudget.Won),
			Carryover:   core.FormatWon(line.Carryover.Won),
			Available:   core.FormatWon(line.Available.Won),
			MonthSpent:  core.FormatWon(line.MonthSpent.Won),
			Remaining:   core.FormatWon(line.Remaining.Won),
			Utilization: fmt.Sprintf("%.1f%%", line.Utilization),
			Width:       progressWidth(line.MonthSpent.Won, line.Available.Won),
			Over:        line.Remaining.Won < 0,
		})
	}

	unassigned := make([]unassignedRow, 0, len(ov.Unassigned))
	for _, e := range ov.Unassigned {
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
		"Year":         ov.Year,
		"Month":        ov.Month,
		"Months":       months,
		"MonthBudget":  core.FormatWon(ov.MonthBudget.Won),
		"Carryover":    core.FormatWon(ov.Carryover.Won),
		"Available":    core.FormatWon(ov.Available.Won),
		"MonthSpent":   core.FormatWon(ov.MonthSpent.Won),
		"Remaining":    core.FormatWon(ov.Remaining.Won),
		"TotalSpent":   core.FormatWon(ov.TotalSpent.Won),
		"Transactions": ov.Transactions,
		"Utilization":  fmt.Sprintf("%.1f%%", ov.Utilization),
		"Width":        progressWidth(ov.MonthSpent.Won, ov.Available.Won),
		"Over":         ov.Remaining.Won < 0,
		"HasBudget":    len(ov.ByCategory) > 0,
		"Categories":   rows,
		"Unassigned":   unassigned,
	}

	if err := s.templates.ExecuteTemplate(w, "dashboard", data); err != nil {
		s.logger.ErrorContext(ctx, "Dashboard template execution failed", log.FieldError, err.Error())
		http.Error(w, "대시보드를 불러오지 못했습니다", http.StatusInternalServerError)
	}
}
