package http

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/nan5895/church-budget-app/internal/log"
	"github.com/nan5895/church-budget-app/internal/report"
)

// handleExcelReport builds the Excel workbook from a fresh snapshot
// and streams it as a download. The ASCII fallback filename covers
// clients that ignore the RFC 5987 encoded one.
func (s *Server) handleExcelReport(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	snap, err := s.loadSnapshot(ctx)
	if err != nil {
		http.Error(w, "리포트를 생성하지 못했습니다", http.StatusInternalServerError)
		return
	}

	now := time.Now()
	rep := report.Build(snap.Transactions, snap.Budgets, now)
	data, err := report.Render(rep)
	if err != nil {
		s.logger.ErrorContext(ctx, "Report render failed", log.FieldError, err.Error())
		http.Error(w, "리포트를 생성하지 못했습니다", http.StatusInternalServerError)
		return
	}

	filename := report.Filename(now)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition",
		`attachment; filename="report.xlsx"; filename*=UTF-8''`+url.PathEscape(filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)

	s.logger.InfoContext(ctx, "Report generated",
		log.FieldFilename, filename,
		"transactions", len(snap.Transactions),
		"budgets", len(snap.Budgets),
		"bytes", len(data))
}
