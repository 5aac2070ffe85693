package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/nan5895/church-budget-app/internal/core"
)

// Worksheet names, in workbook order.
const (
	sheetTransactions = "지출내역"
	sheetBudgets      = "예산설정"
	sheetCategories   = "카테고리별요약"
	sheetBudgetActual = "예산대비실적"
	sheetTrend        = "월별추이"
	sheetPayments     = "결제수단별"
	sheetSummary      = "리포트요약"
)

const (
	dateLayout      = "2006-01-02"
	timestampLayout = "2006-01-02 15:04"
)

// Filename returns the download name for a report generated at now,
// e.g. 찬양팀_예산리포트_20260825.xlsx.
func Filename(now time.Time) string {
	return fmt.Sprintf("찬양팀_예산리포트_%s.xlsx", now.Format("20060102"))
}

// Render writes the assembled report into a fresh workbook and returns
// the file bytes.
func Render(r *Report) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	w := &workbook{f: f}
	if err := w.init(); err != nil {
		return nil, err
	}

	w.renderTransactions(r)
	w.renderBudgets(r)
	w.renderCategories(r)
	w.renderBudgetActual(r)
	w.renderTrend(r)
	w.renderPayments(r)
	w.renderSummary(r)
	if w.err != nil {
		return nil, w.err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// workbook wraps the excelize file with sticky error handling so each
// sheet renderer stays a straight-line row dump.
type workbook struct {
	f           *excelize.File
	headerStyle int
	linkStyle   int
	err         error
}

func (w *workbook) init() error {
	// The default sheet becomes the first worksheet; the rest are added
	// in workbook order.
	if err := w.f.SetSheetName("Sheet1", sheetTransactions); err != nil {
		return fmt.Errorf("rename default sheet: %w", err)
	}
	for _, name := range []string{
		sheetBudgets, sheetCategories, sheetBudgetActual,
		sheetTrend, sheetPayments, sheetSummary,
	} {
		if _, err := w.f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	var err error
	w.headerStyle, err = w.f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	w.linkStyle, err = w.f.NewStyle(&excelize.Style{Font: &excelize.Font{Color: "1265BE", Underline: "single"}})
	if err != nil {
		return fmt.Errorf("hyperlink style: %w", err)
	}

	idx, err := w.f.GetSheetIndex(sheetTransactions)
	if err != nil {
		return err
	}
	w.f.SetActiveSheet(idx)
	return nil
}

func (w *workbook) setRow(sheet string, row int, values []interface{}) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		w.err = err
		return
	}
	if err := w.f.SetSheetRow(sheet, cell, &values); err != nil {
		w.err = fmt.Errorf("sheet %s row %d: %w", sheet, row, err)
	}
}

func (w *workbook) setHeader(sheet string, titles []interface{}) {
	w.setRow(sheet, 1, titles)
	if w.err != nil {
		return
	}
	last, err := excelize.CoordinatesToCellName(len(titles), 1)
	if err != nil {
		w.err = err
		return
	}
	if err := w.f.SetCellStyle(sheet, "A1", last, w.headerStyle); err != nil {
		w.err = err
	}
}

func (w *workbook) renderTransactions(r *Report) {
	w.setHeader(sheetTransactions, []interface{}{
		"날짜", "카테고리", "설명", "금액", "결제수단",
		"영수증 URL", "OCR 인식금액", "입력자", "등록시간",
	})
	for i, tx := range r.Transactions {
		row := i + 2
		created := ""
		if !tx.CreatedAt.IsZero() {
			created = tx.CreatedAt.Format(timestampLayout)
		}
		w.setRow(sheetTransactions, row, []interface{}{
			tx.Date.Format(dateLayout),
			tx.Category,
			tx.Description,
			tx.Amount.Won,
			string(tx.PaymentMethod),
			tx.ReceiptURL,
			tx.OCRAmount,
			tx.SubmittedBy,
			created,
		})
		if w.err != nil {
			return
		}
		if strings.HasPrefix(tx.ReceiptURL, "http") {
			cell, err := excelize.CoordinatesToCellName(6, row)
			if err != nil {
				w.err = err
				return
			}
			if err := w.f.SetCellHyperLink(sheetTransactions, cell, tx.ReceiptURL, "External"); err != nil {
				w.err = err
				return
			}
			if err := w.f.SetCellStyle(sheetTransactions, cell, cell, w.linkStyle); err != nil {
				w.err = err
				return
			}
		}
	}
}

func (w *workbook) renderBudgets(r *Report) {
	w.setHeader(sheetBudgets, []interface{}{"카테고리", "예산금액", "연도", "월", "메모"})
	for i, e := range r.Budgets {
		w.setRow(sheetBudgets, i+2, []interface{}{
			e.Category,
			e.MonthlyBudget.Won,
			e.Year,
			e.Month.String(),
			e.Notes,
		})
	}
}

func (w *workbook) renderCategories(r *Report) {
	w.setHeader(sheetCategories, []interface{}{"카테고리", "총지출", "건수", "평균", "최소", "최대"})
	for i, s := range r.Categories {
		w.setRow(sheetCategories, i+2, []interface{}{
			s.Category, s.Total, s.Count, s.Mean, s.Min, s.Max,
		})
	}
}

func (w *workbook) renderBudgetActual(r *Report) {
	w.setHeader(sheetBudgetActual, []interface{}{
		"카테고리", "누적예산", "실제지출", "잔여예산", "집행률(%)", "상태",
	})
	for i, row := range r.BudgetActual {
		w.setRow(sheetBudgetActual, i+2, []interface{}{
			row.Category, row.YearBudget, row.Spent, row.Remaining, row.Utilization, row.Status,
		})
	}
}

func (w *workbook) renderTrend(r *Report) {
	w.setHeader(sheetTrend, []interface{}{"연월", "총지출", "건수", "평균지출"})
	for i, row := range r.Trend {
		w.setRow(sheetTrend, i+2, []interface{}{
			row.YearMonth, row.Total, row.Count, row.Mean,
		})
	}
}

func (w *workbook) renderPayments(r *Report) {
	w.setHeader(sheetPayments, []interface{}{"결제수단", "총금액", "건수", "비율(%)"})
	for i, s := range r.Payments {
		w.setRow(sheetPayments, i+2, []interface{}{
			string(s.Method), s.Total, s.Count, s.Share,
		})
	}
}

func (w *workbook) renderSummary(r *Report) {
	s := r.Summary
	utilization := "N/A"
	if s.HasBudget {
		utilization = fmt.Sprintf("%.1f%%", s.Utilization)
	}

	w.setHeader(sheetSummary, []interface{}{"항목", "값"})
	rows := [][2]interface{}{
		{"리포트 생성일", s.GeneratedAt.Format(timestampLayout)},
		{"총 거래 건수", fmt.Sprintf("%d건", s.TransactionCount)},
		{"총 지출 금액", core.FormatWon(s.TotalSpent)},
		{fmt.Sprintf("%d년 누적 예산", s.Year), core.FormatWon(s.YearBudget)},
		{"잔여 예산", core.FormatWon(s.Remaining)},
		{"전체 집행률(%)", utilization},
	}
	for i, row := range rows {
		w.setRow(sheetSummary, i+2, []interface{}{row[0], row[1]})
	}
}
