package report

import (
	"math"
	"sort"
	"time"

	"github.com/nan5895/church-budget-app/internal/core"
)

// Status markers for the budget-vs-actual sheet.
const (
	StatusWithinBudget = "✅ 정상"
	StatusOverBudget   = "⚠️ 초과"
)

type (
	// CategoryStat summarizes all spending in one category.
	CategoryStat struct {
		Category string
		Total    int64
		Count    int
		Mean     int64
		Min      int64
		Max      int64
	}

	// BudgetActualRow compares a category's cumulative budget for the
	// year (January through the report month) against its spend.
	BudgetActualRow struct {
		Category    string
		YearBudget  int64
		Spent       int64
		Remaining   int64
		Utilization float64
		Status      string
	}

	// TrendRow aggregates spending for one calendar month.
	TrendRow struct {
		YearMonth string // e.g. 2026-03
		Total     int64
		Count     int
		Mean      int64
	}

	// PaymentStat aggregates spending for one payment method.
	PaymentStat struct {
		Method core.PaymentMethod
		Total  int64
		Count  int
		Share  float64 // percent of total spend
	}

	// Summary carries the headline figures of the report.
	Summary struct {
		GeneratedAt      time.Time
		Year             int
		TransactionCount int
		TotalSpent       int64
		YearBudget       int64
		Remaining        int64
		Utilization      float64
		HasBudget        bool
	}

	// Report is the assembled content of the seven-sheet workbook.
	// Building it is pure; rendering to bytes lives in excel.go.
	Report struct {
		GeneratedAt  time.Time
		Transactions []core.Transaction
		Budgets      []core.BudgetEntry
		Categories   []CategoryStat
		BudgetActual []BudgetActualRow
		Trend        []TrendRow
		Payments     []PaymentStat
		Summary      Summary
	}
)

// Build assembles the report from full snapshots of both worksheets.
// now fixes the report month: budget figures are cumulative from January
// of now's year through now's month.
func Build(txs []core.Transaction, budgets []core.BudgetEntry, now time.Time) *Report {
	overview := core.BuildOverview(txs, budgets, now.Year(), int(now.Month()))

	r := &Report{
		GeneratedAt:  now,
		Transactions: txs,
		Budgets:      budgets,
		Categories:   categoryStats(txs),
		BudgetActual: budgetActualRows(overview),
		Trend:        trendRows(txs),
		Payments:     paymentStats(txs),
	}

	totalSpent := overview.TotalSpent.Won
	yearBudget := overview.YearBudget.Won
	r.Summary = Summary{
		GeneratedAt:      now,
		Year:             now.Year(),
		TransactionCount: len(txs),
		TotalSpent:       totalSpent,
		YearBudget:       yearBudget,
		Remaining:        yearBudget - totalSpent,
		Utilization:      round1(core.Utilization(totalSpent, yearBudget)),
		HasBudget:        yearBudget > 0,
	}
	return r
}

func categoryStats(txs []core.Transaction) []CategoryStat {
	byCat := map[string]*CategoryStat{}
	for _, t := range txs {
		s, ok := byCat[t.Category]
		if !ok {
			s = &CategoryStat{Category: t.Category, Min: t.Amount.Won, Max: t.Amount.Won}
			byCat[t.Category] = s
		}
		s.Total += t.Amount.Won
		s.Count++
		if t.Amount.Won < s.Min {
			s.Min = t.Amount.Won
		}
		if t.Amount.Won > s.Max {
			s.Max = t.Amount.Won
		}
	}

	out := make([]CategoryStat, 0, len(byCat))
	for _, s := range byCat {
		s.Mean = mean(s.Total, s.Count)
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}

// budgetActualRows keeps only categories that carry budget this year;
// spend in an unbudgeted category shows up in the category summary but
// has nothing to compare against here.
func budgetActualRows(overview core.MonthOverview) []BudgetActualRow {
	var out []BudgetActualRow
	for _, line := range overview.ByCategory {
		if line.YearBudget.Won <= 0 {
			continue
		}
		row := BudgetActualRow{
			Category:    line.Category,
			YearBudget:  line.YearBudget.Won,
			Spent:       line.YearSpent.Won,
			Remaining:   line.YearBudget.Won - line.YearSpent.Won,
			Utilization: round1(line.Utilization),
		}
		if row.Remaining >= 0 {
			row.Status = StatusWithinBudget
		} else {
			row.Status = StatusOverBudget
		}
		out = append(out, row)
	}
	return out
}

func trendRows(txs []core.Transaction) []TrendRow {
	byMonth := map[string]*TrendRow{}
	for _, t := range txs {
		key := t.Date.Format("2006-01")
		row, ok := byMonth[key]
		if !ok {
			row = &TrendRow{YearMonth: key}
			byMonth[key] = row
		}
		row.Total += t.Amount.Won
		row.Count++
	}

	out := make([]TrendRow, 0, len(byMonth))
	for _, row := range byMonth {
		row.Mean = mean(row.Total, row.Count)
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].YearMonth < out[j].YearMonth })
	return out
}

// paymentStats lists the known methods in form order; anything else a
// store round-trip produced comes after, alphabetically.
func paymentStats(txs []core.Transaction) []PaymentStat {
	byMethod := map[core.PaymentMethod]*PaymentStat{}
	var grandTotal int64
	for _, t := range txs {
		s, ok := byMethod[t.PaymentMethod]
		if !ok {
			s = &PaymentStat{Method: t.PaymentMethod}
			byMethod[t.PaymentMethod] = s
		}
		s.Total += t.Amount.Won
		s.Count++
		grandTotal += t.Amount.Won
	}

	var out []PaymentStat
	for _, m := range core.PaymentMethods() {
		if s, ok := byMethod[m]; ok {
			out = append(out, *s)
			delete(byMethod, m)
		}
	}
	var rest []PaymentStat
	for _, s := range byMethod {
		rest = append(rest, *s)
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i].Method < rest[j].Method })
	out = append(out, rest...)

	for i := range out {
		out[i].Share = round1(core.Utilization(out[i].Total, grandTotal))
	}
	return out
}

func mean(total int64, count int) int64 {
	if count == 0 {
		return 0
	}
	return int64(math.Round(float64(total) / float64(count)))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
