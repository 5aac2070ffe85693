package core

import "sort"

// BuildOverview computes the spend-vs-budget dashboard for one
// year+month from full snapshots of transactions and budget entries.
// It is a pure function of its inputs: calling it twice with the same
// snapshots yields the same overview.
//
// Carryover is per-category and within-year: each category's unspent
// (or overspent) budget from months 1..m-1 rolls into month m. Totals
// are recomputed by summing the category lines, so the overview stays
// internally consistent even when a category overspends.
func BuildOverview(txs []Transaction, entries []BudgetEntry, year, month int) MonthOverview {
	ov := MonthOverview{
		Year:       year,
		Month:      month,
		Unassigned: UnassignedBudgets(entries, year),
	}

	monthBudget := map[string]int64{}
	priorBudget := map[string]int64{}
	for _, e := range ResolveYearBudgets(entries, year, month) {
		if e.Month.Is(month) {
			monthBudget[e.Category] += e.MonthlyBudget.Won
		} else {
			priorBudget[e.Category] += e.MonthlyBudget.Won
		}
	}

	monthSpent := map[string]int64{}
	priorSpent := map[string]int64{}
	for _, t := range txs {
		ov.TotalSpent.Won += t.Amount.Won
		ov.Transactions++
		if t.Date.Year() != year {
			continue
		}
		switch m := t.Date.Month(); {
		case m == month:
			monthSpent[t.Category] += t.Amount.Won
		case m < month:
			priorSpent[t.Category] += t.Amount.Won
		}
	}

	for _, cat := range categoryUnion(monthBudget, priorBudget, monthSpent, priorSpent) {
		line := CategoryBudgetLine{
			Category:    cat,
			MonthBudget: Money{Won: monthBudget[cat]},
			PriorBudget: Money{Won: priorBudget[cat]},
			PriorSpent:  Money{Won: priorSpent[cat]},
			MonthSpent:  Money{Won: monthSpent[cat]},
		}
		line.Carryover.Won = line.PriorBudget.Won - line.PriorSpent.Won
		line.Available.Won = line.MonthBudget.Won + line.Carryover.Won
		line.Remaining.Won = line.Available.Won - line.MonthSpent.Won
		line.YearBudget.Won = line.MonthBudget.Won + line.PriorBudget.Won
		line.YearSpent.Won = line.PriorSpent.Won + line.MonthSpent.Won
		line.Utilization = Utilization(line.YearSpent.Won, line.YearBudget.Won)
		ov.ByCategory = append(ov.ByCategory, line)

		ov.MonthBudget.Won += line.MonthBudget.Won
		ov.PriorBudget.Won += line.PriorBudget.Won
		ov.PriorSpent.Won += line.PriorSpent.Won
		ov.Carryover.Won += line.Carryover.Won
		ov.Available.Won += line.Available.Won
		ov.MonthSpent.Won += line.MonthSpent.Won
		ov.Remaining.Won += line.Remaining.Won
		ov.YearBudget.Won += line.YearBudget.Won
		ov.YearSpent.Won += line.YearSpent.Won
	}
	ov.Utilization = Utilization(ov.YearSpent.Won, ov.YearBudget.Won)
	return ov
}

// Utilization returns spent/budget as a percentage. A zero budget
// yields 0 rather than a division error, even with nonzero spend.
func Utilization(spent, budget int64) float64 {
	if budget == 0 {
		return 0
	}
	return float64(spent) / float64(budget) * 100
}

func categoryUnion(maps ...map[string]int64) []string {
	seen := map[string]bool{}
	var out []string
	for _, m := range maps {
		for cat := range m {
			if !seen[cat] {
				seen[cat] = true
				out = append(out, cat)
			}
		}
	}
	sort.Strings(out)
	return out
}
