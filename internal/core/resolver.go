package core

// ResolveBudgets selects the budget entries that apply to exactly the
// given year and calendar month. There is no fallback: an entry counts
// only when its year matches and its month is assigned to that month,
// so a month nobody budgeted resolves to an empty slice rather than
// borrowing annual or neighbouring-month rows.
func ResolveBudgets(entries []BudgetEntry, year, month int) []BudgetEntry {
	var out []BudgetEntry
	for _, e := range entries {
		if e.Year != year {
			continue
		}
		if !e.Month.Is(month) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// ResolveYearBudgets selects every month-assigned entry for the year up
// to and including the given month. Unassigned legacy rows are skipped;
// they surface separately via UnassignedBudgets.
func ResolveYearBudgets(entries []BudgetEntry, year, month int) []BudgetEntry {
	var out []BudgetEntry
	for _, e := range entries {
		if e.Year != year || !e.Month.Assigned {
			continue
		}
		if e.Month.Value > month {
			continue
		}
		out = append(out, e)
	}
	return out
}

// UnassignedBudgets lists the year's rows that still carry the legacy
// month-0 marker and need migration before they take part in any math.
func UnassignedBudgets(entries []BudgetEntry, year int) []BudgetEntry {
	var out []BudgetEntry
	for _, e := range entries {
		if e.Year == year && !e.Month.Assigned {
			out = append(out, e)
		}
	}
	return out
}
