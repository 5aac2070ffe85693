package core

// CategoryBudgetLine carries the per-category spend-vs-budget figures
// for one year+month. All prior-month math covers January through the
// month before the requested one, within the same year.
type CategoryBudgetLine struct {
	Category    string
	MonthBudget Money // budget assigned to the requested month
	PriorBudget Money // sum of budgets for months 1..m-1
	PriorSpent  Money // spend dated in months 1..m-1
	Carryover   Money // PriorBudget - PriorSpent, may be negative
	Available   Money // MonthBudget + Carryover
	MonthSpent  Money // spend dated in the requested month
	Remaining   Money // Available - MonthSpent
	YearBudget  Money // MonthBudget + PriorBudget
	YearSpent   Money // PriorSpent + MonthSpent
	Utilization float64
}

// MonthOverview is the dashboard summary for a specific year+month:
// the category lines plus totals recomputed across them.
type MonthOverview struct {
	Year  int
	Month int // 1-12

	MonthBudget Money
	PriorBudget Money
	PriorSpent  Money
	Carryover   Money
	Available   Money
	MonthSpent  Money
	Remaining   Money
	YearBudget  Money
	YearSpent   Money
	Utilization float64

	TotalSpent   Money // all-time spend, every transaction regardless of date
	Transactions int   // all-time transaction count

	ByCategory []CategoryBudgetLine

	// Unassigned lists legacy budget rows for the year that still lack a
	// month. They are reported but excluded from every figure above.
	Unassigned []BudgetEntry
}
