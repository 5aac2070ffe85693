package core

import (
	"reflect"
	"testing"
)

func TestBuildOverviewCarryover(t *testing.T) {
	entries := []BudgetEntry{
		{Category: "식비/간식", MonthlyBudget: Money{Won: 10000}, Year: 2025, Month: AssignedMonth(1)},
		{Category: "식비/간식", MonthlyBudget: Money{Won: 10000}, Year: 2025, Month: AssignedMonth(2)},
	}
	txs := []Transaction{
		{Date: NewDate(2025, 1, 15), Category: "식비/간식", Amount: Money{Won: 12000}},
	}

	ov := BuildOverview(txs, entries, 2025, 2)
	if len(ov.ByCategory) != 1 {
		t.Fatalf("expected 1 category line, got %d", len(ov.ByCategory))
	}
	line := ov.ByCategory[0]
	if line.Carryover.Won != -2000 {
		t.Fatalf("carryover = %d, want -2000", line.Carryover.Won)
	}
	if line.Available.Won != 8000 {
		t.Fatalf("available = %d, want 8000", line.Available.Won)
	}
	if line.Remaining.Won != 8000 {
		t.Fatalf("remaining = %d, want 8000", line.Remaining.Won)
	}
	if ov.Carryover.Won != -2000 || ov.Available.Won != 8000 {
		t.Fatalf("totals out of step with category line: %+v", ov)
	}
}

func TestBuildOverviewFormulas(t *testing.T) {
	entries := []BudgetEntry{
		{Category: "음향장비", MonthlyBudget: Money{Won: 50000}, Year: 2025, Month: AssignedMonth(1)},
		{Category: "음향장비", MonthlyBudget: Money{Won: 50000}, Year: 2025, Month: AssignedMonth(2)},
		{Category: "음향장비", MonthlyBudget: Money{Won: 50000}, Year: 2025, Month: AssignedMonth(3)},
	}
	txs := []Transaction{
		{Date: NewDate(2025, 1, 10), Category: "음향장비", Amount: Money{Won: 30000}},
		{Date: NewDate(2025, 2, 10), Category: "음향장비", Amount: Money{Won: 20000}},
		{Date: NewDate(2025, 3, 10), Category: "음향장비", Amount: Money{Won: 40000}},
	}

	ov := BuildOverview(txs, entries, 2025, 3)
	line := ov.ByCategory[0]
	if line.MonthBudget.Won != 50000 || line.PriorBudget.Won != 100000 {
		t.Fatalf("budget split wrong: %+v", line)
	}
	if line.PriorSpent.Won != 50000 || line.MonthSpent.Won != 40000 {
		t.Fatalf("spend split wrong: %+v", line)
	}
	if line.Carryover.Won != 50000 || line.Available.Won != 100000 || line.Remaining.Won != 60000 {
		t.Fatalf("carryover math wrong: %+v", line)
	}
	if line.YearBudget.Won != 150000 || line.YearSpent.Won != 90000 {
		t.Fatalf("year sums wrong: %+v", line)
	}
	if line.Utilization != 60 {
		t.Fatalf("utilization = %v, want 60", line.Utilization)
	}
}

func TestBuildOverviewIdempotent(t *testing.T) {
	entries := budgetFixture()
	txs := []Transaction{
		{Date: NewDate(2025, 1, 5), Category: "악기/장비", Amount: Money{Won: 40000}},
		{Date: NewDate(2025, 2, 5), Category: "음향장비", Amount: Money{Won: 15000}},
	}
	a := BuildOverview(txs, entries, 2025, 2)
	b := BuildOverview(txs, entries, 2025, 2)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("same snapshots produced different overviews")
	}
}

func TestBuildOverviewExcludesFutureMonths(t *testing.T) {
	entries := []BudgetEntry{
		{Category: "교통비", MonthlyBudget: Money{Won: 10000}, Year: 2025, Month: AssignedMonth(2)},
	}
	txs := []Transaction{
		{Date: NewDate(2025, 2, 1), Category: "교통비", Amount: Money{Won: 3000}},
		{Date: NewDate(2025, 9, 1), Category: "교통비", Amount: Money{Won: 99999}}, // later in the year
		{Date: NewDate(2024, 2, 1), Category: "교통비", Amount: Money{Won: 77777}}, // other year
	}

	ov := BuildOverview(txs, entries, 2025, 2)
	if ov.MonthSpent.Won != 3000 || ov.PriorSpent.Won != 0 {
		t.Fatalf("future/other-year spend leaked into period: %+v", ov)
	}
	// the all-time KPIs still count everything
	if ov.TotalSpent.Won != 3000+99999+77777 {
		t.Fatalf("total spent = %d", ov.TotalSpent.Won)
	}
	if ov.Transactions != 3 {
		t.Fatalf("transaction count = %d", ov.Transactions)
	}
}

func TestBuildOverviewZeroBudgetUtilization(t *testing.T) {
	txs := []Transaction{
		{Date: NewDate(2025, 3, 1), Category: "기타", Amount: Money{Won: 5000}},
	}
	ov := BuildOverview(txs, nil, 2025, 3)
	if ov.Utilization != 0 {
		t.Fatalf("utilization = %v, want 0 for zero budget", ov.Utilization)
	}
	if len(ov.ByCategory) != 1 || ov.ByCategory[0].Utilization != 0 {
		t.Fatalf("category utilization should be 0: %+v", ov.ByCategory)
	}
	if ov.Remaining.Won != -5000 {
		t.Fatalf("remaining = %d, want -5000", ov.Remaining.Won)
	}
}

func TestBuildOverviewCategoryOrder(t *testing.T) {
	txs := []Transaction{
		{Date: NewDate(2025, 1, 1), Category: "식비/간식", Amount: Money{Won: 1}},
		{Date: NewDate(2025, 1, 1), Category: "교통비", Amount: Money{Won: 1}},
		{Date: NewDate(2025, 1, 1), Category: "악기/장비", Amount: Money{Won: 1}},
	}
	ov := BuildOverview(txs, nil, 2025, 1)
	var got []string
	for _, line := range ov.ByCategory {
		got = append(got, line.Category)
	}
	want := []string{"교통비", "식비/간식", "악기/장비"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
}

func TestBuildOverviewReportsUnassigned(t *testing.T) {
	entries := []BudgetEntry{
		{ID: "legacy", Category: "기타", MonthlyBudget: Money{Won: 5000}, Year: 2025, Month: UnassignedMonth()},
	}
	ov := BuildOverview(nil, entries, 2025, 6)
	if len(ov.Unassigned) != 1 || ov.Unassigned[0].ID != "legacy" {
		t.Fatalf("unassigned rows not surfaced: %+v", ov.Unassigned)
	}
	if ov.YearBudget.Won != 0 {
		t.Fatalf("unassigned budget leaked into totals: %d", ov.YearBudget.Won)
	}
}

func TestUtilization(t *testing.T) {
	cases := []struct {
		spent, budget int64
		want          float64
	}{
		{0, 0, 0},
		{5000, 0, 0},
		{50, 100, 50},
		{150, 100, 150},
	}
	for i, tc := range cases {
		if got := Utilization(tc.spent, tc.budget); got != tc.want {
			t.Fatalf("case %d got %v, want %v", i, got, tc.want)
		}
	}
}
