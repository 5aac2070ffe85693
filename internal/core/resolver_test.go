package core

import "testing"

func budgetFixture() []BudgetEntry {
	return []BudgetEntry{
		{ID: "b1", Category: "악기/장비", MonthlyBudget: Money{Won: 100000}, Year: 2025, Month: AssignedMonth(1)},
		{ID: "b2", Category: "악기/장비", MonthlyBudget: Money{Won: 100000}, Year: 2025, Month: AssignedMonth(2)},
		{ID: "b3", Category: "음향장비", MonthlyBudget: Money{Won: 50000}, Year: 2025, Month: AssignedMonth(2)},
		{ID: "b4", Category: "식비/간식", MonthlyBudget: Money{Won: 30000}, Year: 2024, Month: AssignedMonth(2)},
		{ID: "b5", Category: "교통비", MonthlyBudget: Money{Won: 20000}, Year: 2025, Month: UnassignedMonth()},
	}
}

func TestResolveBudgetsStrictMatch(t *testing.T) {
	got := ResolveBudgets(budgetFixture(), 2025, 2)
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	for _, e := range got {
		if e.Year != 2025 || !e.Month.Is(2) {
			t.Fatalf("entry %s leaked into 2025-02", e.ID)
		}
	}
}

func TestResolveBudgetsNoFallback(t *testing.T) {
	// month 7 was never budgeted: the wrong-year and unassigned rows
	// must not fill in for it
	if got := ResolveBudgets(budgetFixture(), 2025, 7); len(got) != 0 {
		t.Fatalf("expected empty, got %d entries", len(got))
	}
	if got := ResolveBudgets(budgetFixture(), 2026, 2); len(got) != 0 {
		t.Fatalf("expected empty for other year, got %d entries", len(got))
	}
}

func TestResolveYearBudgets(t *testing.T) {
	got := ResolveYearBudgets(budgetFixture(), 2025, 2)
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got))
	}
	for _, e := range got {
		if !e.Month.Assigned {
			t.Fatalf("unassigned entry %s included", e.ID)
		}
		if e.Month.Value > 2 {
			t.Fatalf("entry %s beyond requested month", e.ID)
		}
	}
	// January view must not include February rows
	if got := ResolveYearBudgets(budgetFixture(), 2025, 1); len(got) != 1 {
		t.Fatalf("expected 1 entry for January, got %d", len(got))
	}
}

func TestUnassignedBudgets(t *testing.T) {
	got := UnassignedBudgets(budgetFixture(), 2025)
	if len(got) != 1 || got[0].ID != "b5" {
		t.Fatalf("expected only the legacy row, got %v", got)
	}
	if got := UnassignedBudgets(budgetFixture(), 2024); len(got) != 0 {
		t.Fatalf("expected none for 2024, got %d", len(got))
	}
}
