package core

import (
	"errors"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Won: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Won: 0}).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
}

func TestBudgetMonthRoundTrip(t *testing.T) {
	cases := []struct {
		n        int
		assigned bool
	}{
		{0, false},
		{1, true},
		{6, true},
		{12, true},
	}
	for i, tc := range cases {
		m := MonthFromNumber(tc.n)
		if m.Assigned != tc.assigned {
			t.Fatalf("case %d assigned = %v, want %v", i, m.Assigned, tc.assigned)
		}
		if got := m.Number(); got != tc.n {
			t.Fatalf("case %d round trip: got %d, want %d", i, got, tc.n)
		}
		if err := m.Validate(); err != nil {
			t.Fatalf("case %d expected valid, got %v", i, err)
		}
	}
}

func TestBudgetMonthValidate(t *testing.T) {
	bads := []BudgetMonth{
		AssignedMonth(0),
		AssignedMonth(13),
		AssignedMonth(-1),
		{Value: 3, Assigned: false}, // unassigned must carry zero
	}
	for i, m := range bads {
		if err := m.Validate(); !errors.Is(err, ErrInvalidMonth) {
			t.Fatalf("case %d expected ErrInvalidMonth, got %v", i, err)
		}
	}
}

func TestBudgetMonthIs(t *testing.T) {
	if !AssignedMonth(3).Is(3) {
		t.Fatalf("assigned month should match its own value")
	}
	if AssignedMonth(3).Is(4) {
		t.Fatalf("assigned month should not match another value")
	}
	if UnassignedMonth().Is(0) {
		t.Fatalf("unassigned month must match nothing")
	}
}

func TestBudgetMonthString(t *testing.T) {
	if got := AssignedMonth(3).String(); got != "3월" {
		t.Fatalf("got %q", got)
	}
	if got := UnassignedMonth().String(); got != "미지정" {
		t.Fatalf("got %q", got)
	}
}

func TestPaymentMethodValidate(t *testing.T) {
	for i, p := range PaymentMethods() {
		if err := p.Validate(); err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
	}
	if err := PaymentMethod("수표").Validate(); !errors.Is(err, ErrInvalidPayment) {
		t.Fatalf("expected ErrInvalidPayment")
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		Date:          NewDate(2025, 1, 1),
		Category:      "음향장비",
		Description:   "마이크 케이블",
		Amount:        Money{Won: 27190},
		PaymentMethod: Card,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Transaction{
		{Date: Date{Time: time.Time{}}, Category: "c", Description: "a", Amount: Money{Won: 1}, PaymentMethod: Card}, // zero date
		{Date: NewDate(2025, 1, 1), Category: "", Description: "a", Amount: Money{Won: 1}, PaymentMethod: Card},
		{Date: NewDate(2025, 1, 1), Category: "c", Description: "", Amount: Money{Won: 1}, PaymentMethod: Card},
		{Date: NewDate(2025, 1, 1), Category: "c", Description: "a", Amount: Money{Won: 0}, PaymentMethod: Card},
		{Date: NewDate(2025, 1, 1), Category: "c", Description: "a", Amount: Money{Won: 1}, PaymentMethod: "없음"},
	}
	for i, tx := range bads {
		if err := tx.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestBudgetEntryValidate(t *testing.T) {
	good := BudgetEntry{
		Category:      "악기/장비",
		MonthlyBudget: Money{Won: 100000},
		Year:          2025,
		Month:         AssignedMonth(3),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	// zero budget is allowed: it records an explicit "no spend planned"
	zero := good
	zero.MonthlyBudget = Money{Won: 0}
	if err := zero.Validate(); err != nil {
		t.Fatalf("zero budget expected ok, got %v", err)
	}

	bads := []BudgetEntry{
		{Category: "", MonthlyBudget: Money{Won: 1}, Year: 2025, Month: AssignedMonth(1)},
		{Category: "c", MonthlyBudget: Money{Won: -1}, Year: 2025, Month: AssignedMonth(1)},
		{Category: "c", MonthlyBudget: Money{Won: 1}, Year: 1999, Month: AssignedMonth(1)},
		{Category: "c", MonthlyBudget: Money{Won: 1}, Year: 2025, Month: AssignedMonth(13)},
	}
	for i, e := range bads {
		if err := e.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}
