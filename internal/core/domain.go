package core

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

const (
	Card     PaymentMethod = "카드"
	Cash     PaymentMethod = "현금"
	Transfer PaymentMethod = "계좌이체"
	OtherPay PaymentMethod = "기타"
)

type (
	PaymentMethod string

	Date struct {
		time.Time
	}

	Money struct {
		Won int64
	}

	// BudgetMonth distinguishes a concrete calendar month from the legacy
	// "unassigned" marker that old annual rows carry as month 0. Unassigned
	// entries never participate in period resolution; they wait for an
	// explicit migration to a real month.
	BudgetMonth struct {
		Value    int // 1-12 when Assigned
		Assigned bool
	}

	Transaction struct {
		ID            string // stable record ID, assigned at creation
		Date          Date
		Category      string
		Description   string
		Amount        Money // immutable after creation
		PaymentMethod PaymentMethod
		ReceiptURL    string
		OCRAmount     string // raw extractor output, kept for audit
		SubmittedBy   string
		CreatedAt     time.Time
	}

	BudgetEntry struct {
		ID            string
		Category      string
		MonthlyBudget Money
		Year          int
		Month         BudgetMonth
		Notes         string
	}
)

var (
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidMonth     = errors.New("invalid month")
	ErrInvalidYear      = errors.New("invalid year")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidPayment   = errors.New("invalid payment method")
	ErrEmptyCategory    = errors.New("empty category")
	ErrEmptyDescription = errors.New("empty description")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month as 1-12
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

func (m Money) Validate() error {
	if m.Won <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// AssignedMonth returns a concrete calendar month.
func AssignedMonth(value int) BudgetMonth {
	return BudgetMonth{Value: value, Assigned: true}
}

// UnassignedMonth returns the legacy marker for rows that predate
// per-month budgeting.
func UnassignedMonth() BudgetMonth {
	return BudgetMonth{}
}

// MonthFromNumber maps the stored worksheet value onto a BudgetMonth.
// Zero is the legacy unassigned marker and must survive a round trip
// unchanged, so it maps to the unassigned variant rather than an error.
func MonthFromNumber(n int) BudgetMonth {
	if n == 0 {
		return UnassignedMonth()
	}
	return AssignedMonth(n)
}

// Number returns the worksheet representation: 1-12, or 0 for
// unassigned legacy rows.
func (m BudgetMonth) Number() int {
	if !m.Assigned {
		return 0
	}
	return m.Value
}

func (m BudgetMonth) Validate() error {
	if m.Assigned && (m.Value < 1 || m.Value > 12) {
		return ErrInvalidMonth
	}
	if !m.Assigned && m.Value != 0 {
		return ErrInvalidMonth
	}
	return nil
}

// Is reports whether this entry is budgeted for exactly the given
// calendar month. Unassigned months match nothing.
func (m BudgetMonth) Is(month int) bool {
	return m.Assigned && m.Value == month
}

func (m BudgetMonth) String() string {
	if !m.Assigned {
		return "미지정"
	}
	if name, ok := monthNames[m.Value]; ok {
		return name
	}
	return strconv.Itoa(m.Value) + "월"
}

var monthNames = map[int]string{
	1: "1월", 2: "2월", 3: "3월", 4: "4월", 5: "5월", 6: "6월",
	7: "7월", 8: "8월", 9: "9월", 10: "10월", 11: "11월", 12: "12월",
}

func (p PaymentMethod) Validate() error {
	switch p {
	case Card, Cash, Transfer, OtherPay:
		return nil
	}
	return ErrInvalidPayment
}

// PaymentMethods lists the selectable methods in form order.
func PaymentMethods() []PaymentMethod {
	return []PaymentMethod{Card, Cash, Transfer, OtherPay}
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if err := t.PaymentMethod.Validate(); err != nil {
		return err
	}
	return nil
}

func (e BudgetEntry) Validate() error {
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	if e.MonthlyBudget.Won < 0 {
		return ErrInvalidAmount
	}
	if e.Year < 2020 || e.Year > 2100 {
		return ErrInvalidYear
	}
	if err := e.Month.Validate(); err != nil {
		return err
	}
	return nil
}

// DefaultCategories seeds the category selector when no budgets exist yet.
func DefaultCategories() []string {
	return []string{"악기/장비", "음향장비", "악보/교재", "식비/간식", "교통비", "기타"}
}
