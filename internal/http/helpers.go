package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/nan5895/church-budget-app/internal/core"
)

// parseYearMonth extracts year and month from query parameters.
// Returns current year/month as defaults if not provided or invalid.
func parseYearMonth(r *http.Request) (year, month int) {
	now := time.Now()
	year = now.Year()
	month = int(now.Month())

	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil && y > 0 {
			year = y
		}
	}
	if v := strings.TrimSpace(r.URL.Query().Get("month")); v != "" {
		if m, err := strconv.Atoi(v); err == nil && m >= 1 && m <= 12 {
			month = m
		}
	}

	return year, month
}

// parseDate parses a date string in YYYY-MM-DD format.
func parseDate(dateStr string) (core.Date, error) {
	parsedTime, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return core.Date{}, err
	}
	return core.Date{Time: parsedTime}, nil
}

// sanitizeInput removes control characters and trims whitespace.
// Tab, LF and CR survive so multi-line notes keep their shape.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}

// validationMessage maps a domain validation error to the message the
// form shows.
func validationMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrEmptyCategory):
		return "카테고리를 선택해 주세요"
	case errors.Is(err, core.ErrEmptyDescription):
		return "내용을 입력해 주세요"
	case errors.Is(err, core.ErrInvalidAmount):
		return "금액이 올바르지 않습니다"
	case errors.Is(err, core.ErrInvalidPayment):
		return "결제수단이 올바르지 않습니다"
	case errors.Is(err, core.ErrInvalidDate):
		return "날짜가 올바르지 않습니다"
	case errors.Is(err, core.ErrInvalidYear):
		return "연도가 올바르지 않습니다"
	case errors.Is(err, core.ErrInvalidMonth):
		return "월이 올바르지 않습니다"
	default:
		return "입력값이 올바르지 않습니다"
	}
}

// progressWidth converts spent/available won into a bar width
// percentage, clamped to [2,100] so even tiny spending stays visible.
func progressWidth(spent, available int64) int {
	if available <= 0 {
		if spent > 0 {
			return 100
		}
		return 0
	}
	w := int((spent*100 + available/2) / available)
	if w < 2 {
		w = 2
	}
	if w > 100 {
		w = 100
	}
	return w
}
