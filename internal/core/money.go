// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing won amounts from strings and
// formatting them back for display. Korean won has no fractional unit,
// so Money carries whole won only.
package core

import (
	"strconv"
	"strings"
	"unicode"
)

// ParseWon converts a user- or OCR-supplied amount string to whole won.
//
// It tolerates thousands separators, a leading currency sign and a
// trailing 원 suffix, since receipt text and form input carry all three.
// Returns an error for empty input, non-digit content, negative values,
// or zero amounts.
//
// Examples:
//
//	ParseWon("27190")    -> 27190, nil
//	ParseWon("27,190")   -> 27190, nil
//	ParseWon("₩27,190")  -> 27190, nil
//	ParseWon("27,190원") -> 27190, nil
func ParseWon(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.TrimPrefix(s, "₩")
	s = strings.TrimSuffix(s, "원")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		// Only positive values allowed
		return 0, ErrInvalidAmount
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if v <= 0 {
		return 0, ErrInvalidAmount
	}
	return v, nil
}

// FormatWon renders an amount for display, e.g. ₩27,190. Negative values
// keep the sign ahead of the currency mark (-₩2,000) so carryover
// deficits read naturally.
func FormatWon(won int64) string {
	if won < 0 {
		return "-₩" + FormatThousands(-won)
	}
	return "₩" + FormatThousands(won)
}

// FormatThousands groups digits with commas, without any currency mark.
func FormatThousands(v int64) string {
	s := strconv.FormatInt(v, 10)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	if len(s) <= 3 {
		if neg {
			return "-" + s
		}
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
