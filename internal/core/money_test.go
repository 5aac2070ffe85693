package core

import "testing"

func TestParseWon(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"27190", 27190, true},
		{"27,190", 27190, true},
		{"₩27,190", 27190, true},
		{"27,190원", 27190, true},
		{"₩ 1,000", 1000, true},
		{" 500 ", 500, true},
		{"1,000,000", 1000000, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"0", 0, false},
		{"abc", 0, false},
		{"12.34", 0, false}, // won has no fractional unit
		{",", 0, false},
		{"원", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseWon(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestFormatWon(t *testing.T) {
	cases := []struct {
		in  int64
		out string
	}{
		{0, "₩0"},
		{500, "₩500"},
		{1000, "₩1,000"},
		{27190, "₩27,190"},
		{99999999, "₩99,999,999"},
		{-2000, "-₩2,000"},
	}
	for _, tc := range cases {
		if got := FormatWon(tc.in); got != tc.out {
			t.Fatalf("%d expected %q, got %q", tc.in, tc.out, got)
		}
	}
}

func TestFormatThousands(t *testing.T) {
	cases := []struct {
		in  int64
		out string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{123456789, "123,456,789"},
		{-1500, "-1,500"},
	}
	for _, tc := range cases {
		if got := FormatThousands(tc.in); got != tc.out {
			t.Fatalf("%d expected %q, got %q", tc.in, tc.out, got)
		}
	}
}
