package http

import "testing"

func TestNumberFormatting(t *testing.T) {
	counts := []struct {
		in   int
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{29000, "29,000"},
		{-1234567, "-1,234,567"},
	}
	for _, tc := range counts {
		if got := formatCount(tc.in); got != tc.want {
			t.Fatalf("formatCount(%d)=%q, want %q", tc.in, got, tc.want)
		}
	}

	money := []struct {
		in   float64
		want string
	}{
		{1450000, "1,450,000"},
		{1249.5, "1,250"},
		{-1249.5, "-1,250"},
		{-0.4, "0"},
		{41.66, "42"},
	}
	for _, tc := range money {
		if got := formatMoney(tc.in); got != tc.want {
			t.Fatalf("formatMoney(%v)=%q, want %q", tc.in, got, tc.want)
		}
	}
}
