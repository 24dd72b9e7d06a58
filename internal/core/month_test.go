package core

import (
	"testing"
	"time"
)

func TestParseMonth(t *testing.T) {
	m, err := ParseMonth("2025-03")
	if err != nil {
		t.Fatal(err)
	}
	if m.Year != 2025 || m.Month != time.March {
		t.Fatalf("unexpected month %+v", m)
	}
	if m.String() != "2025-03" {
		t.Fatalf("unexpected string %q", m.String())
	}
	for _, bad := range []string{"", "2025-13", "2025/03", "March"} {
		if _, err := ParseMonth(bad); err == nil {
			t.Fatalf("%q expected error", bad)
		}
	}
}

func TestMonthArithmetic(t *testing.T) {
	dec := NewMonth(2024, time.December)
	jan := dec.AddMonths(1)
	if jan != NewMonth(2025, time.January) {
		t.Fatalf("expected 2025-01, got %s", jan)
	}
	if !dec.Before(jan) || !jan.After(dec) {
		t.Fatalf("ordering broken for %s and %s", dec, jan)
	}
	if got := MonthsBetween(dec, jan); got != 2 {
		t.Fatalf("expected 2 months, got %d", got)
	}
	if got := MonthsBetween(NewMonth(2025, time.January), NewMonth(2025, time.December)); got != 12 {
		t.Fatalf("expected 12 months, got %d", got)
	}
	if got := NewMonth(2025, time.February).Days(); got != 28 {
		t.Fatalf("expected 28 days, got %d", got)
	}
	if got := NewMonth(2024, time.February).LastDay(); got != NewDate(2024, 2, 29) {
		t.Fatalf("unexpected last day %s", got)
	}
	if !jan.Contains(NewDate(2025, 1, 31)) || jan.Contains(NewDate(2025, 2, 1)) {
		t.Fatalf("Contains broken for %s", jan)
	}
}

func TestMonthStringsSortChronologically(t *testing.T) {
	a := NewMonth(2024, time.December).String()
	b := NewMonth(2025, time.January).String()
	if !(a < b) {
		t.Fatalf("expected %q < %q", a, b)
	}
}
