package core

import (
	"errors"
	"strings"
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
		{Date{Time: time.Time{}}, false},
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

func TestNewTransactionValidate(t *testing.T) {
	good := NewTransaction{
		Date:     NewDate(2025, 1, 10),
		Kind:     KindExpense,
		Category: Category{Level1: "Food", Level2: "Lunch"},
		Amount:   MoneyFromCents(-1250),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*NewTransaction)
		want   error
	}{
		{"zero date", func(n *NewTransaction) { n.Date = Date{} }, ErrInvalidDate},
		{"unknown kind", func(n *NewTransaction) { n.Kind = "transfer" }, ErrInvalidKind},
		{"missing kind", func(n *NewTransaction) { n.Kind = "" }, ErrInvalidField},
		{"missing level2", func(n *NewTransaction) { n.Category.Level2 = " " }, ErrEmptyCategory},
		{"zero amount", func(n *NewTransaction) { n.Amount = Money{} }, ErrInvalidAmount},
		{"positive expense", func(n *NewTransaction) { n.Amount = MoneyFromCents(100) }, ErrInvalidAmount},
		{"negative income", func(n *NewTransaction) { n.Kind = KindIncome }, ErrInvalidAmount},
		{"bad origin", func(n *NewTransaction) { n.OriginKind = "import" }, ErrInvalidOrigin},
		{"long description", func(n *NewTransaction) { n.Description = strings.Repeat("x", 201) }, ErrInvalidField},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := good
			tt.mutate(&n)
			err := n.Validate()
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if !IsValidationError(err) {
				t.Fatalf("expected a ValidationError, got %T", err)
			}
		})
	}
}

func TestNewPrepaidValidate(t *testing.T) {
	good := NewPrepaid{
		Name:     "Gym",
		Category: Category{Level1: "Health", Level2: "Gym"},
		Total:    MoneyFromCents(10000),
		Start:    NewMonth(2025, time.January),
		End:      NewMonth(2025, time.March),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	withPeriods := good
	withPeriods.Periods = 3
	if err := withPeriods.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := map[string]func(*NewPrepaid){
		"end before start":  func(n *NewPrepaid) { n.End = NewMonth(2024, time.December) },
		"periods mismatch":  func(n *NewPrepaid) { n.Periods = 4 },
		"negative total":    func(n *NewPrepaid) { n.Total = MoneyFromCents(-1) },
		"missing name":      func(n *NewPrepaid) { n.Name = "" },
		"missing start":     func(n *NewPrepaid) { n.Start = Month{} },
		"missing category":  func(n *NewPrepaid) { n.Category = Category{} },
	}
	for name, mutate := range bads {
		t.Run(name, func(t *testing.T) {
			n := good
			mutate(&n)
			if err := n.Validate(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestNewSubscriptionValidate(t *testing.T) {
	good := NewSubscription{
		Name:      "Music",
		Category:  Category{Level1: "Entertainment", Level2: "Streaming"},
		Cycle:     CycleMonthly,
		Amount:    MoneyFromCents(1500),
		StartDate: NewDate(2025, 1, 15),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bad := good
	bad.Cycle = "weekly"
	if err := bad.Validate(); err == nil {
		t.Fatal("expected error for weekly cycle")
	}
	bad = good
	bad.UsageLevel = "extreme"
	if err := bad.Validate(); err == nil {
		t.Fatal("expected error for unknown usage level")
	}
}

func TestOwnerOrDefault(t *testing.T) {
	if got := OwnerOrDefault("  "); got != DefaultOwner {
		t.Fatalf("expected %q, got %q", DefaultOwner, got)
	}
	if got := OwnerOrDefault("alice"); got != "alice" {
		t.Fatalf("expected alice, got %q", got)
	}
}
