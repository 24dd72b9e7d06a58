package services

import (
	"context"
	"errors"
	"testing"

	"finledger/internal/core"
)

func TestCheckAlertThresholds(t *testing.T) {
	ctx := context.Background()
	e, _, _ := newTestEngine(t)
	groceries := core.Category{Level1: "Food", Level2: "Groceries"}
	jan := month(2025, 1)

	if _, err := e.Budgets.SetBudget(ctx, core.NewBudget{Month: jan, Category: groceries, Amount: core.MoneyFromCents(10000), OwnerID: testOwner}); err != nil {
		t.Fatal(err)
	}

	alert, err := e.Budgets.CheckAlert(ctx, jan, groceries, testOwner)
	if err != nil || alert != nil {
		t.Fatalf("expected no alert without spend, got %+v (%v)", alert, err)
	}

	mustRecord(t, e, spend(core.NewDate(2025, 1, 4), "Food", "Groceries", 8500))
	alert, err = e.Budgets.CheckAlert(ctx, jan, groceries, testOwner)
	if err != nil || alert == nil {
		t.Fatalf("expected an alert at 85%%, got %v", err)
	}
	if alert.Percent.String() != "85" || alert.IsOver {
		t.Fatalf("unexpected alert %+v", alert)
	}

	mustRecord(t, e, spend(core.NewDate(2025, 1, 9), "Food", "Groceries", 2000))
	alert, err = e.Budgets.CheckAlert(ctx, jan, groceries, testOwner)
	if err != nil || alert == nil {
		t.Fatalf("expected an alert at 105%%, got %v", err)
	}
	if alert.Percent.String() != "105" || !alert.IsOver || alert.Actual.Cents() != 10500 {
		t.Fatalf("unexpected alert %+v", alert)
	}

	other, err := e.Budgets.CheckAlert(ctx, jan, core.Category{Level1: "Food", Level2: "Dining"}, testOwner)
	if err != nil || other != nil {
		t.Fatalf("expected nil for a category without budget, got %+v (%v)", other, err)
	}
}

func TestBudgetStatus(t *testing.T) {
	ctx := context.Background()
	e, _, _ := newTestEngine(t)
	jan := month(2025, 1)

	for _, b := range []core.NewBudget{
		{Month: jan, Category: core.Category{Level1: "Food", Level2: "Groceries"}, Amount: core.MoneyFromCents(30000)},
		{Month: jan, Category: core.Category{Level1: "Travel", Level2: "Taxi"}, Amount: core.MoneyFromCents(10000)},
	} {
		b.OwnerID = testOwner
		if _, err := e.Budgets.SetBudget(ctx, b); err != nil {
			t.Fatal(err)
		}
	}
	// Setting again replaces the amount.
	if _, err := e.Budgets.SetBudget(ctx, core.NewBudget{Month: jan, Category: core.Category{Level1: "Food", Level2: "Groceries"}, Amount: core.MoneyFromCents(20000), OwnerID: testOwner}); err != nil {
		t.Fatal(err)
	}

	mustRecord(t, e, spend(core.NewDate(2025, 1, 4), "Food", "Groceries", 5000))
	mustRecord(t, e, spend(core.NewDate(2025, 2, 1), "Food", "Groceries", 9900))
	mustRecord(t, e, spend(core.NewDate(2025, 1, 6), "Travel", "Taxi", 1234))

	status, err := e.Budgets.Status(ctx, jan, testOwner)
	if err != nil {
		t.Fatal(err)
	}
	if len(status.Items) != 2 {
		t.Fatalf("expected 2 budget lines, got %d", len(status.Items))
	}
	if status.TotalBudget.Cents() != 30000 || status.TotalActual.Cents() != 6234 {
		t.Fatalf("unexpected totals %s / %s", status.TotalBudget, status.TotalActual)
	}
	for _, line := range status.Items {
		switch line.Budget.Category.Level1 {
		case "Food":
			if line.Actual.Cents() != 5000 || line.Remaining.Cents() != 15000 || line.Percent.String() != "25" {
				t.Errorf("unexpected food line %+v", line)
			}
		case "Travel":
			if line.Percent.String() != "12.3" {
				t.Errorf("unexpected travel percent %s", line.Percent)
			}
		}
	}

	_, err = e.Budgets.SetBudget(ctx, core.NewBudget{Month: jan, Category: core.Category{Level1: "Food", Level2: "Groceries"}})
	if !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected invalid amount, got %v", err)
	}
}
