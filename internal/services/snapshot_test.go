package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"finledger/internal/core"
	"finledger/internal/sheets/memory"
)

func TestRegenerateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	e, _, _ := newTestEngine(t)

	mustRecord(t, e, earn(core.NewDate(2025, 1, 1), 100000))
	mustRecord(t, e, spend(core.NewDate(2025, 1, 2), "Food", "Groceries", 20000))
	mustRecord(t, e, spend(core.NewDate(2025, 1, 3), "Travel", "Train", 10000))
	mustRecord(t, e, spend(core.NewDate(2025, 1, 4), "Home", "Repairs", 5000))
	mustRecord(t, e, spend(core.NewDate(2025, 1, 5), "Misc", "Gifts", 1000))
	excluded := spend(core.NewDate(2025, 1, 6), "Food", "Groceries", 99900)
	excluded.CountsTowardAnalysis = false
	mustRecord(t, e, excluded)

	first, err := e.Snapshots.Regenerate(ctx, month(2025, 1), testOwner)
	if err != nil {
		t.Fatal(err)
	}
	second, err := e.Snapshots.Regenerate(ctx, month(2025, 1), testOwner)
	if err != nil {
		t.Fatal(err)
	}

	for _, snap := range []core.MonthlySnapshot{first, second} {
		if snap.Income.Cents() != 100000 || snap.Expense.Cents() != 36000 || snap.NetCashflow.Cents() != 64000 {
			t.Fatalf("unexpected totals %+v", snap)
		}
	}
	if len(second.TopCategories) != 3 {
		t.Fatalf("expected top 3 categories, got %d", len(second.TopCategories))
	}
	wantTop := []struct {
		name    string
		percent string
	}{{"Food", "55.6"}, {"Travel", "27.8"}, {"Home", "13.9"}}
	for i, w := range wantTop {
		got := second.TopCategories[i]
		if got.Category != w.name || got.Percent.String() != w.percent {
			t.Errorf("top %d: expected %s %s%%, got %s %s%%", i, w.name, w.percent, got.Category, got.Percent)
		}
		if got.Category != first.TopCategories[i].Category || !got.Amount.Equal(first.TopCategories[i].Amount) {
			t.Errorf("top %d differs between runs", i)
		}
	}

	stored, err := e.Snapshots.Get(ctx, month(2025, 1), testOwner)
	if err != nil || stored == nil {
		t.Fatalf("get: %v (%v)", stored, err)
	}
	if !stored.NetCashflow.Equal(second.NetCashflow) || len(stored.TopCategories) != 3 {
		t.Fatalf("stored snapshot differs %+v", stored)
	}
	if s := stored.Summary(); s == "" {
		t.Fatal("expected a non-empty summary")
	}
}

func TestRegenerateEmptyMonth(t *testing.T) {
	e, _, _ := newTestEngine(t)
	snap, err := e.Snapshots.Regenerate(context.Background(), month(2030, 6), "")
	if err != nil {
		t.Fatal(err)
	}
	if snap.OwnerID != core.DefaultOwner || !snap.Expense.IsZero() || len(snap.TopCategories) != 0 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestExportFailureDoesNotFailRegenerate(t *testing.T) {
	ctx := context.Background()
	_, repo, clock := newTestEngine(t)
	exporter := memory.New()
	exporter.FailWith(errors.New("sheet unavailable"))
	e := NewEngine(repo, Options{Now: clock.Now, Exporter: exporter})

	if _, err := e.Snapshots.Regenerate(ctx, month(2025, 1), testOwner); err != nil {
		t.Fatalf("export errors must be swallowed, got %v", err)
	}
	if exporter.Exports() != 0 {
		t.Fatalf("expected no stored export, got %d", exporter.Exports())
	}

	exporter.FailWith(nil)
	if _, err := e.Snapshots.Regenerate(ctx, month(2025, 1), testOwner); err != nil {
		t.Fatalf("Regenerate() error = %v", err)
	}
	rows, err := exporter.ListSnapshots(ctx, testOwner)
	if err != nil {
		t.Fatalf("ListSnapshots() error = %v", err)
	}
	if len(rows) != 1 || rows[0].Month != month(2025, 1) {
		t.Fatalf("exported rows = %+v, want the January snapshot", rows)
	}
}

func TestVerifyExportReportsDrift(t *testing.T) {
	ctx := context.Background()
	_, repo, clock := newTestEngine(t)
	exporter := memory.New()
	e := NewEngine(repo, Options{Now: clock.Now, Exporter: exporter})

	mustRecord(t, e, spend(testDate, "Food", "Groceries", 4000))
	drift, err := e.Snapshots.VerifyExport(ctx, exporter, testOwner, 0)
	if err != nil {
		t.Fatalf("VerifyExport() error = %v", err)
	}
	if len(drift) != 0 {
		t.Fatalf("drift after a clean export = %+v", drift)
	}

	exporter.FailWith(errors.New("sheet unavailable"))
	mustRecord(t, e, spend(testDate, "Food", "Groceries", 1000))
	if _, err := e.Snapshots.Regenerate(ctx, month(2025, 2), testOwner); err != nil {
		t.Fatalf("Regenerate() error = %v", err)
	}

	drift, err = e.Snapshots.VerifyExport(ctx, exporter, testOwner, 0)
	if err != nil {
		t.Fatalf("VerifyExport() error = %v", err)
	}
	want := []struct {
		month  core.Month
		reason string
	}{
		{month(2025, 2), driftMissing},
		{month(2025, 1), driftFigures},
	}
	if len(drift) != len(want) {
		t.Fatalf("drift = %+v, want %d entries", drift, len(want))
	}
	for i, w := range want {
		if drift[i].Month != w.month || drift[i].Reason != w.reason {
			t.Errorf("drift[%d] = %s %q, want %s %q", i, drift[i].Month, drift[i].Reason, w.month, w.reason)
		}
	}
	if drift[1].Exported == nil || drift[1].Exported.Expense.Cents() != 4000 || drift[1].Stored.Expense.Cents() != 5000 {
		t.Errorf("january drift = %+v", drift[1])
	}

	// Exporting again brings the sheet back in sync.
	exporter.FailWith(nil)
	for _, m := range []core.Month{month(2025, 1), month(2025, 2)} {
		if _, err := e.Snapshots.Regenerate(ctx, m, testOwner); err != nil {
			t.Fatalf("Regenerate(%s) error = %v", m, err)
		}
	}
	drift, err = e.Snapshots.VerifyExport(ctx, exporter, testOwner, 0)
	if err != nil || len(drift) != 0 {
		t.Fatalf("drift after re-export = %+v, %v", drift, err)
	}
}

func TestCompareSnapshots(t *testing.T) {
	base := core.MonthlySnapshot{
		Month:       month(2025, 1),
		Income:      core.MoneyFromCents(100000),
		Expense:     core.MoneyFromCents(4000),
		NetCashflow: core.MoneyFromCents(96000),
		TopCategories: []core.CategoryShare{
			{Category: "Food/Groceries", Amount: core.MoneyFromCents(4000)},
		},
	}
	tests := []struct {
		name   string
		change func(*core.MonthlySnapshot)
		want   string
	}{
		{"identical", func(*core.MonthlySnapshot) {}, ""},
		{"generated time ignored", func(s *core.MonthlySnapshot) { s.GeneratedAt = time.Now() }, ""},
		{"income", func(s *core.MonthlySnapshot) { s.Income = core.MoneyFromCents(1) }, driftFigures},
		{"net", func(s *core.MonthlySnapshot) { s.NetCashflow = core.MoneyFromCents(1) }, driftFigures},
		{"category removed", func(s *core.MonthlySnapshot) { s.TopCategories = nil }, driftCategories},
		{"category renamed", func(s *core.MonthlySnapshot) {
			s.TopCategories = []core.CategoryShare{{Category: "Food/Dining", Amount: core.MoneyFromCents(4000)}}
		}, driftCategories},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exported := base
			exported.TopCategories = append([]core.CategoryShare(nil), base.TopCategories...)
			tt.change(&exported)
			if got := compareSnapshots(base, exported); got != tt.want {
				t.Errorf("compareSnapshots() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSaveMoneyGoalTracksSnapshots(t *testing.T) {
	ctx := context.Background()
	e, _, clock := newTestEngine(t)

	// History before the goal exists does not count.
	mustRecord(t, e, earn(core.NewDate(2024, 12, 1), 50000))

	clock.Set(2025, time.January, 2)
	goal, err := e.Goals.UpsertGoal(ctx, core.NewGoal{
		Name:         "Emergency fund",
		Type:         core.GoalSaveMoney,
		TargetAmount: core.MoneyFromCents(500000),
		Priority:     5,
		OwnerID:      testOwner,
	})
	if err != nil {
		t.Fatal(err)
	}
	if goal.CreatedMonth != month(2025, 1) || !goal.CurrentAmount.IsZero() {
		t.Fatalf("unexpected new goal %+v", goal)
	}

	mustRecord(t, e, earn(core.NewDate(2025, 1, 5), 100000))
	mustRecord(t, e, spend(core.NewDate(2025, 1, 6), "Food", "Groceries", 20000))
	mustRecord(t, e, earn(core.NewDate(2025, 2, 5), 50000))

	got, err := e.Goals.GetGoal(ctx, goal.ID)
	if err != nil || got == nil {
		t.Fatalf("get goal: %v", err)
	}

	snaps, err := e.Snapshots.List(ctx, testOwner, 0)
	if err != nil {
		t.Fatal(err)
	}
	var want core.Money
	for _, s := range snaps {
		if !s.Month.Before(goal.CreatedMonth) {
			want = want.Add(s.NetCashflow)
		}
	}
	if !got.CurrentAmount.Equal(want) || got.CurrentAmount.Cents() != 130000 {
		t.Fatalf("expected current %s (130000 cents), got %s", want, got.CurrentAmount)
	}

	goals, err := e.Goals.ListGoals(ctx, testOwner)
	if err != nil {
		t.Fatal(err)
	}
	if len(goals) != 1 || goals[0].Progress.String() != "26" {
		t.Fatalf("unexpected progress %+v", goals)
	}
}

func TestUpsertGoalKeepsCreationMonth(t *testing.T) {
	ctx := context.Background()
	e, _, clock := newTestEngine(t)

	goal, err := e.Goals.UpsertGoal(ctx, core.NewGoal{
		Name:          "New laptop",
		Type:          core.GoalPurchase,
		TargetAmount:  core.MoneyFromCents(800000),
		CurrentAmount: core.MoneyFromCents(100000),
		OwnerID:       testOwner,
	})
	if err != nil {
		t.Fatal(err)
	}

	clock.Set(2025, time.March, 1)
	updated, err := e.Goals.UpsertGoal(ctx, core.NewGoal{
		ID:            goal.ID,
		Name:          "New laptop",
		Type:          core.GoalPurchase,
		TargetAmount:  core.MoneyFromCents(800000),
		CurrentAmount: core.MoneyFromCents(400000),
		Priority:      9,
		OwnerID:       testOwner,
	})
	if err != nil {
		t.Fatal(err)
	}
	if updated.CreatedMonth != month(2025, 1) || updated.CurrentAmount.Cents() != 400000 || updated.Priority != 9 {
		t.Fatalf("unexpected update %+v", updated)
	}

	if _, err := e.Goals.UpsertGoal(ctx, core.NewGoal{Name: "x", Type: "lottery", TargetAmount: core.MoneyFromCents(1)}); !errors.Is(err, core.ErrInvalidGoalType) {
		t.Fatalf("expected invalid goal type, got %v", err)
	}
}
