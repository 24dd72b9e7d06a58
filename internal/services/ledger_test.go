package services

import (
	"context"
	"errors"
	"testing"

	"finledger/internal/core"
	"finledger/internal/tasks"
)

func TestRecordValidatesBeforeWriting(t *testing.T) {
	ctx := context.Background()
	e, repo, _ := newTestEngine(t)

	tests := []struct {
		name string
		n    core.NewTransaction
		want error
	}{
		{
			name: "positive expense",
			n: core.NewTransaction{
				Date: core.NewDate(2025, 1, 3), Kind: core.KindExpense,
				Category: core.Category{Level1: "Food", Level2: "Lunch"},
				Amount:   core.MoneyFromCents(1200),
			},
			want: core.ErrInvalidAmount,
		},
		{
			name: "negative income",
			n: core.NewTransaction{
				Date: core.NewDate(2025, 1, 3), Kind: core.KindIncome,
				Category: core.Category{Level1: "Income", Level2: "Salary"},
				Amount:   core.MoneyFromCents(-1200),
			},
			want: core.ErrInvalidAmount,
		},
		{
			name: "missing category",
			n: core.NewTransaction{
				Date: core.NewDate(2025, 1, 3), Kind: core.KindExpense,
				Category: core.Category{Level1: "Food"},
				Amount:   core.MoneyFromCents(-1200),
			},
			want: core.ErrEmptyCategory,
		},
		{
			name: "missing date",
			n: core.NewTransaction{
				Kind:     core.KindExpense,
				Category: core.Category{Level1: "Food", Level2: "Lunch"},
				Amount:   core.MoneyFromCents(-1200),
			},
			want: core.ErrInvalidDate,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Ledger.Record(ctx, tt.n)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if !core.IsValidationError(err) {
				t.Fatalf("expected a validation error, got %T", err)
			}
		})
	}

	stats, err := repo.Statistics(ctx, core.TransactionFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if stats.Count != 0 {
		t.Fatalf("rejected entries must not be written, found %d", stats.Count)
	}
}

func TestRecordAppliesDefaultsAndSideEffects(t *testing.T) {
	ctx := context.Background()
	e, repo, _ := newTestEngine(t)

	n := spend(core.NewDate(2025, 1, 8), "Food", "Coffee", 450)
	n.Tags = []string{" latte ", "latte", "x"}
	tx, err := e.Ledger.Record(ctx, n)
	if err != nil {
		t.Fatal(err)
	}
	if tx.OwnerID != core.DefaultOwner || tx.OriginKind != core.OriginManual {
		t.Fatalf("defaults not applied: %+v", tx)
	}
	if len(tx.Tags) != 1 || tx.Tags[0] != "latte" {
		t.Fatalf("tags not normalized: %v", tx.Tags)
	}

	cats, err := repo.ListCategories(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(cats) != 1 || cats[0].UsageCount != 1 || cats[0].Category.Level2 != "Coffee" {
		t.Fatalf("category usage not recorded: %+v", cats)
	}

	snap, err := e.Snapshots.Get(ctx, month(2025, 1), core.DefaultOwner)
	if err != nil || snap == nil {
		t.Fatalf("snapshot not refreshed: %v (%v)", snap, err)
	}
	if snap.Expense.Cents() != 450 {
		t.Fatalf("expected expense 4.50, got %s", snap.Expense)
	}
}

type collectingDispatcher struct {
	tasks []tasks.Task
}

func (d *collectingDispatcher) Dispatch(_ context.Context, task tasks.Task) {
	d.tasks = append(d.tasks, task)
}

func TestRecordDispatchesWithoutRunning(t *testing.T) {
	ctx := context.Background()
	e, _, _ := newTestEngine(t)
	d := &collectingDispatcher{}
	e.Ledger.dispatcher = d

	n := spend(core.NewDate(2025, 1, 8), "Food", "Coffee", 450)
	n.Tags = []string{"latte"}
	mustRecord(t, e, n)

	want := []tasks.Kind{tasks.KindCategoryUsage, tasks.KindTagUsage, tasks.KindSnapshotRefresh}
	if len(d.tasks) != len(want) {
		t.Fatalf("expected %d tasks, got %d", len(want), len(d.tasks))
	}
	for i, k := range want {
		if d.tasks[i].Kind != k {
			t.Errorf("task %d: expected %s, got %s", i, k, d.tasks[i].Kind)
		}
	}
	if d.tasks[2].Month != month(2025, 1) || d.tasks[2].OwnerID != testOwner {
		t.Errorf("unexpected snapshot task %+v", d.tasks[2])
	}

	snap, err := e.Snapshots.Get(ctx, month(2025, 1), testOwner)
	if err != nil {
		t.Fatal(err)
	}
	if snap != nil {
		t.Fatal("snapshot must not exist until the task runs")
	}
}

func TestStatisticsAndBreakdown(t *testing.T) {
	ctx := context.Background()
	e, _, _ := newTestEngine(t)

	mustRecord(t, e, spend(core.NewDate(2025, 1, 2), "Food", "Lunch", 1000))
	mustRecord(t, e, spend(core.NewDate(2025, 1, 3), "Food", "Lunch", 500))
	mustRecord(t, e, spend(core.NewDate(2025, 1, 4), "Travel", "Taxi", 2000))
	mustRecord(t, e, earn(core.NewDate(2025, 1, 5), 10000))

	stats, err := e.Ledger.Statistics(ctx, core.TransactionFilter{Kind: core.KindExpense, OwnerID: testOwner})
	if err != nil {
		t.Fatal(err)
	}
	if stats.Count != 3 || stats.Total.Cents() != -3500 {
		t.Fatalf("unexpected statistics %+v", stats)
	}

	rows, err := e.Ledger.CategoryBreakdown(ctx, core.TransactionFilter{Kind: core.KindExpense})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[0].Category.Level1 != "Travel" || rows[1].Count != 2 {
		t.Fatalf("unexpected breakdown %+v", rows)
	}

	from := core.NewDate(2025, 1, 3)
	recent, err := e.Ledger.ListTransactions(ctx, core.TransactionFilter{From: &from}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 3 {
		t.Fatalf("expected 3 entries from Jan 3, got %d", len(recent))
	}
}

func TestTaskRunnerRejectsUnknownKind(t *testing.T) {
	e, _, _ := newTestEngine(t)
	if err := e.Handler().Handle(context.Background(), tasks.Task{Kind: "bogus"}); err == nil {
		t.Fatal("expected an error for an unknown task kind")
	}
	if err := e.Handler().Handle(context.Background(), tasks.Task{Kind: tasks.KindSnapshotRefresh}); err == nil {
		t.Fatal("expected an error for a snapshot task without month")
	}
}
