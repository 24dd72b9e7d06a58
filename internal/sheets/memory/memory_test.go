package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"finledger/internal/core"
)

func TestStoreExportOverwrites(t *testing.T) {
	ctx := context.Background()
	s := New()
	march := core.NewMonth(2025, time.March)

	for _, snap := range []core.MonthlySnapshot{
		{Month: march, OwnerID: "alice", Expense: core.MoneyFromCents(100)},
		{Month: march, OwnerID: "alice", Expense: core.MoneyFromCents(250)},
		{Month: core.NewMonth(2025, time.April), OwnerID: "alice"},
		{Month: march, OwnerID: "bob"},
	} {
		if err := s.ExportSnapshot(ctx, snap); err != nil {
			t.Fatalf("ExportSnapshot() error = %v", err)
		}
	}

	got, err := s.ListSnapshots(ctx, "alice")
	if err != nil {
		t.Fatalf("ListSnapshots() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d snapshots, want 2", len(got))
	}
	if got[0].Month.String() != "2025-04" {
		t.Errorf("first month = %s, want 2025-04", got[0].Month)
	}
	if got[1].Expense.Cents() != 250 {
		t.Errorf("march expense = %d cents, want the overwrite 250", got[1].Expense.Cents())
	}
	if s.Exports() != 4 {
		t.Errorf("Exports() = %d, want 4", s.Exports())
	}
}

func TestStoreFailWith(t *testing.T) {
	s := New()
	boom := errors.New("quota exceeded")
	s.FailWith(boom)
	if err := s.ExportSnapshot(context.Background(), core.MonthlySnapshot{}); !errors.Is(err, boom) {
		t.Fatalf("ExportSnapshot() error = %v, want %v", err, boom)
	}
	s.FailWith(nil)
	if err := s.ExportSnapshot(context.Background(), core.MonthlySnapshot{}); err != nil {
		t.Fatalf("ExportSnapshot() after reset error = %v", err)
	}
}
