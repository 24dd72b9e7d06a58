package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"finledger/internal/core"
	"finledger/internal/sheets"
	"finledger/internal/storage"
)

const (
	topCategoryCount     = 3
	defaultSnapshotLimit = 12
)

// SnapshotAggregator derives the per-month, per-owner summary from the
// ledger. A snapshot is always rebuilt from scratch, so regenerating it is
// idempotent.
type SnapshotAggregator struct {
	storage  *storage.SQLiteRepository
	goals    *GoalReconciler
	exporter sheets.SnapshotExporter
	now      func() time.Time
}

func NewSnapshotAggregator(storage *storage.SQLiteRepository, goals *GoalReconciler, exporter sheets.SnapshotExporter, now func() time.Time) *SnapshotAggregator {
	if now == nil {
		now = time.Now
	}
	return &SnapshotAggregator{storage: storage, goals: goals, exporter: exporter, now: now}
}

// Regenerate rebuilds the snapshot of (month, owner), then reconciles the
// owner's goals. Export to the sheet is best effort.
func (a *SnapshotAggregator) Regenerate(ctx context.Context, month core.Month, owner string) (core.MonthlySnapshot, error) {
	owner = core.OwnerOrDefault(owner)

	income, expenseSum, err := a.storage.MonthTotals(ctx, month, owner)
	if err != nil {
		return core.MonthlySnapshot{}, err
	}
	top, err := a.storage.TopExpenseCategories(ctx, month, owner, topCategoryCount)
	if err != nil {
		return core.MonthlySnapshot{}, err
	}

	expense := expenseSum.Abs()
	for i := range top {
		top[i].Percent = top[i].Amount.PercentOf(expense)
	}

	snap := core.MonthlySnapshot{
		Month:         month,
		OwnerID:       owner,
		Income:        income,
		Expense:       expense,
		NetCashflow:   income.Sub(expense),
		TopCategories: top,
		GeneratedAt:   a.now(),
	}
	if err := a.storage.UpsertSnapshot(ctx, snap); err != nil {
		return core.MonthlySnapshot{}, err
	}

	slog.InfoContext(ctx, "Snapshot regenerated",
		"month", month.String(),
		"owner_id", owner,
		"income", snap.Income.String(),
		"expense", snap.Expense.String())

	if a.goals != nil {
		if _, err := a.goals.Reconcile(ctx, owner); err != nil {
			return snap, err
		}
	}

	if a.exporter != nil {
		if err := a.exporter.ExportSnapshot(ctx, snap); err != nil {
			slog.WarnContext(ctx, "Failed to export snapshot",
				"month", month.String(),
				"owner_id", owner,
				"error", err)
		}
	}
	return snap, nil
}

// Get returns nil when the month has not been aggregated.
func (a *SnapshotAggregator) Get(ctx context.Context, month core.Month, owner string) (*core.MonthlySnapshot, error) {
	return a.storage.GetSnapshot(ctx, month, core.OwnerOrDefault(owner))
}

// List returns the owner's most recent snapshots, newest first.
func (a *SnapshotAggregator) List(ctx context.Context, owner string, limit int) ([]core.MonthlySnapshot, error) {
	if limit <= 0 {
		limit = defaultSnapshotLimit
	}
	return a.storage.ListSnapshots(ctx, core.OwnerOrDefault(owner), limit)
}

// regenerateAll rebuilds each (month, owner) pair once, logging failures.
func (a *SnapshotAggregator) regenerateAll(ctx context.Context, keys []snapshotKey) {
	seen := make(map[snapshotKey]struct{}, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		if _, err := a.Regenerate(ctx, k.month, k.owner); err != nil {
			slog.ErrorContext(ctx, "Failed to regenerate snapshot",
				"month", k.month.String(),
				"owner_id", k.owner,
				"error", err)
		}
	}
}

type snapshotKey struct {
	month core.Month
	owner string
}

// ExportDrift is a stored snapshot whose exported row is missing or holds
// other figures.
type ExportDrift struct {
	Month    core.Month            `json:"month"`
	Reason   string                `json:"reason"`
	Stored   core.MonthlySnapshot  `json:"stored"`
	Exported *core.MonthlySnapshot `json:"exported,omitempty"`
}

const (
	driftMissing    = "missing"
	driftFigures    = "figures differ"
	driftCategories = "top categories differ"
)

// VerifyExport reads the owner's exported rows back through reader and
// compares them with the most recent stored snapshots. The stored snapshot
// is authoritative; an empty result means the sheet is in sync.
func (a *SnapshotAggregator) VerifyExport(ctx context.Context, reader sheets.SnapshotReader, owner string, limit int) ([]ExportDrift, error) {
	owner = core.OwnerOrDefault(owner)
	stored, err := a.List(ctx, owner, limit)
	if err != nil {
		return nil, err
	}
	exported, err := reader.ListSnapshots(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("read exported snapshots: %w", err)
	}

	byMonth := make(map[core.Month]core.MonthlySnapshot, len(exported))
	for _, snap := range exported {
		byMonth[snap.Month] = snap
	}

	drift := []ExportDrift{}
	for _, snap := range stored {
		row, ok := byMonth[snap.Month]
		if !ok {
			drift = append(drift, ExportDrift{Month: snap.Month, Reason: driftMissing, Stored: snap})
			continue
		}
		if reason := compareSnapshots(snap, row); reason != "" {
			drift = append(drift, ExportDrift{Month: snap.Month, Reason: reason, Stored: snap, Exported: &row})
		}
	}

	slog.InfoContext(ctx, "Snapshot export verified",
		"owner_id", owner,
		"checked", len(stored),
		"drift", len(drift))
	return drift, nil
}

func compareSnapshots(stored, exported core.MonthlySnapshot) string {
	if !stored.Income.Equal(exported.Income) ||
		!stored.Expense.Equal(exported.Expense) ||
		!stored.NetCashflow.Equal(exported.NetCashflow) {
		return driftFigures
	}
	if len(stored.TopCategories) != len(exported.TopCategories) {
		return driftCategories
	}
	for i, c := range stored.TopCategories {
		e := exported.TopCategories[i]
		if c.Category != e.Category || !c.Amount.Equal(e.Amount) {
			return driftCategories
		}
	}
	return ""
}
