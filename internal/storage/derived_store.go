package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"finledger/internal/core"
)

// BudgetActual pairs a budget with the live spend recorded against it.
type BudgetActual struct {
	Budget core.Budget
	Actual core.Money
}

func (s *Store) UpsertBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	err := s.queries.UpsertBudget(ctx, UpsertBudgetParams{
		Month:       b.Month.String(),
		CategoryL1:  b.Category.Level1,
		CategoryL2:  b.Category.Level2,
		OwnerID:     b.OwnerID,
		AmountCents: b.Amount.Cents(),
		UpdatedAt:   b.UpdatedAt,
	})
	if err != nil {
		return core.Budget{}, fmt.Errorf("upsert budget: %w", err)
	}
	row, err := s.queries.GetBudget(ctx, b.Month.String(), b.Category.Level1, b.Category.Level2, b.OwnerID)
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}
	return toCoreBudget(row)
}

// BudgetActuals computes every budget of the month with its actual spend in
// one grouped query. A non-nil category narrows the result to that budget.
func (s *Store) BudgetActuals(ctx context.Context, month core.Month, owner string, category *core.Category) ([]BudgetActual, error) {
	arg := BudgetActualsParams{Month: month.String(), OwnerID: owner}
	if category != nil {
		arg.CategoryL1 = nullString(category.Level1)
		arg.CategoryL2 = nullString(category.Level2)
	}
	rows, err := s.queries.BudgetActuals(ctx, arg)
	if err != nil {
		return nil, fmt.Errorf("budget actuals %s: %w", month, err)
	}
	out := make([]BudgetActual, 0, len(rows))
	for _, row := range rows {
		b, err := toCoreBudget(row.Budget)
		if err != nil {
			return nil, err
		}
		out = append(out, BudgetActual{Budget: b, Actual: core.MoneyFromCents(row.ActualCents)})
	}
	return out, nil
}

func (s *Store) UpsertSnapshot(ctx context.Context, snap core.MonthlySnapshot) error {
	top, err := json.Marshal(snap.TopCategories)
	if err != nil {
		return fmt.Errorf("encode top categories: %w", err)
	}
	err = s.queries.UpsertMonthlySnapshot(ctx, UpsertMonthlySnapshotParams{
		Month:            snap.Month.String(),
		OwnerID:          snap.OwnerID,
		IncomeCents:      snap.Income.Cents(),
		ExpenseCents:     snap.Expense.Cents(),
		NetCashflowCents: snap.NetCashflow.Cents(),
		TopCategories:    string(top),
		GeneratedAt:      snap.GeneratedAt,
	})
	if err != nil {
		return fmt.Errorf("upsert snapshot %s/%s: %w", snap.Month, snap.OwnerID, err)
	}
	return nil
}

// GetSnapshot returns nil when the month has never been aggregated.
func (s *Store) GetSnapshot(ctx context.Context, month core.Month, owner string) (*core.MonthlySnapshot, error) {
	row, err := s.queries.GetMonthlySnapshot(ctx, month.String(), owner)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot %s/%s: %w", month, owner, err)
	}
	snap, err := toCoreSnapshot(row)
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

func (s *Store) ListSnapshots(ctx context.Context, owner string, limit int) ([]core.MonthlySnapshot, error) {
	rows, err := s.queries.ListMonthlySnapshots(ctx, owner, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	out := make([]core.MonthlySnapshot, 0, len(rows))
	for _, row := range rows {
		snap, err := toCoreSnapshot(row)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, nil
}

func (s *Store) UpsertGoal(ctx context.Context, g core.FinancialGoal) (core.FinancialGoal, error) {
	var target sql.NullString
	if g.TargetDate != nil {
		target = nullString(g.TargetDate.String())
	}
	err := s.queries.UpsertFinancialGoal(ctx, UpsertFinancialGoalParams{
		ID:           g.ID,
		Name:         g.Name,
		Type:         string(g.Type),
		TargetCents:  g.TargetAmount.Cents(),
		CurrentCents: g.CurrentAmount.Cents(),
		TargetDate:   target,
		Priority:     int64(g.Priority),
		Status:       string(g.Status),
		CreatedMonth: g.CreatedMonth.String(),
		OwnerID:      g.OwnerID,
		CreatedAt:    g.CreatedAt,
		UpdatedAt:    g.UpdatedAt,
	})
	if err != nil {
		return core.FinancialGoal{}, fmt.Errorf("upsert goal: %w", err)
	}
	saved, err := s.GetGoal(ctx, g.ID)
	if err != nil {
		return core.FinancialGoal{}, err
	}
	if saved == nil {
		return core.FinancialGoal{}, fmt.Errorf("goal %s missing after upsert", g.ID)
	}
	return *saved, nil
}

// GetGoal returns nil when id is unknown.
func (s *Store) GetGoal(ctx context.Context, id string) (*core.FinancialGoal, error) {
	row, err := s.queries.GetFinancialGoal(ctx, id)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get goal %s: %w", id, err)
	}
	g, err := toCoreGoal(row)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *Store) ListGoals(ctx context.Context, owner string) ([]core.FinancialGoal, error) {
	rows, err := s.queries.ListFinancialGoals(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	out := make([]core.FinancialGoal, 0, len(rows))
	for _, row := range rows {
		g, err := toCoreGoal(row)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

// ReconcileSaveMoneyGoals recomputes the owner's in-progress save-money
// goals from snapshot history and returns how many were updated.
func (s *Store) ReconcileSaveMoneyGoals(ctx context.Context, owner string, at time.Time) (int64, error) {
	n, err := s.queries.ReconcileSaveMoneyGoals(ctx, owner, at)
	if err != nil {
		return 0, fmt.Errorf("reconcile goals for %s: %w", owner, err)
	}
	return n, nil
}

func toCoreBudget(row Budget) (core.Budget, error) {
	month, err := core.ParseMonth(row.Month)
	if err != nil {
		return core.Budget{}, fmt.Errorf("budget: %w", err)
	}
	return core.Budget{
		Month:     month,
		Category:  core.Category{Level1: row.CategoryL1, Level2: row.CategoryL2},
		Amount:    core.MoneyFromCents(row.AmountCents),
		OwnerID:   row.OwnerID,
		UpdatedAt: row.UpdatedAt,
	}, nil
}

func toCoreSnapshot(row MonthlySnapshot) (core.MonthlySnapshot, error) {
	month, err := core.ParseMonth(row.Month)
	if err != nil {
		return core.MonthlySnapshot{}, fmt.Errorf("snapshot: %w", err)
	}
	var top []core.CategoryShare
	if err := json.Unmarshal([]byte(row.TopCategories), &top); err != nil {
		return core.MonthlySnapshot{}, fmt.Errorf("decode top categories: %w", err)
	}
	return core.MonthlySnapshot{
		Month:         month,
		OwnerID:       row.OwnerID,
		Income:        core.MoneyFromCents(row.IncomeCents),
		Expense:       core.MoneyFromCents(row.ExpenseCents),
		NetCashflow:   core.MoneyFromCents(row.NetCashflowCents),
		TopCategories: top,
		GeneratedAt:   row.GeneratedAt,
	}, nil
}

func toCoreGoal(row FinancialGoal) (core.FinancialGoal, error) {
	created, err := core.ParseMonth(row.CreatedMonth)
	if err != nil {
		return core.FinancialGoal{}, fmt.Errorf("goal %s: %w", row.ID, err)
	}
	g := core.FinancialGoal{
		ID:            row.ID,
		Name:          row.Name,
		Type:          core.GoalType(row.Type),
		TargetAmount:  core.MoneyFromCents(row.TargetCents),
		CurrentAmount: core.MoneyFromCents(row.CurrentCents),
		Priority:      int(row.Priority),
		Status:        core.GoalStatus(row.Status),
		CreatedMonth:  created,
		OwnerID:       row.OwnerID,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
	if row.TargetDate.Valid {
		d, err := core.ParseDate(row.TargetDate.String)
		if err != nil {
			return core.FinancialGoal{}, fmt.Errorf("goal %s: %w", row.ID, err)
		}
		g.TargetDate = &d
	}
	return g, nil
}
