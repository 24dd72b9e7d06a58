package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"finledger/internal/core"
	"finledger/internal/storage"
)

// GoalProgress is a goal together with how far along it is, in percent.
type GoalProgress struct {
	core.FinancialGoal
	Progress decimal.Decimal `json:"progress"`
}

// GoalReconciler keeps save-money goals in line with snapshot history.
type GoalReconciler struct {
	storage *storage.SQLiteRepository
	now     func() time.Time
}

func NewGoalReconciler(storage *storage.SQLiteRepository, now func() time.Time) *GoalReconciler {
	if now == nil {
		now = time.Now
	}
	return &GoalReconciler{storage: storage, now: now}
}

// Reconcile recomputes the current amount of every in-progress save-money
// goal of owner as the sum of net cashflow since the goal's creation month.
func (g *GoalReconciler) Reconcile(ctx context.Context, owner string) (int64, error) {
	owner = core.OwnerOrDefault(owner)
	n, err := g.storage.ReconcileSaveMoneyGoals(ctx, owner, g.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		slog.DebugContext(ctx, "Goals reconciled", "owner_id", owner, "updated", n)
	}
	return n, nil
}

// UpsertGoal creates a goal, or updates it when n.ID names an existing one.
// Creation month and time of an existing goal never change.
func (g *GoalReconciler) UpsertGoal(ctx context.Context, n core.NewGoal) (core.FinancialGoal, error) {
	if err := n.Validate(); err != nil {
		return core.FinancialGoal{}, err
	}

	now := g.now()
	goal := core.FinancialGoal{
		ID:            n.ID,
		Name:          n.Name,
		Type:          n.Type,
		TargetAmount:  n.TargetAmount,
		CurrentAmount: n.CurrentAmount,
		TargetDate:    n.TargetDate,
		Priority:      n.Priority,
		Status:        n.Status,
		CreatedMonth:  core.MonthOf(now),
		OwnerID:       core.OwnerOrDefault(n.OwnerID),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if goal.Status == "" {
		goal.Status = core.GoalInProgress
	}
	if goal.Type == core.GoalSaveMoney {
		goal.CurrentAmount = core.Money{}
	}

	if goal.ID == "" {
		goal.ID = core.NewID("goal")
	} else {
		existing, err := g.storage.GetGoal(ctx, goal.ID)
		if err != nil {
			return core.FinancialGoal{}, err
		}
		if existing != nil {
			goal.CreatedMonth = existing.CreatedMonth
			goal.CreatedAt = existing.CreatedAt
			goal.OwnerID = existing.OwnerID
		}
	}

	saved, err := g.storage.UpsertGoal(ctx, goal)
	if err != nil {
		return core.FinancialGoal{}, err
	}
	if saved.Type != core.GoalSaveMoney {
		return saved, nil
	}

	if _, err := g.Reconcile(ctx, saved.OwnerID); err != nil {
		return core.FinancialGoal{}, err
	}
	fresh, err := g.storage.GetGoal(ctx, saved.ID)
	if err != nil {
		return core.FinancialGoal{}, err
	}
	if fresh == nil {
		return saved, nil
	}
	return *fresh, nil
}

// ListGoals returns the owner's goals by priority, highest first.
func (g *GoalReconciler) ListGoals(ctx context.Context, owner string) ([]GoalProgress, error) {
	goals, err := g.storage.ListGoals(ctx, core.OwnerOrDefault(owner))
	if err != nil {
		return nil, err
	}
	out := make([]GoalProgress, 0, len(goals))
	for _, goal := range goals {
		out = append(out, GoalProgress{
			FinancialGoal: goal,
			Progress:      goal.CurrentAmount.PercentOf(goal.TargetAmount),
		})
	}
	return out, nil
}

func (g *GoalReconciler) GetGoal(ctx context.Context, id string) (*core.FinancialGoal, error) {
	return g.storage.GetGoal(ctx, id)
}
