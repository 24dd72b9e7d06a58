package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"finledger/internal/core"
	"finledger/internal/storage"
)

// Alert thresholds in percent of the budget.
var (
	alertThreshold = decimal.NewFromInt(80)
	overThreshold  = decimal.NewFromInt(100)
)

// BudgetTracker compares monthly budgets with recorded spend.
type BudgetTracker struct {
	storage *storage.SQLiteRepository
	now     func() time.Time
}

func NewBudgetTracker(storage *storage.SQLiteRepository, now func() time.Time) *BudgetTracker {
	if now == nil {
		now = time.Now
	}
	return &BudgetTracker{storage: storage, now: now}
}

// SetBudget creates or replaces the budget of (month, category, owner).
func (b *BudgetTracker) SetBudget(ctx context.Context, n core.NewBudget) (core.Budget, error) {
	if err := n.Validate(); err != nil {
		return core.Budget{}, err
	}
	return b.storage.UpsertBudget(ctx, core.Budget{
		Month:     n.Month,
		Category:  n.Category,
		Amount:    n.Amount,
		OwnerID:   core.OwnerOrDefault(n.OwnerID),
		UpdatedAt: b.now(),
	})
}

// Status reports every budget of the month with its actual spend.
func (b *BudgetTracker) Status(ctx context.Context, month core.Month, owner string) (core.BudgetStatus, error) {
	owner = core.OwnerOrDefault(owner)
	rows, err := b.storage.BudgetActuals(ctx, month, owner, nil)
	if err != nil {
		return core.BudgetStatus{}, err
	}

	status := core.BudgetStatus{
		Month:   month,
		OwnerID: owner,
		Items:   make([]core.BudgetLine, 0, len(rows)),
	}
	for _, row := range rows {
		status.Items = append(status.Items, core.BudgetLine{
			Budget:    row.Budget,
			Actual:    row.Actual,
			Remaining: row.Budget.Amount.Sub(row.Actual),
			Percent:   row.Actual.PercentOf(row.Budget.Amount),
		})
		status.TotalBudget = status.TotalBudget.Add(row.Budget.Amount)
		status.TotalActual = status.TotalActual.Add(row.Actual)
	}
	return status, nil
}

// CheckAlert returns nil when the category has no budget for the month or
// spend is below 80% of it. The error is only ever a storage failure.
func (b *BudgetTracker) CheckAlert(ctx context.Context, month core.Month, category core.Category, owner string) (*core.BudgetAlert, error) {
	rows, err := b.storage.BudgetActuals(ctx, month, core.OwnerOrDefault(owner), &category)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	row := rows[0]
	if row.Budget.Amount.IsZero() {
		return nil, nil
	}
	percent := row.Actual.PercentOf(row.Budget.Amount)
	if percent.LessThan(alertThreshold) {
		return nil, nil
	}
	return &core.BudgetAlert{
		Month:    month,
		Category: category,
		Budget:   row.Budget.Amount,
		Actual:   row.Actual,
		Percent:  percent,
		IsOver:   percent.GreaterThanOrEqual(overThreshold),
	}, nil
}
