package storage

import (
	"context"
	"database/sql"
	"time"
)

const upsertBudget = `-- name: UpsertBudget :exec
INSERT INTO budgets (month, category_l1, category_l2, owner_id, amount_cents, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (month, category_l1, category_l2, owner_id)
DO UPDATE SET amount_cents = excluded.amount_cents, updated_at = excluded.updated_at
`

type UpsertBudgetParams struct {
	Month       string
	CategoryL1  string
	CategoryL2  string
	OwnerID     string
	AmountCents int64
	UpdatedAt   time.Time
}

func (q *Queries) UpsertBudget(ctx context.Context, arg UpsertBudgetParams) error {
	_, err := q.db.ExecContext(ctx, upsertBudget,
		arg.Month,
		arg.CategoryL1,
		arg.CategoryL2,
		arg.OwnerID,
		arg.AmountCents,
		arg.UpdatedAt,
	)
	return err
}

const getBudget = `-- name: GetBudget :one
SELECT month, category_l1, category_l2, owner_id, amount_cents, updated_at FROM budgets
WHERE month = ? AND category_l1 = ? AND category_l2 = ? AND owner_id = ?
`

func (q *Queries) GetBudget(ctx context.Context, month, level1, level2, ownerID string) (Budget, error) {
	row := q.db.QueryRowContext(ctx, getBudget, month, level1, level2, ownerID)
	var i Budget
	err := row.Scan(
		&i.Month,
		&i.CategoryL1,
		&i.CategoryL2,
		&i.OwnerID,
		&i.AmountCents,
		&i.UpdatedAt,
	)
	return i, err
}

// One grouped aggregation for every budget of the month. Actual is the
// absolute value of the matching expense sum.
const budgetActuals = `-- name: BudgetActuals :many
SELECT b.month, b.category_l1, b.category_l2, b.owner_id, b.amount_cents,
    CAST(ABS(COALESCE(SUM(t.amount_cents), 0)) AS INTEGER) AS actual_cents
FROM budgets b
LEFT JOIN transactions t
    ON t.month = b.month
    AND t.owner_id = b.owner_id
    AND t.category_l1 = b.category_l1
    AND t.category_l2 = b.category_l2
    AND t.kind = 'expense'
WHERE b.month = ?1 AND b.owner_id = ?2
  AND (?3 IS NULL OR b.category_l1 = ?3)
  AND (?4 IS NULL OR b.category_l2 = ?4)
GROUP BY b.month, b.category_l1, b.category_l2, b.owner_id
ORDER BY b.category_l1, b.category_l2
`

type BudgetActualsParams struct {
	Month      string
	OwnerID    string
	CategoryL1 sql.NullString
	CategoryL2 sql.NullString
}

type BudgetActualsRow struct {
	Budget      Budget
	ActualCents int64
}

func (q *Queries) BudgetActuals(ctx context.Context, arg BudgetActualsParams) ([]BudgetActualsRow, error) {
	rows, err := q.db.QueryContext(ctx, budgetActuals, arg.Month, arg.OwnerID, arg.CategoryL1, arg.CategoryL2)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []BudgetActualsRow
	for rows.Next() {
		var i BudgetActualsRow
		if err := rows.Scan(
			&i.Budget.Month,
			&i.Budget.CategoryL1,
			&i.Budget.CategoryL2,
			&i.Budget.OwnerID,
			&i.Budget.AmountCents,
			&i.ActualCents,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
