package storage

import (
	"context"
	"database/sql"
	"time"
)

// Save-money goals keep their reconciled current amount on update.
const upsertFinancialGoal = `-- name: UpsertFinancialGoal :exec
INSERT INTO financial_goals (
    id, name, type, target_cents, current_cents, target_date, priority, status,
    created_month, owner_id, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    name = excluded.name,
    type = excluded.type,
    target_cents = excluded.target_cents,
    current_cents = CASE WHEN excluded.type = 'save_money'
        THEN financial_goals.current_cents ELSE excluded.current_cents END,
    target_date = excluded.target_date,
    priority = excluded.priority,
    status = excluded.status,
    updated_at = excluded.updated_at
`

const goalColumns = `id, name, type, target_cents, current_cents, target_date, priority, status,
    created_month, owner_id, created_at, updated_at`

type UpsertFinancialGoalParams struct {
	ID           string
	Name         string
	Type         string
	TargetCents  int64
	CurrentCents int64
	TargetDate   sql.NullString
	Priority     int64
	Status       string
	CreatedMonth string
	OwnerID      string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (q *Queries) UpsertFinancialGoal(ctx context.Context, arg UpsertFinancialGoalParams) error {
	_, err := q.db.ExecContext(ctx, upsertFinancialGoal,
		arg.ID,
		arg.Name,
		arg.Type,
		arg.TargetCents,
		arg.CurrentCents,
		arg.TargetDate,
		arg.Priority,
		arg.Status,
		arg.CreatedMonth,
		arg.OwnerID,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const getFinancialGoal = `-- name: GetFinancialGoal :one
SELECT ` + goalColumns + ` FROM financial_goals WHERE id = ?
`

func (q *Queries) GetFinancialGoal(ctx context.Context, id string) (FinancialGoal, error) {
	row := q.db.QueryRowContext(ctx, getFinancialGoal, id)
	return scanFinancialGoal(row)
}

const listFinancialGoals = `-- name: ListFinancialGoals :many
SELECT ` + goalColumns + ` FROM financial_goals
WHERE owner_id = ?
ORDER BY priority DESC, created_at
`

func (q *Queries) ListFinancialGoals(ctx context.Context, ownerID string) ([]FinancialGoal, error) {
	rows, err := q.db.QueryContext(ctx, listFinancialGoals, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []FinancialGoal
	for rows.Next() {
		i, err := scanFinancialGoal(rows)
		if err != nil {
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

// Recomputes every in-progress save-money goal of an owner from snapshot
// history. Nothing incremental is kept.
const reconcileSaveMoneyGoals = `-- name: ReconcileSaveMoneyGoals :execrows
UPDATE financial_goals
SET current_cents = (
        SELECT CAST(COALESCE(SUM(s.net_cashflow_cents), 0) AS INTEGER)
        FROM monthly_snapshots s
        WHERE s.owner_id = financial_goals.owner_id
          AND s.month >= financial_goals.created_month
    ),
    updated_at = ?2
WHERE owner_id = ?1 AND type = 'save_money' AND status = 'in_progress'
`

func (q *Queries) ReconcileSaveMoneyGoals(ctx context.Context, ownerID string, updatedAt time.Time) (int64, error) {
	result, err := q.db.ExecContext(ctx, reconcileSaveMoneyGoals, ownerID, updatedAt)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func scanFinancialGoal(row rowScanner) (FinancialGoal, error) {
	var i FinancialGoal
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Type,
		&i.TargetCents,
		&i.CurrentCents,
		&i.TargetDate,
		&i.Priority,
		&i.Status,
		&i.CreatedMonth,
		&i.OwnerID,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}
