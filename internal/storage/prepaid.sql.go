package storage

import (
	"context"
	"database/sql"
	"time"
)

const createPrepaidExpense = `-- name: CreatePrepaidExpense :exec
INSERT INTO prepaid_expenses (
    id, name, category_l1, category_l2, total_cents, start_month, end_month, periods,
    per_period_cents, last_amortized_month, status, remark, channel, subscription_id, owner_id, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, NULL, ?, ?, ?, ?, ?, ?)
`

type CreatePrepaidExpenseParams struct {
	ID             string
	Name           string
	CategoryL1     string
	CategoryL2     string
	TotalCents     int64
	StartMonth     string
	EndMonth       string
	Periods        int64
	PerPeriodCents int64
	Status         string
	Remark         string
	Channel        string
	SubscriptionID string
	OwnerID        string
	CreatedAt      time.Time
}

func (q *Queries) CreatePrepaidExpense(ctx context.Context, arg CreatePrepaidExpenseParams) error {
	_, err := q.db.ExecContext(ctx, createPrepaidExpense,
		arg.ID,
		arg.Name,
		arg.CategoryL1,
		arg.CategoryL2,
		arg.TotalCents,
		arg.StartMonth,
		arg.EndMonth,
		arg.Periods,
		arg.PerPeriodCents,
		arg.Status,
		arg.Remark,
		arg.Channel,
		arg.SubscriptionID,
		arg.OwnerID,
		arg.CreatedAt,
	)
	return err
}

const prepaidColumns = `id, name, category_l1, category_l2, total_cents, start_month, end_month, periods,
    per_period_cents, last_amortized_month, status, remark, channel, subscription_id, owner_id, created_at`

const getPrepaidExpense = `-- name: GetPrepaidExpense :one
SELECT ` + prepaidColumns + ` FROM prepaid_expenses WHERE id = ?
`

func (q *Queries) GetPrepaidExpense(ctx context.Context, id string) (PrepaidExpense, error) {
	row := q.db.QueryRowContext(ctx, getPrepaidExpense, id)
	return scanPrepaidExpense(row)
}

const listPrepaidExpenses = `-- name: ListPrepaidExpenses :many
SELECT ` + prepaidColumns + ` FROM prepaid_expenses
WHERE (?1 IS NULL OR owner_id = ?1)
  AND (?2 IS NULL OR status = ?2)
ORDER BY start_month DESC, created_at DESC
`

func (q *Queries) ListPrepaidExpenses(ctx context.Context, ownerID, status sql.NullString) ([]PrepaidExpense, error) {
	return q.queryPrepaidExpenses(ctx, listPrepaidExpenses, ownerID, status)
}

// The amortization selection predicate. Months are YYYY-MM text, so string
// comparison is chronological.
const listDuePrepaidExpenses = `-- name: ListDuePrepaidExpenses :many
SELECT ` + prepaidColumns + ` FROM prepaid_expenses
WHERE status = 'in_progress'
  AND start_month <= ?1
  AND end_month >= ?1
  AND (last_amortized_month IS NULL OR last_amortized_month < ?1)
ORDER BY created_at, id
`

func (q *Queries) ListDuePrepaidExpenses(ctx context.Context, month string) ([]PrepaidExpense, error) {
	return q.queryPrepaidExpenses(ctx, listDuePrepaidExpenses, month)
}

const advancePrepaidExpense = `-- name: AdvancePrepaidExpense :execrows
UPDATE prepaid_expenses
SET last_amortized_month = ?1, status = ?2
WHERE id = ?3
  AND status = 'in_progress'
  AND (last_amortized_month IS NULL OR last_amortized_month < ?1)
`

type AdvancePrepaidExpenseParams struct {
	Month  string
	Status string
	ID     string
}

func (q *Queries) AdvancePrepaidExpense(ctx context.Context, arg AdvancePrepaidExpenseParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, advancePrepaidExpense, arg.Month, arg.Status, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (q *Queries) queryPrepaidExpenses(ctx context.Context, query string, args ...interface{}) ([]PrepaidExpense, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PrepaidExpense
	for rows.Next() {
		i, err := scanPrepaidExpense(rows)
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

func scanPrepaidExpense(row rowScanner) (PrepaidExpense, error) {
	var i PrepaidExpense
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.CategoryL1,
		&i.CategoryL2,
		&i.TotalCents,
		&i.StartMonth,
		&i.EndMonth,
		&i.Periods,
		&i.PerPeriodCents,
		&i.LastAmortizedMonth,
		&i.Status,
		&i.Remark,
		&i.Channel,
		&i.SubscriptionID,
		&i.OwnerID,
		&i.CreatedAt,
	)
	return i, err
}
