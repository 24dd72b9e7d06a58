package storage

import (
	"context"
	"time"
)

const upsertMonthlySnapshot = `-- name: UpsertMonthlySnapshot :exec
INSERT INTO monthly_snapshots (
    month, owner_id, income_cents, expense_cents, net_cashflow_cents, top_categories, generated_at
) VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (month, owner_id) DO UPDATE SET
    income_cents = excluded.income_cents,
    expense_cents = excluded.expense_cents,
    net_cashflow_cents = excluded.net_cashflow_cents,
    top_categories = excluded.top_categories,
    generated_at = excluded.generated_at
`

type UpsertMonthlySnapshotParams struct {
	Month            string
	OwnerID          string
	IncomeCents      int64
	ExpenseCents     int64
	NetCashflowCents int64
	TopCategories    string
	GeneratedAt      time.Time
}

func (q *Queries) UpsertMonthlySnapshot(ctx context.Context, arg UpsertMonthlySnapshotParams) error {
	_, err := q.db.ExecContext(ctx, upsertMonthlySnapshot,
		arg.Month,
		arg.OwnerID,
		arg.IncomeCents,
		arg.ExpenseCents,
		arg.NetCashflowCents,
		arg.TopCategories,
		arg.GeneratedAt,
	)
	return err
}

const snapshotColumns = `month, owner_id, income_cents, expense_cents, net_cashflow_cents, top_categories, generated_at`

const getMonthlySnapshot = `-- name: GetMonthlySnapshot :one
SELECT ` + snapshotColumns + ` FROM monthly_snapshots WHERE month = ? AND owner_id = ?
`

func (q *Queries) GetMonthlySnapshot(ctx context.Context, month, ownerID string) (MonthlySnapshot, error) {
	row := q.db.QueryRowContext(ctx, getMonthlySnapshot, month, ownerID)
	return scanMonthlySnapshot(row)
}

const listMonthlySnapshots = `-- name: ListMonthlySnapshots :many
SELECT ` + snapshotColumns + ` FROM monthly_snapshots
WHERE owner_id = ?
ORDER BY month DESC
LIMIT ?
`

func (q *Queries) ListMonthlySnapshots(ctx context.Context, ownerID string, limit int64) ([]MonthlySnapshot, error) {
	rows, err := q.db.QueryContext(ctx, listMonthlySnapshots, ownerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []MonthlySnapshot
	for rows.Next() {
		i, err := scanMonthlySnapshot(rows)
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

func scanMonthlySnapshot(row rowScanner) (MonthlySnapshot, error) {
	var i MonthlySnapshot
	err := row.Scan(
		&i.Month,
		&i.OwnerID,
		&i.IncomeCents,
		&i.ExpenseCents,
		&i.NetCashflowCents,
		&i.TopCategories,
		&i.GeneratedAt,
	)
	return i, err
}
