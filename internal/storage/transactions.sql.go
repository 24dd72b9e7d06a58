package storage

import (
	"context"
	"database/sql"
	"time"
)

const createTransaction = `-- name: CreateTransaction :exec
INSERT INTO transactions (
    id, date, month, kind, category_l1, category_l2, amount_cents, channel,
    description, counts_toward_analysis, origin_kind, origin_id, tags, owner_id, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

type CreateTransactionParams struct {
	ID                   string
	Date                 string
	Month                string
	Kind                 string
	CategoryL1           string
	CategoryL2           string
	AmountCents          int64
	Channel              string
	Description          string
	CountsTowardAnalysis int64
	OriginKind           string
	OriginID             string
	Tags                 string
	OwnerID              string
	CreatedAt            time.Time
}

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) error {
	_, err := q.db.ExecContext(ctx, createTransaction,
		arg.ID,
		arg.Date,
		arg.Month,
		arg.Kind,
		arg.CategoryL1,
		arg.CategoryL2,
		arg.AmountCents,
		arg.Channel,
		arg.Description,
		arg.CountsTowardAnalysis,
		arg.OriginKind,
		arg.OriginID,
		arg.Tags,
		arg.OwnerID,
		arg.CreatedAt,
	)
	return err
}

const transactionColumns = `id, date, month, kind, category_l1, category_l2, amount_cents, channel,
    description, counts_toward_analysis, origin_kind, origin_id, tags, owner_id, created_at`

const getTransaction = `-- name: GetTransaction :one
SELECT ` + transactionColumns + ` FROM transactions WHERE id = ?
`

func (q *Queries) GetTransaction(ctx context.Context, id string) (Transaction, error) {
	row := q.db.QueryRowContext(ctx, getTransaction, id)
	return scanTransaction(row)
}

// Filter arguments are optional: a NULL argument disables its predicate.
const transactionFilter = `
WHERE (?1 IS NULL OR owner_id = ?1)
  AND (?2 IS NULL OR date >= ?2)
  AND (?3 IS NULL OR date <= ?3)
  AND (?4 IS NULL OR kind = ?4)
  AND (?5 IS NULL OR category_l1 = ?5)
  AND (?6 IS NULL OR category_l2 = ?6)
  AND (?7 IS NULL OR counts_toward_analysis = ?7)
`

type TransactionFilterParams struct {
	OwnerID              sql.NullString
	StartDate            sql.NullString
	EndDate              sql.NullString
	Kind                 sql.NullString
	CategoryL1           sql.NullString
	CategoryL2           sql.NullString
	CountsTowardAnalysis sql.NullInt64
}

func (arg TransactionFilterParams) args() []interface{} {
	return []interface{}{
		arg.OwnerID,
		arg.StartDate,
		arg.EndDate,
		arg.Kind,
		arg.CategoryL1,
		arg.CategoryL2,
		arg.CountsTowardAnalysis,
	}
}

const listTransactions = `-- name: ListTransactions :many
SELECT ` + transactionColumns + ` FROM transactions` + transactionFilter + `
ORDER BY date DESC, created_at DESC
LIMIT ?8
`

func (q *Queries) ListTransactions(ctx context.Context, arg TransactionFilterParams, limit int64) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, listTransactions, append(arg.args(), limit)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Transaction
	for rows.Next() {
		i, err := scanTransaction(rows)
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

const sumTransactions = `-- name: SumTransactions :one
SELECT CAST(COALESCE(SUM(amount_cents), 0) AS INTEGER), COUNT(*) FROM transactions` + transactionFilter

type SumTransactionsRow struct {
	TotalCents int64
	Count      int64
}

func (q *Queries) SumTransactions(ctx context.Context, arg TransactionFilterParams) (SumTransactionsRow, error) {
	row := q.db.QueryRowContext(ctx, sumTransactions, arg.args()...)
	var i SumTransactionsRow
	err := row.Scan(&i.TotalCents, &i.Count)
	return i, err
}

const categoryBreakdown = `-- name: CategoryBreakdown :many
SELECT category_l1, category_l2, CAST(SUM(amount_cents) AS INTEGER) AS total_cents, COUNT(*) AS count
FROM transactions` + transactionFilter + `
GROUP BY category_l1, category_l2
ORDER BY total_cents ASC, category_l1, category_l2
`

type CategoryBreakdownRow struct {
	CategoryL1 string
	CategoryL2 string
	TotalCents int64
	Count      int64
}

func (q *Queries) CategoryBreakdown(ctx context.Context, arg TransactionFilterParams) ([]CategoryBreakdownRow, error) {
	rows, err := q.db.QueryContext(ctx, categoryBreakdown, arg.args()...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CategoryBreakdownRow
	for rows.Next() {
		var i CategoryBreakdownRow
		if err := rows.Scan(&i.CategoryL1, &i.CategoryL2, &i.TotalCents, &i.Count); err != nil {
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

const sumByOrigin = `-- name: SumByOrigin :one
SELECT CAST(COALESCE(SUM(amount_cents), 0) AS INTEGER), COUNT(*)
FROM transactions
WHERE origin_kind = ? AND origin_id = ?
`

func (q *Queries) SumByOrigin(ctx context.Context, originKind, originID string) (SumTransactionsRow, error) {
	row := q.db.QueryRowContext(ctx, sumByOrigin, originKind, originID)
	var i SumTransactionsRow
	err := row.Scan(&i.TotalCents, &i.Count)
	return i, err
}

const monthTotals = `-- name: MonthTotals :one
SELECT
    CAST(COALESCE(SUM(CASE WHEN kind = 'income' THEN amount_cents ELSE 0 END), 0) AS INTEGER) AS income_cents,
    CAST(COALESCE(SUM(CASE WHEN kind = 'expense' AND counts_toward_analysis = 1 THEN amount_cents ELSE 0 END), 0) AS INTEGER) AS expense_cents
FROM transactions
WHERE month = ? AND owner_id = ?
`

type MonthTotalsRow struct {
	IncomeCents  int64
	ExpenseCents int64
}

func (q *Queries) MonthTotals(ctx context.Context, month, ownerID string) (MonthTotalsRow, error) {
	row := q.db.QueryRowContext(ctx, monthTotals, month, ownerID)
	var i MonthTotalsRow
	err := row.Scan(&i.IncomeCents, &i.ExpenseCents)
	return i, err
}

const topExpenseCategories = `-- name: TopExpenseCategories :many
SELECT category_l1, CAST(SUM(amount_cents) AS INTEGER) AS total_cents
FROM transactions
WHERE month = ? AND owner_id = ? AND kind = 'expense' AND counts_toward_analysis = 1
GROUP BY category_l1
ORDER BY total_cents ASC, category_l1
LIMIT ?
`

type TopExpenseCategoriesRow struct {
	CategoryL1 string
	TotalCents int64
}

func (q *Queries) TopExpenseCategories(ctx context.Context, month, ownerID string, limit int64) ([]TopExpenseCategoriesRow, error) {
	rows, err := q.db.QueryContext(ctx, topExpenseCategories, month, ownerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TopExpenseCategoriesRow
	for rows.Next() {
		var i TopExpenseCategoriesRow
		if err := rows.Scan(&i.CategoryL1, &i.TotalCents); err != nil {
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

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(row rowScanner) (Transaction, error) {
	var i Transaction
	err := row.Scan(
		&i.ID,
		&i.Date,
		&i.Month,
		&i.Kind,
		&i.CategoryL1,
		&i.CategoryL2,
		&i.AmountCents,
		&i.Channel,
		&i.Description,
		&i.CountsTowardAnalysis,
		&i.OriginKind,
		&i.OriginID,
		&i.Tags,
		&i.OwnerID,
		&i.CreatedAt,
	)
	return i, err
}
