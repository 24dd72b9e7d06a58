package storage

import (
	"context"
	"database/sql"
	"time"
)

const createSubscription = `-- name: CreateSubscription :exec
INSERT INTO subscriptions (
    id, name, category_l1, category_l2, cycle, amount_cents, start_date, active,
    renewal_rule, usage_level, decision, channel, last_billed_on, owner_id, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL, ?, ?)
`

type CreateSubscriptionParams struct {
	ID          string
	Name        string
	CategoryL1  string
	CategoryL2  string
	Cycle       string
	AmountCents int64
	StartDate   string
	Active      int64
	RenewalRule string
	UsageLevel  string
	Decision    string
	Channel     string
	OwnerID     string
	CreatedAt   time.Time
}

func (q *Queries) CreateSubscription(ctx context.Context, arg CreateSubscriptionParams) error {
	_, err := q.db.ExecContext(ctx, createSubscription,
		arg.ID,
		arg.Name,
		arg.CategoryL1,
		arg.CategoryL2,
		arg.Cycle,
		arg.AmountCents,
		arg.StartDate,
		arg.Active,
		arg.RenewalRule,
		arg.UsageLevel,
		arg.Decision,
		arg.Channel,
		arg.OwnerID,
		arg.CreatedAt,
	)
	return err
}

const subscriptionColumns = `id, name, category_l1, category_l2, cycle, amount_cents, start_date, active,
    renewal_rule, usage_level, decision, channel, last_billed_on, owner_id, created_at`

const getSubscription = `-- name: GetSubscription :one
SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE id = ?
`

func (q *Queries) GetSubscription(ctx context.Context, id string) (Subscription, error) {
	row := q.db.QueryRowContext(ctx, getSubscription, id)
	return scanSubscription(row)
}

const listSubscriptions = `-- name: ListSubscriptions :many
SELECT ` + subscriptionColumns + ` FROM subscriptions
WHERE (?1 IS NULL OR owner_id = ?1)
ORDER BY active DESC, amount_cents DESC, name
`

func (q *Queries) ListSubscriptions(ctx context.Context, ownerID sql.NullString) ([]Subscription, error) {
	return q.querySubscriptions(ctx, listSubscriptions, ownerID)
}

const listActiveSubscriptions = `-- name: ListActiveSubscriptions :many
SELECT ` + subscriptionColumns + ` FROM subscriptions
WHERE active = 1 AND cycle = ?
ORDER BY created_at, id
`

func (q *Queries) ListActiveSubscriptions(ctx context.Context, cycle string) ([]Subscription, error) {
	return q.querySubscriptions(ctx, listActiveSubscriptions, cycle)
}

// Claims the bill for a day. Zero rows affected means the subscription was
// already billed on or after that day.
const markSubscriptionBilled = `-- name: MarkSubscriptionBilled :execrows
UPDATE subscriptions
SET last_billed_on = ?1
WHERE id = ?2 AND active = 1
  AND (last_billed_on IS NULL OR last_billed_on < ?1)
`

func (q *Queries) MarkSubscriptionBilled(ctx context.Context, day, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, markSubscriptionBilled, day, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const setSubscriptionActive = `-- name: SetSubscriptionActive :execrows
UPDATE subscriptions SET active = ? WHERE id = ?
`

func (q *Queries) SetSubscriptionActive(ctx context.Context, active int64, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, setSubscriptionActive, active, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (q *Queries) querySubscriptions(ctx context.Context, query string, args ...interface{}) ([]Subscription, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Subscription
	for rows.Next() {
		i, err := scanSubscription(rows)
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

func scanSubscription(row rowScanner) (Subscription, error) {
	var i Subscription
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.CategoryL1,
		&i.CategoryL2,
		&i.Cycle,
		&i.AmountCents,
		&i.StartDate,
		&i.Active,
		&i.RenewalRule,
		&i.UsageLevel,
		&i.Decision,
		&i.Channel,
		&i.LastBilledOn,
		&i.OwnerID,
		&i.CreatedAt,
	)
	return i, err
}
