package storage

import (
	"context"
	"fmt"

	"finledger/internal/core"
)

func (s *Store) InsertPrepaid(ctx context.Context, p core.PrepaidExpense) error {
	err := s.queries.CreatePrepaidExpense(ctx, CreatePrepaidExpenseParams{
		ID:             p.ID,
		Name:           p.Name,
		CategoryL1:     p.Category.Level1,
		CategoryL2:     p.Category.Level2,
		TotalCents:     p.Total.Cents(),
		StartMonth:     p.Start.String(),
		EndMonth:       p.End.String(),
		Periods:        int64(p.Periods),
		PerPeriodCents: p.PerPeriod.Cents(),
		Status:         string(p.Status),
		Remark:         p.Remark,
		Channel:        p.Channel,
		SubscriptionID: p.SubscriptionID,
		OwnerID:        p.OwnerID,
		CreatedAt:      p.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("create prepaid expense: %w", err)
	}
	return nil
}

// GetPrepaid returns nil when id is unknown.
func (s *Store) GetPrepaid(ctx context.Context, id string) (*core.PrepaidExpense, error) {
	row, err := s.queries.GetPrepaidExpense(ctx, id)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get prepaid expense %s: %w", id, err)
	}
	p, err := toCorePrepaid(row)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPrepaid filters by owner and status; empty arguments match all.
func (s *Store) ListPrepaid(ctx context.Context, owner string, status core.PrepaidStatus) ([]core.PrepaidExpense, error) {
	rows, err := s.queries.ListPrepaidExpenses(ctx, nullString(owner), nullString(string(status)))
	if err != nil {
		return nil, fmt.Errorf("list prepaid expenses: %w", err)
	}
	return toCorePrepaids(rows)
}

// ListDuePrepaid returns the in-progress items still to be amortized for
// month.
func (s *Store) ListDuePrepaid(ctx context.Context, month core.Month) ([]core.PrepaidExpense, error) {
	rows, err := s.queries.ListDuePrepaidExpenses(ctx, month.String())
	if err != nil {
		return nil, fmt.Errorf("list due prepaid expenses: %w", err)
	}
	return toCorePrepaids(rows)
}

// AdvancePrepaid moves the last-amortized marker to month. It reports false
// when another run already advanced the item to month or beyond.
func (s *Store) AdvancePrepaid(ctx context.Context, id string, month core.Month, status core.PrepaidStatus) (bool, error) {
	n, err := s.queries.AdvancePrepaidExpense(ctx, AdvancePrepaidExpenseParams{
		Month:  month.String(),
		Status: string(status),
		ID:     id,
	})
	if err != nil {
		return false, fmt.Errorf("advance prepaid expense %s: %w", id, err)
	}
	return n == 1, nil
}

func (s *Store) InsertSubscription(ctx context.Context, sub core.Subscription) error {
	err := s.queries.CreateSubscription(ctx, CreateSubscriptionParams{
		ID:          sub.ID,
		Name:        sub.Name,
		CategoryL1:  sub.Category.Level1,
		CategoryL2:  sub.Category.Level2,
		Cycle:       string(sub.Cycle),
		AmountCents: sub.Amount.Cents(),
		StartDate:   sub.StartDate.String(),
		Active:      boolInt(sub.Active),
		RenewalRule: sub.RenewalRule,
		UsageLevel:  string(sub.UsageLevel),
		Decision:    string(sub.Decision),
		Channel:     sub.Channel,
		OwnerID:     sub.OwnerID,
		CreatedAt:   sub.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("create subscription: %w", err)
	}
	return nil
}

// GetSubscription returns nil when id is unknown.
func (s *Store) GetSubscription(ctx context.Context, id string) (*core.Subscription, error) {
	row, err := s.queries.GetSubscription(ctx, id)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get subscription %s: %w", id, err)
	}
	sub, err := toCoreSubscription(row)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (s *Store) ListSubscriptions(ctx context.Context, owner string) ([]core.Subscription, error) {
	rows, err := s.queries.ListSubscriptions(ctx, nullString(owner))
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	return toCoreSubscriptions(rows)
}

func (s *Store) ListActiveSubscriptions(ctx context.Context, cycle core.BillingCycle) ([]core.Subscription, error) {
	rows, err := s.queries.ListActiveSubscriptions(ctx, string(cycle))
	if err != nil {
		return nil, fmt.Errorf("list active subscriptions: %w", err)
	}
	return toCoreSubscriptions(rows)
}

// MarkBilled claims the bill of day for a subscription. It reports false
// when the subscription was already billed that day.
func (s *Store) MarkBilled(ctx context.Context, id string, day core.Date) (bool, error) {
	n, err := s.queries.MarkSubscriptionBilled(ctx, day.String(), id)
	if err != nil {
		return false, fmt.Errorf("mark subscription %s billed: %w", id, err)
	}
	return n == 1, nil
}

// SetSubscriptionActive reports false when id is unknown.
func (s *Store) SetSubscriptionActive(ctx context.Context, id string, active bool) (bool, error) {
	n, err := s.queries.SetSubscriptionActive(ctx, boolInt(active), id)
	if err != nil {
		return false, fmt.Errorf("set subscription %s active: %w", id, err)
	}
	return n == 1, nil
}

func toCorePrepaids(rows []PrepaidExpense) ([]core.PrepaidExpense, error) {
	out := make([]core.PrepaidExpense, 0, len(rows))
	for _, row := range rows {
		p, err := toCorePrepaid(row)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func toCorePrepaid(row PrepaidExpense) (core.PrepaidExpense, error) {
	start, err := core.ParseMonth(row.StartMonth)
	if err != nil {
		return core.PrepaidExpense{}, fmt.Errorf("prepaid expense %s: %w", row.ID, err)
	}
	end, err := core.ParseMonth(row.EndMonth)
	if err != nil {
		return core.PrepaidExpense{}, fmt.Errorf("prepaid expense %s: %w", row.ID, err)
	}
	p := core.PrepaidExpense{
		ID:             row.ID,
		Name:           row.Name,
		Category:       core.Category{Level1: row.CategoryL1, Level2: row.CategoryL2},
		Total:          core.MoneyFromCents(row.TotalCents),
		Start:          start,
		End:            end,
		Periods:        int(row.Periods),
		PerPeriod:      core.MoneyFromCents(row.PerPeriodCents),
		Status:         core.PrepaidStatus(row.Status),
		Remark:         row.Remark,
		Channel:        row.Channel,
		SubscriptionID: row.SubscriptionID,
		OwnerID:        row.OwnerID,
		CreatedAt:      row.CreatedAt,
	}
	if row.LastAmortizedMonth.Valid {
		last, err := core.ParseMonth(row.LastAmortizedMonth.String)
		if err != nil {
			return core.PrepaidExpense{}, fmt.Errorf("prepaid expense %s: %w", row.ID, err)
		}
		p.LastAmortized = &last
	}
	return p, nil
}

func toCoreSubscriptions(rows []Subscription) ([]core.Subscription, error) {
	out := make([]core.Subscription, 0, len(rows))
	for _, row := range rows {
		sub, err := toCoreSubscription(row)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, nil
}

func toCoreSubscription(row Subscription) (core.Subscription, error) {
	start, err := core.ParseDate(row.StartDate)
	if err != nil {
		return core.Subscription{}, fmt.Errorf("subscription %s: %w", row.ID, err)
	}
	sub := core.Subscription{
		ID:          row.ID,
		Name:        row.Name,
		Category:    core.Category{Level1: row.CategoryL1, Level2: row.CategoryL2},
		Cycle:       core.BillingCycle(row.Cycle),
		Amount:      core.MoneyFromCents(row.AmountCents),
		StartDate:   start,
		Active:      row.Active == 1,
		RenewalRule: row.RenewalRule,
		UsageLevel:  core.UsageLevel(row.UsageLevel),
		Decision:    core.Decision(row.Decision),
		Channel:     row.Channel,
		OwnerID:     row.OwnerID,
		CreatedAt:   row.CreatedAt,
	}
	if row.LastBilledOn.Valid {
		billed, err := core.ParseDate(row.LastBilledOn.String)
		if err != nil {
			return core.Subscription{}, fmt.Errorf("subscription %s: %w", row.ID, err)
		}
		sub.LastBilledOn = &billed
	}
	return sub, nil
}
