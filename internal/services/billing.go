package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"finledger/internal/core"
	"finledger/internal/storage"
)

const DefaultReminderDaysAhead = 2

var errAlreadyBilled = errors.New("already billed today")

// BillingItem is the outcome for one due subscription.
type BillingItem struct {
	SubscriptionID string     `json:"subscriptionId"`
	Name           string     `json:"name"`
	OwnerID        string     `json:"ownerId"`
	Amount         core.Money `json:"amount"`
	TransactionID  string     `json:"transactionId,omitempty"`
	Success        bool       `json:"success"`
	Skipped        bool       `json:"skipped,omitempty"`
	Error          string     `json:"error,omitempty"`
}

type BillingResult struct {
	Date      core.Date     `json:"date"`
	Total     int           `json:"total"`
	Processed int           `json:"processed"`
	Skipped   int           `json:"skipped"`
	Results   []BillingItem `json:"results"`
}

// Reminder announces an upcoming bill. Delivery is up to the caller.
type Reminder struct {
	OwnerID        string     `json:"ownerId"`
	SubscriptionID string     `json:"subscriptionId"`
	Name           string     `json:"name"`
	Amount         core.Money `json:"amount"`
	DueOn          core.Date  `json:"dueOn"`
	Message        string     `json:"message"`
}

// BillingAutomator turns monthly subscriptions into ledger entries.
type BillingAutomator struct {
	storage      *storage.SQLiteRepository
	ledger       *LedgerService
	amortization *AmortizationScheduler
	snapshots    *SnapshotAggregator
	currency     string
	now          func() time.Time
}

func NewBillingAutomator(storage *storage.SQLiteRepository, ledger *LedgerService, amortization *AmortizationScheduler, snapshots *SnapshotAggregator, currency string, now func() time.Time) *BillingAutomator {
	if now == nil {
		now = time.Now
	}
	if currency == "" {
		currency = core.DefaultCurrency
	}
	return &BillingAutomator{
		storage:      storage,
		ledger:       ledger,
		amortization: amortization,
		snapshots:    snapshots,
		currency:     currency,
		now:          now,
	}
}

// CreateSubscription registers a subscription. A yearly one is paid up
// front, so its companion prepaid expense over twelve months is created in
// the same database transaction.
func (b *BillingAutomator) CreateSubscription(ctx context.Context, n core.NewSubscription) (core.Subscription, error) {
	if err := n.Validate(); err != nil {
		return core.Subscription{}, err
	}

	sub := core.Subscription{
		ID:          core.NewID("sub"),
		Name:        n.Name,
		Category:    n.Category,
		Cycle:       n.Cycle,
		Amount:      n.Amount,
		StartDate:   n.StartDate,
		Active:      true,
		RenewalRule: n.RenewalRule,
		UsageLevel:  n.UsageLevel,
		Decision:    n.Decision,
		Channel:     n.Channel,
		OwnerID:     core.OwnerOrDefault(n.OwnerID),
		CreatedAt:   b.now(),
	}

	var payment *core.Transaction
	err := b.storage.WithTx(ctx, func(st *storage.Store) error {
		if err := st.InsertSubscription(ctx, sub); err != nil {
			return err
		}
		if sub.Cycle != core.CycleYearly {
			return nil
		}
		start := sub.StartDate.Period()
		_, tx, err := b.amortization.createPrepaidIn(ctx, st, core.NewPrepaid{
			Name:           sub.Name,
			Category:       sub.Category,
			Total:          sub.Amount,
			Start:          start,
			End:            start.AddMonths(11),
			Periods:        12,
			PaidOn:         sub.StartDate,
			Remark:         fmt.Sprintf("generated from subscription %s", sub.Name),
			Channel:        sub.Channel,
			OwnerID:        sub.OwnerID,
			SubscriptionID: sub.ID,
		})
		if err != nil {
			return fmt.Errorf("create companion prepaid: %w", err)
		}
		payment = &tx
		return nil
	})
	if err != nil {
		return core.Subscription{}, err
	}

	slog.InfoContext(ctx, "Subscription created",
		"subscription_id", sub.ID,
		"cycle", string(sub.Cycle),
		"owner_id", sub.OwnerID)

	if payment != nil {
		b.ledger.dispatchCounters(ctx, *payment)
		b.snapshots.regenerateAll(ctx, []snapshotKey{{month: payment.Month(), owner: sub.OwnerID}})
	}
	return sub, nil
}

// ToggleSubscription activates or pauses a subscription. It returns nil
// when id is unknown.
func (b *BillingAutomator) ToggleSubscription(ctx context.Context, id string, active bool) (*core.Subscription, error) {
	found, err := b.storage.SetSubscriptionActive(ctx, id, active)
	if err != nil || !found {
		return nil, err
	}
	return b.storage.GetSubscription(ctx, id)
}

func (b *BillingAutomator) GetSubscription(ctx context.Context, id string) (*core.Subscription, error) {
	return b.storage.GetSubscription(ctx, id)
}

// ListSubscriptions returns the owner's subscriptions, all owners when
// owner is empty.
func (b *BillingAutomator) ListSubscriptions(ctx context.Context, owner string) ([]core.Subscription, error) {
	return b.storage.ListSubscriptions(ctx, owner)
}

// ProcessBills books every monthly bill due on today. A subscription is
// billed at most once per day: the bill entry and the billed-on marker
// commit together, and the marker only moves forward.
func (b *BillingAutomator) ProcessBills(ctx context.Context, today core.Date) (BillingResult, error) {
	if today.IsZero() {
		today = core.DateOf(b.now())
	}
	due, err := b.dueOn(ctx, today)
	if err != nil {
		return BillingResult{}, err
	}

	slog.InfoContext(ctx, "Processing subscription bills",
		"date", today.String(),
		"due", len(due))

	result := BillingResult{
		Date:    today,
		Total:   len(due),
		Results: make([]BillingItem, 0, len(due)),
	}
	var touched []snapshotKey
	for _, sub := range due {
		item := b.bill(ctx, sub, today)
		switch {
		case item.Success:
			result.Processed++
			touched = append(touched, snapshotKey{month: today.Period(), owner: sub.OwnerID})
		case item.Skipped:
			result.Skipped++
		default:
			slog.ErrorContext(ctx, "Subscription billing failed",
				"subscription_id", sub.ID,
				"date", today.String(),
				"error", item.Error)
		}
		result.Results = append(result.Results, item)
	}

	b.snapshots.regenerateAll(ctx, touched)

	slog.InfoContext(ctx, "Subscription billing complete",
		"date", today.String(),
		"processed", result.Processed,
		"skipped", result.Skipped,
		"total", result.Total)
	return result, nil
}

func (b *BillingAutomator) bill(ctx context.Context, sub core.Subscription, today core.Date) BillingItem {
	item := BillingItem{
		SubscriptionID: sub.ID,
		Name:           sub.Name,
		OwnerID:        sub.OwnerID,
		Amount:         sub.Amount,
	}

	var t core.Transaction
	err := b.storage.WithTx(ctx, func(st *storage.Store) error {
		claimed, err := st.MarkBilled(ctx, sub.ID, today)
		if err != nil {
			return err
		}
		if !claimed {
			return errAlreadyBilled
		}
		t, err = b.ledger.recordIn(ctx, st, core.NewTransaction{
			Date:                 today,
			Kind:                 core.KindExpense,
			Category:             sub.Category,
			Amount:               sub.Amount.Neg(),
			Channel:              sub.Channel,
			Description:          fmt.Sprintf("[Subscription] %s (%s)", sub.Name, today),
			CountsTowardAnalysis: true,
			OriginKind:           core.OriginSubscriptionBill,
			OriginID:             sub.ID,
			OwnerID:              sub.OwnerID,
		})
		return err
	})
	switch {
	case errors.Is(err, errAlreadyBilled):
		item.Skipped = true
	case err != nil:
		item.Error = err.Error()
	default:
		item.Success = true
		item.TransactionID = t.ID
		b.ledger.dispatchCounters(ctx, t)
	}
	return item
}

// CheckReminders lists the monthly bills falling exactly daysAhead days
// after today. It writes nothing.
func (b *BillingAutomator) CheckReminders(ctx context.Context, today core.Date, daysAhead int) ([]Reminder, error) {
	if today.IsZero() {
		today = core.DateOf(b.now())
	}
	if daysAhead <= 0 {
		daysAhead = DefaultReminderDaysAhead
	}
	dueOn := today.AddDays(daysAhead)
	due, err := b.dueOn(ctx, dueOn)
	if err != nil {
		return nil, err
	}

	reminders := make([]Reminder, 0, len(due))
	for _, sub := range due {
		reminders = append(reminders, Reminder{
			OwnerID:        sub.OwnerID,
			SubscriptionID: sub.ID,
			Name:           sub.Name,
			Amount:         sub.Amount,
			DueOn:          dueOn,
			Message: fmt.Sprintf("%s renews on %s for %s",
				sub.Name, dueOn, sub.Amount.Format(b.currency)),
		})
	}
	return reminders, nil
}

// dueOn returns the active monthly subscriptions with a bill on day.
func (b *BillingAutomator) dueOn(ctx context.Context, day core.Date) ([]core.Subscription, error) {
	schedule, err := GetBillingSchedule(core.CycleMonthly)
	if err != nil {
		return nil, err
	}
	subs, err := b.storage.ListActiveSubscriptions(ctx, core.CycleMonthly)
	if err != nil {
		return nil, err
	}
	due := make([]core.Subscription, 0, len(subs))
	for _, sub := range subs {
		if schedule.IsDue(sub, day) {
			due = append(due, sub)
		}
	}
	return due, nil
}
