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

// errAlreadyAmortized reports that another run advanced the item first.
var errAlreadyAmortized = errors.New("already amortized for month")

// AmortizationItem is the outcome for one prepaid expense in a run.
type AmortizationItem struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	OwnerID   string     `json:"ownerId"`
	Amount    core.Money `json:"amount"`
	Completed bool       `json:"completed"`
	Success   bool       `json:"success"`
	Error     string     `json:"error,omitempty"`
}

type AmortizationResult struct {
	Month     core.Month         `json:"month"`
	Total     int                `json:"total"`
	Processed int                `json:"processed"`
	Amount    core.Money         `json:"amount"`
	Results   []AmortizationItem `json:"results"`
}

// AmortizationScheduler spreads prepaid expenses over their months.
type AmortizationScheduler struct {
	storage   *storage.SQLiteRepository
	ledger    *LedgerService
	snapshots *SnapshotAggregator
	now       func() time.Time
}

func NewAmortizationScheduler(storage *storage.SQLiteRepository, ledger *LedgerService, snapshots *SnapshotAggregator, now func() time.Time) *AmortizationScheduler {
	if now == nil {
		now = time.Now
	}
	return &AmortizationScheduler{storage: storage, ledger: ledger, snapshots: snapshots, now: now}
}

// CreatePrepaidExpense records a lump-sum payment and the schedule that
// spreads it. The prepaid row and its payment entry commit together.
func (a *AmortizationScheduler) CreatePrepaidExpense(ctx context.Context, n core.NewPrepaid) (core.PrepaidExpense, error) {
	var (
		p       core.PrepaidExpense
		payment core.Transaction
	)
	err := a.storage.WithTx(ctx, func(st *storage.Store) error {
		var err error
		p, payment, err = a.createPrepaidIn(ctx, st, n)
		return err
	})
	if err != nil {
		return core.PrepaidExpense{}, err
	}

	slog.InfoContext(ctx, "Prepaid expense created",
		"prepaid_id", p.ID,
		"total", p.Total.String(),
		"periods", p.Periods,
		"owner_id", p.OwnerID)

	a.ledger.dispatchCounters(ctx, payment)
	a.snapshots.regenerateAll(ctx, []snapshotKey{{month: payment.Month(), owner: p.OwnerID}})
	return p, nil
}

// createPrepaidIn inserts the prepaid row and its payment entry through st.
func (a *AmortizationScheduler) createPrepaidIn(ctx context.Context, st *storage.Store, n core.NewPrepaid) (core.PrepaidExpense, core.Transaction, error) {
	if err := n.Validate(); err != nil {
		return core.PrepaidExpense{}, core.Transaction{}, err
	}

	now := a.now()
	periods := core.MonthsBetween(n.Start, n.End)
	p := core.PrepaidExpense{
		ID:             core.NewID("pre"),
		Name:           n.Name,
		Category:       n.Category,
		Total:          n.Total,
		Start:          n.Start,
		End:            n.End,
		Periods:        periods,
		PerPeriod:      n.Total.Split(periods),
		Status:         core.PrepaidInProgress,
		Remark:         n.Remark,
		Channel:        n.Channel,
		SubscriptionID: n.SubscriptionID,
		OwnerID:        core.OwnerOrDefault(n.OwnerID),
		CreatedAt:      now,
	}
	if err := st.InsertPrepaid(ctx, p); err != nil {
		return core.PrepaidExpense{}, core.Transaction{}, err
	}

	paidOn := n.PaidOn
	if paidOn.IsZero() {
		paidOn = core.DateOf(now)
	}
	payment, err := a.ledger.recordIn(ctx, st, core.NewTransaction{
		Date:                 paidOn,
		Kind:                 core.KindAssetChange,
		Category:             core.PrepaidPaymentCategory,
		Amount:               n.Total.Neg(),
		Channel:              n.Channel,
		Description:          fmt.Sprintf("[Prepaid payment] %s", n.Name),
		CountsTowardAnalysis: false,
		OriginKind:           core.OriginPrepaidPayment,
		OriginID:             p.ID,
		OwnerID:              p.OwnerID,
	})
	if err != nil {
		return core.PrepaidExpense{}, core.Transaction{}, fmt.Errorf("record prepaid payment: %w", err)
	}
	return p, payment, nil
}

// GetPrepaidExpense returns nil when id is unknown.
func (a *AmortizationScheduler) GetPrepaidExpense(ctx context.Context, id string) (*core.PrepaidExpense, error) {
	return a.storage.GetPrepaid(ctx, id)
}

// ListPrepaidExpenses filters by owner and status; empty values match all.
func (a *AmortizationScheduler) ListPrepaidExpenses(ctx context.Context, owner string, status core.PrepaidStatus) ([]core.PrepaidExpense, error) {
	return a.storage.ListPrepaid(ctx, owner, status)
}

// Run amortizes every due prepaid expense for month, the current month when
// nil. Each item commits on its own; a failure is recorded in the result
// and the batch moves on.
func (a *AmortizationScheduler) Run(ctx context.Context, month *core.Month) (AmortizationResult, error) {
	target := core.MonthOf(a.now())
	if month != nil {
		target = *month
	}

	due, err := a.storage.ListDuePrepaid(ctx, target)
	if err != nil {
		return AmortizationResult{}, fmt.Errorf("list due prepaid expenses: %w", err)
	}

	slog.InfoContext(ctx, "Running amortization",
		"month", target.String(),
		"due", len(due))

	result := AmortizationResult{
		Month:   target,
		Total:   len(due),
		Results: make([]AmortizationItem, 0, len(due)),
	}
	var touched []snapshotKey
	for _, p := range due {
		item := a.amortize(ctx, p, target)
		if item.Success {
			result.Processed++
			result.Amount = result.Amount.Add(item.Amount)
			touched = append(touched, snapshotKey{month: target, owner: p.OwnerID})
		} else {
			slog.ErrorContext(ctx, "Amortization failed",
				"prepaid_id", p.ID,
				"month", target.String(),
				"error", item.Error)
		}
		result.Results = append(result.Results, item)
	}

	a.snapshots.regenerateAll(ctx, touched)

	slog.InfoContext(ctx, "Amortization complete",
		"month", target.String(),
		"processed", result.Processed,
		"total", result.Total)
	return result, nil
}

// amortize books one period of p. The closing month takes whatever is left
// of the total, so the entries always sum to it exactly.
func (a *AmortizationScheduler) amortize(ctx context.Context, p core.PrepaidExpense, month core.Month) AmortizationItem {
	item := AmortizationItem{ID: p.ID, Name: p.Name, OwnerID: p.OwnerID}
	last := month == p.End

	err := a.storage.WithTx(ctx, func(st *storage.Store) error {
		booked, err := st.OriginTotal(ctx, core.OriginPrepaidAmortization, p.ID)
		if err != nil {
			return err
		}
		remaining := p.Total.Sub(booked.Total.Abs())

		amount := p.PerPeriod
		if last || remaining.Cmp(amount) < 0 {
			amount = remaining
		}

		status := core.PrepaidInProgress
		if last {
			status = core.PrepaidCompleted
		}
		advanced, err := st.AdvancePrepaid(ctx, p.ID, month, status)
		if err != nil {
			return err
		}
		if !advanced {
			return errAlreadyAmortized
		}

		if !amount.IsPositive() {
			return nil
		}
		_, err = a.ledger.recordIn(ctx, st, core.NewTransaction{
			Date:                 month.FirstDay(),
			Kind:                 core.KindExpense,
			Category:             p.Category,
			Amount:               amount.Neg(),
			Channel:              p.Channel,
			Description:          fmt.Sprintf("[Prepaid amortization] %s (%s)", p.Name, month),
			CountsTowardAnalysis: true,
			OriginKind:           core.OriginPrepaidAmortization,
			OriginID:             p.ID,
			OwnerID:              p.OwnerID,
		})
		if err != nil {
			return err
		}
		item.Amount = amount
		return nil
	})
	if err != nil {
		item.Amount = core.Money{}
		item.Error = err.Error()
		return item
	}
	item.Success = true
	item.Completed = last
	return item
}
