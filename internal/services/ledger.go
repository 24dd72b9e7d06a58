package services

import (
	"context"
	"log/slog"
	"time"

	"finledger/internal/core"
	"finledger/internal/storage"
	"finledger/internal/tasks"
)

const defaultListLimit = 50

// LedgerService is the single write path for ledger entries. Every other
// component that needs a ledger row goes through recordIn.
type LedgerService struct {
	storage    *storage.SQLiteRepository
	dispatcher tasks.Dispatcher
	now        func() time.Time
}

func NewLedgerService(storage *storage.SQLiteRepository, dispatcher tasks.Dispatcher, now func() time.Time) *LedgerService {
	if dispatcher == nil {
		dispatcher = tasks.Discard{}
	}
	if now == nil {
		now = time.Now
	}
	return &LedgerService{storage: storage, dispatcher: dispatcher, now: now}
}

// Record validates and appends one entry. It returns once the row is
// durable; usage counters and the month snapshot are refreshed in the
// background and their failures never reach the caller.
func (s *LedgerService) Record(ctx context.Context, n core.NewTransaction) (core.Transaction, error) {
	t, err := s.recordIn(ctx, &s.storage.Store, n)
	if err != nil {
		return core.Transaction{}, err
	}

	slog.InfoContext(ctx, "Transaction recorded",
		"transaction_id", t.ID,
		"kind", string(t.Kind),
		"amount", t.Amount.String(),
		"owner_id", t.OwnerID)

	s.dispatchCounters(ctx, t)
	s.dispatcher.Dispatch(ctx, tasks.Task{
		Kind:          tasks.KindSnapshotRefresh,
		TransactionID: t.ID,
		Month:         t.Month(),
		OwnerID:       t.OwnerID,
	})
	return t, nil
}

// recordIn validates n and inserts it through st, which may be bound to a
// caller's database transaction. No side effects are dispatched.
func (s *LedgerService) recordIn(ctx context.Context, st *storage.Store, n core.NewTransaction) (core.Transaction, error) {
	if n.OriginKind == "" {
		n.OriginKind = core.OriginManual
	}
	if err := n.Validate(); err != nil {
		return core.Transaction{}, err
	}

	t := core.Transaction{
		ID:                   core.NewID("tx"),
		Date:                 n.Date,
		Kind:                 n.Kind,
		Category:             n.Category,
		Amount:               n.Amount,
		Channel:              n.Channel,
		Description:          n.Description,
		CountsTowardAnalysis: n.CountsTowardAnalysis,
		OriginKind:           n.OriginKind,
		OriginID:             n.OriginID,
		Tags:                 NormalizeTags(n.Tags),
		OwnerID:              core.OwnerOrDefault(n.OwnerID),
		CreatedAt:            s.now(),
	}
	if err := st.InsertTransaction(ctx, t); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

// dispatchCounters queues the category and tag usage updates of t.
func (s *LedgerService) dispatchCounters(ctx context.Context, t core.Transaction) {
	s.dispatcher.Dispatch(ctx, tasks.Task{
		Kind:          tasks.KindCategoryUsage,
		TransactionID: t.ID,
		OwnerID:       t.OwnerID,
		Category:      t.Category,
	})
	if len(t.Tags) > 0 {
		s.dispatcher.Dispatch(ctx, tasks.Task{
			Kind:          tasks.KindTagUsage,
			TransactionID: t.ID,
			OwnerID:       t.OwnerID,
			Tags:          t.Tags,
		})
	}
}

// GetTransaction returns nil when id is unknown.
func (s *LedgerService) GetTransaction(ctx context.Context, id string) (*core.Transaction, error) {
	return s.storage.GetTransaction(ctx, id)
}

// ListTransactions returns the most recent entries matching f.
func (s *LedgerService) ListTransactions(ctx context.Context, f core.TransactionFilter, limit int) ([]core.Transaction, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	return s.storage.ListTransactions(ctx, f, limit)
}

func (s *LedgerService) Statistics(ctx context.Context, f core.TransactionFilter) (core.Statistics, error) {
	return s.storage.Statistics(ctx, f)
}

// CategoryBreakdown groups matching entries by category, largest spend
// first.
func (s *LedgerService) CategoryBreakdown(ctx context.Context, f core.TransactionFilter) ([]core.CategoryTotal, error) {
	return s.storage.CategoryBreakdown(ctx, f)
}
