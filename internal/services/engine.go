// Package services implements the ledger engine: the transaction writer and
// the components deriving state from it.
package services

import (
	"time"

	"finledger/internal/cache"
	"finledger/internal/core"
	"finledger/internal/sheets"
	"finledger/internal/storage"
	"finledger/internal/tasks"
)

const (
	tagCacheSize = 16
	tagCacheTTL  = 5 * time.Minute
)

// Options tune an Engine. The zero value is usable.
type Options struct {
	// Now is the clock; time.Now when nil.
	Now func() time.Time
	// Exporter receives every regenerated snapshot when set.
	Exporter sheets.SnapshotExporter
	// Currency is the ISO code used for formatting messages.
	Currency string
	// NewDispatcher builds the dispatcher for ledger side effects from the
	// handler that executes them. Tasks run inline when nil.
	NewDispatcher func(tasks.Handler) tasks.Dispatcher
	// Caches registers the engine's caches for periodic cleanup when set.
	Caches *cache.Manager
}

// Engine wires the ledger services around one repository.
type Engine struct {
	Ledger       *LedgerService
	Registry     *Registry
	Snapshots    *SnapshotAggregator
	Goals        *GoalReconciler
	Budgets      *BudgetTracker
	Amortization *AmortizationScheduler
	Billing      *BillingAutomator

	handler tasks.Handler
}

func NewEngine(repo *storage.SQLiteRepository, opts Options) *Engine {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	tagCache := cache.NewLRUCache[[]core.Tag](tagCacheSize, tagCacheTTL)
	if opts.Caches != nil {
		opts.Caches.Register(tagCache)
	}

	e := &Engine{}
	e.Registry = NewRegistry(repo, tagCache, now)
	e.Goals = NewGoalReconciler(repo, now)
	e.Snapshots = NewSnapshotAggregator(repo, e.Goals, opts.Exporter, now)
	e.Budgets = NewBudgetTracker(repo, now)
	e.handler = NewTaskRunner(e.Registry, e.Snapshots)

	var dispatcher tasks.Dispatcher = tasks.Inline{Handler: e.handler}
	if opts.NewDispatcher != nil {
		dispatcher = opts.NewDispatcher(e.handler)
	}
	e.Ledger = NewLedgerService(repo, dispatcher, now)
	e.Amortization = NewAmortizationScheduler(repo, e.Ledger, e.Snapshots, now)
	e.Billing = NewBillingAutomator(repo, e.Ledger, e.Amortization, e.Snapshots, opts.Currency, now)
	return e
}

// Handler executes ledger side-effect tasks. Task consumers outside the
// writing process use it.
func (e *Engine) Handler() tasks.Handler {
	return e.handler
}
