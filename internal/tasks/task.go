// Package tasks carries the ledger writer's side effects to background
// workers. Delivery is best effort: a task that fails is logged and dropped,
// and derived state heals on the next write that touches it.
package tasks

import (
	"context"
	"time"

	"finledger/internal/core"
)

type Kind string

const (
	KindCategoryUsage   Kind = "category_usage"
	KindTagUsage        Kind = "tag_usage"
	KindSnapshotRefresh Kind = "snapshot_refresh"
)

// Task is one side effect of a ledger write. Only the fields relevant to
// Kind are set.
type Task struct {
	ID            string        `json:"id"`
	Kind          Kind          `json:"kind"`
	TransactionID string        `json:"transactionId,omitempty"`
	Month         core.Month    `json:"month,omitempty"`
	OwnerID       string        `json:"ownerId,omitempty"`
	Category      core.Category `json:"category,omitempty"`
	Tags          []string      `json:"tags,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
}

// Handler executes a task.
type Handler interface {
	Handle(ctx context.Context, task Task) error
}

type HandlerFunc func(ctx context.Context, task Task) error

func (f HandlerFunc) Handle(ctx context.Context, task Task) error {
	return f(ctx, task)
}

// Dispatcher accepts tasks without blocking the caller. Implementations
// never return an error to the writer; they log what they cannot deliver.
type Dispatcher interface {
	Dispatch(ctx context.Context, task Task)
}

// Inline runs every task synchronously on the caller's goroutine. It is
// used by one-shot commands that exit right after writing.
type Inline struct {
	Handler Handler
}

func (d Inline) Dispatch(ctx context.Context, task Task) {
	run(ctx, d.Handler, newTaskID(task))
}

// Discard drops every task.
type Discard struct{}

func (Discard) Dispatch(context.Context, Task) {}

// newTaskID fills in the id and creation time of a task when missing.
func newTaskID(t Task) Task {
	if t.ID == "" {
		t.ID = core.NewID("task")
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	return t
}
