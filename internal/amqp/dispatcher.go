package amqp

import (
	"context"
	"log/slog"

	"finledger/internal/core"
	"finledger/internal/tasks"
)

// TaskPublisher is the part of Client the dispatcher needs.
type TaskPublisher interface {
	PublishTask(ctx context.Context, msg *TaskMessage) error
}

// Dispatcher hands ledger tasks to a worker process through the broker.
// A task that cannot be published is logged and dropped; the next write
// touching the same month heals the derived state.
type Dispatcher struct {
	publisher TaskPublisher
}

func NewDispatcher(publisher TaskPublisher) *Dispatcher {
	return &Dispatcher{publisher: publisher}
}

func (d *Dispatcher) Dispatch(ctx context.Context, task tasks.Task) {
	if task.ID == "" {
		task.ID = core.NewID("task")
	}
	msg := NewTaskMessage(task)
	if task.CreatedAt.IsZero() {
		msg.Task.CreatedAt = msg.PublishedAt
	}

	// The request may finish before the broker answers.
	ctx = context.WithoutCancel(ctx)
	if err := d.publisher.PublishTask(ctx, msg); err != nil {
		slog.WarnContext(ctx, "Task dropped, publish failed",
			"task_id", task.ID,
			"kind", string(task.Kind),
			"month", task.Month.String(),
			"error", err)
	}
}

// TaskHandler adapts a tasks.Handler to ConsumeTasks.
func TaskHandler(h tasks.Handler) func(context.Context, *TaskMessage) error {
	return func(ctx context.Context, msg *TaskMessage) error {
		return h.Handle(ctx, msg.Task)
	}
}
