package services

import (
	"context"
	"fmt"

	"finledger/internal/tasks"
)

// TaskRunner executes the side effects queued by the ledger writer.
type TaskRunner struct {
	registry  *Registry
	snapshots *SnapshotAggregator
}

func NewTaskRunner(registry *Registry, snapshots *SnapshotAggregator) *TaskRunner {
	return &TaskRunner{registry: registry, snapshots: snapshots}
}

func (r *TaskRunner) Handle(ctx context.Context, task tasks.Task) error {
	switch task.Kind {
	case tasks.KindCategoryUsage:
		return r.registry.TouchCategory(ctx, task.Category)
	case tasks.KindTagUsage:
		return r.registry.ProcessTags(ctx, task.Tags)
	case tasks.KindSnapshotRefresh:
		if task.Month.IsZero() {
			return fmt.Errorf("snapshot refresh task %s has no month", task.ID)
		}
		_, err := r.snapshots.Regenerate(ctx, task.Month, task.OwnerID)
		return err
	default:
		return fmt.Errorf("unknown task kind: %s", task.Kind)
	}
}
