package tasks

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu    sync.Mutex
	seen  []Kind
	fail  map[Kind]bool
	block chan struct{}
}

func (r *recorder) Handle(ctx context.Context, task Task) error {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, task.Kind)
	if r.fail[task.Kind] {
		return errors.New("handler failed")
	}
	return nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.seen)
}

func TestQueueProcessesAndDrainsOnStop(t *testing.T) {
	rec := &recorder{fail: map[Kind]bool{KindTagUsage: true}}
	q := NewQueue(rec, QueueConfig{Workers: 2, BufferSize: 10})
	ctx := context.Background()

	if err := q.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := q.Start(ctx); err == nil {
		t.Fatal("expected error starting twice")
	}
	if !q.IsRunning() {
		t.Fatal("queue should be running")
	}

	for _, k := range []Kind{KindCategoryUsage, KindTagUsage, KindSnapshotRefresh} {
		q.Dispatch(ctx, Task{Kind: k})
	}

	stopCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := q.Stop(stopCtx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if got := rec.count(); got != 3 {
		t.Fatalf("expected 3 handled tasks including the failing one, got %d", got)
	}
	if q.IsRunning() {
		t.Fatal("queue should not be running after stop")
	}

	q.Dispatch(ctx, Task{Kind: KindSnapshotRefresh})
	if q.Pending() != 0 {
		t.Fatal("tasks dispatched after stop should be dropped")
	}
}

func TestQueueDropsWhenFull(t *testing.T) {
	rec := &recorder{block: make(chan struct{})}
	q := NewQueue(rec, QueueConfig{Workers: 1, BufferSize: 1})
	ctx := context.Background()

	// Without workers nothing drains, so the second task overflows.
	q.Dispatch(ctx, Task{Kind: KindCategoryUsage})
	q.Dispatch(ctx, Task{Kind: KindCategoryUsage})
	if q.Pending() != 1 {
		t.Fatalf("expected 1 pending task, got %d", q.Pending())
	}

	if err := q.Start(ctx); err != nil {
		t.Fatal(err)
	}
	close(rec.block)
	stopCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := q.Stop(stopCtx); err != nil {
		t.Fatal(err)
	}
	if got := rec.count(); got != 1 {
		t.Fatalf("expected 1 handled task, got %d", got)
	}
}

func TestInlineRecoversPanics(t *testing.T) {
	d := Inline{Handler: HandlerFunc(func(context.Context, Task) error {
		panic("boom")
	})}
	d.Dispatch(context.Background(), Task{Kind: KindSnapshotRefresh})
}
