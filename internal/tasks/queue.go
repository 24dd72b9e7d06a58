package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// QueueConfig holds configuration for the in-process queue
type QueueConfig struct {
	// Workers is the number of goroutines running tasks (default: 2)
	Workers int

	// BufferSize is how many tasks may wait before new ones are dropped (default: 256)
	BufferSize int
}

func DefaultQueueConfig() QueueConfig {
	return QueueConfig{
		Workers:    2,
		BufferSize: 256,
	}
}

// Queue is an in-process Dispatcher backed by a buffered channel.
type Queue struct {
	tasks   chan Task
	handler Handler
	config  QueueConfig

	// Lifecycle management
	mu      sync.RWMutex
	running bool
	closed  bool
	closeCh chan struct{}
	wg      sync.WaitGroup
}

func NewQueue(handler Handler, config QueueConfig) *Queue {
	if config.Workers < 1 {
		config.Workers = DefaultQueueConfig().Workers
	}
	if config.BufferSize < 1 {
		config.BufferSize = DefaultQueueConfig().BufferSize
	}
	return &Queue{
		tasks:   make(chan Task, config.BufferSize),
		handler: handler,
		config:  config,
		closeCh: make(chan struct{}),
	}
}

// Dispatch enqueues task. When the buffer is full or the queue is stopped
// the task is dropped with a warning.
func (q *Queue) Dispatch(ctx context.Context, task Task) {
	task = newTaskID(task)

	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		slog.WarnContext(ctx, "Task dropped, queue is closed", "task_id", task.ID, "kind", task.Kind)
		return
	}

	select {
	case q.tasks <- task:
	default:
		slog.WarnContext(ctx, "Task dropped, queue is full",
			"task_id", task.ID,
			"kind", task.Kind,
			"buffer_size", q.config.BufferSize)
	}
}

// Start launches the workers. Tasks run with ctx, which should outlive
// the requests that dispatch them.
func (q *Queue) Start(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return fmt.Errorf("task queue is closed")
	}
	if q.running {
		return fmt.Errorf("task queue is already running")
	}
	q.running = true

	for i := 0; i < q.config.Workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx)
	}

	slog.InfoContext(ctx, "Task queue started",
		"workers", q.config.Workers,
		"buffer_size", q.config.BufferSize)
	return nil
}

// Stop refuses new tasks, lets workers drain what is buffered and waits for
// them or for ctx.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.closeCh)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.InfoContext(ctx, "Task queue stopped gracefully")
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Task queue stop timed out", "pending", len(q.tasks))
		return ctx.Err()
	}
}

// IsRunning returns whether workers are consuming tasks
func (q *Queue) IsRunning() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.running && !q.closed
}

// Pending returns the number of buffered tasks.
func (q *Queue) Pending() int {
	return len(q.tasks)
}

func (q *Queue) worker(ctx context.Context) {
	defer q.wg.Done()

	for {
		select {
		case task := <-q.tasks:
			run(ctx, q.handler, task)
		case <-q.closeCh:
			for {
				select {
				case task := <-q.tasks:
					run(ctx, q.handler, task)
				default:
					return
				}
			}
		case <-ctx.Done():
			return
		}
	}
}

// run executes one task and logs its outcome. Panics in handlers are
// contained so a worker never dies.
func run(ctx context.Context, h Handler, task Task) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "Task panicked", "task_id", task.ID, "kind", task.Kind, "panic", r)
		}
	}()

	if err := h.Handle(ctx, task); err != nil {
		slog.ErrorContext(ctx, "Task failed",
			"task_id", task.ID,
			"kind", task.Kind,
			"month", task.Month.String(),
			"owner_id", task.OwnerID,
			"error", err)
		return
	}

	slog.DebugContext(ctx, "Task completed",
		"task_id", task.ID,
		"kind", task.Kind,
		"duration", time.Since(start))
}
