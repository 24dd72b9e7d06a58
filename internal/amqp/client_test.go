package amqp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"finledger/internal/core"
	"finledger/internal/tasks"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},  // capped at 30s
		{10, 30 * time.Second}, // capped at 30s
		{40, 30 * time.Second}, // capped at 30s
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			result := exponentialBackoff(tt.attempt)
			if result != tt.expected {
				t.Errorf("exponentialBackoff(%d) = %v, want %v", tt.attempt, result, tt.expected)
			}
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"connection refused", errors.New("connection refused"), true},
		{"EOF error", errors.New("unexpected EOF"), true},
		{"broken pipe error", errors.New("broken pipe"), true},
		{"closed network connection", errors.New("use of closed network connection"), true},
		{"wrapped", fmt.Errorf("publish: %w", errors.New("connection reset by peer")), true},
		{"other error", errors.New("some other error"), false},
		{"validation error", errors.New("invalid input"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isConnectionError(tt.err); got != tt.expected {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestCircuitBreaker(t *testing.T) {
	client := &Client{}

	if client.isCircuitOpen() {
		t.Fatal("new client should have a closed circuit")
	}

	for i := 0; i < maxFailures-1; i++ {
		client.recordFailure()
	}
	if client.isCircuitOpen() {
		t.Fatalf("circuit opened after %d failures, want %d", maxFailures-1, maxFailures)
	}

	client.recordFailure()
	if !client.isCircuitOpen() {
		t.Fatal("circuit should be open after max failures")
	}

	client.recordSuccess()
	if client.isCircuitOpen() {
		t.Fatal("success should close the circuit")
	}
	if got := atomic.LoadInt64(&client.failureCount); got != 0 {
		t.Errorf("failureCount = %d, want 0", got)
	}
}

func TestCircuitBreakerHalfOpen(t *testing.T) {
	client := &Client{state: StateOpen, lastFailure: time.Now().Add(-openTimeout - time.Second)}

	if client.isCircuitOpen() {
		t.Fatal("circuit should let a trial call through after the open timeout")
	}
	if got := atomic.LoadInt32(&client.state); got != StateHalfOpen {
		t.Fatalf("state = %d, want half-open", got)
	}

	// A failed trial call opens the circuit again at once.
	client.recordFailure()
	if !client.isCircuitOpen() {
		t.Fatal("failed trial call should reopen the circuit")
	}
}

func TestPublishFailsFast(t *testing.T) {
	t.Run("open circuit", func(t *testing.T) {
		client := &Client{queueName: "ledger_tasks", state: StateOpen, lastFailure: time.Now()}
		err := client.PublishTask(context.Background(), NewTaskMessage(tasks.Task{Kind: tasks.KindCategoryUsage}))
		if err == nil || !strings.Contains(err.Error(), "circuit breaker is open") {
			t.Fatalf("PublishTask() error = %v, want circuit breaker error", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		client := &Client{queueName: "ledger_tasks"}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := client.PublishTask(ctx, NewTaskMessage(tasks.Task{Kind: tasks.KindCategoryUsage}))
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("PublishTask() error = %v, want context.Canceled", err)
		}
	})

	t.Run("notification queue missing", func(t *testing.T) {
		client := &Client{queueName: "ledger_tasks"}
		if err := client.PublishNotification(context.Background(), &NotificationMessage{}); err == nil {
			t.Fatal("PublishNotification() without a queue should fail")
		}
	})
}

func TestTaskMessageFromJSON(t *testing.T) {
	msg := NewTaskMessage(tasks.Task{
		ID:      "task_1",
		Kind:    tasks.KindSnapshotRefresh,
		Month:   core.NewMonth(2025, time.March),
		OwnerID: "alice",
	})
	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	got, err := TaskMessageFromJSON(data)
	if err != nil {
		t.Fatalf("TaskMessageFromJSON() error = %v", err)
	}
	if got.Task.Month != msg.Task.Month || got.Task.OwnerID != "alice" {
		t.Errorf("decoded task = %+v, want month 2025-03 for alice", got.Task)
	}

	bad := []struct {
		name string
		data string
	}{
		{"invalid json", `{"version":`},
		{"unknown version", `{"version":2,"task":{"kind":"category_usage"}}`},
		{"missing kind", `{"version":1,"task":{}}`},
		{"bad month", `{"version":1,"task":{"kind":"snapshot_refresh","month":"2025-13"}}`},
	}
	for _, tt := range bad {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := TaskMessageFromJSON([]byte(tt.data)); err == nil {
				t.Errorf("TaskMessageFromJSON(%s) should fail", tt.data)
			}
		})
	}
}

type recordingPublisher struct {
	msgs []*TaskMessage
	err  error
}

func (p *recordingPublisher) PublishTask(_ context.Context, msg *TaskMessage) error {
	p.msgs = append(p.msgs, msg)
	return p.err
}

func TestDispatcher(t *testing.T) {
	pub := &recordingPublisher{}
	d := NewDispatcher(pub)

	d.Dispatch(context.Background(), tasks.Task{Kind: tasks.KindTagUsage, Tags: []string{"food"}})
	if len(pub.msgs) != 1 {
		t.Fatalf("published %d messages, want 1", len(pub.msgs))
	}
	task := pub.msgs[0].Task
	if task.ID == "" || task.CreatedAt.IsZero() {
		t.Errorf("dispatched task missing id or creation time: %+v", task)
	}
	if pub.msgs[0].Version != TaskMessageVersion {
		t.Errorf("Version = %d, want %d", pub.msgs[0].Version, TaskMessageVersion)
	}

	// Publish failures are swallowed.
	pub.err = errors.New("connection refused")
	d.Dispatch(context.Background(), tasks.Task{Kind: tasks.KindCategoryUsage})
	if len(pub.msgs) != 2 {
		t.Fatalf("published %d messages, want 2", len(pub.msgs))
	}
}

func TestTaskHandler(t *testing.T) {
	var got tasks.Task
	h := TaskHandler(tasks.HandlerFunc(func(_ context.Context, task tasks.Task) error {
		got = task
		return nil
	}))
	if err := h(context.Background(), NewTaskMessage(tasks.Task{ID: "task_9", Kind: tasks.KindCategoryUsage})); err != nil {
		t.Fatalf("handler error = %v", err)
	}
	if got.ID != "task_9" {
		t.Errorf("handled task id = %q, want task_9", got.ID)
	}
}
