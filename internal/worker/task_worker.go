package worker

import (
	"context"

	"finledger/internal/amqp"
	"finledger/internal/tasks"
)

// TaskConsumer is the part of amqp.Client the task worker needs.
type TaskConsumer interface {
	ConsumeTasks(ctx context.Context, handler func(context.Context, *amqp.TaskMessage) error) error
}

// TaskWorker executes the ledger tasks published by the API process.
type TaskWorker struct {
	consumer TaskConsumer
	handler  tasks.Handler
}

func NewTaskWorker(consumer TaskConsumer, handler tasks.Handler) *TaskWorker {
	return &TaskWorker{consumer: consumer, handler: handler}
}

// Run consumes until ctx is done.
func (w *TaskWorker) Run(ctx context.Context) error {
	return w.consumer.ConsumeTasks(ctx, amqp.TaskHandler(w.handler))
}
