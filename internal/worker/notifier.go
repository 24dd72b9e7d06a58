package worker

import (
	"context"
	"time"

	"finledger/internal/amqp"
	"finledger/internal/log"
	"finledger/internal/services"
)

// NotificationPublisher is the part of amqp.Client the notifier needs.
type NotificationPublisher interface {
	PublishNotification(ctx context.Context, msg *amqp.NotificationMessage) error
}

// AMQPNotifier publishes reminders to the notification queue.
type AMQPNotifier struct {
	publisher NotificationPublisher
}

func NewAMQPNotifier(publisher NotificationPublisher) *AMQPNotifier {
	return &AMQPNotifier{publisher: publisher}
}

func (n *AMQPNotifier) Notify(ctx context.Context, r services.Reminder) error {
	return n.publisher.PublishNotification(ctx, reminderMessage(r))
}

func reminderMessage(r services.Reminder) *amqp.NotificationMessage {
	return &amqp.NotificationMessage{
		Kind:           amqp.NotificationKindReminder,
		OwnerID:        r.OwnerID,
		SubscriptionID: r.SubscriptionID,
		DueOn:          r.DueOn.String(),
		Amount:         r.Amount.String(),
		Message:        r.Message,
		CreatedAt:      time.Now(),
	}
}

// LogNotifier writes reminders to the log. It is used without a broker.
type LogNotifier struct {
	logger *log.Logger
}

func NewLogNotifier(logger *log.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.WithComponent(log.ComponentScheduler)}
}

func (n *LogNotifier) Notify(ctx context.Context, r services.Reminder) error {
	n.logger.InfoContext(ctx, r.Message,
		log.FieldOwnerID, r.OwnerID,
		"subscription_id", r.SubscriptionID,
		"due_on", r.DueOn.String())
	return nil
}
