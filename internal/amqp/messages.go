package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"finledger/internal/tasks"
)

// TaskMessageVersion is bumped when TaskMessage changes incompatibly.
const TaskMessageVersion = 1

// TaskMessage carries one ledger side effect to a worker process.
type TaskMessage struct {
	Version     int        `json:"version"`
	Task        tasks.Task `json:"task"`
	PublishedAt time.Time  `json:"publishedAt"`
}

func NewTaskMessage(task tasks.Task) *TaskMessage {
	return &TaskMessage{
		Version:     TaskMessageVersion,
		Task:        task,
		PublishedAt: time.Now(),
	}
}

func (m *TaskMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TaskMessageFromJSON decodes a task message and rejects versions this
// build does not understand.
func TaskMessageFromJSON(data []byte) (*TaskMessage, error) {
	var msg TaskMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Version != TaskMessageVersion {
		return nil, fmt.Errorf("unsupported task message version %d", msg.Version)
	}
	if msg.Task.Kind == "" {
		return nil, fmt.Errorf("task message without kind")
	}
	return &msg, nil
}

// NotificationKindReminder marks an upcoming subscription bill.
const NotificationKindReminder = "subscription_reminder"

// NotificationMessage is handed to whatever delivers messages to the owner.
type NotificationMessage struct {
	Kind           string    `json:"kind"`
	OwnerID        string    `json:"ownerId"`
	SubscriptionID string    `json:"subscriptionId,omitempty"`
	DueOn          string    `json:"dueOn,omitempty"`
	Amount         string    `json:"amount,omitempty"`
	Message        string    `json:"message"`
	CreatedAt      time.Time `json:"createdAt"`
}

func (m *NotificationMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}
