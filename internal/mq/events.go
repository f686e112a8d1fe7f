package mq

import "time"

// Routing keys for task lifecycle events.
const (
	TaskCreatedKey = "task.created"
	TaskUpdatedKey = "task.updated"
	TaskDeletedKey = "task.deleted"
)

type TaskEventPayload struct {
	TaskID     int       `json:"task_id"`
	Number     int       `json:"number,omitempty"`
	Status     string    `json:"status,omitempty"`
	ActorID    int       `json:"actor_id"`
	OccurredAt time.Time `json:"occurred_at"`
}
