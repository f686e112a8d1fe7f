package model

import (
	"encoding/json"
	"time"
)

type ChangeType string

const (
	ChangeCreate ChangeType = "create"
	ChangeUpdate ChangeType = "update"
)

// HistoryEntry records a single create or update applied to a task.
// ChangeData holds the submitted fields as `{"changes": {...}}`.
type HistoryEntry struct {
	ID         int             `json:"id"`
	TaskID     int             `json:"task_id"`
	ChangeType ChangeType      `json:"change_type"`
	ChangeData json.RawMessage `json:"change_data"`
	Timestamp  time.Time       `json:"timestamp"`
	UserID     int             `json:"user_id"`
}
