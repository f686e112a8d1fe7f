package model

import "time"

type TaskType string

const (
	TypeTask TaskType = "task"
	TypeBug  TaskType = "bug"
)

func ValidTaskType(t TaskType) bool {
	return t == TypeTask || t == TypeBug
}

type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

func ValidPriority(p Priority) bool {
	switch p {
	case PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Status of a task. Statuses form an ordered workflow; Wontfix sits
// outside the order and is reachable from any status.
type Status string

const (
	StatusToDo       Status = "to_do"
	StatusInProgress Status = "in_progress"
	StatusCodeReview Status = "code_review"
	StatusDevTest    Status = "dev_test"
	StatusTesting    Status = "testing"
	StatusDone       Status = "done"
	StatusWontfix    Status = "wontfix"
)

func ValidStatus(s Status) bool {
	switch s {
	case StatusToDo, StatusInProgress, StatusCodeReview, StatusDevTest,
		StatusTesting, StatusDone, StatusWontfix:
		return true
	}
	return false
}

type Task struct {
	ID            int       `json:"id"`
	Number        int       `json:"number"`
	Type          TaskType  `json:"type"`
	Priority      Priority  `json:"priority"`
	Status        Status    `json:"status"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	LastUpdatedAt time.Time `json:"last_updated_at"`
	CreatorID     int       `json:"creator_id"`
	AssigneeID    *int      `json:"assignee_id,omitempty"`
	ParentID      *int      `json:"parent_id,omitempty"`
	Children      []Task    `json:"children,omitempty"`
}
