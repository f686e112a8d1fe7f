package task

import (
	"errors"

	"tasktracker/internal/model"
)

// statusOrder is the forward path of the workflow. Wontfix is not part
// of the order; it is a terminal state reachable from anywhere.
var statusOrder = []model.Status{
	model.StatusToDo,
	model.StatusInProgress,
	model.StatusCodeReview,
	model.StatusDevTest,
	model.StatusTesting,
	model.StatusDone,
}

var ErrWorkflowEnd = errors.New("task has no next status")

// NextStatus returns the status following s in the workflow.
func NextStatus(s model.Status) (model.Status, error) {
	for i, st := range statusOrder {
		if st == s {
			if i == len(statusOrder)-1 {
				return "", ErrWorkflowEnd
			}
			return statusOrder[i+1], nil
		}
	}
	// wontfix or anything unknown cannot advance
	return "", ErrWorkflowEnd
}

// AdmissibleUpdate reports whether a task may be moved from current to
// next via a full update: back to the backlog, written off, kept where
// it is, or advanced a single step.
func AdmissibleUpdate(current, next model.Status) bool {
	if next == model.StatusToDo || next == model.StatusWontfix || next == current {
		return true
	}
	following, err := NextStatus(current)
	return err == nil && next == following
}

// ValidAssignee reports whether assignee may hold a task in the given
// status. A nil assignee is fine as long as nobody is working the task;
// team leads can hold anything; test engineers stay out of development
// stages; developers stay out of testing. Users with no role assigned
// yet (and managers, who do not take tasks) cannot be assignees.
func ValidAssignee(status model.Status, assignee *model.User) bool {
	if assignee == nil {
		return status != model.StatusInProgress
	}
	switch assignee.Role {
	case model.RoleTeamLead:
		return true
	case model.RoleTestEngineer:
		return status != model.StatusInProgress &&
			status != model.StatusCodeReview &&
			status != model.StatusDevTest
	case model.RoleDeveloper:
		return status != model.StatusTesting
	}
	return false
}
