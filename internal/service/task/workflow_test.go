package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasktracker/internal/model"
)

func TestNextStatusFollowsWorkflow(t *testing.T) {
	steps := map[model.Status]model.Status{
		model.StatusToDo:       model.StatusInProgress,
		model.StatusInProgress: model.StatusCodeReview,
		model.StatusCodeReview: model.StatusDevTest,
		model.StatusDevTest:    model.StatusTesting,
		model.StatusTesting:    model.StatusDone,
	}
	for from, want := range steps {
		got, err := NextStatus(from)
		require.NoError(t, err, "from %s", from)
		assert.Equal(t, want, got, "from %s", from)
	}
}

func TestNextStatusTerminalStates(t *testing.T) {
	_, err := NextStatus(model.StatusDone)
	assert.ErrorIs(t, err, ErrWorkflowEnd)

	_, err = NextStatus(model.StatusWontfix)
	assert.ErrorIs(t, err, ErrWorkflowEnd)
}

func TestAdmissibleUpdate(t *testing.T) {
	cases := []struct {
		name     string
		current  model.Status
		next     model.Status
		expected bool
	}{
		{"stay put", model.StatusInProgress, model.StatusInProgress, true},
		{"advance one step", model.StatusInProgress, model.StatusCodeReview, true},
		{"back to backlog", model.StatusTesting, model.StatusToDo, true},
		{"write off", model.StatusDevTest, model.StatusWontfix, true},
		{"skip a step", model.StatusToDo, model.StatusCodeReview, false},
		{"move backwards", model.StatusTesting, model.StatusInProgress, false},
		{"reopen done", model.StatusDone, model.StatusTesting, false},
		{"resurrect wontfix forward", model.StatusWontfix, model.StatusInProgress, false},
		{"wontfix back to backlog", model.StatusWontfix, model.StatusToDo, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, AdmissibleUpdate(tc.current, tc.next))
		})
	}
}

func TestValidAssigneeUnassigned(t *testing.T) {
	assert.True(t, ValidAssignee(model.StatusToDo, nil))
	assert.True(t, ValidAssignee(model.StatusTesting, nil))
	// somebody has to be working an in_progress task
	assert.False(t, ValidAssignee(model.StatusInProgress, nil))
}

func TestValidAssigneeByRole(t *testing.T) {
	allStatuses := []model.Status{
		model.StatusToDo, model.StatusInProgress, model.StatusCodeReview,
		model.StatusDevTest, model.StatusTesting, model.StatusDone, model.StatusWontfix,
	}

	teamLead := &model.User{ID: 1, Role: model.RoleTeamLead}
	for _, st := range allStatuses {
		assert.True(t, ValidAssignee(st, teamLead), "team lead at %s", st)
	}

	testEngineer := &model.User{ID: 2, Role: model.RoleTestEngineer}
	blocked := map[model.Status]bool{
		model.StatusInProgress: true,
		model.StatusCodeReview: true,
		model.StatusDevTest:    true,
	}
	for _, st := range allStatuses {
		assert.Equal(t, !blocked[st], ValidAssignee(st, testEngineer), "test engineer at %s", st)
	}

	developer := &model.User{ID: 3, Role: model.RoleDeveloper}
	for _, st := range allStatuses {
		assert.Equal(t, st != model.StatusTesting, ValidAssignee(st, developer), "developer at %s", st)
	}
}

func TestValidAssigneeWithoutWorkingRole(t *testing.T) {
	// managers do not take tasks, and users without a role cannot yet
	assert.False(t, ValidAssignee(model.StatusToDo, &model.User{ID: 4, Role: model.RoleManager}))
	assert.False(t, ValidAssignee(model.StatusToDo, &model.User{ID: 5}))
}
