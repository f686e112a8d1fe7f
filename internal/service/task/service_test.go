package task

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tasktracker/internal/model"
	"tasktracker/internal/mq"
	"tasktracker/internal/repository"
)

type fakeTaskStore struct {
	tasks  map[int]*model.Task
	nextID int
}

func newFakeTaskStore() *fakeTaskStore {
	return &fakeTaskStore{tasks: map[int]*model.Task{}, nextID: 1}
}

func (s *fakeTaskStore) Insert(ctx context.Context, t *model.Task) (int, error) {
	id := s.nextID
	s.nextID++
	now := time.Now()
	t.CreatedAt = now
	t.LastUpdatedAt = now
	saved := *t
	saved.ID = id
	s.tasks[id] = &saved
	return id, nil
}

func (s *fakeTaskStore) GetByID(ctx context.Context, id int) (*model.Task, error) {
	t, ok := s.tasks[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *t
	return &copied, nil
}

func (s *fakeTaskStore) List(ctx context.Context, filterType string) ([]model.Task, error) {
	out := []model.Task{}
	for _, t := range s.tasks {
		out = append(out, *t)
	}
	return out, nil
}

func (s *fakeTaskStore) Update(ctx context.Context, id int, t *model.Task) error {
	existing, ok := s.tasks[id]
	if !ok {
		return pgx.ErrNoRows
	}
	existing.Number = t.Number
	existing.Type = t.Type
	existing.Priority = t.Priority
	existing.Status = t.Status
	existing.Title = t.Title
	existing.Description = t.Description
	existing.AssigneeID = t.AssigneeID
	existing.LastUpdatedAt = time.Now()
	t.CreatedAt = existing.CreatedAt
	t.LastUpdatedAt = existing.LastUpdatedAt
	return nil
}

func (s *fakeTaskStore) UpdateStatus(ctx context.Context, id int, status model.Status, assigneeID *int) (time.Time, error) {
	existing, ok := s.tasks[id]
	if !ok {
		return time.Time{}, pgx.ErrNoRows
	}
	existing.Status = status
	existing.AssigneeID = assigneeID
	existing.LastUpdatedAt = time.Now()
	return existing.LastUpdatedAt, nil
}

func (s *fakeTaskStore) Delete(ctx context.Context, id int) error {
	delete(s.tasks, id)
	return nil
}

func (s *fakeTaskStore) Search(ctx context.Context, f repository.SearchFilter) ([]model.Task, error) {
	return s.List(ctx, "")
}

type fakeHistoryStore struct {
	entries []model.HistoryEntry
}

func (s *fakeHistoryStore) Insert(ctx context.Context, e *model.HistoryEntry) error {
	e.ID = len(s.entries) + 1
	s.entries = append(s.entries, *e)
	return nil
}

func (s *fakeHistoryStore) ListByTask(ctx context.Context, taskID int) ([]model.HistoryEntry, error) {
	out := []model.HistoryEntry{}
	for _, e := range s.entries {
		if e.TaskID == taskID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeUserStore struct {
	users map[int]*model.User
}

func (s *fakeUserStore) FindByID(ctx context.Context, id int) (*model.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return u, nil
}

type fakePublisher struct {
	published []string
	payloads  []mq.TaskEventPayload
}

func (p *fakePublisher) Publish(routingKey string, payload any) error {
	p.published = append(p.published, routingKey)
	p.payloads = append(p.payloads, payload.(mq.TaskEventPayload))
	return nil
}

type fixture struct {
	svc     *Service
	tasks   *fakeTaskStore
	history *fakeHistoryStore
	users   *fakeUserStore
	events  *fakePublisher
}

func newFixture() *fixture {
	tasks := newFakeTaskStore()
	history := &fakeHistoryStore{}
	users := &fakeUserStore{users: map[int]*model.User{
		1: {ID: 1, Username: "boss", Role: model.RoleManager},
		2: {ID: 2, Username: "dev", Role: model.RoleDeveloper},
		3: {ID: 3, Username: "qa", Role: model.RoleTestEngineer},
		4: {ID: 4, Username: "lead", Role: model.RoleTeamLead},
	}}
	events := &fakePublisher{}
	return &fixture{
		svc:     NewService(tasks, history, users, events, zap.NewNop()),
		tasks:   tasks,
		history: history,
		users:   users,
		events:  events,
	}
}

func validCreate() CreateInput {
	return CreateInput{
		Number:   101,
		Type:     model.TypeBug,
		Priority: model.PriorityHigh,
		Title:    "fix the login page",
	}
}

func TestCreateStartsInBacklog(t *testing.T) {
	f := newFixture()

	created, err := f.svc.Create(context.Background(), 2, validCreate())
	require.NoError(t, err)

	assert.Equal(t, model.StatusToDo, created.Status)
	assert.Equal(t, 2, created.CreatorID)
	assert.Nil(t, created.AssigneeID)
	assert.Equal(t, []string{mq.TaskCreatedKey}, f.events.published)
}

func TestCreateRecordsHistory(t *testing.T) {
	f := newFixture()

	created, err := f.svc.Create(context.Background(), 2, validCreate())
	require.NoError(t, err)

	entries, err := f.svc.History(context.Background(), created.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, model.ChangeCreate, entries[0].ChangeType)
	assert.Equal(t, 2, entries[0].UserID)

	var data struct {
		Changes map[string]any `json:"changes"`
	}
	require.NoError(t, json.Unmarshal(entries[0].ChangeData, &data))
	assert.Equal(t, "to_do", data.Changes["status"])
	assert.Equal(t, "fix the login page", data.Changes["title"])
}

func TestCreateRejectsBadFields(t *testing.T) {
	f := newFixture()

	in := validCreate()
	in.Type = "epic"
	_, err := f.svc.Create(context.Background(), 2, in)
	assert.ErrorIs(t, err, ErrInvalidTask)

	in = validCreate()
	in.Title = ""
	_, err = f.svc.Create(context.Background(), 2, in)
	assert.ErrorIs(t, err, ErrInvalidTask)
}

func TestCreateValidatesAssignee(t *testing.T) {
	f := newFixture()

	in := validCreate()
	in.AssigneeID = 2 // developer may hold a backlog task
	created, err := f.svc.Create(context.Background(), 2, in)
	require.NoError(t, err)
	require.NotNil(t, created.AssigneeID)
	assert.Equal(t, 2, *created.AssigneeID)

	in.AssigneeID = 1 // managers do not take tasks
	_, err = f.svc.Create(context.Background(), 2, in)
	assert.ErrorIs(t, err, ErrInvalidAssignee)

	in.AssigneeID = 99 // nobody
	_, err = f.svc.Create(context.Background(), 2, in)
	assert.ErrorIs(t, err, ErrInvalidAssignee)
}

func TestCreateChildNeedsParent(t *testing.T) {
	f := newFixture()

	in := validCreate()
	in.ParentID = 42
	_, err := f.svc.Create(context.Background(), 2, in)
	assert.ErrorIs(t, err, ErrParentNotFound)

	parent, err := f.svc.Create(context.Background(), 2, validCreate())
	require.NoError(t, err)

	in = validCreate()
	in.Number = 102
	in.ParentID = parent.ID
	child, err := f.svc.Create(context.Background(), 2, in)
	require.NoError(t, err)
	require.NotNil(t, child.ParentID)
	assert.Equal(t, parent.ID, *child.ParentID)
}

func validUpdate(status model.Status) UpdateInput {
	return UpdateInput{
		Number:   101,
		Type:     model.TypeBug,
		Priority: model.PriorityHigh,
		Status:   status,
		Title:    "fix the login page",
	}
}

func TestUpdateEnforcesWorkflow(t *testing.T) {
	f := newFixture()
	created, err := f.svc.Create(context.Background(), 2, validCreate())
	require.NoError(t, err)

	// skipping a step is not allowed
	_, err = f.svc.Update(context.Background(), 2, created.ID, validUpdate(model.StatusCodeReview))
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// one step forward is, with someone working the task
	in := validUpdate(model.StatusInProgress)
	in.AssigneeID = 2
	updated, err := f.svc.Update(context.Background(), 2, created.ID, in)
	require.NoError(t, err)
	assert.Equal(t, model.StatusInProgress, updated.Status)

	// writing a task off is always possible
	_, err = f.svc.Update(context.Background(), 2, created.ID, validUpdate(model.StatusWontfix))
	assert.NoError(t, err)
}

func TestUpdateRejectsUnknownStatus(t *testing.T) {
	f := newFixture()
	created, err := f.svc.Create(context.Background(), 2, validCreate())
	require.NoError(t, err)

	_, err = f.svc.Update(context.Background(), 2, created.ID, validUpdate("half_done"))
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestUpdateValidatesAssigneeAgainstNewStatus(t *testing.T) {
	f := newFixture()
	created, err := f.svc.Create(context.Background(), 2, validCreate())
	require.NoError(t, err)

	// a test engineer cannot hold a task under development
	in := validUpdate(model.StatusInProgress)
	in.AssigneeID = 3
	_, err = f.svc.Update(context.Background(), 2, created.ID, in)
	assert.ErrorIs(t, err, ErrInvalidAssignee)
}

func TestUpdateRecordsHistory(t *testing.T) {
	f := newFixture()
	created, err := f.svc.Create(context.Background(), 2, validCreate())
	require.NoError(t, err)

	in := validUpdate(model.StatusInProgress)
	in.AssigneeID = 2
	_, err = f.svc.Update(context.Background(), 4, created.ID, in)
	require.NoError(t, err)

	entries, err := f.svc.History(context.Background(), created.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, model.ChangeUpdate, entries[1].ChangeType)
	assert.Equal(t, 4, entries[1].UserID)
}

func TestUpdateMissingTask(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Update(context.Background(), 2, 7, validUpdate(model.StatusToDo))
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestAdvanceWalksTheWorkflow(t *testing.T) {
	f := newFixture()
	created, err := f.svc.Create(context.Background(), 2, validCreate())
	require.NoError(t, err)

	// in_progress needs a worker
	_, err = f.svc.Advance(context.Background(), created.ID, 0)
	assert.ErrorIs(t, err, ErrInvalidAssignee)

	advanced, err := f.svc.Advance(context.Background(), created.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, model.StatusInProgress, advanced.Status)

	advanced, err = f.svc.Advance(context.Background(), created.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCodeReview, advanced.Status)
}

func TestMutationsCarryRowTimestamps(t *testing.T) {
	f := newFixture()

	created, err := f.svc.Create(context.Background(), 2, validCreate())
	require.NoError(t, err)
	assert.False(t, created.CreatedAt.IsZero())
	assert.False(t, created.LastUpdatedAt.IsZero())

	in := validUpdate(model.StatusInProgress)
	in.AssigneeID = 2
	updated, err := f.svc.Update(context.Background(), 2, created.ID, in)
	require.NoError(t, err)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.False(t, updated.LastUpdatedAt.IsZero())
	assert.False(t, updated.LastUpdatedAt.Before(created.LastUpdatedAt))

	advanced, err := f.svc.Advance(context.Background(), created.ID, 2)
	require.NoError(t, err)
	assert.False(t, advanced.LastUpdatedAt.IsZero())
	assert.False(t, advanced.LastUpdatedAt.Before(updated.LastUpdatedAt))
}

func TestAdvanceEventHasNoActor(t *testing.T) {
	f := newFixture()
	created, err := f.svc.Create(context.Background(), 2, validCreate())
	require.NoError(t, err)

	_, err = f.svc.Advance(context.Background(), created.ID, 2)
	require.NoError(t, err)

	last := f.events.payloads[len(f.events.payloads)-1]
	assert.Equal(t, created.ID, last.TaskID)
	assert.Zero(t, last.ActorID)
}

func TestAdvanceStopsAtDone(t *testing.T) {
	f := newFixture()
	created, err := f.svc.Create(context.Background(), 2, validCreate())
	require.NoError(t, err)
	f.tasks.tasks[created.ID].Status = model.StatusDone

	_, err = f.svc.Advance(context.Background(), created.ID, 0)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestDeleteIsManagerOnly(t *testing.T) {
	f := newFixture()
	created, err := f.svc.Create(context.Background(), 2, validCreate())
	require.NoError(t, err)

	err = f.svc.Delete(context.Background(), 2, created.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	err = f.svc.Delete(context.Background(), 1, created.ID)
	require.NoError(t, err)

	_, err = f.svc.Get(context.Background(), created.ID)
	assert.ErrorIs(t, err, ErrTaskNotFound)
	assert.Contains(t, f.events.published, mq.TaskDeletedKey)
}
