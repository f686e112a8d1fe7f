package task

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"tasktracker/internal/model"
	"tasktracker/internal/mq"
	"tasktracker/internal/repository"
	"tasktracker/pkg/metrics"
)

// anonymousActor marks events for changes made through endpoints that
// take no token, where no user identity is available.
const anonymousActor = 0

var (
	ErrTaskNotFound      = errors.New("task not found")
	ErrParentNotFound    = errors.New("parent task not found")
	ErrInvalidTask       = errors.New("invalid task fields")
	ErrInvalidStatus     = errors.New("invalid status")
	ErrInvalidTransition = errors.New("status transition not allowed")
	ErrInvalidAssignee   = errors.New("assignee not allowed for this status")
	ErrForbidden         = errors.New("operation not permitted for this role")
)

type TaskStore interface {
	Insert(ctx context.Context, t *model.Task) (int, error)
	GetByID(ctx context.Context, id int) (*model.Task, error)
	List(ctx context.Context, filterType string) ([]model.Task, error)
	Update(ctx context.Context, id int, t *model.Task) error
	UpdateStatus(ctx context.Context, id int, status model.Status, assigneeID *int) (time.Time, error)
	Delete(ctx context.Context, id int) error
	Search(ctx context.Context, f repository.SearchFilter) ([]model.Task, error)
}

type HistoryStore interface {
	Insert(ctx context.Context, e *model.HistoryEntry) error
	ListByTask(ctx context.Context, taskID int) ([]model.HistoryEntry, error)
}

type UserStore interface {
	FindByID(ctx context.Context, id int) (*model.User, error)
}

// EventPublisher matches mq.Publisher. A nil publisher disables events.
type EventPublisher interface {
	Publish(routingKey string, payload any) error
}

type Service struct {
	tasks   TaskStore
	history HistoryStore
	users   UserStore
	events  EventPublisher
	logger  *zap.Logger
}

func NewService(tasks TaskStore, history HistoryStore, users UserStore, events EventPublisher, logger *zap.Logger) *Service {
	return &Service{
		tasks:   tasks,
		history: history,
		users:   users,
		events:  events,
		logger:  logger,
	}
}

// CreateInput carries the client-supplied fields of a new task.
// AssigneeID and ParentID use 0 for "none".
type CreateInput struct {
	Number      int
	Type        model.TaskType
	Priority    model.Priority
	Title       string
	Description string
	AssigneeID  int
	ParentID    int
}

// Create stores a new task in the backlog and records its history.
func (s *Service) Create(ctx context.Context, actorID int, in CreateInput) (*model.Task, error) {
	if in.Title == "" || !model.ValidTaskType(in.Type) || !model.ValidPriority(in.Priority) {
		return nil, ErrInvalidTask
	}

	assignee, err := s.resolveAssignee(ctx, in.AssigneeID)
	if err != nil {
		return nil, err
	}
	if !ValidAssignee(model.StatusToDo, assignee) {
		return nil, ErrInvalidAssignee
	}

	var parentID *int
	if in.ParentID != 0 {
		if _, err := s.tasks.GetByID(ctx, in.ParentID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrParentNotFound
			}
			return nil, err
		}
		parentID = &in.ParentID
	}

	t := &model.Task{
		Number:      in.Number,
		Type:        in.Type,
		Priority:    in.Priority,
		Status:      model.StatusToDo,
		Title:       in.Title,
		Description: in.Description,
		CreatorID:   actorID,
		AssigneeID:  userIDPtr(assignee),
		ParentID:    parentID,
	}

	id, err := s.tasks.Insert(ctx, t)
	if err != nil {
		metrics.IncrementTaskOperation("create", "error")
		return nil, err
	}
	t.ID = id
	metrics.IncrementTaskOperation("create", "ok")

	s.recordHistory(ctx, t.ID, actorID, model.ChangeCreate, map[string]any{
		"number":      in.Number,
		"type":        in.Type,
		"priority":    in.Priority,
		"status":      model.StatusToDo,
		"title":       in.Title,
		"description": in.Description,
		"assignee_id": in.AssigneeID,
	})
	s.publish(mq.TaskCreatedKey, t, actorID)

	return t, nil
}

// Get returns a task with its children.
func (s *Service) Get(ctx context.Context, id int) (*model.Task, error) {
	t, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	return t, nil
}

// List returns every task in the order selected by filterType.
func (s *Service) List(ctx context.Context, filterType string) ([]model.Task, error) {
	return s.tasks.List(ctx, filterType)
}

// UpdateInput carries a full task update. Status must be reachable from
// the task's current status.
type UpdateInput struct {
	Number      int
	Type        model.TaskType
	Priority    model.Priority
	Status      model.Status
	Title       string
	Description string
	AssigneeID  int
}

// Update rewrites a task, enforcing the workflow and assignee rules,
// and records the change.
func (s *Service) Update(ctx context.Context, actorID, id int, in UpdateInput) (*model.Task, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Title == "" || !model.ValidTaskType(in.Type) || !model.ValidPriority(in.Priority) {
		return nil, ErrInvalidTask
	}
	if !model.ValidStatus(in.Status) {
		return nil, ErrInvalidStatus
	}
	if !AdmissibleUpdate(current.Status, in.Status) {
		return nil, ErrInvalidTransition
	}

	assignee, err := s.resolveAssignee(ctx, in.AssigneeID)
	if err != nil {
		return nil, err
	}
	if !ValidAssignee(in.Status, assignee) {
		return nil, ErrInvalidAssignee
	}

	updated := &model.Task{
		Number:      in.Number,
		Type:        in.Type,
		Priority:    in.Priority,
		Status:      in.Status,
		Title:       in.Title,
		Description: in.Description,
		AssigneeID:  userIDPtr(assignee),
	}
	if err := s.tasks.Update(ctx, id, updated); err != nil {
		metrics.IncrementTaskOperation("update", "error")
		return nil, err
	}
	updated.ID = id
	updated.CreatorID = current.CreatorID
	updated.ParentID = current.ParentID
	metrics.IncrementTaskOperation("update", "ok")

	s.recordHistory(ctx, id, actorID, model.ChangeUpdate, map[string]any{
		"number":      in.Number,
		"type":        in.Type,
		"priority":    in.Priority,
		"status":      in.Status,
		"title":       in.Title,
		"description": in.Description,
		"assignee_id": in.AssigneeID,
	})
	s.publish(mq.TaskUpdatedKey, updated, actorID)

	return updated, nil
}

// Advance moves a task one step along the workflow. Tasks that reached
// done cannot advance; wontfix is only reachable through Update.
func (s *Service) Advance(ctx context.Context, id, assigneeID int) (*model.Task, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	next, err := NextStatus(t.Status)
	if err != nil {
		return nil, ErrInvalidTransition
	}

	assignee, err := s.resolveAssignee(ctx, assigneeID)
	if err != nil {
		return nil, err
	}
	if !ValidAssignee(next, assignee) {
		return nil, ErrInvalidAssignee
	}

	updatedAt, err := s.tasks.UpdateStatus(ctx, id, next, userIDPtr(assignee))
	if err != nil {
		metrics.IncrementTaskOperation("next_status", "error")
		return nil, err
	}
	metrics.IncrementTaskOperation("next_status", "ok")

	t.Status = next
	t.AssigneeID = userIDPtr(assignee)
	t.LastUpdatedAt = updatedAt
	s.publish(mq.TaskUpdatedKey, t, anonymousActor)

	return t, nil
}

// Delete removes a task. Managers only.
func (s *Service) Delete(ctx context.Context, actorID, id int) error {
	actor, err := s.users.FindByID(ctx, actorID)
	if err != nil {
		return err
	}
	if actor.Role != model.RoleManager {
		return ErrForbidden
	}

	if err := s.tasks.Delete(ctx, id); err != nil {
		metrics.IncrementTaskOperation("delete", "error")
		return err
	}
	metrics.IncrementTaskOperation("delete", "ok")

	s.publish(mq.TaskDeletedKey, &model.Task{ID: id}, actorID)
	return nil
}

// Search returns tasks matching the filter.
func (s *Service) Search(ctx context.Context, f repository.SearchFilter) ([]model.Task, error) {
	return s.tasks.Search(ctx, f)
}

// History returns the recorded changes of a task, oldest first.
func (s *Service) History(ctx context.Context, taskID int) ([]model.HistoryEntry, error) {
	return s.history.ListByTask(ctx, taskID)
}

// resolveAssignee loads the requested assignee; 0 means unassigned.
func (s *Service) resolveAssignee(ctx context.Context, assigneeID int) (*model.User, error) {
	if assigneeID == 0 {
		return nil, nil
	}
	u, err := s.users.FindByID(ctx, assigneeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidAssignee
		}
		return nil, err
	}
	return u, nil
}

// recordHistory is best-effort: the task change already committed, so a
// failed history write is logged rather than surfaced.
func (s *Service) recordHistory(ctx context.Context, taskID, actorID int, change model.ChangeType, fields map[string]any) {
	data, err := json.Marshal(map[string]any{"changes": fields})
	if err != nil {
		s.logger.Error("failed to marshal history entry", zap.Error(err), zap.Int("task_id", taskID))
		return
	}
	entry := &model.HistoryEntry{
		TaskID:     taskID,
		ChangeType: change,
		ChangeData: data,
		UserID:     actorID,
	}
	if err := s.history.Insert(ctx, entry); err != nil {
		s.logger.Error("failed to record task history", zap.Error(err), zap.Int("task_id", taskID))
	}
}

func (s *Service) publish(routingKey string, t *model.Task, actorID int) {
	if s.events == nil {
		return
	}
	payload := mq.TaskEventPayload{
		TaskID:     t.ID,
		Number:     t.Number,
		Status:     string(t.Status),
		ActorID:    actorID,
		OccurredAt: time.Now(),
	}
	if err := s.events.Publish(routingKey, payload); err != nil {
		metrics.IncrementEventPublish(routingKey, "error")
		s.logger.Warn("failed to publish task event",
			zap.String("routing_key", routingKey),
			zap.Int("task_id", t.ID),
			zap.Error(err),
		)
		return
	}
	metrics.IncrementEventPublish(routingKey, "ok")
}

func userIDPtr(u *model.User) *int {
	if u == nil {
		return nil
	}
	id := u.ID
	return &id
}
