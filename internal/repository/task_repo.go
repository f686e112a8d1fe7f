package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"tasktracker/internal/model"
)

const taskColumns = `id, number, type, priority, status, title, description,
        created_at, last_updated_at, creator_id, assignee_id, parent_id`

type TaskRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewTaskRepository(db *pgxpool.Pool, logger *zap.Logger) *TaskRepository {
	return &TaskRepository{db: db, logger: logger}
}

// Insert stores a new task and returns its generated ID.
func (r *TaskRepository) Insert(ctx context.Context, t *model.Task) (int, error) {
	r.logger.Debug("Inserting task",
		zap.Int("number", t.Number),
		zap.String("title", t.Title),
		zap.String("status", string(t.Status)),
	)
	query := `
        INSERT INTO tasks (number, type, priority, status, title, description, creator_id, assignee_id, parent_id)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id, created_at, last_updated_at
    `
	var id int
	err := r.db.QueryRow(ctx, query,
		t.Number,
		t.Type,
		t.Priority,
		t.Status,
		t.Title,
		t.Description,
		t.CreatorID,
		t.AssigneeID,
		t.ParentID,
	).Scan(&id, &t.CreatedAt, &t.LastUpdatedAt)
	if err != nil {
		r.logger.Error("Failed to insert task", zap.Error(err), zap.Int("number", t.Number))
		return 0, err
	}
	r.logger.Info("Task inserted successfully", zap.Int("task_id", id))
	return id, nil
}

// GetByID returns a task with its direct children attached.
func (r *TaskRepository) GetByID(ctx context.Context, id int) (*model.Task, error) {
	query := fmt.Sprintf(`SELECT %s FROM tasks WHERE id = $1`, taskColumns)
	t, err := scanTask(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}

	children, err := r.childrenOf(ctx, id)
	if err != nil {
		return nil, err
	}
	t.Children = children
	return t, nil
}

// List returns all tasks in the order selected by filterType, each with
// its direct children attached.
func (r *TaskRepository) List(ctx context.Context, filterType string) ([]model.Task, error) {
	ordering, err := orderByForFilter(filterType)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM tasks ORDER BY %s`, taskColumns, ordering)
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to query tasks", zap.Error(err), zap.String("filter_type", filterType))
		return nil, err
	}
	defer rows.Close()

	tasks, err := collectTasks(rows)
	if err != nil {
		return nil, err
	}
	attachChildren(tasks)

	r.logger.Info("Tasks listed successfully",
		zap.String("filter_type", filterType),
		zap.Int("count", len(tasks)),
	)
	return tasks, nil
}

// Update rewrites the mutable fields of a task and refreshes the
// timestamps on t from the row.
func (r *TaskRepository) Update(ctx context.Context, id int, t *model.Task) error {
	query := `
        UPDATE tasks
        SET number = $1, type = $2, priority = $3, status = $4,
            title = $5, description = $6, assignee_id = $7,
            last_updated_at = NOW()
        WHERE id = $8
        RETURNING created_at, last_updated_at
    `
	err := r.db.QueryRow(ctx, query,
		t.Number, t.Type, t.Priority, t.Status,
		t.Title, t.Description, t.AssigneeID, id,
	).Scan(&t.CreatedAt, &t.LastUpdatedAt)
	if err != nil {
		r.logger.Error("Failed to update task", zap.Error(err), zap.Int("task_id", id))
	}
	return err
}

// UpdateStatus moves a task to a new status and assignee, returning the
// row's new last_updated_at.
func (r *TaskRepository) UpdateStatus(ctx context.Context, id int, status model.Status, assigneeID *int) (time.Time, error) {
	query := `
        UPDATE tasks
        SET status = $1, assignee_id = $2, last_updated_at = NOW()
        WHERE id = $3
        RETURNING last_updated_at
    `
	var updatedAt time.Time
	err := r.db.QueryRow(ctx, query, status, assigneeID, id).Scan(&updatedAt)
	if err != nil {
		r.logger.Error("Failed to update task status", zap.Error(err), zap.Int("task_id", id))
	}
	return updatedAt, err
}

// Delete removes a task. Children are kept and detached by the
// ON DELETE SET NULL constraint on parent_id.
func (r *TaskRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete task", zap.Error(err), zap.Int("task_id", id))
		return err
	}
	r.logger.Info("Task deleted",
		zap.Int("task_id", id),
		zap.Int64("rows_affected", result.RowsAffected()),
	)
	return nil
}

// Search returns tasks matching the filter, oldest change first.
func (r *TaskRepository) Search(ctx context.Context, f SearchFilter) ([]model.Task, error) {
	where, args := searchPredicate(f)

	query := `
        SELECT t.id, t.number, t.type, t.priority, t.status, t.title, t.description,
               t.created_at, t.last_updated_at, t.creator_id, t.assignee_id, t.parent_id
        FROM tasks t
        JOIN users c ON c.id = t.creator_id
        LEFT JOIN users a ON a.id = t.assignee_id`
	if where != "" {
		query += "\n        " + where
	}
	query += "\n        ORDER BY t.last_updated_at"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to search tasks", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	return collectTasks(rows)
}

func (r *TaskRepository) childrenOf(ctx context.Context, parentID int) ([]model.Task, error) {
	query := fmt.Sprintf(`SELECT %s FROM tasks WHERE parent_id = $1 ORDER BY id`, taskColumns)
	rows, err := r.db.Query(ctx, query, parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTasks(rows)
}

func scanTask(row rowScanner) (*model.Task, error) {
	var t model.Task
	if err := row.Scan(
		&t.ID,
		&t.Number,
		&t.Type,
		&t.Priority,
		&t.Status,
		&t.Title,
		&t.Description,
		&t.CreatedAt,
		&t.LastUpdatedAt,
		&t.CreatorID,
		&t.AssigneeID,
		&t.ParentID,
	); err != nil {
		return nil, err
	}
	return &t, nil
}

func collectTasks(rows pgx.Rows) ([]model.Task, error) {
	tasks := []model.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// attachChildren populates Children from the flat listing itself, so
// listing all tasks costs a single query.
func attachChildren(tasks []model.Task) {
	byID := make(map[int]int, len(tasks))
	for i := range tasks {
		byID[tasks[i].ID] = i
	}
	for i := range tasks {
		if tasks[i].ParentID == nil {
			continue
		}
		if pi, ok := byID[*tasks[i].ParentID]; ok {
			child := tasks[i]
			child.Children = nil
			tasks[pi].Children = append(tasks[pi].Children, child)
		}
	}
}
