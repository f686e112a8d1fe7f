package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"tasktracker/internal/model"
)

type HistoryRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewHistoryRepository(db *pgxpool.Pool, logger *zap.Logger) *HistoryRepository {
	return &HistoryRepository{db: db, logger: logger}
}

// Insert appends a history entry for a task.
func (r *HistoryRepository) Insert(ctx context.Context, e *model.HistoryEntry) error {
	query := `
        INSERT INTO task_history (task_id, change_type, change_data, user_id)
        VALUES ($1, $2, $3, $4)
        RETURNING id, timestamp
    `
	err := r.db.QueryRow(ctx, query,
		e.TaskID, e.ChangeType, e.ChangeData, e.UserID,
	).Scan(&e.ID, &e.Timestamp)
	if err != nil {
		r.logger.Error("Failed to insert history entry",
			zap.Error(err),
			zap.Int("task_id", e.TaskID),
		)
	}
	return err
}

// ListByTask returns the change history of a task, oldest first.
func (r *HistoryRepository) ListByTask(ctx context.Context, taskID int) ([]model.HistoryEntry, error) {
	query := `
        SELECT id, task_id, change_type, change_data, timestamp, user_id
        FROM task_history
        WHERE task_id = $1
        ORDER BY timestamp
    `
	rows, err := r.db.Query(ctx, query, taskID)
	if err != nil {
		r.logger.Error("Failed to query task history", zap.Error(err), zap.Int("task_id", taskID))
		return nil, err
	}
	defer rows.Close()

	entries := []model.HistoryEntry{}
	for rows.Next() {
		var e model.HistoryEntry
		if err := rows.Scan(&e.ID, &e.TaskID, &e.ChangeType, &e.ChangeData, &e.Timestamp, &e.UserID); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
