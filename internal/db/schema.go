package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema statements, applied in order on startup. Enum creation is
// wrapped so a rerun against an initialized database is a no-op.
var schemaStatements = []string{
	`DO $$ BEGIN
		CREATE TYPE user_role AS ENUM ('manager', 'team_lead', 'developer', 'test_engineer');
	EXCEPTION WHEN duplicate_object THEN NULL; END $$`,
	`DO $$ BEGIN
		CREATE TYPE task_type AS ENUM ('task', 'bug');
	EXCEPTION WHEN duplicate_object THEN NULL; END $$`,
	`DO $$ BEGIN
		CREATE TYPE task_priority AS ENUM ('critical', 'high', 'medium', 'low');
	EXCEPTION WHEN duplicate_object THEN NULL; END $$`,
	`DO $$ BEGIN
		CREATE TYPE task_status AS ENUM ('to_do', 'in_progress', 'code_review', 'dev_test', 'testing', 'done', 'wontfix');
	EXCEPTION WHEN duplicate_object THEN NULL; END $$`,
	`DO $$ BEGIN
		CREATE TYPE task_change_type AS ENUM ('create', 'update');
	EXCEPTION WHEN duplicate_object THEN NULL; END $$`,
	`CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		role user_role
	)`,
	`CREATE TABLE IF NOT EXISTS tasks (
		id SERIAL PRIMARY KEY,
		number INTEGER UNIQUE,
		type task_type NOT NULL DEFAULT 'task',
		priority task_priority NOT NULL DEFAULT 'low',
		status task_status NOT NULL DEFAULT 'to_do',
		title TEXT,
		description TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		last_updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		creator_id INTEGER NOT NULL REFERENCES users(id),
		assignee_id INTEGER REFERENCES users(id),
		parent_id INTEGER REFERENCES tasks(id) ON DELETE SET NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_title ON tasks (title)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_parent ON tasks (parent_id)`,
	`CREATE TABLE IF NOT EXISTS task_history (
		id SERIAL PRIMARY KEY,
		task_id INTEGER REFERENCES tasks(id) ON DELETE CASCADE,
		change_type task_change_type NOT NULL,
		change_data JSONB,
		timestamp TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		user_id INTEGER REFERENCES users(id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_task_history_task ON task_history (task_id)`,
}

// EnsureSchema creates the enum types and tables if they do not exist,
// so the service works against a fresh database.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema bootstrap failed: %w", err)
		}
	}
	return nil
}
