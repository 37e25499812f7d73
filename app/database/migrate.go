package database

import (
	"database/sql"
	"fmt"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS tasks (
		id         TEXT PRIMARY KEY,
		parent_id  TEXT REFERENCES tasks(id),
		title      TEXT NOT NULL CHECK(length(title) <= 100),
		status     TEXT NOT NULL DEFAULT 'Pending'
		           CHECK(status IN ('Pending','Completed')),
		due_date   TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		deleted_at TEXT
	)`,
	// Titles only need to be unique among tasks that are still active.
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_tasks_title_active ON tasks(title) WHERE deleted_at IS NULL`,
	`CREATE INDEX IF NOT EXISTS ix_tasks_parent_id ON tasks(parent_id)`,
	`CREATE INDEX IF NOT EXISTS ix_tasks_due_date ON tasks(due_date)`,
	`CREATE INDEX IF NOT EXISTS ix_tasks_deleted_at ON tasks(deleted_at)`,
}

// Migrate runs all schema migrations. Every statement is idempotent, so it
// is safe to run on each start.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
