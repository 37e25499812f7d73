package testutil

import (
	"database/sql"
	"testing"

	"todo-tasks/app/database"
	"todo-tasks/app/store"
)

// NewTestDB creates an in-memory SQLite database with all migrations applied.
// The database is closed when the test completes.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.OpenDB(database.MemoryPath)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	return db
}

// NewTestStore returns a SQLite task store over a fresh in-memory database.
func NewTestStore(t *testing.T, opts ...store.SQLiteOption) (*store.SQLiteTaskStore, *sql.DB) {
	t.Helper()
	db := NewTestDB(t)
	return store.NewSQLiteTaskStore(db, opts...), db
}
