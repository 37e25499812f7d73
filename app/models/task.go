package models

import (
	"time"
)

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	StatusPending   TaskStatus = "Pending"
	StatusCompleted TaskStatus = "Completed"
)

// DateLayout is the storage and wire format of a task's due date.
const DateLayout = "2006-01-02"

// Task represents a task with optional parent ID.
type Task struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	DueDate   time.Time  `json:"due_date"`
	Status    TaskStatus `json:"status"`
	ParentID  *string    `json:"parent_id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`

	// SubTasks is only populated by queries that eager-load children.
	SubTasks []*Task `json:"sub_tasks,omitempty"`
}

// IsSubTask reports whether the task belongs to a parent.
func (t *Task) IsSubTask() bool {
	return t.ParentID != nil && *t.ParentID != ""
}

// IsDeleted reports whether the task has been soft-deleted.
func (t *Task) IsDeleted() bool {
	return t.DeletedAt != nil
}

// ParseStatus converts a raw value into a TaskStatus.
func ParseStatus(s string) (TaskStatus, bool) {
	switch TaskStatus(s) {
	case StatusPending, StatusCompleted:
		return TaskStatus(s), true
	}
	return "", false
}

// ParseDate parses a calendar date. Full RFC3339 timestamps are accepted
// and truncated to their date part.
func ParseDate(s string) (time.Time, error) {
	if d, err := time.Parse(DateLayout, s); err == nil {
		return d, nil
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return DateOf(ts), nil
}

// DateOf strips the clock from t, keeping the calendar date in t's location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
