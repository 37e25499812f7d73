package testutil

import (
	"time"

	"todo-tasks/app/models"
)

// TaskOption customises a fixture task.
type TaskOption func(*models.Task)

func WithParent(id string) TaskOption {
	return func(t *models.Task) {
		t.ParentID = &id
	}
}

func WithStatus(s models.TaskStatus) TaskOption {
	return func(t *models.Task) {
		t.Status = s
	}
}

func WithDueDate(d time.Time) TaskOption {
	return func(t *models.Task) {
		t.DueDate = d
	}
}

// NewTestTask returns an unsaved pending task due on 2024-01-10.
func NewTestTask(title string, opts ...TaskOption) *models.Task {
	t := &models.Task{
		Title:   title,
		DueDate: Date(2024, time.January, 10),
		Status:  models.StatusPending,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Date builds a UTC calendar date.
func Date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FixedClock returns a clock frozen at t.
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
