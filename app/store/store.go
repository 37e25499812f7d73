// Package store persists tasks. Every read goes through the active-record
// view: soft-deleted tasks are invisible unless a method says otherwise.
package store

import (
	"context"
	"errors"
	"time"

	"todo-tasks/app/models"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when no active task matches.
	ErrNotFound = errors.New("task not found")

	// ErrConstraintViolation is returned when a write would break a store
	// constraint: a duplicate active title or a dangling parent reference.
	ErrConstraintViolation = errors.New("constraint violation")
)

// TaskStore is the persistence contract for tasks.
type TaskStore interface {
	Create(ctx context.Context, t *models.Task) error
	FindByID(ctx context.Context, id string) (*models.Task, error)
	FindByIDWithTrashed(ctx context.Context, id string) (*models.Task, error)
	FindChildren(ctx context.Context, parentID string) ([]*models.Task, error)
	FindParent(ctx context.Context, childID string) (*models.Task, error)
	TitleExists(ctx context.Context, title string) (bool, error)
	Query() *TaskQuery
	// Save writes the mutable fields of an active task, parent_id included.
	Save(ctx context.Context, t *models.Task) error
	// SoftDelete marks t deleted after recursively soft-deleting its subtasks.
	SoftDelete(ctx context.Context, t *models.Task) error
	Close(ctx context.Context) error
}

// prepareNew fills the store-owned fields of a task about to be inserted.
func prepareNew(t *models.Task, now time.Time) {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.Status == "" {
		t.Status = models.StatusPending
	}
	if t.ParentID != nil && *t.ParentID == "" {
		t.ParentID = nil
	}
	t.DueDate = models.DateOf(t.DueDate)
	t.CreatedAt = now
	t.UpdatedAt = now
	t.DeletedAt = nil
}

const timeLayout = time.RFC3339Nano

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// groupByParent attaches children to their parents, keeping children order.
func groupByParent(parents, children []*models.Task) {
	byID := make(map[string]*models.Task, len(parents))
	for _, p := range parents {
		p.SubTasks = []*models.Task{}
		byID[p.ID] = p
	}
	for _, c := range children {
		if c.ParentID == nil {
			continue
		}
		if p, ok := byID[*c.ParentID]; ok {
			p.SubTasks = append(p.SubTasks, c)
		}
	}
}

func taskIDs(tasks []*models.Task) []string {
	ids := make([]string, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	return ids
}
