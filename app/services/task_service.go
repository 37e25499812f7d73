package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"todo-tasks/app/models"
	"todo-tasks/app/store"

	"github.com/sirupsen/logrus"
)

// User-facing messages of non-validation outcomes.
const (
	MsgTaskCreated   = "Task has been created successfully."
	MsgTasksFound    = "All tasks found."
	MsgTaskFound     = "Task found."
	MsgTaskUpdated   = "Task Updated."
	MsgTaskNotFound  = "Task not found."
	MsgTaskDeleted   = "Task has been deleted successfully."
	MsgDeleteFailure = "There is some issue in deleting this task."
)

// TaskService handles task-related operations.
type TaskService struct {
	store store.TaskStore
	log   logrus.FieldLogger
	now   func() time.Time
}

// Option configures a TaskService.
type Option func(*TaskService)

// WithClock sets the clock used to resolve relative due-date filters.
func WithClock(now func() time.Time) Option {
	return func(s *TaskService) {
		s.now = now
	}
}

// NewTaskService creates a new instance of TaskService.
func NewTaskService(st store.TaskStore, log logrus.FieldLogger, opts ...Option) *TaskService {
	s := &TaskService{store: st, log: log, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateTaskInput carries the raw fields of a create request.
type CreateTaskInput struct {
	Title    string
	DueDate  string
	Status   string
	ParentID string
}

// CreateTask validates the input and persists a new task. Validation stops
// at the first failing rule.
func (s *TaskService) CreateTask(ctx context.Context, in CreateTaskInput) (Result, error) {
	title := strings.TrimSpace(in.Title)
	if reason, bad := firstViolation(
		fieldRule{title, "required", ReasonTitleRequired},
		fieldRule{title, fmt.Sprintf("max=%d", maxTitleLength), ReasonTitleTooLong},
	); bad {
		return invalid(reason), nil
	}

	exists, err := s.store.TitleExists(ctx, title)
	if err != nil {
		return Result{}, fmt.Errorf("creating task: %w", err)
	}
	if exists {
		return invalid(ReasonTitleExists), nil
	}

	dueDate := strings.TrimSpace(in.DueDate)
	if reason, bad := firstViolation(fieldRule{dueDate, "required", ReasonDueDateRequired}); bad {
		return invalid(reason), nil
	}
	due, err := models.ParseDate(dueDate)
	if err != nil {
		return invalid(ReasonDueDateInvalid), nil
	}

	status := models.StatusPending
	if raw := strings.TrimSpace(in.Status); raw != "" {
		if reason, bad := firstViolation(fieldRule{raw, "oneof=Pending Completed", ReasonStatusInvalid}); bad {
			return invalid(reason), nil
		}
		status = models.TaskStatus(raw)
	}

	task := &models.Task{Title: title, DueDate: due, Status: status}
	if parentID := strings.TrimSpace(in.ParentID); parentID != "" {
		if _, err := s.store.FindByID(ctx, parentID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return invalid(ReasonParentInvalid), nil
			}
			return Result{}, fmt.Errorf("creating task: %w", err)
		}
		task.ParentID = &parentID
	}

	if err := s.store.Create(ctx, task); err != nil {
		// A concurrent create can win the title between the check and the insert.
		if errors.Is(err, store.ErrConstraintViolation) {
			return invalid(ReasonTitleExists), nil
		}
		return Result{}, fmt.Errorf("creating task: %w", err)
	}

	s.log.WithFields(logrus.Fields{"task_id": task.ID, "parent_id": in.ParentID}).Info("task created")
	return success(MsgTaskCreated, task), nil
}

// ListTasksInput carries the optional list filters. Empty or
// whitespace-only fields are not applied.
type ListTasksInput struct {
	Title       string
	DueDate     string
	DueDateType string
}

// ListTasks returns pending top-level tasks with their subtasks, earliest
// due date first.
func (s *TaskService) ListTasks(ctx context.Context, in ListTasksInput) (Result, error) {
	q := s.store.Query().WithStatus(models.StatusPending).ParentOnly()

	if title := strings.TrimSpace(in.Title); title != "" {
		q = q.TitleContains(title)
	}
	if dueDate := strings.TrimSpace(in.DueDate); dueDate != "" {
		due, err := models.ParseDate(dueDate)
		if err != nil {
			// No stored date equals an unparseable one.
			return success(MsgTasksFound, []*models.Task{}), nil
		}
		q = q.DueOn(due)
	}
	if cat, ok := store.ParseDueDateCategory(strings.TrimSpace(in.DueDateType)); ok {
		q = q.DueIn(cat, s.now())
	}

	tasks, err := q.OrderByDueDate().WithSubTasks().Execute(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("listing tasks: %w", err)
	}
	return success(MsgTasksFound, tasks), nil
}

// CompleteTask marks a task Completed. Completing a completed task succeeds.
func (s *TaskService) CompleteTask(ctx context.Context, taskID string) (Result, error) {
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return invalid(ReasonTaskIDRequired), nil
	}

	task, err := s.store.FindByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return notFound(), nil
		}
		return Result{}, fmt.Errorf("completing task: %w", err)
	}

	task.Status = models.StatusCompleted
	if err := s.store.Save(ctx, task); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return notFound(), nil
		}
		return Result{}, fmt.Errorf("completing task: %w", err)
	}
	return success(MsgTaskUpdated, task), nil
}

// RemoveTask soft-deletes a task together with all of its subtasks.
func (s *TaskService) RemoveTask(ctx context.Context, taskID string) (Result, error) {
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return invalid(ReasonTaskIDRequired), nil
	}

	task, err := s.store.FindByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return notFound(), nil
		}
		return Result{}, fmt.Errorf("removing task: %w", err)
	}

	if err := s.store.SoftDelete(ctx, task); err != nil {
		s.log.WithError(err).WithField("task_id", taskID).Error("soft delete failed")
		return failed(ReasonDeleteFailed, MsgDeleteFailure), nil
	}
	s.log.WithField("task_id", taskID).Info("task deleted")
	return success(MsgTaskDeleted, nil), nil
}

// GetTask returns one active task with its active subtasks.
func (s *TaskService) GetTask(ctx context.Context, taskID string) (Result, error) {
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return invalid(ReasonTaskIDRequired), nil
	}

	task, err := s.store.FindByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return notFound(), nil
		}
		return Result{}, fmt.Errorf("getting task: %w", err)
	}

	children, err := s.store.FindChildren(ctx, task.ID)
	if err != nil {
		return Result{}, fmt.Errorf("getting subtasks: %w", err)
	}
	task.SubTasks = children
	return success(MsgTaskFound, task), nil
}
