package store

import (
	"context"
	"fmt"
	"time"

	"todo-tasks/app/models"
)

// CompareOp is a comparison applied to a task's due date.
type CompareOp string

const (
	OpEq  CompareOp = "="
	OpLt  CompareOp = "<"
	OpLte CompareOp = "<="
	OpGte CompareOp = ">="
)

// operator returns the comparison as a query operator. Both SQL and Cypher
// spell these the same way.
func (op CompareOp) operator() (string, error) {
	switch op {
	case OpEq, OpLt, OpLte, OpGte:
		return string(op), nil
	}
	return "", fmt.Errorf("unsupported due date comparison %q", op)
}

// DueBound restricts due_date relative to a calendar date.
type DueBound struct {
	Op   CompareOp
	Date time.Time
}

// Filter is the backend-neutral form of a TaskQuery. Zero values mean the
// predicate is not applied; all applied predicates are ANDed.
type Filter struct {
	Status         *models.TaskStatus
	ParentOnly     bool
	TitleContains  []string
	Due            []DueBound
	OrderByDueDate bool
	WithSubTasks   bool
}

// QueryRunner executes a Filter against a backend.
type QueryRunner interface {
	RunQuery(ctx context.Context, f Filter) ([]*models.Task, error)
}

// TaskQuery is a lazily evaluated query over active tasks. Builder methods
// return a new query and never modify the receiver.
type TaskQuery struct {
	runner QueryRunner
	filter Filter
}

// NewTaskQuery starts a query over all active tasks.
func NewTaskQuery(runner QueryRunner) *TaskQuery {
	return &TaskQuery{runner: runner}
}

func (q *TaskQuery) clone() *TaskQuery {
	c := &TaskQuery{runner: q.runner, filter: q.filter}
	c.filter.TitleContains = append([]string(nil), q.filter.TitleContains...)
	c.filter.Due = append([]DueBound(nil), q.filter.Due...)
	return c
}

// Filter returns a copy of the predicates collected so far.
func (q *TaskQuery) Filter() Filter {
	return q.clone().filter
}

func (q *TaskQuery) WithStatus(s models.TaskStatus) *TaskQuery {
	c := q.clone()
	c.filter.Status = &s
	return c
}

// ParentOnly keeps top-level tasks.
func (q *TaskQuery) ParentOnly() *TaskQuery {
	c := q.clone()
	c.filter.ParentOnly = true
	return c
}

// TitleContains matches a case-insensitive substring of the title.
func (q *TaskQuery) TitleContains(s string) *TaskQuery {
	c := q.clone()
	c.filter.TitleContains = append(c.filter.TitleContains, s)
	return c
}

// DueOn matches an exact calendar date.
func (q *TaskQuery) DueOn(d time.Time) *TaskQuery {
	c := q.clone()
	c.filter.Due = append(c.filter.Due, DueBound{Op: OpEq, Date: models.DateOf(d)})
	return c
}

// DueIn restricts the due date to a category evaluated against now.
func (q *TaskQuery) DueIn(cat DueDateCategory, now time.Time) *TaskQuery {
	c := q.clone()
	c.filter.Due = append(c.filter.Due, cat.Bounds(now)...)
	return c
}

func (q *TaskQuery) OrderByDueDate() *TaskQuery {
	c := q.clone()
	c.filter.OrderByDueDate = true
	return c
}

// WithSubTasks eager-loads the active subtasks of every result.
func (q *TaskQuery) WithSubTasks() *TaskQuery {
	c := q.clone()
	c.filter.WithSubTasks = true
	return c
}

// Execute runs the query.
func (q *TaskQuery) Execute(ctx context.Context) ([]*models.Task, error) {
	return q.runner.RunQuery(ctx, q.Filter())
}

// DueDateCategory is a named due-date bucket relative to today.
type DueDateCategory string

const (
	DueToday    DueDateCategory = "today"
	DueThisWeek DueDateCategory = "this_week"
	DueNextWeek DueDateCategory = "next_week"
	DueOverdue  DueDateCategory = "overdue"
)

// ParseDueDateCategory reports whether s names a known category.
func ParseDueDateCategory(s string) (DueDateCategory, bool) {
	switch c := DueDateCategory(s); c {
	case DueToday, DueThisWeek, DueNextWeek, DueOverdue:
		return c, true
	}
	return "", false
}

// Bounds returns the due-date predicates of the category.
// next_week is accepted as input but deliberately restricts nothing.
func (c DueDateCategory) Bounds(now time.Time) []DueBound {
	today := models.DateOf(now)
	switch c {
	case DueToday:
		return []DueBound{{Op: OpEq, Date: today}}
	case DueThisWeek:
		start, end := WeekBounds(now)
		return []DueBound{{Op: OpGte, Date: start}, {Op: OpLte, Date: end}}
	case DueOverdue:
		return []DueBound{{Op: OpLt, Date: today}}
	}
	return nil
}

// WeekBounds returns Monday and Sunday of the week containing now.
func WeekBounds(now time.Time) (start, end time.Time) {
	today := models.DateOf(now)
	offset := (int(today.Weekday()) + 6) % 7
	start = today.AddDate(0, 0, -offset)
	return start, start.AddDate(0, 0, 6)
}
