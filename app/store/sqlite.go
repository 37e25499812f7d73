package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"todo-tasks/app/database"
	"todo-tasks/app/models"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// taskColumns is the canonical SELECT column list for tasks.
const taskColumns = `id, parent_id, title, status, due_date, created_at, updated_at, deleted_at`

// SQLiteTaskStore implements TaskStore on a SQLite database.
type SQLiteTaskStore struct {
	db *sql.DB
	tx database.TxRunner
}

// SQLiteOption configures a SQLiteTaskStore.
type SQLiteOption func(*SQLiteTaskStore)

// WithTxRunner replaces the transaction runner used for cascading deletes.
func WithTxRunner(tx database.TxRunner) SQLiteOption {
	return func(s *SQLiteTaskStore) {
		s.tx = tx
	}
}

// NewSQLiteTaskStore creates a new SQLiteTaskStore.
func NewSQLiteTaskStore(db *sql.DB, opts ...SQLiteOption) *SQLiteTaskStore {
	s := &SQLiteTaskStore{db: db, tx: database.NewTxRunner(db)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ TaskStore = (*SQLiteTaskStore)(nil)

func (s *SQLiteTaskStore) Create(ctx context.Context, t *models.Task) error {
	prepareNew(t, time.Now().UTC())

	query := `INSERT INTO tasks (id, parent_id, title, status, due_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		t.ID,
		t.ParentID, // *string: nil becomes SQL NULL
		t.Title,
		string(t.Status),
		t.DueDate.Format(models.DateLayout),
		formatTime(t.CreatedAt),
		formatTime(t.UpdatedAt),
	)
	if err != nil {
		if isConstraintErr(err) {
			return fmt.Errorf("inserting task %q: %w", t.Title, ErrConstraintViolation)
		}
		return fmt.Errorf("inserting task: %w", err)
	}
	return nil
}

func (s *SQLiteTaskStore) FindByID(ctx context.Context, id string) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = ? AND deleted_at IS NULL`
	return scanTask(s.db.QueryRowContext(ctx, query, id))
}

func (s *SQLiteTaskStore) FindByIDWithTrashed(ctx context.Context, id string) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = ?`
	return scanTask(s.db.QueryRowContext(ctx, query, id))
}

func (s *SQLiteTaskStore) FindChildren(ctx context.Context, parentID string) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks
		WHERE parent_id = ? AND deleted_at IS NULL
		ORDER BY due_date ASC, rowid ASC`
	rows, err := s.db.QueryContext(ctx, query, parentID)
	if err != nil {
		return nil, fmt.Errorf("listing subtasks: %w", err)
	}
	defer rows.Close()
	return scanTasks(rows)
}

func (s *SQLiteTaskStore) FindParent(ctx context.Context, childID string) (*models.Task, error) {
	child, err := s.FindByID(ctx, childID)
	if err != nil {
		return nil, err
	}
	if !child.IsSubTask() {
		return nil, fmt.Errorf("task %s has no parent: %w", childID, ErrNotFound)
	}
	return s.FindByID(ctx, *child.ParentID)
}

func (s *SQLiteTaskStore) TitleExists(ctx context.Context, title string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM tasks WHERE title = ? AND deleted_at IS NULL)`
	if err := s.db.QueryRowContext(ctx, query, title).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking title: %w", err)
	}
	return exists, nil
}

func (s *SQLiteTaskStore) Query() *TaskQuery {
	return NewTaskQuery(s)
}

func (s *SQLiteTaskStore) Save(ctx context.Context, t *models.Task) error {
	now := time.Now().UTC()
	query := `UPDATE tasks SET parent_id = ?, title = ?, status = ?, due_date = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL`
	res, err := s.db.ExecContext(ctx, query,
		t.ParentID,
		t.Title,
		string(t.Status),
		t.DueDate.Format(models.DateLayout),
		formatTime(now),
		t.ID,
	)
	if err != nil {
		if isConstraintErr(err) {
			return fmt.Errorf("updating task %s: %w", t.ID, ErrConstraintViolation)
		}
		return fmt.Errorf("updating task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating task: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("updating task %s: %w", t.ID, ErrNotFound)
	}
	t.UpdatedAt = now
	return nil
}

// SoftDelete stamps deleted_at on t and every active descendant inside one
// transaction: either the whole tree goes or nothing does.
func (s *SQLiteTaskStore) SoftDelete(ctx context.Context, t *models.Task) error {
	now := time.Now().UTC()
	err := s.tx.InTx(ctx, func(ctx context.Context, ex database.Executor) error {
		return softDeleteTree(ctx, ex, t.ID, now, map[string]bool{})
	})
	if err != nil {
		return fmt.Errorf("soft-deleting task %s: %w", t.ID, err)
	}
	t.DeletedAt = &now
	t.UpdatedAt = now
	return nil
}

func softDeleteTree(ctx context.Context, ex database.Executor, id string, now time.Time, seen map[string]bool) error {
	if seen[id] {
		return nil
	}
	seen[id] = true

	children, err := activeChildIDs(ctx, ex, id)
	if err != nil {
		return err
	}
	for _, childID := range children {
		if err := softDeleteTree(ctx, ex, childID, now, seen); err != nil {
			return err
		}
	}

	res, err := ex.ExecContext(ctx,
		`UPDATE tasks SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`,
		formatTime(now), formatTime(now), id)
	if err != nil {
		return fmt.Errorf("marking task %s deleted: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("marking task %s deleted: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	return nil
}

func activeChildIDs(ctx context.Context, ex database.Executor, parentID string) ([]string, error) {
	rows, err := ex.QueryContext(ctx,
		`SELECT id FROM tasks WHERE parent_id = ? AND deleted_at IS NULL`, parentID)
	if err != nil {
		return nil, fmt.Errorf("listing subtasks of %s: %w", parentID, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning subtask id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// RunQuery implements QueryRunner.
func (s *SQLiteTaskStore) RunQuery(ctx context.Context, f Filter) ([]*models.Task, error) {
	where := []string{"deleted_at IS NULL"}
	var args []any

	if f.Status != nil {
		where = append(where, "status = ?")
		args = append(args, string(*f.Status))
	}
	if f.ParentOnly {
		where = append(where, "parent_id IS NULL")
	}
	for _, title := range f.TitleContains {
		where = append(where, "instr("+database.UnicodeLowerFunc+"(title), "+database.UnicodeLowerFunc+"(?)) > 0")
		args = append(args, title)
	}
	for _, b := range f.Due {
		op, err := b.Op.operator()
		if err != nil {
			return nil, err
		}
		where = append(where, "due_date "+op+" ?")
		args = append(args, b.Date.Format(models.DateLayout))
	}

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE ` + strings.Join(where, " AND ")
	if f.OrderByDueDate {
		query += ` ORDER BY due_date ASC, rowid ASC`
	} else {
		query += ` ORDER BY rowid ASC`
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}
	tasks, err := scanTasks(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}

	if f.WithSubTasks && len(tasks) > 0 {
		if err := s.loadSubTasks(ctx, tasks); err != nil {
			return nil, err
		}
	}
	return tasks, nil
}

// loadSubTasks fetches the active children of all parents in one query.
func (s *SQLiteTaskStore) loadSubTasks(ctx context.Context, parents []*models.Task) error {
	ids := taskIDs(parents)
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	query := `SELECT ` + taskColumns + ` FROM tasks
		WHERE deleted_at IS NULL AND parent_id IN (` + placeholders + `)
		ORDER BY due_date ASC, rowid ASC`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("loading subtasks: %w", err)
	}
	defer rows.Close()

	children, err := scanTasks(rows)
	if err != nil {
		return err
	}
	groupByParent(parents, children)
	return nil
}

func (s *SQLiteTaskStore) Close(context.Context) error {
	return s.db.Close()
}

func isConstraintErr(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
	}
	return false
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row *sql.Row) (*models.Task, error) {
	t, err := scanInto(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning task: %w", err)
	}
	return t, nil
}

func scanTasks(rows *sql.Rows) ([]*models.Task, error) {
	tasks := []*models.Task{}
	for rows.Next() {
		t, err := scanInto(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning task row: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating task rows: %w", err)
	}
	return tasks, nil
}

func scanInto(row rowScanner) (*models.Task, error) {
	var t models.Task
	var parentID, deletedAt sql.NullString
	var status, dueDate, createdAt, updatedAt string

	if err := row.Scan(&t.ID, &parentID, &t.Title, &status, &dueDate, &createdAt, &updatedAt, &deletedAt); err != nil {
		return nil, err
	}

	t.Status = models.TaskStatus(status)
	if parentID.Valid {
		p := parentID.String
		t.ParentID = &p
	}

	var err error
	if t.DueDate, err = time.Parse(models.DateLayout, dueDate); err != nil {
		return nil, fmt.Errorf("parsing due_date %q: %w", dueDate, err)
	}
	if t.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at %q: %w", createdAt, err)
	}
	if t.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at %q: %w", updatedAt, err)
	}
	if deletedAt.Valid {
		d, err := time.Parse(timeLayout, deletedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parsing deleted_at %q: %w", deletedAt.String, err)
		}
		t.DeletedAt = &d
	}
	return &t, nil
}
