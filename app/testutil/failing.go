package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"

	"todo-tasks/app/database"
	"todo-tasks/app/models"
	"todo-tasks/app/store"
)

// FailingTxRunner wraps a TxRunner and makes the first write that touches
// task FailOnID fail with Err. Writes issued earlier in the same
// transaction have already run, so a cascade can be cut off half way.
type FailingTxRunner struct {
	Inner    database.TxRunner
	FailOnID string
	Err      error

	fired atomic.Bool
}

// Fired reports whether the injected error was returned.
func (f *FailingTxRunner) Fired() bool {
	return f.fired.Load()
}

func (f *FailingTxRunner) InTx(ctx context.Context, fn func(ctx context.Context, ex database.Executor) error) error {
	return f.Inner.InTx(ctx, func(ctx context.Context, ex database.Executor) error {
		return fn(ctx, &failingExecutor{Executor: ex, runner: f})
	})
}

type failingExecutor struct {
	database.Executor
	runner *FailingTxRunner
}

func (e *failingExecutor) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	for _, arg := range args {
		if id, ok := arg.(string); ok && id == e.runner.FailOnID {
			e.runner.fired.Store(true)
			return nil, e.runner.Err
		}
	}
	return e.Executor.ExecContext(ctx, query, args...)
}

// FailingStore wraps a TaskStore and fails selected operations. A nil error
// field lets the call through to the wrapped store.
type FailingStore struct {
	store.TaskStore
	CreateErr     error
	FindErr       error
	SaveErr       error
	SoftDeleteErr error
	QueryErr      error
	Panic         bool
}

func (f *FailingStore) Create(ctx context.Context, t *models.Task) error {
	if f.CreateErr != nil {
		return f.CreateErr
	}
	return f.TaskStore.Create(ctx, t)
}

func (f *FailingStore) FindByID(ctx context.Context, id string) (*models.Task, error) {
	if f.Panic {
		panic("store exploded")
	}
	if f.FindErr != nil {
		return nil, f.FindErr
	}
	return f.TaskStore.FindByID(ctx, id)
}

func (f *FailingStore) Save(ctx context.Context, t *models.Task) error {
	if f.SaveErr != nil {
		return f.SaveErr
	}
	return f.TaskStore.Save(ctx, t)
}

func (f *FailingStore) SoftDelete(ctx context.Context, t *models.Task) error {
	if f.SoftDeleteErr != nil {
		return f.SoftDeleteErr
	}
	return f.TaskStore.SoftDelete(ctx, t)
}

func (f *FailingStore) Query() *store.TaskQuery {
	return store.NewTaskQuery(f)
}

// RunQuery implements store.QueryRunner.
func (f *FailingStore) RunQuery(ctx context.Context, filter store.Filter) ([]*models.Task, error) {
	if f.QueryErr != nil {
		return nil, f.QueryErr
	}
	runner, ok := f.TaskStore.(store.QueryRunner)
	if !ok {
		return nil, fmt.Errorf("%T cannot run queries", f.TaskStore)
	}
	return runner.RunQuery(ctx, filter)
}
