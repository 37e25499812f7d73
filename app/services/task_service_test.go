package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"todo-tasks/app/models"
	"todo-tasks/app/services"
	"todo-tasks/app/store"
	"todo-tasks/app/testutil"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wednesday falls in the week of Monday 2024-01-08 to Sunday 2024-01-14.
var wednesday = time.Date(2024, time.January, 10, 15, 30, 0, 0, time.UTC)

func newService(t *testing.T, st store.TaskStore) (*services.TaskService, *test.Hook) {
	t.Helper()
	log, hook := test.NewNullLogger()
	return services.NewTaskService(st, log, services.WithClock(testutil.FixedClock(wednesday))), hook
}

func newSQLiteService(t *testing.T) (*services.TaskService, *store.SQLiteTaskStore) {
	t.Helper()
	st, _ := testutil.NewTestStore(t)
	svc, _ := newService(t, st)
	return svc, st
}

func mustCreate(t *testing.T, svc *services.TaskService, in services.CreateTaskInput) *models.Task {
	t.Helper()
	res, err := svc.CreateTask(context.Background(), in)
	require.NoError(t, err)
	require.True(t, res.OK(), "create %q: %s", in.Title, res.Reason)
	return res.Data.(*models.Task)
}

func listed(t *testing.T, svc *services.TaskService, in services.ListTasksInput) []*models.Task {
	t.Helper()
	res, err := svc.ListTasks(context.Background(), in)
	require.NoError(t, err)
	require.True(t, res.OK())
	assert.Equal(t, services.MsgTasksFound, res.Message)
	return res.Data.([]*models.Task)
}

func titles(tasks []*models.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Title
	}
	return out
}

func TestCreateTask_ThenListed(t *testing.T) {
	svc, _ := newSQLiteService(t)

	created := mustCreate(t, svc, services.CreateTaskInput{Title: "Buy milk", DueDate: "2024-01-10"})
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, models.StatusPending, created.Status)

	tasks := listed(t, svc, services.ListTasksInput{})
	require.Len(t, tasks, 1)
	assert.Equal(t, created.ID, tasks[0].ID)
	assert.Equal(t, "Buy milk", tasks[0].Title)
	assert.Equal(t, "2024-01-10", tasks[0].DueDate.Format(models.DateLayout))
	assert.Equal(t, models.StatusPending, tasks[0].Status)
}

func TestCreateTask_Validation(t *testing.T) {
	svc, _ := newSQLiteService(t)
	mustCreate(t, svc, services.CreateTaskInput{Title: "Existing", DueDate: "2024-01-10"})

	tests := []struct {
		name    string
		in      services.CreateTaskInput
		reason  string
		message string
	}{
		{
			name:    "missing title",
			in:      services.CreateTaskInput{DueDate: "2024-01-10"},
			reason:  services.ReasonTitleRequired,
			message: "Please provide task title.",
		},
		{
			name:    "blank title",
			in:      services.CreateTaskInput{Title: "   ", DueDate: "2024-01-10"},
			reason:  services.ReasonTitleRequired,
			message: "Please provide task title.",
		},
		{
			name:    "title too long",
			in:      services.CreateTaskInput{Title: strings.Repeat("a", 101), DueDate: "2024-01-10"},
			reason:  services.ReasonTitleTooLong,
			message: "Title should not be more than 100 characters",
		},
		{
			name:    "duplicate title",
			in:      services.CreateTaskInput{Title: "Existing", DueDate: "2024-02-01"},
			reason:  services.ReasonTitleExists,
			message: "Title already exists. Please send different title.",
		},
		{
			name:    "duplicate title wins over missing due date",
			in:      services.CreateTaskInput{Title: "Existing"},
			reason:  services.ReasonTitleExists,
			message: "Title already exists. Please send different title.",
		},
		{
			name:    "missing due date",
			in:      services.CreateTaskInput{Title: "New"},
			reason:  services.ReasonDueDateRequired,
			message: "Please provide task due date.",
		},
		{
			name:    "invalid due date",
			in:      services.CreateTaskInput{Title: "New", DueDate: "next tuesday"},
			reason:  services.ReasonDueDateInvalid,
			message: "Please send valid due date.",
		},
		{
			name:    "impossible due date",
			in:      services.CreateTaskInput{Title: "New", DueDate: "2024-02-30"},
			reason:  services.ReasonDueDateInvalid,
			message: "Please send valid due date.",
		},
		{
			name:    "invalid status",
			in:      services.CreateTaskInput{Title: "New", DueDate: "2024-01-10", Status: "Done"},
			reason:  services.ReasonStatusInvalid,
			message: "Please provide status either Pending or Completed.",
		},
		{
			name:   "unknown parent",
			in:     services.CreateTaskInput{Title: "New", DueDate: "2024-01-10", ParentID: "missing"},
			reason: services.ReasonParentInvalid,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, err := svc.CreateTask(context.Background(), tc.in)
			require.NoError(t, err)
			assert.Equal(t, services.OutcomeInvalid, res.Outcome)
			assert.Equal(t, tc.reason, res.Reason)
			assert.NotEmpty(t, res.Message)
			if tc.message != "" {
				assert.Equal(t, tc.message, res.Message)
			}
		})
	}
}

func TestCreateTask_Boundaries(t *testing.T) {
	svc, _ := newSQLiteService(t)

	res, err := svc.CreateTask(context.Background(), services.CreateTaskInput{
		Title:   strings.Repeat("é", 100),
		DueDate: "2024-01-10",
	})
	require.NoError(t, err)
	assert.True(t, res.OK(), "100 characters is within the limit")

	done := mustCreate(t, svc, services.CreateTaskInput{Title: "Done already", DueDate: "2024-01-10", Status: "Completed"})
	assert.Equal(t, models.StatusCompleted, done.Status)

	parent := mustCreate(t, svc, services.CreateTaskInput{Title: "Parent", DueDate: "2024-01-10"})
	child := mustCreate(t, svc, services.CreateTaskInput{Title: "Child", DueDate: "2024-01-11", ParentID: parent.ID})
	require.NotNil(t, child.ParentID)
	assert.Equal(t, parent.ID, *child.ParentID)
}

func TestCreateTask_TitleReusableAfterRemove(t *testing.T) {
	svc, _ := newSQLiteService(t)
	ctx := context.Background()

	first := mustCreate(t, svc, services.CreateTaskInput{Title: "Buy milk", DueDate: "2024-01-10"})
	res, err := svc.RemoveTask(ctx, first.ID)
	require.NoError(t, err)
	require.True(t, res.OK())

	mustCreate(t, svc, services.CreateTaskInput{Title: "Buy milk", DueDate: "2024-01-11"})
}

func TestCompleteTask(t *testing.T) {
	svc, st := newSQLiteService(t)
	ctx := context.Background()
	task := mustCreate(t, svc, services.CreateTaskInput{Title: "Buy milk", DueDate: "2024-01-10"})

	for i := 0; i < 2; i++ {
		res, err := svc.CompleteTask(ctx, task.ID)
		require.NoError(t, err)
		assert.True(t, res.OK(), "attempt %d", i+1)
		assert.Equal(t, services.MsgTaskUpdated, res.Message)

		stored, err := st.FindByID(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCompleted, stored.Status)
	}

	assert.Empty(t, listed(t, svc, services.ListTasksInput{}))
}

func TestCompleteTask_MissingOrUnknown(t *testing.T) {
	svc, _ := newSQLiteService(t)
	ctx := context.Background()

	res, err := svc.CompleteTask(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, services.OutcomeInvalid, res.Outcome)
	assert.Equal(t, "Please provide task id.", res.Message)

	res, err = svc.CompleteTask(ctx, "does-not-exist")
	require.NoError(t, err)
	assert.Equal(t, services.OutcomeNotFound, res.Outcome)
	assert.Equal(t, services.MsgTaskNotFound, res.Message)
}

func TestRemoveTask_CascadesToSubTasks(t *testing.T) {
	svc, st := newSQLiteService(t)
	ctx := context.Background()

	parent := mustCreate(t, svc, services.CreateTaskInput{Title: "Groceries", DueDate: "2024-01-10"})
	var children []*models.Task
	for _, title := range []string{"Milk", "Bread", "Eggs"} {
		children = append(children, mustCreate(t, svc, services.CreateTaskInput{
			Title: title, DueDate: "2024-01-10", ParentID: parent.ID,
		}))
	}
	other := mustCreate(t, svc, services.CreateTaskInput{Title: "Laundry", DueDate: "2024-01-12"})

	res, err := svc.RemoveTask(ctx, parent.ID)
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Equal(t, services.MsgTaskDeleted, res.Message)

	tasks := listed(t, svc, services.ListTasksInput{})
	require.Len(t, tasks, 1)
	assert.Equal(t, other.ID, tasks[0].ID)

	for _, task := range append(children, parent) {
		got, err := svc.GetTask(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, services.OutcomeNotFound, got.Outcome, task.Title)

		trashed, err := st.FindByIDWithTrashed(ctx, task.ID)
		require.NoError(t, err, "soft-deleted rows stay recoverable")
		assert.True(t, trashed.IsDeleted())
	}

	res, err = svc.RemoveTask(ctx, parent.ID)
	require.NoError(t, err)
	assert.Equal(t, services.OutcomeNotFound, res.Outcome)
}

func TestRemoveTask_PersistenceFailure(t *testing.T) {
	inner, _ := testutil.NewTestStore(t)
	st := &testutil.FailingStore{TaskStore: inner, SoftDeleteErr: errors.New("disk full")}
	svc, hook := newService(t, st)
	ctx := context.Background()

	task := mustCreate(t, svc, services.CreateTaskInput{Title: "Buy milk", DueDate: "2024-01-10"})

	res, err := svc.RemoveTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, services.OutcomeFailed, res.Outcome)
	assert.Equal(t, services.MsgDeleteFailure, res.Message)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, task.ID, entry.Data["task_id"])

	_, err = inner.FindByID(ctx, task.ID)
	assert.NoError(t, err, "failed delete leaves the task active")
}

func TestUnexpectedStoreErrors(t *testing.T) {
	boom := errors.New("connection reset")
	inner, _ := testutil.NewTestStore(t)
	svc, _ := newService(t, &testutil.FailingStore{TaskStore: inner, FindErr: boom, QueryErr: boom, CreateErr: boom})
	ctx := context.Background()

	_, err := svc.CompleteTask(ctx, "any")
	assert.ErrorIs(t, err, boom)

	_, err = svc.RemoveTask(ctx, "any")
	assert.ErrorIs(t, err, boom)

	_, err = svc.ListTasks(ctx, services.ListTasksInput{})
	assert.ErrorIs(t, err, boom)

	_, err = svc.CreateTask(ctx, services.CreateTaskInput{Title: "New", DueDate: "2024-01-10"})
	assert.ErrorIs(t, err, boom)
}

func TestListTasks_Filters(t *testing.T) {
	svc, _ := newSQLiteService(t)
	ctx := context.Background()

	seed := []services.CreateTaskInput{
		{Title: "Next week report", DueDate: "2024-01-16"},
		{Title: "Pay rent", DueDate: "2024-01-10"},
		{Title: "Old invoice", DueDate: "2024-01-05"},
		{Title: "Monday standup", DueDate: "2024-01-08"},
		{Title: "Sunday review", DueDate: "2024-01-14"},
		{Title: "Finished today", DueDate: "2024-01-10", Status: "Completed"},
	}
	byTitle := map[string]*models.Task{}
	for _, in := range seed {
		byTitle[in.Title] = mustCreate(t, svc, in)
	}
	mustCreate(t, svc, services.CreateTaskInput{
		Title: "Rent receipt", DueDate: "2024-01-10", ParentID: byTitle["Pay rent"].ID,
	})
	_, err := svc.CompleteTask(ctx, byTitle["Sunday review"].ID)
	require.NoError(t, err)
	mustCreate(t, svc, services.CreateTaskInput{Title: "Sunday planning", DueDate: "2024-01-14"})

	tests := []struct {
		name string
		in   services.ListTasksInput
		want []string
	}{
		{
			name: "no filters orders by due date",
			in:   services.ListTasksInput{},
			want: []string{"Old invoice", "Monday standup", "Pay rent", "Sunday planning", "Next week report"},
		},
		{
			name: "today",
			in:   services.ListTasksInput{DueDateType: "today"},
			want: []string{"Pay rent"},
		},
		{
			name: "overdue",
			in:   services.ListTasksInput{DueDateType: "overdue"},
			want: []string{"Old invoice", "Monday standup"},
		},
		{
			name: "this week is Monday through Sunday",
			in:   services.ListTasksInput{DueDateType: "this_week"},
			want: []string{"Monday standup", "Pay rent", "Sunday planning"},
		},
		{
			name: "next week restricts nothing",
			in:   services.ListTasksInput{DueDateType: "next_week"},
			want: []string{"Old invoice", "Monday standup", "Pay rent", "Sunday planning", "Next week report"},
		},
		{
			name: "unknown category ignored",
			in:   services.ListTasksInput{DueDateType: "someday"},
			want: []string{"Old invoice", "Monday standup", "Pay rent", "Sunday planning", "Next week report"},
		},
		{
			name: "title substring is case insensitive",
			in:   services.ListTasksInput{Title: "RENT"},
			want: []string{"Pay rent"},
		},
		{
			name: "exact due date",
			in:   services.ListTasksInput{DueDate: "2024-01-05"},
			want: []string{"Old invoice"},
		},
		{
			name: "unparseable due date matches nothing",
			in:   services.ListTasksInput{DueDate: "soon"},
			want: []string{},
		},
		{
			name: "filters combine",
			in:   services.ListTasksInput{Title: "day", DueDateType: "this_week"},
			want: []string{"Monday standup", "Sunday planning"},
		},
		{
			name: "blank title ignored",
			in:   services.ListTasksInput{Title: "  "},
			want: []string{"Old invoice", "Monday standup", "Pay rent", "Sunday planning", "Next week report"},
		},
		{
			name: "blank due date ignored",
			in:   services.ListTasksInput{DueDate: "  "},
			want: []string{"Old invoice", "Monday standup", "Pay rent", "Sunday planning", "Next week report"},
		},
		{
			name: "blank filters ignored together",
			in:   services.ListTasksInput{Title: " ", DueDate: "\t", DueDateType: "  "},
			want: []string{"Old invoice", "Monday standup", "Pay rent", "Sunday planning", "Next week report"},
		},
		{
			name: "padded values are trimmed",
			in:   services.ListTasksInput{Title: " rent ", DueDate: " 2024-01-10 ", DueDateType: " today "},
			want: []string{"Pay rent"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, titles(listed(t, svc, tc.in)))
		})
	}
}

func TestListTasks_TitleMatchesNonASCII(t *testing.T) {
	svc, _ := newSQLiteService(t)
	mustCreate(t, svc, services.CreateTaskInput{Title: "Äpfel kaufen", DueDate: "2024-01-10"})
	mustCreate(t, svc, services.CreateTaskInput{Title: "ÉCOLE inscription", DueDate: "2024-01-11"})

	tests := []struct {
		title string
		want  []string
	}{
		{"äpfel", []string{"Äpfel kaufen"}},
		{"ÄPFEL", []string{"Äpfel kaufen"}},
		{"école", []string{"ÉCOLE inscription"}},
		{"Inscription", []string{"ÉCOLE inscription"}},
	}
	for _, tc := range tests {
		t.Run(tc.title, func(t *testing.T) {
			assert.Equal(t, tc.want, titles(listed(t, svc, services.ListTasksInput{Title: tc.title})))
		})
	}
}

func TestListTasks_NestsSubTasks(t *testing.T) {
	svc, _ := newSQLiteService(t)
	ctx := context.Background()

	parent := mustCreate(t, svc, services.CreateTaskInput{Title: "Groceries", DueDate: "2024-01-10"})
	milk := mustCreate(t, svc, services.CreateTaskInput{Title: "Milk", DueDate: "2024-01-11", ParentID: parent.ID})
	bread := mustCreate(t, svc, services.CreateTaskInput{Title: "Bread", DueDate: "2024-01-09", ParentID: parent.ID})
	_, err := svc.CompleteTask(ctx, milk.ID)
	require.NoError(t, err)

	tasks := listed(t, svc, services.ListTasksInput{})
	require.Len(t, tasks, 1)
	assert.Equal(t, []string{"Bread", "Milk"}, titles(tasks[0].SubTasks), "subtasks keep every status")

	res, err := svc.RemoveTask(ctx, bread.ID)
	require.NoError(t, err)
	require.True(t, res.OK())

	tasks = listed(t, svc, services.ListTasksInput{})
	require.Len(t, tasks, 1)
	assert.Equal(t, []string{"Milk"}, titles(tasks[0].SubTasks))
}

func TestGetTask(t *testing.T) {
	svc, _ := newSQLiteService(t)
	ctx := context.Background()

	parent := mustCreate(t, svc, services.CreateTaskInput{Title: "Groceries", DueDate: "2024-01-10"})
	mustCreate(t, svc, services.CreateTaskInput{Title: "Milk", DueDate: "2024-01-10", ParentID: parent.ID})

	res, err := svc.GetTask(ctx, parent.ID)
	require.NoError(t, err)
	require.True(t, res.OK())
	got := res.Data.(*models.Task)
	assert.Equal(t, "Groceries", got.Title)
	assert.Equal(t, []string{"Milk"}, titles(got.SubTasks))

	res, err = svc.GetTask(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, services.ReasonTaskIDRequired, res.Reason)
}

func TestCreateCompleteRemoveFlow(t *testing.T) {
	svc, _ := newSQLiteService(t)
	ctx := context.Background()

	a := mustCreate(t, svc, services.CreateTaskInput{Title: "Buy milk", DueDate: "2024-01-10"})

	res, err := svc.CreateTask(ctx, services.CreateTaskInput{Title: "Buy milk", DueDate: "2024-01-10"})
	require.NoError(t, err)
	assert.Equal(t, services.ReasonTitleExists, res.Reason)

	res, err = svc.CompleteTask(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, res.Data.(*models.Task).Status)
	assert.NotContains(t, titles(listed(t, svc, services.ListTasksInput{})), "Buy milk")

	parent := mustCreate(t, svc, services.CreateTaskInput{Title: "Groceries", DueDate: "2024-01-10"})
	child := mustCreate(t, svc, services.CreateTaskInput{Title: "Eggs", DueDate: "2024-01-10", ParentID: parent.ID})

	res, err = svc.RemoveTask(ctx, parent.ID)
	require.NoError(t, err)
	require.True(t, res.OK())

	assert.Empty(t, listed(t, svc, services.ListTasksInput{}))
	for _, id := range []string{parent.ID, child.ID} {
		res, err := svc.GetTask(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, services.OutcomeNotFound, res.Outcome)
	}
}
