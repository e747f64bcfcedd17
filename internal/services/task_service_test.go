package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adanyl0v/go-taskdesk/internal/models"
	"github.com/adanyl0v/go-taskdesk/internal/storage"
)

var testNow = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

type taskFixture struct {
	svc   *taskServiceImpl
	users *memUsers
	tasks *memTasks

	admin    *models.User
	alice    *models.User
	bob      *models.User
	adminCtx models.Caller
	aliceCtx models.Caller
	bobCtx   models.Caller
}

func newTaskFixture(t *testing.T) *taskFixture {
	t.Helper()

	users := newMemUsers()
	tasks := newMemTasks()
	svc := NewTaskService(zerolog.Nop(), users, tasks).(*taskServiceImpl)
	svc.now = func() time.Time { return testNow }

	f := &taskFixture{
		svc:   svc,
		users: users,
		tasks: tasks,
		admin: users.add("admin", models.RoleAdmin, testNow.Add(-3*time.Hour)),
		alice: users.add("alice", models.RoleEmployee, testNow.Add(-2*time.Hour)),
		bob:   users.add("bob", models.RoleEmployee, testNow.Add(-1*time.Hour)),
	}
	f.adminCtx = models.Admin{ID: f.admin.ID}
	f.aliceCtx = models.Employee{ID: f.alice.ID}
	f.bobCtx = models.Employee{ID: f.bob.ID}
	return f
}

// seed inserts a task created at offset relative to testNow.
func (f *taskFixture) seed(t *testing.T, assignee *models.User, status models.Status, priority models.Priority, offset time.Duration) *models.Task {
	t.Helper()

	task := &models.Task{
		Title:      "task",
		AssignedTo: assignee.ID,
		AssignedBy: f.admin.ID,
		Status:     status,
		Priority:   priority,
		EndDate:    testNow.Add(24 * time.Hour),
		CreatedAt:  testNow.Add(offset),
		UpdatedAt:  testNow.Add(offset),
	}
	require.NoError(t, f.tasks.Create(context.Background(), task))
	return task
}

func requireServiceError(t *testing.T, err error, kind error, message string) {
	t.Helper()

	var svcErr *Error
	require.True(t, errors.As(err, &svcErr), "expected *Error, got %v", err)
	assert.ErrorIs(t, err, kind)
	assert.Equal(t, message, svcErr.Message)
}

func TestTaskService_RoleGates(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()

	_, err := f.svc.ListEmployees(ctx, f.aliceCtx)
	requireServiceError(t, err, ErrForbidden, "Access denied. Admin only.")

	_, err = f.svc.ListAllTasks(ctx, f.aliceCtx)
	requireServiceError(t, err, ErrForbidden, "Access denied. Admin only.")

	_, err = f.svc.CreateTask(ctx, f.aliceCtx, CreateTaskParams{})
	requireServiceError(t, err, ErrForbidden, "Access denied. Admin only.")

	_, err = f.svc.ListOwnTasks(ctx, f.adminCtx)
	requireServiceError(t, err, ErrForbidden, "Access denied. Employee only.")

	_, err = f.svc.UpdateOwnTaskStatus(ctx, f.adminCtx, UpdateTaskStatusParams{})
	requireServiceError(t, err, ErrForbidden, "Access denied. Employee only.")
}

func TestTaskService_ListEmployees(t *testing.T) {
	f := newTaskFixture(t)
	f.seed(t, f.alice, models.StatusCompleted, models.PriorityLow, -50*time.Minute)
	f.seed(t, f.alice, models.StatusPending, models.PriorityHigh, -40*time.Minute)
	f.seed(t, f.alice, models.StatusInProgress, models.PriorityMedium, -30*time.Minute)

	employees, err := f.svc.ListEmployees(context.Background(), f.adminCtx)
	require.NoError(t, err)
	require.Len(t, employees, 2)

	// Newest employee first, admins excluded.
	assert.Equal(t, f.bob.ID, employees[0].ID)
	assert.Zero(t, employees[0].TasksCount)
	assert.Zero(t, employees[0].CompletedTasks)

	assert.Equal(t, f.alice.ID, employees[1].ID)
	assert.EqualValues(t, 3, employees[1].TasksCount)
	assert.EqualValues(t, 1, employees[1].CompletedTasks)
}

func TestTaskService_ListAllTasks(t *testing.T) {
	f := newTaskFixture(t)
	older := f.seed(t, f.alice, models.StatusPending, models.PriorityLow, -20*time.Minute)
	newer := f.seed(t, f.bob, models.StatusPending, models.PriorityLow, -10*time.Minute)

	views, err := f.svc.ListAllTasks(context.Background(), f.adminCtx)
	require.NoError(t, err)
	require.Len(t, views, 2)

	assert.Equal(t, newer.ID, views[0].ID)
	assert.Equal(t, older.ID, views[1].ID)

	want := models.TaskView{
		ID:    newer.ID,
		Title: newer.Title,
		AssignedTo: models.UserRef{
			ID:       f.bob.ID,
			Name:     f.bob.Name,
			Username: f.bob.Username,
			Email:    f.bob.Email,
		},
		AssignedBy: models.UserRef{
			ID:       f.admin.ID,
			Name:     f.admin.Name,
			Username: f.admin.Username,
		},
		Status:    newer.Status,
		Priority:  newer.Priority,
		EndDate:   newer.EndDate,
		CreatedAt: newer.CreatedAt,
		UpdatedAt: newer.UpdatedAt,
	}
	if diff := cmp.Diff(want, views[0]); diff != "" {
		t.Errorf("ListAllTasks() mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, 1, f.users.getByIDsCalls)
}

func TestTaskService_ListAllTasks_DeletedUser(t *testing.T) {
	f := newTaskFixture(t)
	f.seed(t, f.alice, models.StatusPending, models.PriorityLow, -time.Minute)
	f.users.remove(f.alice.ID)

	views, err := f.svc.ListAllTasks(context.Background(), f.adminCtx)
	require.NoError(t, err)
	require.Len(t, views, 1)

	assert.False(t, views[0].AssignedTo.Resolved())
	assert.Equal(t, f.alice.ID, views[0].AssignedTo.ID)
	assert.True(t, views[0].AssignedBy.Resolved())
}

func TestTaskService_CreateTask(t *testing.T) {
	f := newTaskFixture(t)

	view, err := f.svc.CreateTask(context.Background(), f.adminCtx, CreateTaskParams{
		Title:       "  Fix login  ",
		Description: "Users cannot sign in",
		AssignedTo:  f.alice.ID,
		EndDate:     testNow.Add(48 * time.Hour).Format(time.RFC3339),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, view.ID)
	assert.Equal(t, "Fix login", view.Title)
	assert.Equal(t, models.StatusPending, view.Status)
	assert.Equal(t, models.PriorityMedium, view.Priority)
	assert.Equal(t, testNow, view.CreatedAt)
	assert.Equal(t, f.alice.Email, view.AssignedTo.Email)
	assert.Equal(t, f.admin.ID, view.AssignedBy.ID)
	assert.Equal(t, f.admin.Username, view.AssignedBy.Username)

	stored := f.tasks.get(view.ID)
	require.NotNil(t, stored)
	assert.Equal(t, f.alice.ID, stored.AssignedTo)
	assert.Equal(t, f.admin.ID, stored.AssignedBy)
}

func TestTaskService_CreateTask_Defaults(t *testing.T) {
	f := newTaskFixture(t)

	view, err := f.svc.CreateTask(context.Background(), f.adminCtx, CreateTaskParams{
		Title:      "Write report",
		AssignedTo: f.alice.ID,
		EndDate:    "2099-01-01",
	})
	require.NoError(t, err)

	assert.Equal(t, models.PriorityMedium, view.Priority)
	assert.Equal(t, models.StatusPending, view.Status)
	assert.Equal(t, f.admin.ID, view.AssignedBy.ID)
	assert.Equal(t, time.Date(2099, time.January, 1, 0, 0, 0, 0, time.UTC), view.EndDate.UTC())

	stored := f.tasks.get(view.ID)
	require.NotNil(t, stored)
	assert.Equal(t, models.PriorityMedium, stored.Priority)
	assert.Equal(t, models.StatusPending, stored.Status)
	assert.Equal(t, f.admin.ID, stored.AssignedBy)
}

func TestTaskService_CreateTask_EndDateLayouts(t *testing.T) {
	f := newTaskFixture(t)
	tomorrow := testNow.Add(24 * time.Hour)

	for _, endDate := range []string{
		tomorrow.Format(time.RFC3339),
		tomorrow.Format("2006-01-02T15:04"),
		tomorrow.Format(time.DateOnly),
	} {
		_, err := f.svc.CreateTask(context.Background(), f.adminCtx, CreateTaskParams{
			Title:      "task",
			AssignedTo: f.alice.ID,
			EndDate:    endDate,
			Priority:   string(models.PriorityHigh),
		})
		assert.NoError(t, err, endDate)
	}
}

func TestTaskService_CreateTask_Validation(t *testing.T) {
	f := newTaskFixture(t)
	future := testNow.Add(24 * time.Hour).Format(time.RFC3339)

	tests := []struct {
		name    string
		params  CreateTaskParams
		message string
	}{
		{
			name:    "missing title",
			params:  CreateTaskParams{Title: "   ", AssignedTo: f.alice.ID, EndDate: future},
			message: "Title, assigned employee, and end date are required",
		},
		{
			name:    "missing assignee",
			params:  CreateTaskParams{Title: "task", EndDate: future},
			message: "Title, assigned employee, and end date are required",
		},
		{
			name:    "missing end date",
			params:  CreateTaskParams{Title: "task", AssignedTo: f.alice.ID},
			message: "Title, assigned employee, and end date are required",
		},
		{
			name:    "invalid priority",
			params:  CreateTaskParams{Title: "task", AssignedTo: f.alice.ID, EndDate: future, Priority: "urgent"},
			message: "Invalid priority",
		},
		{
			name:    "malformed end date",
			params:  CreateTaskParams{Title: "task", AssignedTo: f.alice.ID, EndDate: "next week"},
			message: "Invalid end date",
		},
		{
			name:    "past end date",
			params:  CreateTaskParams{Title: "task", AssignedTo: f.alice.ID, EndDate: testNow.Add(-time.Hour).Format(time.RFC3339)},
			message: "End date must be in the future",
		},
		{
			name:    "admin assignee",
			params:  CreateTaskParams{Title: "task", AssignedTo: f.admin.ID, EndDate: future},
			message: "Invalid employee selected",
		},
		{
			name:    "unknown assignee",
			params:  CreateTaskParams{Title: "task", AssignedTo: "user-404", EndDate: future},
			message: "Invalid employee selected",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateTask(context.Background(), f.adminCtx, tt.params)
			requireServiceError(t, err, ErrValidation, tt.message)
		})
	}

	counts, err := f.tasks.Count(context.Background(), storage.TaskFilter{})
	require.NoError(t, err)
	assert.Zero(t, counts.Total)
}

func TestTaskService_ListOwnTasks(t *testing.T) {
	f := newTaskFixture(t)
	own := f.seed(t, f.alice, models.StatusPending, models.PriorityLow, -time.Minute)
	f.seed(t, f.bob, models.StatusPending, models.PriorityLow, -2*time.Minute)

	views, err := f.svc.ListOwnTasks(context.Background(), f.aliceCtx)
	require.NoError(t, err)
	require.Len(t, views, 1)

	assert.Equal(t, own.ID, views[0].ID)
	assert.False(t, views[0].AssignedTo.Resolved())
	assert.Equal(t, f.admin.Username, views[0].AssignedBy.Username)

	views, err = f.svc.ListOwnTasks(context.Background(), models.Employee{ID: "user-404"})
	require.NoError(t, err)
	assert.Empty(t, views)
	assert.NotNil(t, views)
}

func TestTaskService_UpdateOwnTaskStatus(t *testing.T) {
	f := newTaskFixture(t)
	task := f.seed(t, f.alice, models.StatusPending, models.PriorityLow, -time.Hour)

	view, err := f.svc.UpdateOwnTaskStatus(context.Background(), f.aliceCtx, UpdateTaskStatusParams{
		TaskID: task.ID,
		Status: string(models.StatusCompleted),
	})
	require.NoError(t, err)

	assert.Equal(t, models.StatusCompleted, view.Status)
	assert.Equal(t, testNow, view.UpdatedAt)
	assert.Equal(t, f.admin.Username, view.AssignedBy.Username)
	assert.Equal(t, models.StatusCompleted, f.tasks.get(task.ID).Status)
}

func TestTaskService_UpdateOwnTaskStatus_Idempotent(t *testing.T) {
	f := newTaskFixture(t)
	task := f.seed(t, f.alice, models.StatusPending, models.PriorityLow, -time.Hour)

	params := UpdateTaskStatusParams{
		TaskID: task.ID,
		Status: string(models.StatusCompleted),
	}
	for range 2 {
		view, err := f.svc.UpdateOwnTaskStatus(context.Background(), f.aliceCtx, params)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCompleted, view.Status)
	}

	assert.Equal(t, models.StatusCompleted, f.tasks.get(task.ID).Status)
}

func TestTaskService_UpdateOwnTaskStatus_Rejected(t *testing.T) {
	f := newTaskFixture(t)
	task := f.seed(t, f.alice, models.StatusPending, models.PriorityLow, -time.Hour)

	_, err := f.svc.UpdateOwnTaskStatus(context.Background(), f.aliceCtx, UpdateTaskStatusParams{
		TaskID: task.ID,
		Status: "done",
	})
	requireServiceError(t, err, ErrValidation, "Invalid status")

	_, err = f.svc.UpdateOwnTaskStatus(context.Background(), f.bobCtx, UpdateTaskStatusParams{
		TaskID: task.ID,
		Status: string(models.StatusCompleted),
	})
	requireServiceError(t, err, ErrTaskNotFound, "Task not found or not assigned to you")

	_, err = f.svc.UpdateOwnTaskStatus(context.Background(), f.aliceCtx, UpdateTaskStatusParams{
		TaskID: "task-404",
		Status: string(models.StatusCompleted),
	})
	requireServiceError(t, err, ErrTaskNotFound, "Task not found or not assigned to you")

	assert.Equal(t, models.StatusPending, f.tasks.get(task.ID).Status)
}

func TestTaskService_GetStats(t *testing.T) {
	f := newTaskFixture(t)
	f.seed(t, f.alice, models.StatusCompleted, models.PriorityHigh, -4*time.Minute)
	f.seed(t, f.alice, models.StatusPending, models.PriorityLow, -3*time.Minute)
	f.seed(t, f.bob, models.StatusPending, models.PriorityHigh, -2*time.Minute)
	f.seed(t, f.bob, models.StatusInProgress, models.PriorityMedium, -time.Minute)

	stats, err := f.svc.GetStats(context.Background(), f.adminCtx)
	require.NoError(t, err)
	require.NotNil(t, stats.TotalEmployees)
	assert.EqualValues(t, 2, *stats.TotalEmployees)
	assert.EqualValues(t, 4, stats.TotalTasks)
	assert.EqualValues(t, 1, stats.CompletedTasks)
	assert.EqualValues(t, 2, stats.PendingTasks)
	assert.EqualValues(t, 2, stats.HighPriorityTasks)

	stats, err = f.svc.GetStats(context.Background(), f.aliceCtx)
	require.NoError(t, err)
	assert.Nil(t, stats.TotalEmployees)
	assert.EqualValues(t, 2, stats.TotalTasks)
	assert.EqualValues(t, 1, stats.CompletedTasks)
	assert.EqualValues(t, 1, stats.PendingTasks)
	assert.EqualValues(t, 1, stats.HighPriorityTasks)
}

func TestTaskService_GetStats_Empty(t *testing.T) {
	f := newTaskFixture(t)

	stats, err := f.svc.GetStats(context.Background(), f.bobCtx)
	require.NoError(t, err)
	assert.Equal(t, &models.Stats{}, stats)
}
