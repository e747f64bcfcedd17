package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-taskdesk/internal/models"
	"github.com/adanyl0v/go-taskdesk/internal/storage"
)

// Layouts accepted for a task end date, tried in order.
var endDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	time.DateOnly,
}

type taskServiceImpl struct {
	logger zerolog.Logger
	users  storage.UserStore
	tasks  storage.TaskStore
	now    func() time.Time
}

func NewTaskService(
	logger zerolog.Logger,
	users storage.UserStore,
	tasks storage.TaskStore,
) TaskService {
	return &taskServiceImpl{
		logger: logger,
		users:  users,
		tasks:  tasks,
		now:    time.Now,
	}
}

func (s *taskServiceImpl) ListEmployees(ctx context.Context, caller models.Caller) ([]models.EmployeeSummary, error) {
	admin, err := requireAdmin(caller)
	if err != nil {
		return nil, err
	}

	users, err := s.users.ListByRole(ctx, models.RoleEmployee)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to list employees")
		return nil, err
	}

	counts, err := s.tasks.CountByAssignee(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to count tasks by assignee")
		return nil, err
	}
	s.logger.Debug().
		Int("employees", len(users)).
		Int("assignees", len(counts)).
		Msg("selected employees and task counters")

	employees := make([]models.EmployeeSummary, len(users))
	for i, user := range users {
		c := counts[user.ID]
		employees[i] = models.EmployeeSummary{
			User:           *user,
			TasksCount:     c.Total,
			CompletedTasks: c.Completed,
		}
	}

	s.logger.Info().
		Str("user_id", admin.ID).
		Int("count", len(employees)).
		Msg("listed employees")
	return employees, nil
}

func (s *taskServiceImpl) ListAllTasks(ctx context.Context, caller models.Caller) ([]models.TaskView, error) {
	admin, err := requireAdmin(caller)
	if err != nil {
		return nil, err
	}

	tasks, err := s.tasks.List(ctx, storage.TaskFilter{})
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to list tasks")
		return nil, err
	}

	users, err := s.resolveUsers(ctx, tasks, true, true)
	if err != nil {
		return nil, err
	}

	views := make([]models.TaskView, len(tasks))
	for i, task := range tasks {
		views[i] = models.NewTaskView(task)
		views[i].AssignedTo = assigneeRef(users, task.AssignedTo)
		views[i].AssignedBy = assignerRef(users, task.AssignedBy)
	}

	s.logger.Info().
		Str("user_id", admin.ID).
		Int("count", len(views)).
		Msg("listed tasks")
	return views, nil
}

func (s *taskServiceImpl) CreateTask(ctx context.Context, caller models.Caller, params CreateTaskParams) (*models.TaskView, error) {
	admin, err := requireAdmin(caller)
	if err != nil {
		return nil, err
	}

	params.Title = strings.TrimSpace(params.Title)
	if params.Title == "" || params.AssignedTo == "" || params.EndDate == "" {
		return nil, newError(ErrValidation, "Title, assigned employee, and end date are required")
	}

	priority := models.PriorityMedium
	if params.Priority != "" {
		priority = models.Priority(params.Priority)
		if !priority.Valid() {
			return nil, newError(ErrValidation, "Invalid priority")
		}
	}

	now := s.now()
	endDate, ok := parseEndDate(params.EndDate)
	if !ok {
		return nil, newError(ErrValidation, "Invalid end date")
	}
	if !endDate.After(now) {
		return nil, newError(ErrValidation, "End date must be in the future")
	}

	assignee, err := s.users.GetByID(ctx, params.AssignedTo)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.logger.Error().
			Err(err).
			Str("assigned_to", params.AssignedTo).
			Msg("failed to select assignee")
		return nil, err
	}
	if assignee == nil || assignee.Role != models.RoleEmployee {
		s.logger.Warn().
			Str("assigned_to", params.AssignedTo).
			Msg("assignee is not an employee")
		return nil, newError(ErrValidation, "Invalid employee selected")
	}

	task := &models.Task{
		Title:       params.Title,
		Description: params.Description,
		AssignedTo:  assignee.ID,
		AssignedBy:  admin.ID,
		Status:      models.StatusPending,
		Priority:    priority,
		EndDate:     endDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.tasks.Create(ctx, task)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to insert task")
		return nil, err
	}
	s.logger.Debug().
		Str("task_id", task.ID).
		Msg("inserted task")

	view := models.NewTaskView(task)
	view.AssignedTo = refWithEmail(assignee)

	assigner, err := s.users.GetByID(ctx, admin.ID)
	switch {
	case err == nil:
		view.AssignedBy = ref(assigner)
	case !errors.Is(err, storage.ErrNotFound):
		s.logger.Error().
			Err(err).
			Str("user_id", admin.ID).
			Msg("failed to select assigner")
		return nil, err
	}

	s.logger.Info().
		Str("task_id", task.ID).
		Str("assigned_to", task.AssignedTo).
		Str("assigned_by", task.AssignedBy).
		Msg("created task")
	return &view, nil
}

func (s *taskServiceImpl) ListOwnTasks(ctx context.Context, caller models.Caller) ([]models.TaskView, error) {
	employee, err := requireEmployee(caller)
	if err != nil {
		return nil, err
	}

	tasks, err := s.tasks.List(ctx, storage.TaskFilter{AssignedTo: employee.ID})
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", employee.ID).
			Msg("failed to list tasks by assignee")
		return nil, err
	}

	users, err := s.resolveUsers(ctx, tasks, false, true)
	if err != nil {
		return nil, err
	}

	views := make([]models.TaskView, len(tasks))
	for i, task := range tasks {
		views[i] = models.NewTaskView(task)
		views[i].AssignedBy = assignerRef(users, task.AssignedBy)
	}

	s.logger.Info().
		Str("user_id", employee.ID).
		Int("count", len(views)).
		Msg("listed own tasks")
	return views, nil
}

func (s *taskServiceImpl) UpdateOwnTaskStatus(ctx context.Context, caller models.Caller, params UpdateTaskStatusParams) (*models.TaskView, error) {
	employee, err := requireEmployee(caller)
	if err != nil {
		return nil, err
	}

	status := models.Status(params.Status)
	if !status.Valid() {
		return nil, newError(ErrValidation, "Invalid status")
	}

	task, err := s.tasks.UpdateStatus(ctx, params.TaskID, employee.ID, status, s.now())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn().
				Str("task_id", params.TaskID).
				Str("user_id", employee.ID).
				Msg("task not found")
			return nil, errTaskNotOwned
		}

		s.logger.Error().
			Err(err).
			Str("task_id", params.TaskID).
			Msg("failed to update task status")
		return nil, err
	}
	s.logger.Debug().
		Str("task_id", task.ID).
		Str("status", string(task.Status)).
		Msg("updated task status")

	view := models.NewTaskView(task)
	assigner, err := s.users.GetByID(ctx, task.AssignedBy)
	switch {
	case err == nil:
		view.AssignedBy = ref(assigner)
	case !errors.Is(err, storage.ErrNotFound):
		s.logger.Error().
			Err(err).
			Str("user_id", task.AssignedBy).
			Msg("failed to select assigner")
		return nil, err
	}

	s.logger.Info().
		Str("task_id", task.ID).
		Str("user_id", employee.ID).
		Str("status", string(task.Status)).
		Msg("updated task status")
	return &view, nil
}

func (s *taskServiceImpl) GetStats(ctx context.Context, caller models.Caller) (*models.Stats, error) {
	var filter storage.TaskFilter
	if _, ok := caller.(models.Employee); ok {
		filter.AssignedTo = caller.UserID()
	}

	counts, err := s.tasks.Count(ctx, filter)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", caller.UserID()).
			Msg("failed to count tasks")
		return nil, err
	}

	stats := &models.Stats{
		TotalTasks:        counts.Total,
		CompletedTasks:    counts.Completed,
		PendingTasks:      counts.Pending,
		HighPriorityTasks: counts.HighPriority,
	}

	if _, ok := caller.(models.Admin); ok {
		employees, err := s.users.CountByRole(ctx, models.RoleEmployee)
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to count employees")
			return nil, err
		}
		stats.TotalEmployees = &employees
	}

	s.logger.Info().
		Str("user_id", caller.UserID()).
		Str("role", string(caller.Role())).
		Int64("total_tasks", stats.TotalTasks).
		Msg("computed stats")
	return stats, nil
}

// resolveUsers loads in one call the users referenced by tasks.
func (s *taskServiceImpl) resolveUsers(
	ctx context.Context,
	tasks []*models.Task,
	assignees, assigners bool,
) (map[string]*models.User, error) {
	seen := make(map[string]struct{})
	ids := make([]string, 0)
	add := func(id string) {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	for _, task := range tasks {
		if assignees {
			add(task.AssignedTo)
		}
		if assigners {
			add(task.AssignedBy)
		}
	}

	if len(ids) == 0 {
		return map[string]*models.User{}, nil
	}

	users, err := s.users.GetByIDs(ctx, ids)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int("count", len(ids)).
			Msg("failed to resolve task users")
		return nil, err
	}
	s.logger.Debug().
		Int("requested", len(ids)).
		Int("resolved", len(users)).
		Msg("resolved task users")
	return users, nil
}

func requireAdmin(caller models.Caller) (models.Admin, error) {
	admin, ok := caller.(models.Admin)
	if !ok {
		return models.Admin{}, errAdminOnly
	}
	return admin, nil
}

func requireEmployee(caller models.Caller) (models.Employee, error) {
	employee, ok := caller.(models.Employee)
	if !ok {
		return models.Employee{}, errEmployeeOnly
	}
	return employee, nil
}

func parseEndDate(value string) (time.Time, bool) {
	for _, layout := range endDateLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func ref(user *models.User) models.UserRef {
	return models.UserRef{
		ID:       user.ID,
		Name:     user.Name,
		Username: user.Username,
	}
}

func refWithEmail(user *models.User) models.UserRef {
	r := ref(user)
	r.Email = user.Email
	return r
}

func assigneeRef(users map[string]*models.User, id string) models.UserRef {
	if user, ok := users[id]; ok {
		return refWithEmail(user)
	}
	return models.UserRef{ID: id}
}

func assignerRef(users map[string]*models.User, id string) models.UserRef {
	if user, ok := users[id]; ok {
		return ref(user)
	}
	return models.UserRef{ID: id}
}
