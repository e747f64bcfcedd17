package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/adanyl0v/go-taskdesk/internal/models"
	"github.com/adanyl0v/go-taskdesk/internal/storage"
)

const taskColumns = `id,
       title,
       description,
       assigned_to,
       assigned_by,
       status,
       priority,
       end_date,
       completed_at,
       created_at,
       updated_at`

const countersColumns = `count(*),
       count(*) FILTER (WHERE status = 'completed'),
       count(*) FILTER (WHERE status = 'pending'),
       count(*) FILTER (WHERE priority = 'high')`

type TaskStore struct {
	db querier
}

func (s *TaskStore) Create(ctx context.Context, task *models.Task) error {
	assignedTo, err := uuid.Parse(task.AssignedTo)
	if err != nil {
		return fmt.Errorf("invalid assignee id: %w", err)
	}
	assignedBy, err := uuid.Parse(task.AssignedBy)
	if err != nil {
		return fmt.Errorf("invalid assigner id: %w", err)
	}

	id, err := newID()
	if err != nil {
		return err
	}

	const insertTaskQuery = `
INSERT INTO tasks (id,
                   title,
                   description,
                   assigned_to,
                   assigned_by,
                   status,
                   priority,
                   end_date,
                   completed_at,
                   created_at,
                   updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
`
	_, err = s.db.Exec(
		ctx,
		insertTaskQuery,
		id,
		task.Title,
		task.Description,
		assignedTo,
		assignedBy,
		task.Status,
		task.Priority,
		task.EndDate,
		task.CompletedAt,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}

	task.ID = id.String()
	return nil
}

func (s *TaskStore) List(ctx context.Context, filter storage.TaskFilter) ([]*models.Task, error) {
	assignedTo, err := assigneeParam(filter)
	if err != nil {
		return []*models.Task{}, nil
	}

	selectTasksQuery := `
SELECT ` + taskColumns + `
FROM tasks
WHERE $1::uuid IS NULL OR assigned_to = $1
ORDER BY created_at DESC
`
	rows, err := s.db.Query(ctx, selectTasksQuery, assignedTo)
	if err != nil {
		return nil, fmt.Errorf("failed to select tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]*models.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("failed to iterate over rows: %w", err)
	}
	return tasks, nil
}

func (s *TaskStore) UpdateStatus(
	ctx context.Context,
	id, assignedTo string,
	status models.Status,
	updatedAt time.Time,
) (*models.Task, error) {
	taskID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	assigneeID, err := parseID(assignedTo)
	if err != nil {
		return nil, err
	}

	updateTaskStatusQuery := `
UPDATE tasks
SET status = $1,
    updated_at = $2
WHERE id = $3 AND assigned_to = $4
RETURNING ` + taskColumns

	task, err := scanTask(s.db.QueryRow(
		ctx,
		updateTaskStatusQuery,
		status,
		updatedAt,
		taskID,
		assigneeID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update task status: %w", err)
	}
	return task, nil
}

func (s *TaskStore) CountByAssignee(ctx context.Context) (map[string]models.TaskCounts, error) {
	countTasksByAssigneeQuery := `
SELECT assigned_to,
       ` + countersColumns + `
FROM tasks
GROUP BY assigned_to
`
	rows, err := s.db.Query(ctx, countTasksByAssigneeQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]models.TaskCounts)
	for rows.Next() {
		var (
			assignee string
			c        models.TaskCounts
		)
		err = rows.Scan(&assignee, &c.Total, &c.Completed, &c.Pending, &c.HighPriority)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task counters: %w", err)
		}
		counts[assignee] = c
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("failed to iterate over rows: %w", err)
	}
	return counts, nil
}

func (s *TaskStore) Count(ctx context.Context, filter storage.TaskFilter) (models.TaskCounts, error) {
	var c models.TaskCounts

	assignedTo, err := assigneeParam(filter)
	if err != nil {
		return c, nil
	}

	countTasksQuery := `
SELECT ` + countersColumns + `
FROM tasks
WHERE $1::uuid IS NULL OR assigned_to = $1
`
	err = s.db.QueryRow(ctx, countTasksQuery, assignedTo).
		Scan(&c.Total, &c.Completed, &c.Pending, &c.HighPriority)
	if err != nil {
		return c, fmt.Errorf("failed to count tasks: %w", err)
	}
	return c, nil
}

// assigneeParam returns nil for an empty filter so that the query matches
// every task.
func assigneeParam(filter storage.TaskFilter) (*uuid.UUID, error) {
	if filter.AssignedTo == "" {
		return nil, nil
	}
	id, err := parseID(filter.AssignedTo)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func scanTask(row pgx.Row) (*models.Task, error) {
	task := &models.Task{}
	err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&task.AssignedTo,
		&task.AssignedBy,
		&task.Status,
		&task.Priority,
		&task.EndDate,
		&task.CompletedAt,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return task, nil
}
