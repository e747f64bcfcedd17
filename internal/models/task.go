package models

import "time"

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task is the stored form of a task. AssignedTo and AssignedBy hold user ids.
type Task struct {
	ID          string
	Title       string
	Description string
	AssignedTo  string
	AssignedBy  string
	Status      Status
	Priority    Priority
	EndDate     time.Time
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TaskView is a task as returned to clients, with user references
// optionally resolved.
type TaskView struct {
	ID          string     `json:"_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	AssignedTo  UserRef    `json:"assignedTo"`
	AssignedBy  UserRef    `json:"assignedBy"`
	Status      Status     `json:"status"`
	Priority    Priority   `json:"priority"`
	EndDate     time.Time  `json:"endDate"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func NewTaskView(task *Task) TaskView {
	return TaskView{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		AssignedTo:  UserRef{ID: task.AssignedTo},
		AssignedBy:  UserRef{ID: task.AssignedBy},
		Status:      task.Status,
		Priority:    task.Priority,
		EndDate:     task.EndDate,
		CompletedAt: task.CompletedAt,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}

// TaskCounts holds the counters used by stats and employee listings.
type TaskCounts struct {
	Total        int64
	Completed    int64
	Pending      int64
	HighPriority int64
}

type Stats struct {
	TotalEmployees    *int64 `json:"totalEmployees,omitempty"`
	TotalTasks        int64  `json:"totalTasks"`
	CompletedTasks    int64  `json:"completedTasks"`
	PendingTasks      int64  `json:"pendingTasks"`
	HighPriorityTasks int64  `json:"highPriorityTasks"`
}
