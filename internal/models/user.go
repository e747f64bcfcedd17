package models

import (
	"encoding/json"
	"time"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleEmployee
}

type User struct {
	ID           string    `json:"_id"`
	Name         string    `json:"name"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UserRef is a reference from a task to a user. When only ID is set it
// encodes as the bare id string, otherwise as a user projection.
type UserRef struct {
	ID       string `json:"_id"`
	Name     string `json:"name,omitempty"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
}

func (r UserRef) Resolved() bool {
	return r.Username != ""
}

func (r UserRef) MarshalJSON() ([]byte, error) {
	if !r.Resolved() {
		return json.Marshal(r.ID)
	}
	type projection UserRef
	return json.Marshal(projection(r))
}

// EmployeeSummary is an employee record annotated with task counters.
type EmployeeSummary struct {
	User
	TasksCount     int64 `json:"tasksCount"`
	CompletedTasks int64 `json:"completedTasks"`
}
