// Package storage declares the persistence contracts used by the services.
// Implementations live in the mongo and postgres subpackages.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/adanyl0v/go-taskdesk/internal/models"
)

const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
)

var (
	// ErrNotFound is returned when no record matches. Malformed ids
	// are reported the same way.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned when a unique field is already taken.
	ErrDuplicate = errors.New("duplicate record")
)

type Storage interface {
	Users() UserStore
	Tasks() TaskStore
	Sessions() SessionStore

	// Driver returns the name of the backend, DriverMongo or DriverPostgres.
	Driver() string
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

type UserStore interface {
	// Create assigns an id to the user and inserts it.
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)

	// GetByIDs returns the users found among ids keyed by id.
	// Unknown ids are absent from the result.
	GetByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)

	// ListByRole returns users with the given role, newest first.
	ListByRole(ctx context.Context, role models.Role) ([]*models.User, error)
	CountByRole(ctx context.Context, role models.Role) (int64, error)
}

// TaskFilter narrows task queries. The zero value matches every task.
type TaskFilter struct {
	AssignedTo string
}

type TaskStore interface {
	// Create assigns an id to the task and inserts it.
	Create(ctx context.Context, task *models.Task) error

	// List returns the tasks matching filter, newest first.
	List(ctx context.Context, filter TaskFilter) ([]*models.Task, error)

	// UpdateStatus sets the status of the task with the given id only if
	// it is assigned to assignedTo, and returns the updated task.
	UpdateStatus(ctx context.Context, id, assignedTo string, status models.Status, updatedAt time.Time) (*models.Task, error)

	// CountByAssignee aggregates task counters per assignee in one query.
	CountByAssignee(ctx context.Context) (map[string]models.TaskCounts, error)

	// Count aggregates task counters over the tasks matching filter.
	Count(ctx context.Context, filter TaskFilter) (models.TaskCounts, error)
}

type SessionStore interface {
	Create(ctx context.Context, session *models.Session) error
	GetByID(ctx context.Context, id string) (*models.Session, error)
	GetByRefreshToken(ctx context.Context, refreshToken, fingerprint string) (*models.Session, error)

	// Rotate replaces the refresh token and expiration of a session.
	Rotate(ctx context.Context, session *models.Session) error
	DeleteByUserID(ctx context.Context, userID string) (int64, error)
}
