package services

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/adanyl0v/go-taskdesk/internal/models"
)

var (
	ErrForbidden          = errors.New("forbidden")
	ErrValidation         = errors.New("validation failed")
	ErrTaskNotFound       = errors.New("task not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
	ErrInvalidToken       = errors.New("invalid token")
)

// Error is a failure with a message meant for the client. Its kind is one
// of the sentinel errors above and can be matched with errors.Is.
type Error struct {
	Kind    error
	Message string
}

func newError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

var (
	errAdminOnly    = newError(ErrForbidden, "Access denied. Admin only.")
	errEmployeeOnly = newError(ErrForbidden, "Access denied. Employee only.")
	errTaskNotOwned = newError(ErrTaskNotFound, "Task not found or not assigned to you")
)

// AuthorizeAdmin returns the error admin-only operations report for a
// caller that is not an admin.
func AuthorizeAdmin(caller models.Caller) error {
	_, err := requireAdmin(caller)
	return err
}

// AuthorizeEmployee returns the error employee-only operations report for
// a caller that is not an employee.
func AuthorizeEmployee(caller models.Caller) error {
	_, err := requireEmployee(caller)
	return err
}

type TaskService interface {
	// ListEmployees returns every employee with their task counters,
	// newest employee first. Admin only.
	ListEmployees(ctx context.Context, caller models.Caller) ([]models.EmployeeSummary, error)

	// ListAllTasks returns every task with both user references
	// resolved, newest first. Admin only.
	ListAllTasks(ctx context.Context, caller models.Caller) ([]models.TaskView, error)

	// CreateTask assigns a new pending task to an employee. Admin only.
	//
	// It returns an ErrValidation error if a required field is missing
	// or invalid, or if the assignee is not an employee.
	CreateTask(ctx context.Context, caller models.Caller, params CreateTaskParams) (*models.TaskView, error)

	// ListOwnTasks returns the tasks assigned to the caller, newest
	// first. Employee only.
	ListOwnTasks(ctx context.Context, caller models.Caller) ([]models.TaskView, error)

	// UpdateOwnTaskStatus changes the status of a task assigned to the
	// caller. Employee only.
	//
	// It returns ErrTaskNotFound if the task doesn't exist or is
	// assigned to someone else.
	UpdateOwnTaskStatus(ctx context.Context, caller models.Caller, params UpdateTaskStatusParams) (*models.TaskView, error)

	// GetStats returns task counters over the whole store for admins,
	// or over the caller's own tasks for employees.
	GetStats(ctx context.Context, caller models.Caller) (*models.Stats, error)
}

type AuthService interface {
	// Signup creates a user with the given credentials.
	//
	// It returns ErrUserAlreadyExists if the username
	// or email is already taken.
	Signup(ctx context.Context, params SignupParams) (*models.User, error)

	// Login authenticates the user by username and password.
	//
	// It deletes all sessions of the user, creates a new session
	// and generates a new token pair.
	//
	// It returns ErrInvalidCredentials if the user doesn't exist
	// or the password doesn't match.
	Login(ctx context.Context, params LoginParams) (*LoginResult, error)

	// Refresh rotates the refresh token of the session it belongs to.
	//
	// It returns ErrSessionNotFound if no session has the given
	// refresh token and fingerprint, or ErrSessionExpired if the
	// session is expired.
	Refresh(ctx context.Context, params RefreshParams) (*LoginResult, error)

	// Logout invalidates all sessions of the given user.
	Logout(ctx context.Context, userID string) error

	// Verify resolves an access token to the caller it was issued for.
	// The error wraps jwt.ErrTokenExpired if the token is expired.
	Verify(ctx context.Context, params VerifyParams) (models.Caller, error)

	// Me returns the user record of the caller.
	Me(ctx context.Context, caller models.Caller) (*models.User, error)

	// ParseJWTToken parses the given JWT token and returns the registered
	// claims or an error wrapping jwt.ErrTokenExpired if the token is expired.
	ParseJWTToken(token string) (*jwt.RegisteredClaims, error)
}

type SessionService interface {
	GetSessionByID(ctx context.Context, sessionID string) (*models.Session, error)
}

type CreateTaskParams struct {
	Title       string
	Description string
	AssignedTo  string
	// EndDate is either RFC 3339, a datetime-local value or a plain date.
	EndDate  string
	Priority string
}

type UpdateTaskStatusParams struct {
	TaskID string
	Status string
}

type SignupParams struct {
	Name     string
	Username string
	Email    string
	Password string
	Role     models.Role
}

type LoginParams struct {
	Username    string
	Password    string
	Fingerprint string
}

type LoginResult struct {
	User                  *models.User
	SessionID             string
	AccessToken           string
	AccessTokenExpiresAt  time.Time
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
}

type RefreshParams struct {
	RefreshToken string
	Fingerprint  string
}

type VerifyParams struct {
	AccessToken string
	Fingerprint string
}
