package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/adanyl0v/go-taskdesk/internal/models"
	"github.com/adanyl0v/go-taskdesk/internal/storage"
)

type memUsers struct {
	mu    sync.Mutex
	seq   int
	users map[string]*models.User

	getByIDsCalls int
}

func newMemUsers() *memUsers {
	return &memUsers{users: make(map[string]*models.User)}
}

func (m *memUsers) Create(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Username == user.Username || u.Email == user.Email {
			return storage.ErrDuplicate
		}
	}
	m.seq++
	user.ID = fmt.Sprintf("user-%d", m.seq)
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) GetByUsername(_ context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (m *memUsers) GetByIDs(_ context.Context, ids []string) (map[string]*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.getByIDsCalls++
	found := make(map[string]*models.User)
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			cp := *u
			found[id] = &cp
		}
	}
	return found, nil
}

func (m *memUsers) ListByRole(_ context.Context, role models.Role) ([]*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	users := make([]*models.User, 0)
	for _, u := range m.users {
		if u.Role == role {
			cp := *u
			users = append(users, &cp)
		}
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.After(users[j].CreatedAt)
	})
	return users, nil
}

func (m *memUsers) CountByRole(ctx context.Context, role models.Role) (int64, error) {
	users, _ := m.ListByRole(ctx, role)
	return int64(len(users)), nil
}

// add inserts a user directly, bypassing password hashing.
func (m *memUsers) add(name string, role models.Role, createdAt time.Time) *models.User {
	user := &models.User{
		Name:      name,
		Username:  name,
		Email:     name + "@example.com",
		Role:      role,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	_ = m.Create(context.Background(), user)
	return user
}

func (m *memUsers) remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
}

type memTasks struct {
	mu    sync.Mutex
	seq   int
	tasks []*models.Task
}

func newMemTasks() *memTasks {
	return &memTasks{}
}

func (m *memTasks) Create(_ context.Context, task *models.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	task.ID = fmt.Sprintf("task-%d", m.seq)
	cp := *task
	m.tasks = append(m.tasks, &cp)
	return nil
}

func (m *memTasks) List(_ context.Context, filter storage.TaskFilter) ([]*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tasks := make([]*models.Task, 0)
	for i := len(m.tasks) - 1; i >= 0; i-- {
		t := m.tasks[i]
		if filter.AssignedTo == "" || t.AssignedTo == filter.AssignedTo {
			cp := *t
			tasks = append(tasks, &cp)
		}
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})
	return tasks, nil
}

func (m *memTasks) UpdateStatus(_ context.Context, id, assignedTo string, status models.Status, updatedAt time.Time) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, t := range m.tasks {
		if t.ID == id && t.AssignedTo == assignedTo {
			t.Status = status
			t.UpdatedAt = updatedAt
			cp := *t
			return &cp, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (m *memTasks) CountByAssignee(_ context.Context) (map[string]models.TaskCounts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	counts := make(map[string]models.TaskCounts)
	for _, t := range m.tasks {
		c := counts[t.AssignedTo]
		addCounts(&c, t)
		counts[t.AssignedTo] = c
	}
	return counts, nil
}

func (m *memTasks) Count(_ context.Context, filter storage.TaskFilter) (models.TaskCounts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var c models.TaskCounts
	for _, t := range m.tasks {
		if filter.AssignedTo == "" || t.AssignedTo == filter.AssignedTo {
			addCounts(&c, t)
		}
	}
	return c, nil
}

func (m *memTasks) get(id string) *models.Task {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, t := range m.tasks {
		if t.ID == id {
			cp := *t
			return &cp
		}
	}
	return nil
}

func addCounts(c *models.TaskCounts, t *models.Task) {
	c.Total++
	switch t.Status {
	case models.StatusCompleted:
		c.Completed++
	case models.StatusPending:
		c.Pending++
	}
	if t.Priority == models.PriorityHigh {
		c.HighPriority++
	}
}

type memSessions struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
}

func newMemSessions() *memSessions {
	return &memSessions{sessions: make(map[string]*models.Session)}
}

func (m *memSessions) Create(_ context.Context, session *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *session
	m.sessions[session.ID] = &cp
	return nil
}

func (m *memSessions) GetByID(_ context.Context, id string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memSessions) GetByRefreshToken(_ context.Context, refreshToken, fingerprint string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.sessions {
		if s.RefreshToken == refreshToken && s.Fingerprint == fingerprint {
			cp := *s
			return &cp, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (m *memSessions) Rotate(_ context.Context, session *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[session.ID]
	if !ok {
		return storage.ErrNotFound
	}
	s.RefreshToken = session.RefreshToken
	s.ExpiresAt = session.ExpiresAt
	s.UpdatedAt = session.UpdatedAt
	return nil
}

func (m *memSessions) DeleteByUserID(_ context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var deleted int64
	for id, s := range m.sessions {
		if s.UserID == userID {
			delete(m.sessions, id)
			deleted++
		}
	}
	return deleted, nil
}

func (m *memSessions) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
