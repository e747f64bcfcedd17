package pgstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/adanyl0v/go-taskdesk/internal/models"
	"github.com/adanyl0v/go-taskdesk/internal/storage"
)

const selectUserColumns = `
SELECT id,
       name,
       username,
       email,
       password,
       role,
       created_at,
       updated_at
FROM users
`

type UserStore struct {
	db querier
}

func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	id, err := newID()
	if err != nil {
		return err
	}

	const insertUserQuery = `
INSERT INTO users (id,
                   name,
                   username,
                   email,
                   password,
                   role,
                   created_at,
                   updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`
	_, err = s.db.Exec(
		ctx,
		insertUserQuery,
		id,
		user.Name,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return storage.ErrDuplicate
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	user.ID = id.String()
	return nil
}

func (s *UserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	userID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return s.getOne(ctx, selectUserColumns+"WHERE id = $1", userID)
}

func (s *UserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getOne(ctx, selectUserColumns+"WHERE username = $1", username)
}

func (s *UserStore) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	user, err := scanUser(s.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to select user: %w", err)
	}
	return user, nil
}

func (s *UserStore) GetByIDs(ctx context.Context, ids []string) (map[string]*models.User, error) {
	userIDs := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		userID, err := parseID(id)
		if err != nil {
			continue
		}
		userIDs = append(userIDs, userID)
	}

	users := make(map[string]*models.User, len(userIDs))
	if len(userIDs) == 0 {
		return users, nil
	}

	list, err := s.list(ctx, selectUserColumns+"WHERE id = ANY($1)", userIDs)
	if err != nil {
		return nil, err
	}
	for _, user := range list {
		users[user.ID] = user
	}
	return users, nil
}

func (s *UserStore) ListByRole(ctx context.Context, role models.Role) ([]*models.User, error) {
	return s.list(ctx, selectUserColumns+"WHERE role = $1\nORDER BY created_at DESC", role)
}

func (s *UserStore) CountByRole(ctx context.Context, role models.Role) (int64, error) {
	const countUsersByRoleQuery = `
SELECT count(*)
FROM users
WHERE role = $1
`
	var n int64
	err := s.db.QueryRow(ctx, countUsersByRoleQuery, role).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

func (s *UserStore) list(ctx context.Context, query string, arg any) ([]*models.User, error) {
	rows, err := s.db.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to select users: %w", err)
	}
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("failed to iterate over rows: %w", err)
	}
	return users, nil
}

func scanUser(row pgx.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}
