package pgstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/adanyl0v/go-taskdesk/internal/models"
	"github.com/adanyl0v/go-taskdesk/internal/storage"
)

type SessionStore struct {
	db querier
}

func (s *SessionStore) Create(ctx context.Context, session *models.Session) error {
	sessionID, err := parseID(session.ID)
	if err != nil {
		return fmt.Errorf("invalid session id %q", session.ID)
	}
	userID, err := parseID(session.UserID)
	if err != nil {
		return fmt.Errorf("invalid user id %q", session.UserID)
	}

	const insertSessionQuery = `
INSERT INTO sessions (id,
                      user_id,
                      fingerprint,
                      refresh_token,
                      expires_at,
                      created_at,
                      updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`
	_, err = s.db.Exec(
		ctx,
		insertSessionQuery,
		sessionID,
		userID,
		session.Fingerprint,
		session.RefreshToken,
		session.ExpiresAt,
		session.CreatedAt,
		session.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return storage.ErrDuplicate
		}
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

func (s *SessionStore) GetByID(ctx context.Context, id string) (*models.Session, error) {
	sessionID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	const selectSessionByIDQuery = `
SELECT id,
       user_id,
       fingerprint,
       refresh_token,
       expires_at,
       created_at,
       updated_at
FROM sessions
WHERE id = $1
`
	return s.getOne(ctx, selectSessionByIDQuery, sessionID)
}

func (s *SessionStore) GetByRefreshToken(ctx context.Context, refreshToken, fingerprint string) (*models.Session, error) {
	const selectSessionByRefreshTokenQuery = `
SELECT id,
       user_id,
       fingerprint,
       refresh_token,
       expires_at,
       created_at,
       updated_at
FROM sessions
WHERE refresh_token = $1 AND
      fingerprint = $2
`
	return s.getOne(ctx, selectSessionByRefreshTokenQuery, refreshToken, fingerprint)
}

func (s *SessionStore) getOne(ctx context.Context, query string, args ...any) (*models.Session, error) {
	session := &models.Session{}
	err := s.db.QueryRow(ctx, query, args...).Scan(
		&session.ID,
		&session.UserID,
		&session.Fingerprint,
		&session.RefreshToken,
		&session.ExpiresAt,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to select session: %w", err)
	}
	return session, nil
}

func (s *SessionStore) Rotate(ctx context.Context, session *models.Session) error {
	sessionID, err := parseID(session.ID)
	if err != nil {
		return err
	}

	const updateSessionQuery = `
UPDATE sessions
SET refresh_token = $1,
    expires_at = $2,
    updated_at = $3
WHERE id = $4
`
	tag, err := s.db.Exec(
		ctx,
		updateSessionQuery,
		session.RefreshToken,
		session.ExpiresAt,
		session.UpdatedAt,
		sessionID,
	)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *SessionStore) DeleteByUserID(ctx context.Context, userID string) (int64, error) {
	id, err := parseID(userID)
	if err != nil {
		return 0, nil
	}

	const deleteSessionsByUserIDQuery = `
DELETE FROM sessions
       WHERE user_id = $1
`
	tag, err := s.db.Exec(ctx, deleteSessionsByUserIDQuery, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}
