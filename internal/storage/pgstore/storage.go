// Package pgstore implements the storage contracts on PostgreSQL.
package pgstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/adanyl0v/go-taskdesk/internal/storage"
	"github.com/adanyl0v/go-taskdesk/internal/storage/pgstore/migrations"
)

type Config struct {
	Host           string
	Port           int
	Username       string
	Password       string
	Database       string
	SSLMode        string
	ConnectTimeout time.Duration
	PingTimeout    time.Duration
	Migrate        bool
}

func (c Config) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Username, c.Password, c.Host,
		c.Port, c.Database, c.SSLMode)
}

// querier is the subset of *pgxpool.Pool the stores run their queries on.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Storage struct {
	pool     *pgxpool.Pool
	users    *UserStore
	tasks    *TaskStore
	sessions *SessionStore
}

// Connect opens a pool, pings the server and, if configured, applies
// the embedded migrations.
func Connect(ctx context.Context, cfg Config) (*Storage, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL())
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()

	err = pool.Ping(pingCtx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping: %w", err)
	}

	if cfg.Migrate {
		err = migrate(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
	}
	return New(pool), nil
}

func New(pool *pgxpool.Pool) *Storage {
	return &Storage{
		pool:     pool,
		users:    &UserStore{db: pool},
		tasks:    &TaskStore{db: pool},
		sessions: &SessionStore{db: pool},
	}
}

func (s *Storage) Users() storage.UserStore { return s.users }

func (s *Storage) Tasks() storage.TaskStore { return s.tasks }

func (s *Storage) Sessions() storage.SessionStore { return s.sessions }

func (s *Storage) Driver() string { return storage.DriverPostgres }

func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Storage) Close(context.Context) error {
	s.pool.Close()
	return nil
}

func migrate(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	err := goose.SetDialect("postgres")
	if err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}

	err = goose.UpContext(ctx, db, ".")
	if err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// parseID parses a row id, reporting malformed ids as storage.ErrNotFound.
func parseID(id string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, storage.ErrNotFound
	}
	return parsed, nil
}

func newID() (uuid.UUID, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to generate id: %w", err)
	}
	return id, nil
}
