// Package mongostore implements the storage contracts on MongoDB.
package mongostore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/adanyl0v/go-taskdesk/internal/storage"
)

const (
	usersCollection    = "users"
	tasksCollection    = "tasks"
	sessionsCollection = "sessions"
)

type Config struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
	PingTimeout    time.Duration
}

type Storage struct {
	client   *mongo.Client
	users    *UserStore
	tasks    *TaskStore
	sessions *SessionStore
}

// Connect dials MongoDB, verifies the connection and ensures indexes exist.
func Connect(ctx context.Context, cfg Config) (*Storage, error) {
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(cfg.ConnectTimeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()

	err = client.Ping(pingCtx, readpref.Primary())
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping: %w", err)
	}

	s := New(client.Database(cfg.Database))

	err = s.ensureIndexes(ctx)
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

// New builds a Storage on top of an already connected database.
func New(db *mongo.Database) *Storage {
	return &Storage{
		client:   db.Client(),
		users:    &UserStore{coll: db.Collection(usersCollection)},
		tasks:    &TaskStore{coll: db.Collection(tasksCollection)},
		sessions: &SessionStore{coll: db.Collection(sessionsCollection)},
	}
}

func (s *Storage) Users() storage.UserStore { return s.users }
func (s *Storage) Tasks() storage.TaskStore { return s.tasks }
func (s *Storage) Sessions() storage.SessionStore { return s.sessions }
func (s *Storage) Driver() string { return storage.DriverMongo }

func (s *Storage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Storage) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Storage) ensureIndexes(ctx context.Context) error {
	indexes := map[*mongo.Collection][]mongo.IndexModel{
		s.users.coll: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "role", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		s.tasks.coll: {
			{Keys: bson.D{{Key: "assignedTo", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
		s.sessions.coll: {
			{Keys: bson.D{{Key: "userId", Value: 1}}},
			{Keys: bson.D{{Key: "refreshToken", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}

	for coll, models := range indexes {
		_, err := coll.Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", coll.Name(), err)
		}
	}
	return nil
}

// objectID parses a hex id, reporting malformed ids as storage.ErrNotFound.
func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, storage.ErrNotFound
	}
	return oid, nil
}
