package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/adanyl0v/go-taskdesk/internal/models"
	"github.com/adanyl0v/go-taskdesk/internal/storage"
)

// Session ids are generated by the auth service, so they are stored as
// plain strings rather than ObjectIDs.
type sessionDocument struct {
	ID           string    `bson:"_id"`
	UserID       string    `bson:"userId"`
	Fingerprint  string    `bson:"fingerprint"`
	RefreshToken string    `bson:"refreshToken"`
	ExpiresAt    time.Time `bson:"expiresAt"`
	CreatedAt    time.Time `bson:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt"`
}

func (d *sessionDocument) model() *models.Session {
	return &models.Session{
		ID:           d.ID,
		UserID:       d.UserID,
		Fingerprint:  d.Fingerprint,
		RefreshToken: d.RefreshToken,
		ExpiresAt:    d.ExpiresAt,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

type SessionStore struct {
	coll *mongo.Collection
}

func (s *SessionStore) Create(ctx context.Context, session *models.Session) error {
	_, err := s.coll.InsertOne(ctx, sessionDocument{
		ID:           session.ID,
		UserID:       session.UserID,
		Fingerprint:  session.Fingerprint,
		RefreshToken: session.RefreshToken,
		ExpiresAt:    session.ExpiresAt,
		CreatedAt:    session.CreatedAt,
		UpdatedAt:    session.UpdatedAt,
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return storage.ErrDuplicate
		}
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

func (s *SessionStore) GetByID(ctx context.Context, id string) (*models.Session, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *SessionStore) GetByRefreshToken(ctx context.Context, refreshToken, fingerprint string) (*models.Session, error) {
	return s.findOne(ctx, bson.M{
		"refreshToken": refreshToken,
		"fingerprint":  fingerprint,
	})
}

func (s *SessionStore) findOne(ctx context.Context, filter bson.M) (*models.Session, error) {
	var doc sessionDocument
	err := s.coll.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	return doc.model(), nil
}

func (s *SessionStore) Rotate(ctx context.Context, session *models.Session) error {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": session.ID},
		bson.M{"$set": bson.M{
			"refreshToken": session.RefreshToken,
			"expiresAt":    session.ExpiresAt,
			"updatedAt":    session.UpdatedAt,
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	if res.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *SessionStore) DeleteByUserID(ctx context.Context, userID string) (int64, error) {
	res, err := s.coll.DeleteMany(ctx, bson.M{"userId": userID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete sessions: %w", err)
	}
	return res.DeletedCount, nil
}
