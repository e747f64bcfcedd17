package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/adanyl0v/go-taskdesk/internal/models"
	"github.com/adanyl0v/go-taskdesk/internal/storage"
)

type userDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	Username  string             `bson:"username"`
	Email     string             `bson:"email"`
	Password  string             `bson:"password"`
	Role      string             `bson:"role"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func newUserDocument(user *models.User) userDocument {
	return userDocument{
		Name:      user.Name,
		Username:  user.Username,
		Email:     user.Email,
		Password:  user.PasswordHash,
		Role:      string(user.Role),
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

func (d *userDocument) model() *models.User {
	return &models.User{
		ID:           d.ID.Hex(),
		Name:         d.Name,
		Username:     d.Username,
		Email:        d.Email,
		PasswordHash: d.Password,
		Role:         models.Role(d.Role),
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

type UserStore struct {
	coll *mongo.Collection
}

func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	doc := newUserDocument(user)
	doc.ID = primitive.NewObjectID()

	_, err := s.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return storage.ErrDuplicate
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	user.ID = doc.ID.Hex()
	return nil
}

func (s *UserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return s.findOne(ctx, bson.M{"_id": oid})
}

func (s *UserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"username": username})
}

func (s *UserStore) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var doc userDocument
	err := s.coll.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return doc.model(), nil
}

func (s *UserStore) GetByIDs(ctx context.Context, ids []string) (map[string]*models.User, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := objectID(id)
		if err != nil {
			continue
		}
		oids = append(oids, oid)
	}

	users := make(map[string]*models.User, len(oids))
	if len(oids) == 0 {
		return users, nil
	}

	docs, err := s.find(ctx, bson.M{"_id": bson.M{"$in": oids}}, nil)
	if err != nil {
		return nil, err
	}
	for _, doc := range docs {
		users[doc.ID.Hex()] = doc.model()
	}
	return users, nil
}

func (s *UserStore) ListByRole(ctx context.Context, role models.Role) ([]*models.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	docs, err := s.find(ctx, bson.M{"role": string(role)}, opts)
	if err != nil {
		return nil, err
	}

	users := make([]*models.User, len(docs))
	for i := range docs {
		users[i] = docs[i].model()
	}
	return users, nil
}

func (s *UserStore) CountByRole(ctx context.Context, role models.Role) (int64, error) {
	n, err := s.coll.CountDocuments(ctx, bson.M{"role": string(role)})
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

func (s *UserStore) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]userDocument, error) {
	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find users: %w", err)
	}

	var docs []userDocument
	err = cursor.All(ctx, &docs)
	if err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	return docs, nil
}
