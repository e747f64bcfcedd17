package mongostore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/adanyl0v/go-taskdesk/internal/models"
)

func TestUserDocument_PasswordField(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := newUserDocument(&models.User{
		Name:         "Alice",
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "$argon2id$hash",
		Role:         models.RoleEmployee,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	assert.True(t, doc.ID.IsZero())

	raw, err := bson.Marshal(doc)
	require.NoError(t, err)

	var fields bson.M
	require.NoError(t, bson.Unmarshal(raw, &fields))
	assert.NotContains(t, fields, "_id")
	assert.Equal(t, "$argon2id$hash", fields["password"])
	assert.Equal(t, "employee", fields["role"])

	user := doc.model()
	assert.Equal(t, "$argon2id$hash", user.PasswordHash)
	assert.Equal(t, now, user.CreatedAt)
}
