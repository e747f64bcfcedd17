package mongostore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/adanyl0v/go-taskdesk/internal/models"
	"github.com/adanyl0v/go-taskdesk/internal/storage"
)

func TestObjectID(t *testing.T) {
	oid := primitive.NewObjectID()

	got, err := objectID(oid.Hex())
	require.NoError(t, err)
	assert.Equal(t, oid, got)

	_, err = objectID("not-an-object-id")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestTaskMatch(t *testing.T) {
	match, err := taskMatch(storage.TaskFilter{})
	require.NoError(t, err)
	assert.Empty(t, match)

	oid := primitive.NewObjectID()
	match, err = taskMatch(storage.TaskFilter{AssignedTo: oid.Hex()})
	require.NoError(t, err)
	assert.Equal(t, bson.M{"assignedTo": oid}, match)

	_, err = taskMatch(storage.TaskFilter{AssignedTo: "42"})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCountersGroup(t *testing.T) {
	group := countersGroup("$assignedTo")

	assert.Equal(t, "$assignedTo", group["_id"])
	assert.Equal(t, bson.M{"$sum": 1}, group["total"])
	assert.Equal(t, bson.M{"$sum": bson.M{
		"$cond": bson.A{bson.M{"$eq": bson.A{"$priority", "high"}}, 1, 0},
	}}, group["highPriority"])
	assert.Equal(t, sumIf("status", "completed"), group["completed"])
	assert.Equal(t, sumIf("status", "pending"), group["pending"])
}

func TestCountsDocument_Decode(t *testing.T) {
	oid := primitive.NewObjectID()
	raw, err := bson.Marshal(bson.M{
		"_id":          oid,
		"total":        int32(5),
		"completed":    int32(2),
		"pending":      int32(1),
		"highPriority": int32(3),
	})
	require.NoError(t, err)

	var doc countsDocument
	require.NoError(t, bson.Unmarshal(raw, &doc))

	assert.Equal(t, oid, doc.AssignedTo)
	assert.Equal(t, models.TaskCounts{
		Total:        5,
		Completed:    2,
		Pending:      1,
		HighPriority: 3,
	}, doc.model())
}

func TestTaskDocument_Model(t *testing.T) {
	doc := taskDocument{
		ID:         primitive.NewObjectID(),
		Title:      "Write report",
		AssignedTo: primitive.NewObjectID(),
		AssignedBy: primitive.NewObjectID(),
		Status:     "in-progress",
		Priority:   "low",
	}

	task := doc.model()
	assert.Equal(t, doc.ID.Hex(), task.ID)
	assert.Equal(t, doc.AssignedTo.Hex(), task.AssignedTo)
	assert.Equal(t, doc.AssignedBy.Hex(), task.AssignedBy)
	assert.Equal(t, models.StatusInProgress, task.Status)
	assert.Equal(t, models.PriorityLow, task.Priority)
	assert.Nil(t, task.CompletedAt)
}
