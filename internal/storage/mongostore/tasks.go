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

type taskDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Title       string             `bson:"title"`
	Description string             `bson:"description,omitempty"`
	AssignedTo  primitive.ObjectID `bson:"assignedTo"`
	AssignedBy  primitive.ObjectID `bson:"assignedBy"`
	Status      string             `bson:"status"`
	Priority    string             `bson:"priority"`
	EndDate     time.Time          `bson:"endDate"`
	CompletedAt *time.Time         `bson:"completedAt,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func (d *taskDocument) model() *models.Task {
	return &models.Task{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Description: d.Description,
		AssignedTo:  d.AssignedTo.Hex(),
		AssignedBy:  d.AssignedBy.Hex(),
		Status:      models.Status(d.Status),
		Priority:    models.Priority(d.Priority),
		EndDate:     d.EndDate,
		CompletedAt: d.CompletedAt,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// countsDocument is the output of the counters $group stage.
type countsDocument struct {
	AssignedTo   primitive.ObjectID `bson:"_id"`
	Total        int64              `bson:"total"`
	Completed    int64              `bson:"completed"`
	Pending      int64              `bson:"pending"`
	HighPriority int64              `bson:"highPriority"`
}

func (d *countsDocument) model() models.TaskCounts {
	return models.TaskCounts{
		Total:        d.Total,
		Completed:    d.Completed,
		Pending:      d.Pending,
		HighPriority: d.HighPriority,
	}
}

type TaskStore struct {
	coll *mongo.Collection
}

func (s *TaskStore) Create(ctx context.Context, task *models.Task) error {
	assignedTo, err := primitive.ObjectIDFromHex(task.AssignedTo)
	if err != nil {
		return fmt.Errorf("invalid assignee id: %w", err)
	}
	assignedBy, err := primitive.ObjectIDFromHex(task.AssignedBy)
	if err != nil {
		return fmt.Errorf("invalid assigner id: %w", err)
	}

	doc := taskDocument{
		ID:          primitive.NewObjectID(),
		Title:       task.Title,
		Description: task.Description,
		AssignedTo:  assignedTo,
		AssignedBy:  assignedBy,
		Status:      string(task.Status),
		Priority:    string(task.Priority),
		EndDate:     task.EndDate,
		CompletedAt: task.CompletedAt,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}

	_, err = s.coll.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}

	task.ID = doc.ID.Hex()
	return nil
}

func (s *TaskStore) List(ctx context.Context, filter storage.TaskFilter) ([]*models.Task, error) {
	match, err := taskMatch(filter)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return []*models.Task{}, nil
		}
		return nil, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := s.coll.Find(ctx, match, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find tasks: %w", err)
	}

	var docs []taskDocument
	err = cursor.All(ctx, &docs)
	if err != nil {
		return nil, fmt.Errorf("failed to decode tasks: %w", err)
	}

	tasks := make([]*models.Task, len(docs))
	for i := range docs {
		tasks[i] = docs[i].model()
	}
	return tasks, nil
}

func (s *TaskStore) UpdateStatus(
	ctx context.Context,
	id, assignedTo string,
	status models.Status,
	updatedAt time.Time,
) (*models.Task, error) {
	taskID, err := objectID(id)
	if err != nil {
		return nil, err
	}
	assigneeID, err := objectID(assignedTo)
	if err != nil {
		return nil, err
	}

	filter := bson.M{"_id": taskID, "assignedTo": assigneeID}
	update := bson.M{"$set": bson.M{
		"status":    string(status),
		"updatedAt": updatedAt,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc taskDocument
	err = s.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update task status: %w", err)
	}
	return doc.model(), nil
}

func (s *TaskStore) CountByAssignee(ctx context.Context) (map[string]models.TaskCounts, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: countersGroup("$assignedTo")}},
	}

	docs, err := s.aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]models.TaskCounts, len(docs))
	for i := range docs {
		counts[docs[i].AssignedTo.Hex()] = docs[i].model()
	}
	return counts, nil
}

func (s *TaskStore) Count(ctx context.Context, filter storage.TaskFilter) (models.TaskCounts, error) {
	match, err := taskMatch(filter)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.TaskCounts{}, nil
		}
		return models.TaskCounts{}, err
	}

	// Grouping by a constant folds every matched task into one row,
	// and assignedTo decodes as the zero ObjectID.
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: countersGroup(primitive.NilObjectID)}},
	}

	docs, err := s.aggregate(ctx, pipeline)
	if err != nil {
		return models.TaskCounts{}, err
	}
	if len(docs) == 0 {
		return models.TaskCounts{}, nil
	}
	return docs[0].model(), nil
}

func (s *TaskStore) aggregate(ctx context.Context, pipeline mongo.Pipeline) ([]countsDocument, error) {
	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate tasks: %w", err)
	}

	var docs []countsDocument
	err = cursor.All(ctx, &docs)
	if err != nil {
		return nil, fmt.Errorf("failed to decode task counters: %w", err)
	}
	return docs, nil
}

func taskMatch(filter storage.TaskFilter) (bson.M, error) {
	match := bson.M{}
	if filter.AssignedTo != "" {
		oid, err := objectID(filter.AssignedTo)
		if err != nil {
			return nil, err
		}
		match["assignedTo"] = oid
	}
	return match, nil
}

func countersGroup(id any) bson.M {
	return bson.M{
		"_id":          id,
		"total":        bson.M{"$sum": 1},
		"completed":    sumIf("status", string(models.StatusCompleted)),
		"pending":      sumIf("status", string(models.StatusPending)),
		"highPriority": sumIf("priority", string(models.PriorityHigh)),
	}
}

func sumIf(field, value string) bson.M {
	return bson.M{"$sum": bson.M{
		"$cond": bson.A{bson.M{"$eq": bson.A{"$" + field, value}}, 1, 0},
	}}
}
