package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/taskvault/taskvault/internal/core/domain"
	"github.com/taskvault/taskvault/internal/pkg/telemetry"
)

const tasksCollection = "tasks"

// TaskRepository implements ports.TaskRepository using MongoDB.
type TaskRepository struct {
	col     *mongo.Collection
	timeout time.Duration
}

func NewTaskRepository(db *mongo.Database, timeout time.Duration) *TaskRepository {
	return &TaskRepository{col: db.Collection(tasksCollection), timeout: timeout}
}

type mongoTask struct {
	ID          primitive.ObjectID `bson:"_id"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	Completed   bool               `bson:"completed"`
	DueDate     *time.Time         `bson:"due_date,omitempty"`
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
}

// Create inserts a new task document with a freshly generated ObjectID.
func (r *TaskRepository) Create(ctx context.Context, t *domain.Task) (_ *domain.Task, err error) {
	ctx, span := telemetry.StartSpan(ctx, "mongo.tasks.insert")
	defer func() { telemetry.End(span, err) }()
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	doc := mongoTask{
		ID:          primitive.NewObjectID(),
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		DueDate:     t.DueDate,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return nil, wrap("insert task", err)
	}
	return doc.toDomain(), nil
}

// List returns every task ordered by _id, i.e. by creation.
func (r *TaskRepository) List(ctx context.Context) (_ []*domain.Task, err error) {
	ctx, span := telemetry.StartSpan(ctx, "mongo.tasks.list")
	defer func() { telemetry.End(span, err) }()
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, wrap("list tasks", err)
	}
	var docs []mongoTask
	if err := cur.All(ctx, &docs); err != nil {
		return nil, wrap("decode tasks", err)
	}

	tasks := make([]*domain.Task, 0, len(docs))
	for _, d := range docs {
		tasks = append(tasks, d.toDomain())
	}
	return tasks, nil
}

// FindByID retrieves a task. IDs that are not valid ObjectIDs cannot exist
// and are reported as not found.
func (r *TaskRepository) FindByID(ctx context.Context, id string) (_ *domain.Task, err error) {
	ctx, span := telemetry.StartSpan(ctx, "mongo.tasks.find")
	defer func() { telemetry.End(span, err) }()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrTaskNotFound
	}
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var doc mongoTask
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, notFoundOr("find task", err)
	}
	return doc.toDomain(), nil
}

// Update applies the patch with a single $set so concurrent patches touching
// different fields do not overwrite each other.
func (r *TaskRepository) Update(ctx context.Context, id string, patch domain.TaskPatch, updatedAt time.Time) (_ *domain.Task, err error) {
	ctx, span := telemetry.StartSpan(ctx, "mongo.tasks.update")
	defer func() { telemetry.End(span, err) }()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrTaskNotFound
	}
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc mongoTask
	err = r.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": setFields(patch, updatedAt)}, opts).Decode(&doc)
	if err != nil {
		return nil, notFoundOr("update task", err)
	}
	return doc.toDomain(), nil
}

// Delete removes a task and returns the document as it was before removal.
func (r *TaskRepository) Delete(ctx context.Context, id string) (_ *domain.Task, err error) {
	ctx, span := telemetry.StartSpan(ctx, "mongo.tasks.delete")
	defer func() { telemetry.End(span, err) }()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrTaskNotFound
	}
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var doc mongoTask
	if err := r.col.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, notFoundOr("delete task", err)
	}
	return doc.toDomain(), nil
}

func setFields(p domain.TaskPatch, updatedAt time.Time) bson.M {
	set := bson.M{"updated_at": updatedAt.UTC()}
	if p.Title != nil {
		set["title"] = *p.Title
	}
	if p.Description != nil {
		set["description"] = *p.Description
	}
	if p.Completed != nil {
		set["completed"] = *p.Completed
	}
	if p.DueDate != nil {
		set["due_date"] = p.DueDate.UTC()
	}
	return set
}

func notFoundOr(op string, err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.ErrTaskNotFound
	}
	return wrap(op, err)
}

func (d mongoTask) toDomain() *domain.Task {
	t := &domain.Task{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Description: d.Description,
		Completed:   d.Completed,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
	if d.DueDate != nil {
		due := d.DueDate.UTC()
		t.DueDate = &due
	}
	return t
}
