package mongo

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/taskvault/taskvault/internal/core/domain"
)

func TestSetFields_OnlySuppliedFields(t *testing.T) {
	done := true
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	set := setFields(domain.TaskPatch{Completed: &done}, now)

	if len(set) != 2 {
		t.Fatalf("expected completed + updated_at, got %v", set)
	}
	if set["completed"] != true || set["updated_at"] != now {
		t.Fatalf("unexpected $set document: %v", set)
	}
	if _, ok := set["title"]; ok {
		t.Fatalf("title must not be set when absent from patch")
	}
}

func TestMongoTask_ToDomain(t *testing.T) {
	oid := primitive.NewObjectID()
	due := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	doc := mongoTask{ID: oid, Title: "Buy milk", DueDate: &due}

	task := doc.toDomain()

	if task.ID != oid.Hex() || task.Title != "Buy milk" || task.Completed {
		t.Fatalf("unexpected task: %+v", task)
	}
	if task.DueDate == nil || !task.DueDate.Equal(due) {
		t.Fatalf("unexpected due date: %v", task.DueDate)
	}
}

func TestNotFoundOr(t *testing.T) {
	if err := notFoundOr("find task", mongo.ErrNoDocuments); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
	err := notFoundOr("find task", context.DeadlineExceeded)
	if !errors.Is(err, domain.ErrStorage) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected storage error wrapping the cause, got %v", err)
	}
}

func TestTaskRepository_InvalidIDIsNotFound(t *testing.T) {
	// Invalid hex never reaches the driver, so a nil collection is safe here.
	repo := &TaskRepository{}
	ctx := context.Background()

	if _, err := repo.FindByID(ctx, "not-an-object-id"); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Fatalf("FindByID: expected ErrTaskNotFound, got %v", err)
	}
	if _, err := repo.Update(ctx, "123", domain.TaskPatch{}, time.Now()); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Fatalf("Update: expected ErrTaskNotFound, got %v", err)
	}
	if _, err := repo.Delete(ctx, ""); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Fatalf("Delete: expected ErrTaskNotFound, got %v", err)
	}
}

func TestOpen_RequiresDatabase(t *testing.T) {
	if _, err := Open(context.Background(), Config{URI: "mongodb://127.0.0.1:1"}); err == nil {
		t.Fatal("expected an error for an empty database name")
	}
}
