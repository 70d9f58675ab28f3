//go:build integration

package mongo

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/taskvault/taskvault/internal/core/domain"
)

// newTestDB connects to MONGO_URI and returns a throwaway database that is
// dropped when the test ends.
func newTestDB(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}

	ctx := context.Background()
	store, err := Open(ctx, Config{URI: uri, Database: "taskvault_test_" + primitive.NewObjectID().Hex()})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.DB().Drop(ctx)
		_ = store.Close(ctx)
	})
	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}
	return store.DB()
}

func TestIntegrationAuthRepository_UniqueUsername(t *testing.T) {
	db := newTestDB(t)
	repo := NewAuthRepository(db, 5*time.Second)
	ctx := context.Background()

	user := &domain.User{Username: "alice1", PasswordHash: "$2a$10$hash", CreatedAt: time.Now()}
	created, err := repo.Create(ctx, user)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("expected generated id")
	}

	if _, err := repo.Create(ctx, user); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
	n, err := db.Collection(usersCollection).CountDocuments(ctx, bson.M{})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 user, got %d", n)
	}

	found, err := repo.FindByUsername(ctx, "alice1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found.ID != created.ID || found.PasswordHash != user.PasswordHash {
		t.Fatalf("unexpected user: %+v", found)
	}
	if _, err := repo.FindByUsername(ctx, "nobody"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestIntegrationTaskRepository_CRUD(t *testing.T) {
	db := newTestDB(t)
	repo := NewTaskRepository(db, 5*time.Second)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	created, err := repo.Create(ctx, &domain.Task{Title: "Buy milk", Description: "2 litres", CreatedAt: now, UpdatedAt: now})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	done := true
	updated, err := repo.Update(ctx, created.ID, domain.TaskPatch{Completed: &done}, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.Completed || updated.Title != "Buy milk" || updated.Description != "2 litres" {
		t.Fatalf("unexpected update result: %+v", updated)
	}

	tasks, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != created.ID {
		t.Fatalf("unexpected list: %+v", tasks)
	}

	deleted, err := repo.Delete(ctx, created.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !deleted.Completed {
		t.Fatalf("expected last state on delete, got %+v", deleted)
	}
	if _, err := repo.FindByID(ctx, created.ID); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
}
