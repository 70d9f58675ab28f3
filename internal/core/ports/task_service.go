package ports

import (
	"context"

	"github.com/taskvault/taskvault/internal/core/domain"
)

// TaskService defines use-case operations for tasks.
type TaskService interface {
	Create(ctx context.Context, fields domain.TaskFields) (*domain.Task, error)
	List(ctx context.Context) ([]*domain.Task, error)
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	Update(ctx context.Context, id string, patch domain.TaskPatch) (*domain.Task, error)
	Delete(ctx context.Context, id string) (*domain.Task, error)
}
