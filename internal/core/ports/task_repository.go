package ports

import (
	"context"
	"time"

	"github.com/taskvault/taskvault/internal/core/domain"
)

// TaskRepository defines persistence operations for tasks. Implementations
// return domain.ErrTaskNotFound for unknown IDs and wrap every other failure
// in a *domain.StorageError.
type TaskRepository interface {
	Create(ctx context.Context, t *domain.Task) (*domain.Task, error)
	List(ctx context.Context) ([]*domain.Task, error)
	FindByID(ctx context.Context, id string) (*domain.Task, error)
	// Update atomically sets the fields supplied in patch plus updated_at and
	// returns the new state.
	Update(ctx context.Context, id string, patch domain.TaskPatch, updatedAt time.Time) (*domain.Task, error)
	// Delete removes the task and returns its last state.
	Delete(ctx context.Context, id string) (*domain.Task, error)
}

// TaskCache is an optional read-through cache in front of TaskRepository.
//
// Get reports a miss as a nil task together with the entry's current
// generation. Set stores a task only while that generation is still current,
// so a fill read from the store before an Invalidate is discarded.
type TaskCache interface {
	Get(ctx context.Context, id string) (*domain.Task, int64, error)
	Set(ctx context.Context, t *domain.Task, generation int64) error
	Invalidate(ctx context.Context, id string) error
}
