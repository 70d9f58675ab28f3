package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/taskvault/taskvault/internal/api/metrics"
	"github.com/taskvault/taskvault/internal/core/domain"
	"github.com/taskvault/taskvault/internal/core/ports"
	"github.com/taskvault/taskvault/internal/core/validation"
)

type TaskService struct {
	repo   ports.TaskRepository
	cache  ports.TaskCache
	logger zerolog.Logger
	now    func() time.Time
}

// NewTaskService builds a TaskService. cache may be nil.
func NewTaskService(repo ports.TaskRepository, cache ports.TaskCache, logger zerolog.Logger) *TaskService {
	return &TaskService{repo: repo, cache: cache, logger: logger, now: time.Now}
}

// Create sanitizes the fields, applies defaults and persists a new task.
func (s *TaskService) Create(ctx context.Context, fields domain.TaskFields) (*domain.Task, error) {
	fields = validation.SanitizeTaskFields(fields)
	if err := validation.ValidateTaskFields(fields); err != nil {
		return nil, observe("create", err)
	}

	now := s.now().UTC()
	task := &domain.Task{
		Title:       fields.Title,
		Description: fields.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if fields.Completed != nil {
		task.Completed = *fields.Completed
	}
	if fields.DueDate != nil {
		due := fields.DueDate.UTC()
		task.DueDate = &due
	}

	created, err := s.repo.Create(ctx, task)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to create task")
		return nil, observe("create", err)
	}

	s.logger.Info().Str("task_id", created.ID).Msg("task created")
	return created, observe("create", nil)
}

// List returns every task in store order.
func (s *TaskService) List(ctx context.Context) ([]*domain.Task, error) {
	tasks, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list tasks")
		return nil, observe("list", err)
	}
	return tasks, observe("list", nil)
}

// GetByID returns a single task, consulting the cache first when one is configured.
func (s *TaskService) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	fill := s.cache != nil
	var generation int64
	if s.cache != nil {
		cached, gen, err := s.cache.Get(ctx, id)
		switch {
		case err != nil:
			s.logger.Warn().Err(err).Str("task_id", id).Msg("task cache read failed")
			fill = false
		case cached != nil:
			metrics.TaskCacheTotal.WithLabelValues("hit").Inc()
			return cached, observe("get", nil)
		default:
			generation = gen
		}
		metrics.TaskCacheTotal.WithLabelValues("miss").Inc()
	}

	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, observe("get", err)
	}

	if fill {
		s.remember(ctx, task, generation)
	}
	return task, observe("get", nil)
}

// Update merges the supplied fields into the stored task. Fields absent from
// the patch keep their current values.
func (s *TaskService) Update(ctx context.Context, id string, patch domain.TaskPatch) (*domain.Task, error) {
	patch = validation.SanitizeTaskPatch(patch)
	if err := validation.ValidateTaskPatch(patch); err != nil {
		return nil, observe("update", err)
	}

	if patch.IsEmpty() {
		task, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return nil, observe("update", err)
		}
		return task, observe("update", nil)
	}

	updated, err := s.repo.Update(ctx, id, patch, s.now().UTC())
	if err != nil {
		return nil, observe("update", err)
	}

	s.forget(ctx, id)
	s.logger.Info().Str("task_id", id).Msg("task updated")
	return updated, observe("update", nil)
}

// Delete removes the task and returns its last state.
func (s *TaskService) Delete(ctx context.Context, id string) (*domain.Task, error) {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, observe("delete", err)
	}

	s.forget(ctx, id)
	s.logger.Info().Str("task_id", id).Msg("task deleted")
	return deleted, observe("delete", nil)
}

// remember fills the cache with t unless the entry was invalidated after
// generation was read.
func (s *TaskService) remember(ctx context.Context, t *domain.Task, generation int64) {
	if err := s.cache.Set(ctx, t, generation); err != nil {
		s.logger.Warn().Err(err).Str("task_id", t.ID).Msg("task cache write failed")
	}
}

func (s *TaskService) forget(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.logger.Warn().Err(err).Str("task_id", id).Msg("task cache invalidation failed")
	}
}

// observe records the outcome of a task operation and returns err unchanged.
func observe(op string, err error) error {
	metrics.TaskOperationsTotal.WithLabelValues(op, metrics.Outcome(err)).Inc()
	return err
}
