package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taskvault/taskvault/internal/core/domain"
)

// minGenerationTTL keeps a generation counter alive well past any request
// that could still be holding the value it read.
const minGenerationTTL = time.Hour

// fillScript writes the entry only while the generation is unchanged.
// KEYS[1] entry, KEYS[2] generation; ARGV[1] payload, ARGV[2] generation, ARGV[3] ttl ms.
var fillScript = redis.NewScript(`
local current = redis.call('GET', KEYS[2]) or '0'
if current ~= ARGV[2] then
	return 0
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
return 1
`)

// TaskCache is a read-through cache of single tasks backed by Redis.
// Key format: task:<id> for the entry, task:<id>:gen for its generation.
type TaskCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTaskCache creates a TaskCache whose entries expire after ttl.
func NewTaskCache(client *redis.Client, ttl time.Duration) *TaskCache {
	return &TaskCache{client: client, ttl: ttl}
}

// Get returns the cached task and the entry's generation. A miss returns a
// nil task.
func (c *TaskCache) Get(ctx context.Context, id string) (*domain.Task, int64, error) {
	vals, err := c.client.MGet(ctx, key(id), generationKey(id)).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("task cache get: %w", err)
	}

	generation, err := parseGeneration(vals[1])
	if err != nil {
		return nil, 0, fmt.Errorf("task cache generation: %w", err)
	}

	raw, ok := vals[0].(string)
	if !ok {
		return nil, generation, nil
	}
	var t domain.Task
	if err := json.Unmarshal([]byte(raw), &t); err != nil {
		// Drop entries we can no longer decode and treat them as a miss.
		_ = c.client.Del(ctx, key(id)).Err()
		return nil, generation, nil
	}
	return &t, generation, nil
}

// Set stores t until the cache TTL elapses, unless the entry was invalidated
// after generation was read.
func (c *TaskCache) Set(ctx context.Context, t *domain.Task, generation int64) error {
	raw, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("task cache encode: %w", err)
	}
	err = fillScript.Run(ctx, c.client,
		[]string{key(t.ID), generationKey(t.ID)},
		string(raw), strconv.FormatInt(generation, 10), c.ttl.Milliseconds(),
	).Err()
	if err != nil {
		return fmt.Errorf("task cache set: %w", err)
	}
	return nil
}

// Invalidate removes the cached copy of a task and bumps its generation so
// fills that started earlier are discarded.
func (c *TaskCache) Invalidate(ctx context.Context, id string) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key(id))
		pipe.Incr(ctx, generationKey(id))
		pipe.PExpire(ctx, generationKey(id), c.generationTTL())
		return nil
	})
	if err != nil {
		return fmt.Errorf("task cache invalidate: %w", err)
	}
	return nil
}

func (c *TaskCache) generationTTL() time.Duration {
	if c.ttl > minGenerationTTL {
		return c.ttl
	}
	return minGenerationTTL
}

func parseGeneration(v any) (int64, error) {
	switch s := v.(type) {
	case nil:
		return 0, nil
	case string:
		return strconv.ParseInt(s, 10, 64)
	default:
		return 0, errors.New("unexpected generation value")
	}
}

func key(id string) string {
	return "task:" + id
}

func generationKey(id string) string {
	return key(id) + ":gen"
}
