package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/promptreel/server/internal/module/ai/task"
)

const (
	taskStatusKeyPrefix = "video:task:"
	taskStatusCacheName = "video_status"
	defaultTaskTTL      = 24 * time.Hour
)

// CacheRecorder receives cache hit and miss counts.
type CacheRecorder interface {
	RecordCacheHit(cache string)
	RecordCacheMiss(cache string)
}

// taskStatusCacheAdapter implements task.StatusCache.
type taskStatusCacheAdapter struct {
	client   redis.Cmdable
	ttl      time.Duration
	recorder CacheRecorder
}

// NewTaskStatusCacheAdapter creates a new task status cache adapter.
func NewTaskStatusCacheAdapter(client redis.Cmdable, ttl time.Duration, recorder CacheRecorder) task.StatusCache {
	if ttl <= 0 {
		ttl = defaultTaskTTL
	}
	return &taskStatusCacheAdapter{client: client, ttl: ttl, recorder: recorder}
}

func (a *taskStatusCacheAdapter) Get(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	val, err := a.client.Get(ctx, taskStatusKeyPrefix+id.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		a.miss()
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task status: %w", err)
	}

	var t task.Task
	if err := json.Unmarshal(val, &t); err != nil {
		// Entry from an incompatible version; treat as a miss.
		a.miss()
		return nil, nil
	}
	if a.recorder != nil {
		a.recorder.RecordCacheHit(taskStatusCacheName)
	}
	return &t, nil
}

func (a *taskStatusCacheAdapter) Set(ctx context.Context, t *task.Task) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode task status: %w", err)
	}
	return a.client.Set(ctx, taskStatusKeyPrefix+t.ID.String(), data, a.ttl).Err()
}

func (a *taskStatusCacheAdapter) miss() {
	if a.recorder != nil {
		a.recorder.RecordCacheMiss(taskStatusCacheName)
	}
}

// Compile-time check
var _ task.StatusCache = (*taskStatusCacheAdapter)(nil)
