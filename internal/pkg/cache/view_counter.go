package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const (
	viewKeyPrefix = "news:views:"
	dirtySetKey   = "news:views:dirty"
)

// ViewStore persists accumulated view counts
type ViewStore interface {
	AddViews(ctx context.Context, id int64, delta int64) error
}

// ViewCounter counts news views
type ViewCounter interface {
	// Incr records one view
	Incr(ctx context.Context, newsID int64) error
	// Pending returns views recorded but not yet flushed to the store
	Pending(ctx context.Context, newsID int64) (int64, error)
	// Flush moves pending counts into the store and returns how many items were flushed
	Flush(ctx context.Context) (int, error)
}

// RedisViewCounter buffers views in redis and flushes them into the store
type RedisViewCounter struct {
	client *redis.Client
	store  ViewStore
}

// NewRedisViewCounter creates a RedisViewCounter
func NewRedisViewCounter(client *redis.Client, store ViewStore) *RedisViewCounter {
	return &RedisViewCounter{client: client, store: store}
}

func viewKey(id int64) string {
	return viewKeyPrefix + strconv.FormatInt(id, 10)
}

// Incr increments the buffered counter
func (c *RedisViewCounter) Incr(ctx context.Context, newsID int64) error {
	return c.add(ctx, newsID, 1)
}

func (c *RedisViewCounter) add(ctx context.Context, newsID, n int64) error {
	_, err := c.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.IncrBy(ctx, viewKey(newsID), n)
		p.SAdd(ctx, dirtySetKey, newsID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to increment view counter: %w", err)
	}
	return nil
}

// Pending returns the buffered counter
func (c *RedisViewCounter) Pending(ctx context.Context, newsID int64) (int64, error) {
	n, err := c.client.Get(ctx, viewKey(newsID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read view counter: %w", err)
	}
	return n, nil
}

// Flush drains every dirty counter with GETDEL. A failed store write puts the delta back.
func (c *RedisViewCounter) Flush(ctx context.Context) (int, error) {
	members, err := c.client.SMembers(ctx, dirtySetKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to list dirty view counters: %w", err)
	}

	flushed := 0
	for _, member := range members {
		id, err := strconv.ParseInt(member, 10, 64)
		if err != nil {
			c.client.SRem(ctx, dirtySetKey, member)
			continue
		}
		if err := c.client.SRem(ctx, dirtySetKey, member).Err(); err != nil {
			return flushed, fmt.Errorf("failed to clear dirty flag: %w", err)
		}

		delta, err := c.client.GetDel(ctx, viewKey(id)).Int64()
		if errors.Is(err, redis.Nil) || delta == 0 {
			continue
		}
		if err != nil {
			return flushed, fmt.Errorf("failed to drain view counter: %w", err)
		}

		if err := c.store.AddViews(ctx, id, delta); err != nil {
			_ = c.add(ctx, id, delta)
			return flushed, fmt.Errorf("failed to store views for news %d: %w", id, err)
		}
		flushed++
	}
	return flushed, nil
}

// DirectViewCounter writes every view straight to the store; used when redis is not configured
type DirectViewCounter struct {
	store ViewStore
}

// NewDirectViewCounter creates a DirectViewCounter
func NewDirectViewCounter(store ViewStore) *DirectViewCounter {
	return &DirectViewCounter{store: store}
}

// Incr adds one view to the store
func (c *DirectViewCounter) Incr(ctx context.Context, newsID int64) error {
	return c.store.AddViews(ctx, newsID, 1)
}

// Pending is always zero
func (c *DirectViewCounter) Pending(ctx context.Context, newsID int64) (int64, error) {
	return 0, nil
}

// Flush has nothing to do
func (c *DirectViewCounter) Flush(ctx context.Context) (int, error) {
	return 0, nil
}
