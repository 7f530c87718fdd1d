package cms

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/geocoder89/clubhub/internal/domain/blog"
	"github.com/geocoder89/clubhub/internal/domain/event"
	"github.com/geocoder89/clubhub/internal/observability"
)

// Cache is satisfied by the in-process cache and the Redis client.
type Cache interface {
	GetBytes(ctx context.Context, key string) ([]byte, bool, error)
	SetBytes(ctx context.Context, key string, val []byte, ttl time.Duration) error
}

const (
	KindEvents = "events"
	KindBlogs  = "blogs"
)

func cacheKey(kind string) string { return "cms:list:v1:" + kind }

// Cached serves lists from cache and refills it from next on a miss.
// Cache failures are logged and bypassed.
type Cached struct {
	next  Source
	cache Cache
	ttl   time.Duration
	log   *slog.Logger
	prom  *observability.Prom
}

func NewCached(next Source, cache Cache, ttl time.Duration, log *slog.Logger, prom *observability.Prom) *Cached {
	if log == nil {
		log = slog.Default()
	}
	return &Cached{next: next, cache: cache, ttl: ttl, log: log, prom: prom}
}

func (c *Cached) Events(ctx context.Context) ([]event.Event, error) {
	return cachedList(ctx, c, KindEvents, c.next.Events)
}

func (c *Cached) Blogs(ctx context.Context) ([]blog.Post, error) {
	return cachedList(ctx, c, KindBlogs, c.next.Blogs)
}

func (c *Cached) count(kind, result string) {
	if c.prom != nil {
		c.prom.ObserveCMS(kind, result)
	}
}

func cachedList[T any](ctx context.Context, c *Cached, kind string, load func(context.Context) ([]T, error)) ([]T, error) {
	key := cacheKey(kind)

	raw, ok, err := c.cache.GetBytes(ctx, key)
	if err != nil {
		c.log.WarnContext(ctx, "cms cache read failed", "key", key, "err", err)
	}
	if ok {
		var items []T
		if err := json.Unmarshal(raw, &items); err == nil {
			c.count(kind, "hit")
			return items, nil
		}
		c.log.WarnContext(ctx, "cms cache entry unreadable", "key", key)
	}

	items, err := load(ctx)
	if err != nil {
		c.count(kind, "error")
		return nil, err
	}
	c.count(kind, "miss")

	if b, err := json.Marshal(items); err == nil {
		if err := c.cache.SetBytes(ctx, key, b, c.ttl); err != nil {
			c.log.WarnContext(ctx, "cms cache write failed", "key", key, "err", err)
		}
	}

	return items, nil
}
