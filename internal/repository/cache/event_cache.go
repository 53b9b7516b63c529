// Package cache puts a Redis read-through cache in front of slug lookups.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"devevent/internal/domain"
)

const (
	slugKeyPrefix    = "devevent:event:slug:"
	versionKeyPrefix = "devevent:event:ver:"
)

// redisClient is the subset of *redis.Client the cache uses.
type redisClient interface {
	MGet(ctx context.Context, keys ...string) *redis.SliceCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
}

type eventCache struct {
	domain.EventRepository
	rdb    redisClient
	ttl    time.Duration
	logger *slog.Logger
}

// entry is the cached form of an event. Version is the slug's version when the
// event was loaded; an entry whose version no longer matches is ignored.
type entry struct {
	Version int64         `json:"v"`
	Event   *domain.Event `json:"e"`
}

// NewEventCache wraps next so that GetBySlug is served from Redis when
// possible. Misses are not cached. Updates bump a per-slug version for both
// the old and the new slug, so a load that raced the update cannot be served
// afterwards. Redis failures are logged and fall through to next.
func NewEventCache(next domain.EventRepository, rdb redisClient, ttl time.Duration, logger *slog.Logger) domain.EventRepository {
	return &eventCache{
		EventRepository: next,
		rdb:             rdb,
		ttl:             ttl,
		logger:          logger,
	}
}

func slugKey(slug string) string {
	return slugKeyPrefix + slug
}

func versionKey(slug string) string {
	return versionKeyPrefix + slug
}

func (c *eventCache) GetBySlug(ctx context.Context, slug string) (*domain.Event, error) {
	version, cacheable := int64(0), false
	vals, err := c.rdb.MGet(ctx, slugKey(slug), versionKey(slug)).Result()
	if err != nil {
		c.logger.Warn("cache: get failed", "slug", slug, "error", err)
	} else if v, ok := parseVersion(vals[1]); !ok {
		c.logger.Warn("cache: bad version", "slug", slug)
	} else {
		version, cacheable = v, true
		if raw, ok := vals[0].(string); ok {
			var cached entry
			switch {
			case json.Unmarshal([]byte(raw), &cached) != nil || cached.Event == nil:
				c.logger.Warn("cache: dropping undecodable entry", "slug", slug)
			case cached.Version == version:
				return cached.Event, nil
			}
		}
	}

	e, err := c.EventRepository.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if cacheable {
		c.store(ctx, slug, version, e)
	}
	return e, nil
}

func (c *eventCache) Update(ctx context.Context, e *domain.Event) error {
	var oldSlug string
	if prev, err := c.EventRepository.GetByID(ctx, e.ID); err == nil {
		oldSlug = prev.Slug
	}
	if err := c.EventRepository.Update(ctx, e); err != nil {
		return err
	}
	slugs := []string{e.Slug}
	if oldSlug != "" && oldSlug != e.Slug {
		slugs = append(slugs, oldSlug)
	}
	keys := make([]string, 0, len(slugs))
	for _, slug := range slugs {
		if err := c.rdb.Incr(ctx, versionKey(slug)).Err(); err != nil {
			c.logger.Warn("cache: version bump failed", "slug", slug, "error", err)
		}
		keys = append(keys, slugKey(slug))
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("cache: evict failed", "slug", e.Slug, "error", err)
	}
	return nil
}

func (c *eventCache) store(ctx context.Context, slug string, version int64, e *domain.Event) {
	raw, err := json.Marshal(entry{Version: version, Event: e})
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, slugKey(slug), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("cache: set failed", "slug", slug, "error", err)
	}
}

// parseVersion reads a version value from MGET. A missing key is version 0.
func parseVersion(v interface{}) (int64, bool) {
	switch v := v.(type) {
	case nil:
		return 0, true
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		return n, err == nil
	}
	return 0, false
}
