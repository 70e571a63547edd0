package campaigns

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/dovl-commerce/dovl-backend/pkg/db/models"
	"github.com/dovl-commerce/dovl-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const activeCacheBaseTTL = time.Minute

type activeSource interface {
	ListActive(ctx context.Context, now time.Time) ([]models.Campaign, error)
}

type cacheStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CacheKey(parts ...string) string
}

// ActiveCache fronts the active campaign listing with Redis. Concurrent misses
// share one database query.
type ActiveCache struct {
	source  activeSource
	store   cacheStore
	logg    *logger.Logger
	baseTTL time.Duration
	group   singleflight.Group
	now     func() time.Time
}

func NewActiveCache(source activeSource, store cacheStore, logg *logger.Logger) (*ActiveCache, error) {
	if source == nil {
		return nil, fmt.Errorf("campaign source required")
	}
	if store == nil {
		return nil, fmt.Errorf("cache store required")
	}
	return &ActiveCache{
		source:  source,
		store:   store,
		logg:    logg,
		baseTTL: activeCacheBaseTTL,
		now:     time.Now,
	}, nil
}

// ListActive serves the listing from cache and falls back to the database on
// a miss or a cache error.
func (c *ActiveCache) ListActive(ctx context.Context) ([]models.Campaign, error) {
	key := c.store.CacheKey("campaigns", "active")

	raw, err := c.store.Get(ctx, key)
	switch {
	case err == nil:
		var cached []models.Campaign
		if jsonErr := json.Unmarshal([]byte(raw), &cached); jsonErr == nil {
			return cached, nil
		} else if c.logg != nil {
			c.logg.Warn(ctx, "discarding undecodable campaign cache entry")
		}
	case !errors.Is(err, redis.Nil):
		if c.logg != nil {
			c.logg.Error(ctx, "campaign cache read failed", err)
		}
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		list, err := c.source.ListActive(ctx, c.now().UTC())
		if err != nil {
			return nil, err
		}
		c.fill(ctx, key, list)
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.Campaign), nil
}

// Invalidate drops the cached listing so the next read goes to the database.
func (c *ActiveCache) Invalidate(ctx context.Context) {
	key := c.store.CacheKey("campaigns", "active")
	c.group.Forget(key)
	if err := c.store.Del(ctx, key); err != nil && c.logg != nil {
		c.logg.Error(ctx, "campaign cache invalidation failed", err)
	}
}

func (c *ActiveCache) fill(ctx context.Context, key string, list []models.Campaign) {
	payload, err := json.Marshal(list)
	if err != nil {
		return
	}
	jitter := time.Duration(rand.Intn(15)) * time.Second
	if err := c.store.Set(ctx, key, string(payload), c.baseTTL+jitter); err != nil && c.logg != nil {
		c.logg.Error(ctx, "campaign cache write failed", err)
	}
}
