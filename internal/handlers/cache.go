package handlers

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/AbdRaqeeb/fastfood-api/internal/cache"
)

// Cache key prefixes; writes invalidate the whole prefix.
const (
	cacheCategories = "categories"
	cacheFoods      = "foods"
	cacheCustomers  = "customers"
	cacheCooks      = "cooks"
)

// ResponseCache serves JSON listings cache-aside. A nil store disables caching.
type ResponseCache struct {
	store cache.Store
	ttl   time.Duration
}

// NewResponseCache wraps store with the TTL applied to every entry.
func NewResponseCache(store cache.Store, ttl time.Duration) ResponseCache {
	return ResponseCache{store: store, ttl: ttl}
}

func (rc ResponseCache) serve(c *fiber.Ctx, prefix string, load func() (fiber.Map, error)) error {
	key := cache.Key(prefix, c.OriginalURL())

	if rc.store != nil {
		body, err := rc.store.Get(c.UserContext(), key)
		if err == nil {
			c.Set("X-Cache", "HIT")
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			return c.Send(body)
		}
		if !errors.Is(err, cache.ErrMiss) {
			log.Printf("[Cache] get %s failed: %v", key, err)
		}
	}

	payload, err := load()
	if err != nil {
		return err
	}

	body, err := c.App().Config().JSONEncoder(payload)
	if err != nil {
		return err
	}

	if rc.store != nil {
		if err := rc.store.Set(c.UserContext(), key, body, rc.ttl); err != nil {
			log.Printf("[Cache] set %s failed: %v", key, err)
		}
	}

	c.Set("X-Cache", "MISS")
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(body)
}

func (rc ResponseCache) invalidate(ctx context.Context, prefixes ...string) {
	if rc.store == nil {
		return
	}
	for _, prefix := range prefixes {
		if err := rc.store.DeletePrefix(ctx, prefix+":"); err != nil {
			log.Printf("[Cache] invalidate %s failed: %v", prefix, err)
		}
	}
}
