// Package cache memoises autocomplete results per bucket and key for a short while.
package cache

import (
	"context"
	"log"

	"tribalbot/bot/metrics"
	"tribalbot/utils"
)

// MaxChoices is the number of autocomplete choices Discord accepts.
const MaxChoices = 25

// Store keeps computed results until they expire.
type Store interface {
	// Get returns the result stored under bucket and key if it is still fresh.
	Get(ctx context.Context, bucket, key string) ([]string, bool, error)
	Set(ctx context.Context, bucket, key string, result []string) error
	Delete(ctx context.Context, bucket, key string) error
	// Sweep drops expired entries and reports how many went away.
	Sweep(ctx context.Context) (int, error)
	Close() error
}

// FetchFunc computes the unfiltered result of a lookup.
type FetchFunc func(ctx context.Context) ([]string, error)

type Cache struct {
	store Store
}

func New(store Store) *Cache {
	return &Cache{store: store}
}

// Lookup returns the choices stored under bucket and key that start with current.
// A missing or stale entry is recomputed with fetch and stored unfiltered.
func (c *Cache) Lookup(ctx context.Context, bucket, key, current string, fetch FetchFunc) ([]string, error) {
	result, ok, err := c.store.Get(ctx, bucket, key)
	if err != nil {
		log.Printf("Could not read autocomplete cache: %v", err)
	}

	if ok && len(result) > 0 {
		metrics.AutocompleteLookups.WithLabelValues(bucket, "hit").Inc()
		return utils.FilterPrefix(result, current, MaxChoices), nil
	}

	metrics.AutocompleteLookups.WithLabelValues(bucket, "miss").Inc()

	result, err = fetch(ctx)
	if err != nil {
		return nil, err
	}

	if err := c.store.Set(ctx, bucket, key, result); err != nil {
		log.Printf("Could not write autocomplete cache: %v", err)
	}

	return utils.FilterPrefix(result, current, MaxChoices), nil
}

// Invalidate forgets the entry so the next lookup recomputes it.
func (c *Cache) Invalidate(ctx context.Context, bucket, key string) error {
	return c.store.Delete(ctx, bucket, key)
}

func (c *Cache) Sweep(ctx context.Context) (int, error) {
	return c.store.Sweep(ctx)
}

func (c *Cache) Close() error {
	return c.store.Close()
}
