package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// DefaultCacheSize bounds the read cache when no size is configured.
const DefaultCacheSize = 4096

// CachedStore mirrors recently read or written slots in memory.
// Entries are only replaced by writes through this store and evicted by size;
// they never expire on their own.
type CachedStore struct {
	next  Store
	cache *lru.Cache[string, State]
	loads singleflight.Group // dedupe concurrent misses of the same key
}

// NewCachedStore wraps next with an LRU read cache of the given size.
func NewCachedStore(next Store, size int) (*CachedStore, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, State](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create slot cache: %w", err)
	}
	return &CachedStore{next: next, cache: cache}, nil
}

func (c *CachedStore) Get(ctx context.Context, key string) (State, error) {
	if st, ok := c.cache.Get(key); ok {
		return st, nil
	}
	v, err, _ := c.loads.Do(key, func() (interface{}, error) {
		st, err := c.next.Get(ctx, key)
		if err != nil {
			return State{}, err
		}
		c.cache.Add(key, st)
		return st, nil
	})
	if err != nil {
		return State{}, err
	}
	return v.(State), nil
}

// Set writes through. The cache is only updated after the backing write succeeded.
func (c *CachedStore) Set(ctx context.Context, key string, value any, ts time.Time) error {
	if err := c.next.Set(ctx, key, value, ts); err != nil {
		c.cache.Remove(key)
		return err
	}
	c.cache.Add(key, State{Key: key, Value: value, TS: ts})
	return nil
}

func (c *CachedStore) Delete(ctx context.Context, key string) error {
	c.cache.Remove(key)
	return c.next.Delete(ctx, key)
}

// List always reads the backing store.
func (c *CachedStore) List(ctx context.Context, prefix string) ([]State, error) {
	return c.next.List(ctx, prefix)
}

func (c *CachedStore) Ping(ctx context.Context) error {
	return c.next.Ping(ctx)
}

// Len is the number of cached slots.
func (c *CachedStore) Len() int {
	return c.cache.Len()
}

// IsNotFound reports whether err means the slot does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
