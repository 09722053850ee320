package cache

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultLRUSize bounds the LRU cache when no size is configured.
const DefaultLRUSize = 10_000

// LRU is a bounded cache that evicts the least recently used location.
type LRU struct {
	c *lru.Cache[string, string]
}

// NewLRU creates an LRU holding at most size entries.
func NewLRU(size int) (*LRU, error) {
	if size <= 0 {
		size = DefaultLRUSize
	}
	c, err := lru.New[string, string](size)
	if err != nil {
		return nil, err
	}
	return &LRU{c: c}, nil
}

// Get implements location.Cache.
func (c *LRU) Get(_ context.Context, key string) (string, bool) {
	return c.c.Get(key)
}

// Put implements location.Cache.
func (c *LRU) Put(_ context.Context, key, value string) {
	c.c.Add(key, value)
}

// Len returns the number of entries.
func (c *LRU) Len() int { return c.c.Len() }
