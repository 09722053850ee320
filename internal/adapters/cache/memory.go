// Package cache provides location cache backends: an unbounded map, a
// bounded LRU and a SQLite table that survives restarts.
package cache

import (
	"context"
	"sync"
)

// Memory is an unbounded in-process cache.
type Memory struct {
	mu sync.RWMutex
	m  map[string]string
}

// NewMemory creates an empty Memory cache.
func NewMemory() *Memory {
	return &Memory{m: make(map[string]string)}
}

// Get implements location.Cache.
func (c *Memory) Get(_ context.Context, key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.m[key]
	return v, ok
}

// Put implements location.Cache.
func (c *Memory) Put(_ context.Context, key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = value
}

// Len returns the number of entries.
func (c *Memory) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}
