package cache

import (
	"context"
	"fmt"
	"io"

	"github.com/okian/isp/internal/domain/location"
	"github.com/okian/isp/pkg/metrics"
)

// Cache kinds accepted by New.
const (
	KindMemory = "memory"
	KindLRU    = "lru"
	KindSQLite = "sqlite"
)

// Sized is implemented by caches that can report their entry count.
type Sized interface {
	Len() int
}

// Options selects and sizes a cache backend.
type Options struct {
	Kind string
	Size int
	Path string
}

// New builds the configured backend wrapped with hit/miss metrics. The
// returned closer releases backend resources and is never nil.
func New(ctx context.Context, o Options) (*Instrumented, io.Closer, error) {
	var (
		backend location.Cache
		closer  io.Closer = nopCloser{}
	)
	switch o.Kind {
	case "", KindMemory:
		backend = NewMemory()
	case KindLRU:
		c, err := NewLRU(o.Size)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %w", ErrOpenCache, err)
		}
		backend = c
	case KindSQLite:
		c, err := OpenSQLite(ctx, o.Path)
		if err != nil {
			return nil, nil, err
		}
		backend, closer = c, c
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownKind, o.Kind)
	}
	return Instrument(backend), closer, nil
}

// Instrumented records cache hits, misses and size.
type Instrumented struct {
	next location.Cache
}

// Instrument wraps c with metrics.
func Instrument(c location.Cache) *Instrumented {
	return &Instrumented{next: c}
}

// Get implements location.Cache.
func (c *Instrumented) Get(ctx context.Context, key string) (string, bool) {
	v, ok := c.next.Get(ctx, key)
	if ok {
		metrics.RecordCacheHit()
	} else {
		metrics.RecordCacheMiss()
	}
	return v, ok
}

// Put implements location.Cache.
func (c *Instrumented) Put(ctx context.Context, key, value string) {
	c.next.Put(ctx, key, value)
	if s, ok := c.next.(Sized); ok {
		metrics.UpdateCacheEntries(s.Len())
	}
}

// Len returns the backend size, or -1 when it cannot tell.
func (c *Instrumented) Len() int {
	if s, ok := c.next.(Sized); ok {
		return s.Len()
	}
	return -1
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
