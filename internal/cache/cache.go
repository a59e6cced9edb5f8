// Package cache is the client-side query cache shared by reads and the
// optimistic mutation engine. Values are keyed by logical query name.
package cache

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultStaleTime is how long a fetched value is served without refetching.
const DefaultStaleTime = 24 * time.Hour

// ErrCancelled is returned by Fetch when the fetch was cancelled by
// CancelInFlight and the key holds no value to fall back to.
var ErrCancelled = errors.New("fetch cancelled")

// Cache holds query results. It is safe for concurrent use.
type Cache struct {
	mu        sync.Mutex
	entries   map[string]*entry
	staleTime time.Duration
	now       func() time.Time
	logger    *log.Logger
}

type entry struct {
	value     any
	has       bool
	updatedAt time.Time
	stale     bool

	// gen increases on every write; a fetch commits only if gen is unchanged
	// since it started.
	gen   uint64
	fetch *inflight
}

type inflight struct {
	cancel    context.CancelFunc
	done      chan struct{}
	cancelled bool
	value     any
	err       error
}

// Option configures a Cache.
type Option func(*Cache)

// WithStaleTime overrides DefaultStaleTime. Zero means always refetch.
func WithStaleTime(d time.Duration) Option {
	return func(c *Cache) { c.staleTime = d }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(c *Cache) { c.logger = logger }
}

// New returns an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries:   make(map[string]*entry),
		staleTime: DefaultStaleTime,
		now:       time.Now,
		logger:    log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) entry(key string) *entry {
	e, ok := c.entries[key]
	if !ok {
		e = &entry{}
		c.entries[key] = e
	}
	return e
}

// Get returns the cached value for key.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || !e.has {
		return nil, false
	}
	return e.value, true
}

// Set writes value under key and marks it fresh.
func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entry(key)
	e.value = value
	e.has = true
	e.stale = false
	e.updatedAt = c.now()
	e.gen++
}

// Delete drops the value for key. An in-flight fetch is left running but
// will not commit.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return
	}
	e.value = nil
	e.has = false
	e.stale = false
	e.gen++
}

// Invalidate marks key stale so the next Fetch goes to the remote.
// The current value stays readable.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		e.stale = true
	}
}

// CancelInFlight cancels any running fetch for key. Its result is discarded.
func (c *Cache) CancelInFlight(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || e.fetch == nil {
		return
	}
	e.fetch.cancelled = true
	e.fetch.cancel()
	e.fetch = nil
	c.logger.Debug("cancelled in-flight fetch", "key", key)
}

// Clear drops every entry and cancels every running fetch.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries {
		if e.fetch != nil {
			e.fetch.cancelled = true
			e.fetch.cancel()
		}
	}
	c.entries = make(map[string]*entry)
}

// IsStale reports whether key has no value or needs a refetch.
func (c *Cache) IsStale(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return !ok || c.staleLocked(e)
}

func (c *Cache) staleLocked(e *entry) bool {
	if !e.has || e.stale {
		return true
	}
	return c.now().Sub(e.updatedAt) >= c.staleTime
}

// Lookup returns the cached value for key as a T.
func Lookup[T any](c *Cache, key string) (T, bool) {
	var zero T
	v, ok := c.Get(key)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	if !ok {
		return zero, false
	}
	return t, true
}

// Fetch returns the cached value for key, calling fn when it is missing or
// stale. Concurrent callers share one call to fn. The context handed to fn is
// cancelled by CancelInFlight; a result is stored only if the key was not
// written while fn ran. On error the cache is left untouched.
func Fetch[T any](ctx context.Context, c *Cache, key string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	c.mu.Lock()
	e := c.entry(key)
	if !c.staleLocked(e) {
		v := e.value
		c.mu.Unlock()
		if t, ok := v.(T); ok {
			return t, nil
		}
		return zero, nil
	}

	f := e.fetch
	if f == nil {
		fetchCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		f = &inflight{cancel: cancel, done: make(chan struct{})}
		e.fetch = f
		gen := e.gen
		go c.run(fetchCtx, key, gen, f, func(ctx context.Context) (any, error) { return fn(ctx) })
	}
	c.mu.Unlock()

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-f.done:
	}

	if f.cancelled {
		if v, ok := Lookup[T](c, key); ok {
			return v, nil
		}
		return zero, ErrCancelled
	}
	if f.err != nil {
		return zero, f.err
	}
	t, _ := f.value.(T)
	return t, nil
}

func (c *Cache) run(ctx context.Context, key string, gen uint64, f *inflight, fn func(ctx context.Context) (any, error)) {
	value, err := fn(ctx)
	f.cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	defer close(f.done)

	f.value, f.err = value, err
	e, ok := c.entries[key]
	if ok && e.fetch == f {
		e.fetch = nil
	}
	if f.cancelled {
		return
	}
	if err != nil {
		c.logger.Debug("fetch failed", "key", key, "err", err)
		return
	}
	if !ok || e.gen != gen {
		c.logger.Debug("discarding fetch overtaken by a write", "key", key)
		f.cancelled = true
		return
	}
	e.value = value
	e.has = true
	e.stale = false
	e.updatedAt = c.now()
	e.gen++
}
