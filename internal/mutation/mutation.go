// Package mutation runs remote writes optimistically against the query cache:
// the predicted result is visible immediately and rolled back if the remote
// call fails.
package mutation

import (
	"context"
	"io"
	"sync"

	"github.com/charmbracelet/log"
)

// Cache is the part of the query cache a mutation needs.
type Cache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
	Delete(key string)
	Invalidate(key string)
	CancelInFlight(key string)
}

// Runner serializes mutations per cache key.
type Runner struct {
	cache  Cache
	logger *log.Logger

	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

// NewRunner returns a Runner writing to cache.
func NewRunner(cache Cache, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Runner{
		cache:  cache,
		logger: logger,
		locks:  make(map[string]*keyLock),
	}
}

func (r *Runner) lock(key string) func() {
	r.mu.Lock()
	l, ok := r.locks[key]
	if !ok {
		l = &keyLock{}
		r.locks[key] = l
	}
	l.refs++
	r.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		r.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(r.locks, key)
		}
		r.mu.Unlock()
	}
}

// Snapshot is a cache value captured before a speculative write.
type Snapshot struct {
	Key   string
	Value any
	Has   bool
}

// Restore writes the snapshot back verbatim.
func (s Snapshot) Restore(c Cache) {
	if s.Has {
		c.Set(s.Key, s.Value)
		return
	}
	c.Delete(s.Key)
}

// Mutation describes one optimistic write.
type Mutation[T, R any] struct {
	// Key is the cache key holding the affected collection.
	Key string

	// Speculate derives the predicted collection from the current one.
	// prev is the zero value when the key holds nothing.
	Speculate func(prev T) T

	// Remote performs the actual write.
	Remote func(ctx context.Context) (R, error)

	// Reconcile optionally rewrites the cached value with the remote result
	// before the key is invalidated. Returning false leaves the value alone.
	Reconcile func(current T, result R) (T, bool)
}

// Run executes m: cancel in-flight fetches, snapshot, speculative write,
// remote call, then invalidate on success or restore the snapshot on failure.
// The remote error is returned unchanged; Run never retries.
func Run[T, R any](ctx context.Context, r *Runner, m Mutation[T, R]) (R, error) {
	unlock := r.lock(m.Key)
	defer unlock()

	r.cache.CancelInFlight(m.Key)

	prev, has := r.cache.Get(m.Key)
	snap := Snapshot{Key: m.Key, Value: prev, Has: has}

	var typed T
	if has {
		if v, ok := prev.(T); ok {
			typed = v
		}
	}
	if m.Speculate != nil {
		r.cache.Set(m.Key, m.Speculate(typed))
	}

	result, err := m.Remote(ctx)
	if err != nil {
		snap.Restore(r.cache)
		r.logger.Debug("mutation rolled back", "key", m.Key, "err", err)
		return result, err
	}

	if m.Reconcile != nil {
		current, _ := r.cache.Get(m.Key)
		currentT, _ := current.(T)
		if next, ok := m.Reconcile(currentT, result); ok {
			r.cache.Set(m.Key, next)
		}
	}
	r.cache.Invalidate(m.Key)
	r.logger.Debug("mutation committed", "key", m.Key)
	return result, nil
}
