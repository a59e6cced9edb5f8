package mutation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCache struct {
	mu     sync.Mutex
	values map[string]any
	calls  []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: make(map[string]any)}
}

func (f *fakeCache) record(call string) {
	f.calls = append(f.calls, call)
}

func (f *fakeCache) Get(key string) (any, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("get " + key)
	v, ok := f.values[key]
	return v, ok
}

func (f *fakeCache) Set(key string, value any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("set " + key)
	f.values[key] = value
}

func (f *fakeCache) Delete(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("delete " + key)
	delete(f.values, key)
}

func (f *fakeCache) Invalidate(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("invalidate " + key)
}

func (f *fakeCache) CancelInFlight(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("cancel " + key)
}

func appendWord(w string) func([]string) []string {
	return func(prev []string) []string {
		next := make([]string, 0, len(prev)+1)
		next = append(next, prev...)
		return append(next, w)
	}
}

func TestRunSuccessSequence(t *testing.T) {
	c := newFakeCache()
	c.values["k"] = []string{"a"}
	r := NewRunner(c, nil)

	var seenDuringRemote []string
	res, err := Run(context.Background(), r, Mutation[[]string, int]{
		Key:       "k",
		Speculate: appendWord("b"),
		Remote: func(ctx context.Context) (int, error) {
			v := c.values["k"]
			seenDuringRemote = v.([]string)
			return 7, nil
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 7, res)
	assert.Equal(t, []string{"a", "b"}, seenDuringRemote)
	assert.Equal(t, []string{"a", "b"}, c.values["k"])
	assert.Equal(t, []string{"cancel k", "get k", "set k", "invalidate k"}, c.calls)
}

func TestRunFailureRestoresSnapshot(t *testing.T) {
	c := newFakeCache()
	c.values["k"] = []string{"a"}
	r := NewRunner(c, nil)
	boom := errors.New("boom")

	_, err := Run(context.Background(), r, Mutation[[]string, struct{}]{
		Key:       "k",
		Speculate: appendWord("b"),
		Remote: func(ctx context.Context) (struct{}, error) {
			return struct{}{}, boom
		},
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"a"}, c.values["k"])
	assert.NotContains(t, c.calls, "invalidate k")
}

func TestRunFailureOnEmptyKeyDeletes(t *testing.T) {
	c := newFakeCache()
	r := NewRunner(c, nil)

	_, err := Run(context.Background(), r, Mutation[[]string, struct{}]{
		Key:       "k",
		Speculate: appendWord("b"),
		Remote: func(ctx context.Context) (struct{}, error) {
			return struct{}{}, errors.New("nope")
		},
	})
	require.Error(t, err)
	_, ok := c.values["k"]
	assert.False(t, ok)
}

func TestRunReconcile(t *testing.T) {
	c := newFakeCache()
	c.values["k"] = []string{"a"}
	r := NewRunner(c, nil)

	_, err := Run(context.Background(), r, Mutation[[]string, string]{
		Key:       "k",
		Speculate: appendWord("pending"),
		Remote: func(ctx context.Context) (string, error) {
			return "final", nil
		},
		Reconcile: func(current []string, result string) ([]string, bool) {
			next := append([]string(nil), current...)
			next[len(next)-1] = result
			return next, true
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "final"}, c.values["k"])
}

func TestRunSerializesSameKey(t *testing.T) {
	c := newFakeCache()
	c.values["k"] = []string{}
	r := NewRunner(c, nil)

	release := make(chan struct{})
	started := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = Run(context.Background(), r, Mutation[[]string, struct{}]{
			Key:       "k",
			Speculate: appendWord("first"),
			Remote: func(ctx context.Context) (struct{}, error) {
				close(started)
				<-release
				return struct{}{}, errors.New("first failed")
			},
		})
	}()
	<-started

	secondDone := make(chan struct{})
	go func() {
		defer close(secondDone)
		_, _ = Run(context.Background(), r, Mutation[[]string, struct{}]{
			Key:       "k",
			Speculate: appendWord("second"),
			Remote: func(ctx context.Context) (struct{}, error) {
				return struct{}{}, nil
			},
		})
	}()

	select {
	case <-secondDone:
		t.Fatal("second mutation ran while the first held the key")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	wg.Wait()
	<-secondDone

	// the first rollback cannot clobber the second speculative write
	c.mu.Lock()
	defer c.mu.Unlock()
	assert.Equal(t, []string{"second"}, c.values["k"])
}

func TestRunDifferentKeysDoNotBlock(t *testing.T) {
	c := newFakeCache()
	r := NewRunner(c, nil)

	release := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_, _ = Run(context.Background(), r, Mutation[[]string, struct{}]{
			Key: "a",
			Remote: func(ctx context.Context) (struct{}, error) {
				close(started)
				<-release
				return struct{}{}, nil
			},
		})
	}()
	<-started
	defer close(release)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = Run(context.Background(), r, Mutation[[]string, struct{}]{
			Key: "b",
			Remote: func(ctx context.Context) (struct{}, error) {
				return struct{}{}, nil
			},
		})
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("mutation on another key was blocked")
	}
}
