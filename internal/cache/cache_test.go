package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSetDelete(t *testing.T) {
	c := New()
	_, ok := c.Get("k")
	assert.False(t, ok)

	c.Set("k", []int{1})
	v, ok := Lookup[[]int](c, "k")
	require.True(t, ok)
	assert.Equal(t, []int{1}, v)

	_, ok = Lookup[string](c, "k")
	assert.False(t, ok, "type mismatch reads as absent")

	c.Delete("k")
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestFetchCachesUntilInvalidated(t *testing.T) {
	c := New()
	var calls int32
	fn := func(ctx context.Context) (int, error) {
		return int(atomic.AddInt32(&calls, 1)), nil
	}

	v, err := Fetch(context.Background(), c, "k", fn)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	v, err = Fetch(context.Background(), c, "k", fn)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	c.Invalidate("k")
	assert.True(t, c.IsStale("k"))
	stale, ok := Lookup[int](c, "k")
	assert.True(t, ok, "invalidated value stays readable")
	assert.Equal(t, 1, stale)

	v, err = Fetch(context.Background(), c, "k", fn)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestFetchStaleTime(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := New(WithStaleTime(time.Minute), WithClock(func() time.Time { return now }))
	var calls int32
	fn := func(ctx context.Context) (int32, error) { return atomic.AddInt32(&calls, 1), nil }

	_, err := Fetch(context.Background(), c, "k", fn)
	require.NoError(t, err)
	now = now.Add(30 * time.Second)
	assert.False(t, c.IsStale("k"))
	now = now.Add(time.Minute)
	assert.True(t, c.IsStale("k"))

	v, err := Fetch(context.Background(), c, "k", fn)
	require.NoError(t, err)
	assert.Equal(t, int32(2), v)
}

func TestFetchErrorLeavesCacheUntouched(t *testing.T) {
	c := New()
	c.Set("k", "old")
	c.Invalidate("k")

	_, err := Fetch(context.Background(), c, "k", func(ctx context.Context) (string, error) {
		return "", errors.New("remote down")
	})
	assert.EqualError(t, err, "remote down")

	v, ok := Lookup[string](c, "k")
	assert.True(t, ok)
	assert.Equal(t, "old", v)
}

func TestFetchDedupesConcurrentCallers(t *testing.T) {
	c := New()
	var calls int32
	release := make(chan struct{})
	fn := func(ctx context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return 42, nil
	}

	var wg sync.WaitGroup
	results := make([]int, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := Fetch(context.Background(), c, "k", fn)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for _, v := range results {
		assert.Equal(t, 42, v)
	}
}

func TestCancelInFlightDiscardsResult(t *testing.T) {
	c := New()
	started := make(chan struct{})
	ctxSeen := make(chan context.Context, 1)
	release := make(chan struct{})

	done := make(chan struct{})
	var got []string
	var gotErr error
	go func() {
		defer close(done)
		got, gotErr = Fetch(context.Background(), c, "k", func(ctx context.Context) ([]string, error) {
			ctxSeen <- ctx
			close(started)
			<-release
			return []string{"stale"}, nil
		})
	}()
	<-started

	c.CancelInFlight("k")
	c.Set("k", []string{"speculative"})
	fetchCtx := <-ctxSeen
	assert.ErrorIs(t, fetchCtx.Err(), context.Canceled)

	close(release)
	<-done

	require.NoError(t, gotErr)
	assert.Equal(t, []string{"speculative"}, got)
	v, _ := Lookup[[]string](c, "k")
	assert.Equal(t, []string{"speculative"}, v)
}

func TestFetchOvertakenByWriteDoesNotCommit(t *testing.T) {
	c := New()
	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		// ignores ctx, so only the generation check protects the write
		_, _ = Fetch(context.Background(), c, "k", func(ctx context.Context) (string, error) {
			close(started)
			<-release
			return "stale read", nil
		})
	}()
	<-started
	c.Set("k", "speculative")
	close(release)
	<-done

	v, _ := Lookup[string](c, "k")
	assert.Equal(t, "speculative", v)
}

func TestCancelledFetchWithoutValue(t *testing.T) {
	c := New()
	started := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		_, err := Fetch(context.Background(), c, "k", func(ctx context.Context) (int, error) {
			close(started)
			<-ctx.Done()
			return 0, ctx.Err()
		})
		done <- err
	}()
	<-started
	c.CancelInFlight("k")
	assert.ErrorIs(t, <-done, ErrCancelled)
}

func TestFetchCallerContext(t *testing.T) {
	c := New()
	ctx, cancel := context.WithCancel(context.Background())
	release := make(chan struct{})
	defer close(release)

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, err := Fetch(ctx, c, "k", func(ctx context.Context) (int, error) {
		<-release
		return 1, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClear(t *testing.T) {
	c := New()
	c.Set("a", 1)
	c.Set("b", 2)
	c.Clear()
	_, ok := c.Get("a")
	assert.False(t, ok)
	_, ok = c.Get("b")
	assert.False(t, ok)
}
