package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingFetcher struct {
	calls   atomic.Int32
	release chan struct{}
	value   func(n int32) string
	err     error
}

func (f *countingFetcher) fetch(ctx context.Context, key string) (string, error) {
	n := f.calls.Add(1)
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return "", f.err
	}
	if f.value != nil {
		return f.value(n), nil
	}
	return key + "-value", nil
}

func TestGetSingleFlight(t *testing.T) {
	f := &countingFetcher{release: make(chan struct{})}
	c := New(f.fetch, Options{Name: "profiles"})

	const callers = 20
	var wg sync.WaitGroup
	results := make([]string, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = c.Get(context.Background(), "alice")
		}(i)
	}

	require.Eventually(t, func() bool { return f.calls.Load() == 1 }, time.Second, time.Millisecond)
	close(f.release)
	wg.Wait()

	assert.Equal(t, int32(1), f.calls.Load())
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "alice-value", results[i])
	}
}

func TestTTLStaleness(t *testing.T) {
	clock := clockwork.NewFakeClock()
	f := &countingFetcher{}
	c := New(f.fetch, Options{Name: "posts", TTL: 5 * time.Minute, Clock: clock})
	ctx := context.Background()

	_, err := c.Get(ctx, "all")
	require.NoError(t, err)
	assert.Equal(t, int32(1), f.calls.Load())

	clock.Advance(299 * time.Second)
	_, err = c.Get(ctx, "all")
	require.NoError(t, err)
	assert.Equal(t, int32(1), f.calls.Load(), "read before expiry must be served from cache")

	clock.Advance(2 * time.Second)
	_, err = c.Get(ctx, "all")
	require.NoError(t, err)
	assert.Equal(t, int32(2), f.calls.Load(), "read after expiry must refetch")
}

func TestNoTTLNeverExpires(t *testing.T) {
	clock := clockwork.NewFakeClock()
	f := &countingFetcher{}
	c := New(f.fetch, Options{Clock: clock})

	_, _ = c.Get(context.Background(), "bob")
	clock.Advance(24 * time.Hour)
	_, _ = c.Get(context.Background(), "bob")

	assert.Equal(t, int32(1), f.calls.Load())
}

func TestFailedFetchIsNotStored(t *testing.T) {
	boom := errors.New("backend down")
	f := &countingFetcher{err: boom}
	c := New(f.fetch, Options{Name: "avatars"})

	_, err := c.Get(context.Background(), "alice")
	require.ErrorIs(t, err, boom)

	_, ok := c.Peek("alice")
	assert.False(t, ok)

	_, err = c.Get(context.Background(), "alice")
	require.ErrorIs(t, err, boom)
	assert.Equal(t, int32(2), f.calls.Load())
}

func TestInvalidateDuringFlightDiscardsResult(t *testing.T) {
	f := &countingFetcher{
		release: make(chan struct{}),
		value:   func(n int32) string { return map[int32]string{1: "old", 2: "new"}[n] },
	}
	c := New(f.fetch, Options{})

	done := make(chan string)
	go func() {
		v, _ := c.Get(context.Background(), "k")
		done <- v
	}()

	require.Eventually(t, func() bool { return f.calls.Load() == 1 }, time.Second, time.Millisecond)
	c.Invalidate("k")
	f.release <- struct{}{}

	assert.Equal(t, "old", <-done)
	_, ok := c.Peek("k")
	assert.False(t, ok, "superseded fetch must not be stored")

	close(f.release)
	v, err := c.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, "new", v)
}

func TestSetDuringFlightWins(t *testing.T) {
	f := &countingFetcher{release: make(chan struct{}), value: func(int32) string { return "fetched" }}
	c := New(f.fetch, Options{})

	done := make(chan struct{})
	go func() {
		_, _ = c.Get(context.Background(), "k")
		close(done)
	}()

	require.Eventually(t, func() bool { return f.calls.Load() == 1 }, time.Second, time.Millisecond)
	c.Set("k", "written")
	close(f.release)
	<-done

	v, ok := c.Peek("k")
	require.True(t, ok)
	assert.Equal(t, "written", v)
}

func TestCallerCancelDoesNotFailOthers(t *testing.T) {
	f := &countingFetcher{release: make(chan struct{})}
	c := New(f.fetch, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancelled := make(chan error)
	go func() {
		_, err := c.Get(ctx, "k")
		cancelled <- err
	}()
	require.Eventually(t, func() bool { return f.calls.Load() == 1 }, time.Second, time.Millisecond)

	waiting := make(chan string)
	go func() {
		v, _ := c.Get(context.Background(), "k")
		waiting <- v
	}()

	cancel()
	require.ErrorIs(t, <-cancelled, context.Canceled)

	close(f.release)
	assert.Equal(t, "k-value", <-waiting)
	assert.Equal(t, int32(1), f.calls.Load())
}

func TestUpdateAndSubscribe(t *testing.T) {
	c := New(func(context.Context, string) (int, error) { return 1, nil }, Options{})

	var mu sync.Mutex
	var kinds []EventKind
	unsubscribe := c.Subscribe(func(ev Event[int]) {
		mu.Lock()
		kinds = append(kinds, ev.Kind)
		mu.Unlock()
	})

	assert.False(t, c.Update("missing", func(v int) (int, bool) { return v + 1, true }))

	_, err := c.Get(context.Background(), "n")
	require.NoError(t, err)
	assert.True(t, c.Update("n", func(v int) (int, bool) { return v + 1, true }))
	assert.False(t, c.Update("n", func(v int) (int, bool) { return v, false }))

	v, _ := c.Peek("n")
	assert.Equal(t, 2, v)

	c.Invalidate("n")
	unsubscribe()
	c.Set("n", 5)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []EventKind{EventSet, EventUpdate, EventInvalidate}, kinds)
}

func TestRefreshForcesFetch(t *testing.T) {
	f := &countingFetcher{value: func(n int32) string { return map[int32]string{1: "v1", 2: "v2"}[n] }}
	c := New(f.fetch, Options{})

	v, err := c.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, "v1", v)

	v, err = c.Refresh(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, "v2", v)

	got, _ := c.Peek("k")
	assert.Equal(t, "v2", got)
}
