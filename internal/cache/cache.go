// Package cache provides a keyed in-memory cache with single-flight loading,
// optional TTL staleness and change subscriptions.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/orgball2608/snappy-sync/pkg/logger"
	"golang.org/x/sync/singleflight"
)

// Fetcher loads the authoritative value for key.
type Fetcher[V any] func(ctx context.Context, key string) (V, error)

type EventKind int

const (
	// EventSet fires when a value is stored, either fetched or written with Set.
	EventSet EventKind = iota
	// EventUpdate fires after an in-place patch.
	EventUpdate
	EventInvalidate
)

func (k EventKind) String() string {
	switch k {
	case EventSet:
		return "set"
	case EventUpdate:
		return "update"
	case EventInvalidate:
		return "invalidate"
	default:
		return "unknown"
	}
}

type Event[V any] struct {
	Key   string
	Value V
	Kind  EventKind
}

type Listener[V any] func(Event[V])

type Options struct {
	Name string
	// TTL of zero disables staleness; entries live until invalidated.
	TTL    time.Duration
	Clock  clockwork.Clock
	Logger logger.Logger
}

type entry[V any] struct {
	value     V
	fetchedAt time.Time
}

type Cache[V any] struct {
	name   string
	ttl    time.Duration
	clock  clockwork.Clock
	logger logger.Logger
	fetch  Fetcher[V]
	group  singleflight.Group

	mu      sync.RWMutex
	entries map[string]entry[V]
	// gens is bumped by every write so an older in-flight fetch cannot overwrite it.
	gens map[string]uint64

	listenersMu sync.Mutex
	listeners   map[int]Listener[V]
	nextID      int
}

func New[V any](fetch Fetcher[V], opts Options) *Cache[V] {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	if opts.Name == "" {
		opts.Name = "cache"
	}

	return &Cache[V]{
		name:      opts.Name,
		ttl:       opts.TTL,
		clock:     opts.Clock,
		logger:    opts.Logger.WithComponent(opts.Name),
		fetch:     fetch,
		entries:   make(map[string]entry[V]),
		gens:      make(map[string]uint64),
		listeners: make(map[int]Listener[V]),
	}
}

// Get returns the fresh entry for key, or joins the single in-flight fetch for it.
// Each caller waits on its own ctx; the shared fetch keeps running if one caller gives up.
func (c *Cache[V]) Get(ctx context.Context, key string) (V, error) {
	if v, ok := c.fresh(key); ok {
		return v, nil
	}
	return c.load(ctx, key, false)
}

// Peek returns a populated entry regardless of age. It never fetches.
func (c *Cache[V]) Peek(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	return e.value, ok
}

// Refresh forces a new fetch for key. Fetches already in flight are not joined
// and their results are discarded.
func (c *Cache[V]) Refresh(ctx context.Context, key string) (V, error) {
	c.mu.Lock()
	c.gens[key]++
	c.mu.Unlock()
	c.group.Forget(key)

	return c.load(ctx, key, true)
}

func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	c.gens[key]++
	c.entries[key] = entry[V]{value: value, fetchedAt: c.clock.Now()}
	c.mu.Unlock()

	c.emit(Event[V]{Key: key, Value: value, Kind: EventSet})
}

// Update patches a populated entry in place. fn receives the current value and
// reports whether it changed anything. The entry keeps its original fetch time.
func (c *Cache[V]) Update(key string, fn func(V) (V, bool)) bool {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		c.mu.Unlock()
		return false
	}
	next, changed := fn(e.value)
	if !changed {
		c.mu.Unlock()
		return false
	}
	c.gens[key]++
	c.entries[key] = entry[V]{value: next, fetchedAt: e.fetchedAt}
	c.mu.Unlock()

	c.emit(Event[V]{Key: key, Value: next, Kind: EventUpdate})
	return true
}

func (c *Cache[V]) Invalidate(key string) {
	c.mu.Lock()
	_, existed := c.entries[key]
	delete(c.entries, key)
	c.gens[key]++
	c.mu.Unlock()
	c.group.Forget(key)

	if existed {
		c.emit(Event[V]{Key: key, Kind: EventInvalidate})
	}
}

func (c *Cache[V]) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	return keys
}

// Subscribe registers listener for every change. Listeners run synchronously,
// outside the cache lock, on the goroutine that made the change.
func (c *Cache[V]) Subscribe(listener Listener[V]) (unsubscribe func()) {
	c.listenersMu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = listener
	c.listenersMu.Unlock()

	return func() {
		c.listenersMu.Lock()
		delete(c.listeners, id)
		c.listenersMu.Unlock()
	}
}

func (c *Cache[V]) fresh(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if c.ttl > 0 && c.clock.Since(e.fetchedAt) >= c.ttl {
		return e.value, false
	}
	return e.value, true
}

func (c *Cache[V]) load(ctx context.Context, key string, force bool) (V, error) {
	ch := c.group.DoChan(key, func() (any, error) {
		// A flight that starts right after another one stored the key must not fetch again.
		if !force {
			if v, ok := c.fresh(key); ok {
				return v, nil
			}
		}

		c.mu.RLock()
		gen := c.gens[key]
		c.mu.RUnlock()

		c.logger.Debug("Fetching entry", "key", key)
		v, err := c.fetch(context.WithoutCancel(ctx), key)
		if err != nil {
			c.logger.Warn("Fetch failed, entry left empty", "key", key, "error", err)
			return nil, err
		}

		c.storeIfCurrent(key, v, gen)
		return v, nil
	})

	var zero V
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, fmt.Errorf("%s: load %q: %w", c.name, key, res.Err)
		}
		return res.Val.(V), nil
	}
}

func (c *Cache[V]) storeIfCurrent(key string, value V, gen uint64) {
	c.mu.Lock()
	if c.gens[key] != gen {
		c.mu.Unlock()
		c.logger.Debug("Discarding fetch result superseded by a newer write", "key", key)
		return
	}
	c.gens[key]++
	c.entries[key] = entry[V]{value: value, fetchedAt: c.clock.Now()}
	c.mu.Unlock()

	c.emit(Event[V]{Key: key, Value: value, Kind: EventSet})
}

func (c *Cache[V]) emit(ev Event[V]) {
	c.listenersMu.Lock()
	ls := make([]Listener[V], 0, len(c.listeners))
	for _, l := range c.listeners {
		ls = append(ls, l)
	}
	c.listenersMu.Unlock()

	for _, l := range ls {
		l(ev)
	}
}
