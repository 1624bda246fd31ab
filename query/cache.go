// Package query is the console's client-side data cache. Results are keyed
// by entity name; concurrent readers of one key share a single fetch, and a
// mutation invalidates the key so subscribers re-fetch.
package query

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

// Key identifies one cache slot, normally an entity name.
type Key string

// Fetcher loads the data for a key.
type Fetcher func(ctx context.Context) (any, error)

// EventKind says what happened to a key.
type EventKind int

const (
	// Invalidated means the slot was dropped and readers should re-fetch.
	Invalidated EventKind = iota
	// Refreshed means a fetch stored new data in the slot.
	Refreshed
)

// Event is delivered to subscribers of a key.
type Event struct {
	Key  Key
	Kind EventKind
}

// Subscriber receives events for a key. ctx is the context of the call that
// caused the event, so a subscriber that re-fetches does so with the same
// credentials.
type Subscriber func(ctx context.Context, e Event)

// State is a non-blocking snapshot of one slot.
type State struct {
	Data      any
	IsLoading bool
	Err       error
	FetchedAt time.Time
}

type entry struct {
	data      any
	fetchedAt time.Time
}

// Cache holds fetched results until they go stale or are invalidated.
type Cache struct {
	mu      sync.Mutex
	slots   *cache.Cache
	group   singleflight.Group
	gens    map[Key]uint64
	loading map[Key]int
	errs    map[Key]error
	subs    map[Key]map[int]Subscriber
	nextSub int
}

// New creates a Cache whose entries go stale after staleTime.
func New(staleTime time.Duration) *Cache {
	if staleTime <= 0 {
		staleTime = 5 * time.Minute
	}
	return &Cache{
		// No janitor: expired entries are simply not returned.
		slots:   cache.New(staleTime, 0),
		gens:    make(map[Key]uint64),
		loading: make(map[Key]int),
		errs:    make(map[Key]error),
		subs:    make(map[Key]map[int]Subscriber),
	}
}

// Fetch returns the cached data for key, or runs fetch when the slot is
// empty or stale. Callers arriving while a fetch for key is in flight wait
// for it instead of starting another.
//
// The shared fetch runs detached from the caller's cancellation so one
// caller leaving does not fail the others.
func (c *Cache) Fetch(ctx context.Context, key Key, fetch Fetcher) (any, error) {
	if v, ok := c.slots.Get(string(key)); ok {
		return v.(entry).data, nil
	}

	shared := context.WithoutCancel(ctx)
	v, err, _ := c.group.Do(string(key), func() (any, error) {
		c.mu.Lock()
		gen := c.gens[key]
		c.loading[key]++
		c.mu.Unlock()

		data, err := fetch(shared)

		c.mu.Lock()
		c.loading[key]--
		if c.loading[key] <= 0 {
			delete(c.loading, key)
		}
		if err != nil {
			c.errs[key] = err
			c.mu.Unlock()
			return nil, err
		}
		delete(c.errs, key)
		// An invalidation that raced this fetch wins: its data may predate
		// the mutation.
		stored := c.gens[key] == gen
		if stored {
			c.slots.SetDefault(string(key), entry{data: data, fetchedAt: time.Now()})
		}
		subs := c.subscribers(key)
		c.mu.Unlock()

		if stored {
			for _, fn := range subs {
				fn(shared, Event{Key: key, Kind: Refreshed})
			}
		}
		return data, nil
	})
	return v, err
}

// Invalidate drops the slot for key and notifies its subscribers. A fetch
// already in flight for key will not store its result.
func (c *Cache) Invalidate(ctx context.Context, key Key) {
	c.mu.Lock()
	c.gens[key]++
	c.slots.Delete(string(key))
	c.group.Forget(string(key))
	subs := c.subscribers(key)
	c.mu.Unlock()

	for _, fn := range subs {
		fn(ctx, Event{Key: key, Kind: Invalidated})
	}
}

// State returns the current snapshot of key without fetching.
func (c *Cache) State(key Key) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := State{
		IsLoading: c.loading[key] > 0,
		Err:       c.errs[key],
	}
	if v, ok := c.slots.Get(string(key)); ok {
		e := v.(entry)
		st.Data = e.data
		st.FetchedAt = e.fetchedAt
	}
	return st
}

// Subscribe registers fn for events on key. The returned func removes it.
// fn runs synchronously on the goroutine that caused the event, after the
// cache lock is released, so it may call Fetch.
func (c *Cache) Subscribe(key Key, fn Subscriber) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	if c.subs[key] == nil {
		c.subs[key] = make(map[int]Subscriber)
	}
	c.subs[key][id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs[key], id)
			if len(c.subs[key]) == 0 {
				delete(c.subs, key)
			}
			c.mu.Unlock()
		})
	}
}

// subscribers must be called with c.mu held.
func (c *Cache) subscribers(key Key) []Subscriber {
	out := make([]Subscriber, 0, len(c.subs[key]))
	for _, fn := range c.subs[key] {
		out = append(out, fn)
	}
	return out
}
