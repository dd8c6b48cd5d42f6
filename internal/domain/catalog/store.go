package catalog

import (
	"context"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"
)

// loadFunc fetches the value of a missing key from the backing store.
type loadFunc[V any] func(ctx context.Context, id uint64) (V, error)

// store is a read-through map keyed by product id. Entries are never evicted.
//
// Concurrent misses on the same key share a single load: the first caller
// runs it, later callers wait for its result. mu is only held for map access,
// never across a load.
type store[V any] struct {
	name  string
	mu    sync.RWMutex
	items map[uint64]V
	group singleflight.Group
}

func newStore[V any](name string) *store[V] {
	return &store[V]{
		name:  name,
		items: make(map[uint64]V),
	}
}

func (s *store[V]) get(id uint64) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.items[id]
	return v, ok
}

// putIfAbsent stores v unless id already has a value, and returns the value
// held by the store afterwards.
func (s *store[V]) putIfAbsent(id uint64, v V) V {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.items[id]; ok {
		return cur
	}
	s.items[id] = v
	return v
}

func (s *store[V]) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.items)
}

// getOrLoad returns the cached value for id, loading and caching it on a
// miss. hit reports whether the value was already cached. Failed loads are
// not cached.
//
// The shared load runs with a context detached from the caller's
// cancellation, so one caller giving up does not fail the others waiting on
// the same key. Each caller still returns as soon as its own ctx is done.
func (s *store[V]) getOrLoad(ctx context.Context, id uint64, load loadFunc[V]) (v V, hit bool, err error) {
	if v, ok := s.get(id); ok {
		return v, true, nil
	}

	ch := s.group.DoChan(strconv.FormatUint(id, 10), func() (any, error) {
		// Another flight may have filled the key after our first check.
		if v, ok := s.get(id); ok {
			return v, nil
		}
		v, err := load(context.WithoutCancel(ctx), id)
		if err != nil {
			return nil, err
		}
		return s.putIfAbsent(id, v), nil
	})

	select {
	case <-ctx.Done():
		return v, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return v, false, res.Err
		}
		return res.Val.(V), false, nil
	}
}
