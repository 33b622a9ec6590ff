// Package cache holds the in-memory view of all approval cache entries over
// a durable repo.Store.
//
// The full map is loaded once at startup. Every mutation is serialized under
// one mutex and reaches the store before the in-memory view changes, so a
// storage failure leaves the view exactly as it was.
package cache

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/tbourn/daily-tiers/internal/domain"
	"github.com/tbourn/daily-tiers/internal/repo"
)

// ErrStorage wraps any durable I/O failure.
var ErrStorage = errors.New("storage error")

// Cache is a write-through map of item id to entry.
type Cache struct {
	mu      sync.RWMutex
	store   repo.Store
	entries map[int]domain.CacheEntry
}

// Load builds a Cache populated from store.
func Load(ctx context.Context, store repo.Store) (*Cache, error) {
	list, err := store.LoadEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: load entries: %w", ErrStorage, err)
	}
	m := make(map[int]domain.CacheEntry, len(list))
	for _, e := range list {
		m[e.ItemID] = e
	}
	return &Cache{store: store, entries: m}, nil
}

// Get returns the entry for id, if any.
func (c *Cache) Get(id int) (domain.CacheEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[id]
	return e, ok
}

// Put persists e and then records it in memory.
func (c *Cache) Put(ctx context.Context, e domain.CacheEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.store.PutEntry(ctx, e); err != nil {
		return fmt.Errorf("%w: put %d: %w", ErrStorage, e.ItemID, err)
	}
	c.entries[e.ItemID] = e
	return nil
}

// Update applies fn to the current entry for id under the write lock and
// persists the result. fn returns the new entry, or keep=false to leave the
// cache untouched; ok reports whether an entry existed.
func (c *Cache) Update(ctx context.Context, id int, fn func(cur domain.CacheEntry, ok bool) (next domain.CacheEntry, keep bool, err error)) (domain.CacheEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur, ok := c.entries[id]
	next, keep, err := fn(cur, ok)
	if err != nil || !keep {
		return cur, err
	}
	next.ItemID = id
	if err := c.store.PutEntry(ctx, next); err != nil {
		return cur, fmt.Errorf("%w: put %d: %w", ErrStorage, id, err)
	}
	c.entries[id] = next
	return next, nil
}

// Delete removes the entry for id. Deleting an absent key is a no-op.
func (c *Cache) Delete(ctx context.Context, id int) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[id]; !ok {
		return false, nil
	}
	if err := c.store.DeleteEntry(ctx, id); err != nil {
		return false, fmt.Errorf("%w: delete %d: %w", ErrStorage, id, err)
	}
	delete(c.entries, id)
	return true, nil
}

// Clear removes the given ids, or everything when ids is nil, and returns
// how many entries were removed.
func (c *Cache) Clear(ctx context.Context, ids []int) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.ClearEntries(ctx, ids); err != nil {
		return 0, fmt.Errorf("%w: clear: %w", ErrStorage, err)
	}
	if ids == nil {
		n := len(c.entries)
		c.entries = make(map[int]domain.CacheEntry)
		return n, nil
	}
	n := 0
	for _, id := range ids {
		if _, ok := c.entries[id]; ok {
			delete(c.entries, id)
			n++
		}
	}
	return n, nil
}

// All returns a snapshot of every entry ordered by item id.
func (c *Cache) All() []domain.CacheEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.CacheEntry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemID < out[j].ItemID })
	return out
}

// Len returns the number of entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
