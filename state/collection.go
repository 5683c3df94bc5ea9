// ABOUTME: Page-level entity collection with in-place patching and detach
// ABOUTME: Holds the local copy that optimistic writes mutate and roll back

package state

import (
	"context"
	"sync"

	"github.com/harperreed/dealflow/models"
)

// Collection is a mutex-guarded ordered set of entities keyed by id.
// After Detach every mutation is ignored, so results that arrive once the
// owning view is gone never land anywhere.
type Collection[E models.Entity] struct {
	mu       sync.RWMutex
	items    []E
	detached bool
	onChange func()

	// revs holds a fresh number per id each time that entity is written.
	revs map[int64]uint64
	seq  uint64
}

func NewCollection[E models.Entity](items []E) *Collection[E] {
	c := &Collection[E]{revs: make(map[int64]uint64, len(items))}
	c.items = append(c.items, items...)
	for _, e := range items {
		c.touch(e.GetID())
	}
	return c
}

func (c *Collection[E]) touch(id int64) uint64 {
	if c.revs == nil {
		c.revs = make(map[int64]uint64)
	}
	c.seq++
	c.revs[id] = c.seq
	return c.seq
}

// OnChange registers fn to run after every applied mutation, outside the lock.
func (c *Collection[E]) OnChange(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = fn
}

func (c *Collection[E]) changed(applied bool) bool {
	if !applied {
		return false
	}
	c.mu.RLock()
	fn := c.onChange
	c.mu.RUnlock()
	if fn != nil {
		fn()
	}
	return true
}

// Snapshot returns a copy of the current items.
func (c *Collection[E]) Snapshot() []E {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]E, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Collection[E]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *Collection[E]) Find(id int64) (E, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := c.index(id); i >= 0 {
		return c.items[i], true
	}
	var zero E
	return zero, false
}

func (c *Collection[E]) index(id int64) int {
	for i, e := range c.items {
		if e.GetID() == id {
			return i
		}
	}
	return -1
}

// Set replaces the whole collection, e.g. after a reload.
func (c *Collection[E]) Set(items []E) bool {
	c.mu.Lock()
	applied := !c.detached
	if applied {
		c.items = append(c.items[:0:0], items...)
		clear(c.revs)
		for _, e := range items {
			c.touch(e.GetID())
		}
	}
	c.mu.Unlock()
	return c.changed(applied)
}

// Replace swaps in e for the entity with the same id.
func (c *Collection[E]) Replace(e E) bool {
	c.mu.Lock()
	applied := false
	if !c.detached {
		if i := c.index(e.GetID()); i >= 0 {
			c.items[i] = e
			c.touch(e.GetID())
			applied = true
		}
	}
	c.mu.Unlock()
	return c.changed(applied)
}

// replaceAt swaps in e only if its entity is still at revision rev.
func (c *Collection[E]) replaceAt(e E, rev uint64) bool {
	c.mu.Lock()
	applied := false
	if !c.detached && c.revs[e.GetID()] == rev {
		if i := c.index(e.GetID()); i >= 0 {
			c.items[i] = e
			c.touch(e.GetID())
			applied = true
		}
	}
	c.mu.Unlock()
	return c.changed(applied)
}

// Patch applies fn to the entity with id and returns its previous value.
func (c *Collection[E]) Patch(id int64, fn func(E) E) (E, bool) {
	prev, _, applied := c.patch(id, fn)
	return prev, applied
}

func (c *Collection[E]) patch(id int64, fn func(E) E) (E, uint64, bool) {
	var prev E
	var rev uint64
	c.mu.Lock()
	applied := false
	if !c.detached {
		if i := c.index(id); i >= 0 {
			prev = c.items[i]
			c.items[i] = fn(prev)
			rev = c.touch(id)
			applied = true
		}
	}
	c.mu.Unlock()
	c.changed(applied)
	return prev, rev, applied
}

// Add appends e.
func (c *Collection[E]) Add(e E) bool {
	c.mu.Lock()
	applied := !c.detached
	if applied {
		c.items = append(c.items, e)
		c.touch(e.GetID())
	}
	c.mu.Unlock()
	return c.changed(applied)
}

// Remove deletes the entity with id and returns it.
func (c *Collection[E]) Remove(id int64) (E, bool) {
	var removed E
	c.mu.Lock()
	applied := false
	if !c.detached {
		if i := c.index(id); i >= 0 {
			removed = c.items[i]
			c.items = append(c.items[:i], c.items[i+1:]...)
			delete(c.revs, id)
			applied = true
		}
	}
	c.mu.Unlock()
	c.changed(applied)
	return removed, applied
}

// Detach stops the collection from accepting further mutations.
func (c *Collection[E]) Detach() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.detached = true
}

func (c *Collection[E]) Detached() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.detached
}

// Optimistic applies change to id locally, then runs commit. On success the
// local entity is replaced with the one commit returned; on failure the
// previous value is restored, unless the entity was rewritten meanwhile
// (a reload, say), in which case the newer value stays. Nothing is applied
// once c is detached.
func Optimistic[E models.Entity](ctx context.Context, c *Collection[E], id int64, change func(E) E, commit func(ctx context.Context) (E, error)) (E, error) {
	prev, rev, ok := c.patch(id, change)
	if !ok {
		var zero E
		if c.Detached() {
			return zero, ErrDetached
		}
		return zero, ErrMissing
	}

	saved, err := commit(ctx)
	if err != nil {
		c.replaceAt(prev, rev)
		return prev, err
	}

	c.Replace(saved)
	return saved, nil
}
