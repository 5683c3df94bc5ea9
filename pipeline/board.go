// ABOUTME: Deal board owning the page's deal collection and its stage summary
// ABOUTME: Recomputes the summary after every mutation and supports detach on teardown

package pipeline

import (
	"sync"

	"github.com/harperreed/dealflow/models"
	"github.com/harperreed/dealflow/state"
)

// Board is the local deal collection a pipeline view renders from.
type Board struct {
	deals  *state.Collection[models.Deal]
	stages []string

	// recomputing serializes snapshot, aggregate and publish so a slow
	// recompute never overwrites a newer summary.
	recomputing sync.Mutex

	mu      sync.RWMutex
	summary Summary
	watch   []func(Summary)
}

// NewBoard builds a board over deals using the standard stage order.
func NewBoard(deals []models.Deal) *Board {
	b := &Board{
		deals:  state.NewCollection(deals),
		stages: models.OrderedStages(),
	}
	b.recompute()
	b.deals.OnChange(b.recompute)
	return b
}

func (b *Board) recompute() {
	b.recomputing.Lock()
	defer b.recomputing.Unlock()

	summary := Aggregate(b.deals.Snapshot(), b.stages)

	b.mu.Lock()
	b.summary = summary
	watchers := append([]func(Summary){}, b.watch...)
	b.mu.Unlock()

	for _, fn := range watchers {
		fn(summary)
	}
}

// Watch registers fn to receive every recomputed summary, in order.
// fn must not mutate the board.
func (b *Board) Watch(fn func(Summary)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.watch = append(b.watch, fn)
}

// Summary returns the aggregate for the current local state.
func (b *Board) Summary() Summary {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.summary
}

// Deals returns a snapshot of the local deals.
func (b *Board) Deals() []models.Deal {
	return b.deals.Snapshot()
}

func (b *Board) Find(id int64) (models.Deal, bool) {
	return b.deals.Find(id)
}

// Collection exposes the underlying collection for create/delete merges.
func (b *Board) Collection() *state.Collection[models.Deal] {
	return b.deals
}

// Reload replaces the local deals wholesale.
func (b *Board) Reload(deals []models.Deal) {
	b.deals.Set(deals)
}

// Detach marks the board torn down; late results are dropped.
func (b *Board) Detach() {
	b.deals.Detach()
}

func (b *Board) Detached() bool {
	return b.deals.Detached()
}
