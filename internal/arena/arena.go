// Package arena implements an optional pool allocator for value.Value
// cells, grounded in original_source/src/benzl-lval-pool.c: a free list of
// recycled cells backed by fixed-size blocks, avoiding a malloc/free per
// Value the way the teacher's internal/vmregister ArrayPool avoids one per
// array. Installing it is optional; value.NewInt and friends work without
// it by falling back to plain heap allocation.
package arena

import "benzl/internal/value"

const blockSize = 32

// Arena is a free-list pool of *value.Value cells. It is not safe for
// concurrent use; benzl's evaluator is single-threaded (spec.md §5).
type Arena struct {
	blocks    [][]value.Value
	used      int
	free      []*value.Value
	allocated int64
	reused    int64
}

// New creates an empty arena with one block pre-allocated.
func New() *Arena {
	a := &Arena{}
	a.blocks = append(a.blocks, make([]value.Value, blockSize))
	return a
}

// Get returns a cell for the given tag, reusing a freed cell when one is
// available before carving a new one from the current block.
func (a *Arena) Get(tag value.Tag) *value.Value {
	a.allocated++
	if n := len(a.free); n > 0 {
		v := a.free[n-1]
		a.free = a.free[:n-1]
		*v = value.Value{Tag: tag}
		a.reused++
		return v
	}
	block := a.blocks[len(a.blocks)-1]
	if a.used == len(block) {
		a.blocks = append(a.blocks, make([]value.Value, blockSize))
		block = a.blocks[len(a.blocks)-1]
		a.used = 0
	}
	cell := &block[a.used]
	a.used++
	cell.Tag = tag
	return cell
}

// Release returns a cell to the free list; the caller must be certain the
// cell is unreachable. Neither the evaluator nor the builtins call it, so
// cells are only ever carved from blocks and Go's own GC remains the
// source of truth for their lifetime, matching the "logically immutable, reference-counted" model via
// automatic memory management rather than manual retain/release (spec.md
// §9, first re-architecture note).
func (a *Arena) Release(v *value.Value) {
	a.free = append(a.free, v)
}

// Install makes this arena the default allocator for value.New* functions.
func (a *Arena) Install() {
	value.SetAllocator(a.Get)
}

// Stats reports coarse allocation counters, exposed via the stats builtin
// alongside per-builtin call counts.
func (a *Arena) Stats() (allocated, reused int64) {
	return a.allocated, a.reused
}
