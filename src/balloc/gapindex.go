package balloc

const (
	gapIndexInitCapacity = 40
	gapIndexFillFactor   = 0.75
	gapIndexExpandFactor = 2
)

// gapEntry pairs a gap's size with a reference to its node.
type gapEntry struct {
	size uint64
	ref  nodeRef
}

// gapIndex is the size-ordered directory of gap nodes used for best-fit
// search. Entries are sorted strictly ascending by (size, base), ties
// broken by base address. It holds a reference to the slab so it can read
// a node's base address when breaking size ties.
type gapIndex struct {
	entries []gapEntry
	slab    *nodeSlab
}

func newGapIndex(capacity int, slab *nodeSlab) *gapIndex {
	if capacity <= 0 {
		capacity = gapIndexInitCapacity
	}
	return &gapIndex{
		entries: make([]gapEntry, 0, capacity),
		slab:    slab,
	}
}

func (g *gapIndex) len() int {
	return len(g.entries)
}

func (g *gapIndex) fillFactor() float64 {
	if cap(g.entries) == 0 {
		return 1
	}
	return float64(len(g.entries)) / float64(cap(g.entries))
}

func (g *gapIndex) maybeGrow() {
	if g.fillFactor() <= gapIndexFillFactor {
		return
	}
	newCap := cap(g.entries) * gapIndexExpandFactor
	if newCap == 0 {
		newCap = gapIndexInitCapacity
	}
	grown := make([]gapEntry, len(g.entries), newCap)
	copy(grown, g.entries)
	g.entries = grown
	log.Debugw("gap index grown", "new_capacity", newCap)
}

// less reports whether entry a sorts strictly before entry b: ascending by
// size, ties broken by ascending base address.
func (g *gapIndex) less(a, b gapEntry) bool {
	if a.size != b.size {
		return a.size < b.size
	}
	return g.slab.at(a.ref).base < g.slab.at(b.ref).base
}

// insert appends a new entry and bubbles it into sorted position.
func (g *gapIndex) insert(size uint64, ref nodeRef) {
	g.maybeGrow()
	g.entries = append(g.entries, gapEntry{size: size, ref: ref})

	i := len(g.entries) - 1
	for i > 0 && g.less(g.entries[i], g.entries[i-1]) {
		g.entries[i], g.entries[i-1] = g.entries[i-1], g.entries[i]
		i--
	}
}

// remove deletes the entry referencing ref, shifting subsequent entries
// down. Returns ErrNotFoundInIndex if no entry references ref — the index
// and the address list have drifted out of sync.
func (g *gapIndex) remove(ref nodeRef) error {
	idx := -1
	for i, e := range g.entries {
		if e.ref == ref {
			idx = i
			break
		}
	}
	if idx < 0 {
		return invariantViolation(ErrNotFoundInIndex)
	}
	copy(g.entries[idx:], g.entries[idx+1:])
	g.entries = g.entries[:len(g.entries)-1]
	return nil
}

// findBestFit returns the smallest gap whose size is >= size, and among
// equal sizes the lowest-addressed one, by scanning the sorted index from
// the front.
func (g *gapIndex) findBestFit(size uint64) (nodeRef, bool) {
	for _, e := range g.entries {
		if e.size >= size {
			return e.ref, true
		}
	}
	return nilRef, false
}
