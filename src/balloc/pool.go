package balloc

import "github.com/pkg/errors"

// Policy selects how Allocate chooses among candidate gaps.
type Policy int

const (
	// FirstFit picks the earliest gap in address-list order with enough
	// room for the request.
	FirstFit Policy = iota
	// BestFit picks the smallest adequate gap, via the gap index; ties
	// broken by lowest base address.
	BestFit
)

func (p Policy) String() string {
	switch p {
	case FirstFit:
		return "first-fit"
	case BestFit:
		return "best-fit"
	default:
		return "unknown"
	}
}

// Handle identifies a single allocation returned by PoolManager.Allocate.
// It is the stable slab index of the underlying node; it stays valid for
// the lifetime of the allocation regardless of any subsequent slab growth.
type Handle = nodeRef

// Stats is a snapshot of a pool's bookkeeping counters. It always matches
// what a fresh walk of the address list would recompute.
type Stats struct {
	TotalSize  uint64
	AllocBytes uint64
	AllocCount int
	GapCount   int
	Policy     Policy
}

// PoolManager owns one backing buffer and the node slab / address list /
// gap index that track its contents. It performs no internal locking: a
// PoolManager is meant for single-threaded use, and any cross-goroutine
// access must be serialized by the caller (the registry, which does lock,
// is the process-wide boundary where that matters).
type PoolManager struct {
	mem    []byte
	slab   *nodeSlab
	gapIdx *gapIndex
	head   nodeRef

	policy     Policy
	totalSize  uint64
	allocBytes uint64
	allocCount int
}

// openPool creates a PoolManager over a freshly acquired backing buffer of
// size bytes, initialized to a single gap node covering the whole buffer.
func openPool(size uint64, policy Policy) (*PoolManager, error) {
	if size == 0 {
		return nil, ErrInvalidSize
	}
	if policy != FirstFit && policy != BestFit {
		return nil, ErrUnknownPolicy
	}

	mem, err := acquireBackingBuffer(size)
	if err != nil {
		return nil, err
	}

	pm := &PoolManager{
		mem:       mem,
		slab:      newNodeSlab(slabInitCapacity),
		policy:    policy,
		totalSize: size,
	}
	pm.gapIdx = newGapIndex(gapIndexInitCapacity, pm.slab)

	head := pm.slab.acquire()
	root := pm.slab.at(head)
	root.base = 0
	root.size = size
	root.state = stateGap
	root.prev = nilRef
	root.next = nilRef
	pm.head = head

	pm.gapIdx.insert(size, head)

	log.Debugw("pool opened", "size", size, "policy", policy.String())
	return pm, nil
}

// close releases the backing buffer. The caller (Close, via the registry)
// has already verified gapCount == 1 && allocCount == 0.
func (pm *PoolManager) close() error {
	if err := releaseBackingBuffer(pm.mem); err != nil {
		return err
	}
	pm.mem = nil
	log.Debugw("pool closed", "size", pm.totalSize)
	return nil
}

// Stats returns the pool's current statistics.
func (pm *PoolManager) Stats() Stats {
	return Stats{
		TotalSize:  pm.totalSize,
		AllocBytes: pm.allocBytes,
		AllocCount: pm.allocCount,
		GapCount:   pm.gapIdx.len(),
		Policy:     pm.policy,
	}
}

// isEmpty reports whether the pool consists of exactly one gap node and no
// allocations — the precondition Close enforces before it will destroy a
// pool.
func (pm *PoolManager) isEmpty() bool {
	return pm.gapIdx.len() == 1 && pm.allocCount == 0
}

// Allocate carves size bytes out of a gap node.
func (pm *PoolManager) Allocate(size uint64) (Handle, error) {
	if size == 0 {
		return nilRef, ErrInvalidSize
	}
	if pm.gapIdx.len() == 0 {
		return nilRef, ErrNoGaps
	}

	// Guarantee a vacant slot will exist for a remainder node before a
	// gap is selected, so a split never has to grow mid-operation.
	pm.slab.maybeGrow()

	gapRef, found := pm.selectGap(size)
	if !found {
		return nilRef, errors.Wrapf(ErrNoFit, "no gap >= %d bytes under %s", size, pm.policy)
	}

	if err := pm.gapIdx.remove(gapRef); err != nil {
		return nilRef, err
	}

	g := pm.slab.at(gapRef)
	remaining := g.size - size
	if remaining > 0 {
		remRef := pm.slab.split(gapRef, size)
		pm.gapIdx.insert(remaining, remRef)
		g = pm.slab.at(gapRef) // defensive re-fetch; the maybeGrow above keeps split from growing the slab
	}

	g.state = stateAllocated
	g.size = size
	pm.allocCount++
	pm.allocBytes += size

	log.Debugw("allocate", "size", size, "base", g.base, "policy", pm.policy.String())
	return gapRef, nil
}

// selectGap picks a candidate gap under the pool's active policy. FirstFit
// walks the address list in order (earliest fit wins); BestFit delegates to
// the gap index (smallest fit wins, ties by lowest base).
func (pm *PoolManager) selectGap(size uint64) (nodeRef, bool) {
	switch pm.policy {
	case BestFit:
		return pm.gapIdx.findBestFit(size)
	default: // FirstFit
		for ref := pm.head; ref != nilRef; ref = pm.slab.at(ref).next {
			n := pm.slab.at(ref)
			if n.state == stateGap && n.size >= size {
				return ref, true
			}
		}
		return nilRef, false
	}
}

// Deallocate marks h's node as a gap and coalesces with gap neighbors.
// Forward coalesce runs before backward coalesce so the backward step
// folds the already-combined size into the predecessor in one shot.
func (pm *PoolManager) Deallocate(h Handle) error {
	if h < 0 || int(h) >= pm.slab.capacity() {
		return ErrInvalidHandle
	}
	n := pm.slab.at(h)
	if n.state != stateAllocated {
		return ErrInvalidHandle
	}

	n.state = stateGap
	pm.allocCount--
	pm.allocBytes -= n.size

	surviving := h

	// Forward coalesce.
	if n.next != nilRef {
		fwd := pm.slab.at(n.next)
		if fwd.state == stateGap {
			fwdRef := n.next
			if err := pm.gapIdx.remove(fwdRef); err != nil {
				return err
			}
			n.size += fwd.size
			pm.slab.unlink(fwdRef)
			pm.slab.release(fwdRef)
		}
	}

	// Backward coalesce: re-fetch n, it may have moved if slab grew
	// (it never does here, but keep the lookup explicit for clarity).
	n = pm.slab.at(surviving)
	if n.prev != nilRef {
		back := pm.slab.at(n.prev)
		if back.state == stateGap {
			prevRef := n.prev
			if err := pm.gapIdx.remove(prevRef); err != nil {
				return err
			}
			back.size += n.size
			pm.slab.unlink(surviving)
			pm.slab.release(surviving)
			surviving = prevRef
		}
	}

	final := pm.slab.at(surviving)
	pm.gapIdx.insert(final.size, surviving)

	log.Debugw("deallocate", "handle", h, "final_size", final.size)
	return nil
}
