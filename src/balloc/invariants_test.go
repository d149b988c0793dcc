package balloc

import "testing"

// checkInvariants re-walks the pool's address list and gap index and
// re-verifies their consistency from scratch. It is gated behind the test
// build only; production code paths never call it.
func (pm *PoolManager) checkInvariants(t *testing.T) {
	t.Helper()

	var (
		sumSizes   uint64
		gapCount   int
		allocCount int
		allocBytes uint64
		prevState  = stateAllocated // sentinel: never equal to gap, so the
		// first iteration's "two adjacent gaps" check is vacuous
		sawFirst bool
	)

	seen := map[nodeRef]bool{}
	for ref := pm.head; ref != nilRef; ref = pm.slab.at(ref).next {
		if seen[ref] {
			t.Fatalf("address list contains a cycle at ref %d", ref)
		}
		seen[ref] = true

		n := pm.slab.at(ref)
		sumSizes += n.size

		if sawFirst && n.state == stateGap && prevState == stateGap {
			t.Fatalf("adjacent gap nodes at ref %d were not coalesced", ref)
		}
		prevState = n.state
		sawFirst = true

		switch n.state {
		case stateGap:
			gapCount++
		case stateAllocated:
			allocCount++
			allocBytes += n.size
		case stateVacant:
			t.Fatalf("vacant node %d is linked into the address list", ref)
		}
	}

	if sumSizes != pm.totalSize {
		t.Fatalf("list sizes sum to %d, want %d", sumSizes, pm.totalSize)
	}

	if gapCount != pm.gapIdx.len() {
		t.Fatalf("%d gap nodes but gap index has %d entries", gapCount, pm.gapIdx.len())
	}
	for _, e := range pm.gapIdx.entries {
		n := pm.slab.at(e.ref)
		if n.state != stateGap {
			t.Fatalf("gap index references non-gap node %d", e.ref)
		}
		if n.size != e.size {
			t.Fatalf("gap index size %d != node size %d for ref %d", e.size, n.size, e.ref)
		}
	}

	for i := 1; i < len(pm.gapIdx.entries); i++ {
		if !pm.gapIdx.less(pm.gapIdx.entries[i-1], pm.gapIdx.entries[i]) {
			t.Fatalf("gap index not sorted at position %d", i)
		}
	}

	if allocBytes+sumGapSizes(pm) != pm.totalSize {
		t.Fatalf("alloc_bytes + gap sizes != total_size")
	}
	if allocCount != pm.allocCount {
		t.Fatalf("computed alloc_count %d != cached %d", allocCount, pm.allocCount)
	}
	if allocBytes != pm.allocBytes {
		t.Fatalf("computed alloc_bytes %d != cached %d", allocBytes, pm.allocBytes)
	}

	used := pm.slab.usedSlots()
	if used != gapCount+allocCount {
		t.Fatalf("used slab slots %d != gap_count+alloc_count %d", used, gapCount+allocCount)
	}
	if used > pm.slab.capacity() {
		t.Fatalf("used slots %d exceed slab capacity %d", used, pm.slab.capacity())
	}
}

func sumGapSizes(pm *PoolManager) uint64 {
	var total uint64
	for _, e := range pm.gapIdx.entries {
		total += e.size
	}
	return total
}
