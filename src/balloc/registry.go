package balloc

import "sync"

// registry is the process-wide, grow-only table of open pools. Closed
// slots are nilled in place and never compacted, so a registry index
// remains a stable handle for the lifetime of the process. Unlike
// PoolManager itself, the registry is process-wide shared state and so is
// guarded by a mutex.
var registryMu sync.Mutex
var registryInitialized bool
var registryPools []*PoolManager

// Init brings the registry up. It must be called before Open.
func Init() error {
	registryMu.Lock()
	defer registryMu.Unlock()

	if registryInitialized {
		return ErrAlreadyInitialized
	}
	registryInitialized = true
	registryPools = make([]*PoolManager, 0, 20)
	log.Debugw("registry initialized")
	return nil
}

// Shutdown tears the registry down. It fails if any pool is still open.
func Shutdown() error {
	registryMu.Lock()
	defer registryMu.Unlock()

	if !registryInitialized {
		return ErrNotInitialized
	}
	for _, pm := range registryPools {
		if pm != nil {
			return ErrLiveManagers
		}
	}
	registryPools = nil
	registryInitialized = false
	log.Debugw("registry shut down")
	return nil
}

// Open creates a new pool of the given size and policy and registers it.
func Open(size uint64, policy Policy) (*PoolManager, error) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if !registryInitialized {
		return nil, ErrNotInitialized
	}

	pm, err := openPool(size, policy)
	if err != nil {
		return nil, err
	}

	registryPools = append(registryPools, pm)
	return pm, nil
}

// Close destroys pm, provided it has exactly one gap covering the whole
// buffer and no live allocations.
func Close(pm *PoolManager) error {
	registryMu.Lock()
	defer registryMu.Unlock()

	if !registryInitialized {
		return ErrNotInitialized
	}
	if !pm.isEmpty() {
		return ErrNotEmpty
	}

	idx := -1
	for i, p := range registryPools {
		if p == pm {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrInvalidHandle
	}

	if err := pm.close(); err != nil {
		return err
	}
	registryPools[idx] = nil
	return nil
}

// LivePoolCount reports how many registry slots currently hold an open
// pool. Exposed for diagnostics (cmd/poolstat) and tests.
func LivePoolCount() int {
	registryMu.Lock()
	defer registryMu.Unlock()

	n := 0
	for _, p := range registryPools {
		if p != nil {
			n++
		}
	}
	return n
}
