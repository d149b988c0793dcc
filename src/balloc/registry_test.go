package balloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetRegistry forces the package-level registry back to its zero state
// between tests, since it is process-wide global state.
func resetRegistry(t *testing.T) {
	t.Helper()
	registryMu.Lock()
	registryInitialized = false
	registryPools = nil
	registryMu.Unlock()
	t.Cleanup(func() {
		registryMu.Lock()
		registryInitialized = false
		registryPools = nil
		registryMu.Unlock()
	})
}

func TestRegistry_InitShutdownLifecycle(t *testing.T) {
	resetRegistry(t)

	assert.ErrorIs(t, Shutdown(), ErrNotInitialized)

	require.NoError(t, Init())
	assert.ErrorIs(t, Init(), ErrAlreadyInitialized)

	require.NoError(t, Shutdown())
	assert.ErrorIs(t, Shutdown(), ErrNotInitialized)
}

func TestRegistry_OpenRequiresInit(t *testing.T) {
	resetRegistry(t)

	_, err := Open(10, FirstFit)
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestRegistry_ShutdownFailsWithLiveManagers(t *testing.T) {
	resetRegistry(t)
	require.NoError(t, Init())

	pm, err := Open(10, FirstFit)
	require.NoError(t, err)

	assert.ErrorIs(t, Shutdown(), ErrLiveManagers)

	require.NoError(t, Close(pm))
	require.NoError(t, Shutdown())
}

func TestRegistry_ClosedSlotsAreNotCompacted(t *testing.T) {
	resetRegistry(t)
	require.NoError(t, Init())

	a, err := Open(10, FirstFit)
	require.NoError(t, err)
	b, err := Open(10, FirstFit)
	require.NoError(t, err)

	require.NoError(t, Close(a))
	assert.Equal(t, 1, LivePoolCount())

	registryMu.Lock()
	assert.Len(t, registryPools, 2, "registry must not compact on close")
	assert.Nil(t, registryPools[0])
	assert.Equal(t, b, registryPools[1])
	registryMu.Unlock()

	require.NoError(t, Close(b))
	require.NoError(t, Shutdown())
}

func TestRegistry_CloseRejectsNonEmptyPool(t *testing.T) {
	resetRegistry(t)
	require.NoError(t, Init())

	pm, err := Open(10, FirstFit)
	require.NoError(t, err)
	h, err := pm.Allocate(5)
	require.NoError(t, err)

	assert.ErrorIs(t, Close(pm), ErrNotEmpty)

	require.NoError(t, pm.Deallocate(h))
	require.NoError(t, Close(pm))
	require.NoError(t, Shutdown())
}
