package balloc

import "errors"

// Error kinds surfaced by the registry and by individual pool managers.
// Every public operation returns one of these, wrapped with call-site
// context via github.com/pkg/errors where useful, or nil on success.
var (
	// ErrAlreadyInitialized is returned by Init when the registry is
	// already live.
	ErrAlreadyInitialized = errors.New("balloc: registry already initialized")

	// ErrNotInitialized is returned by Shutdown, Open, Close and friends
	// when Init has not been called.
	ErrNotInitialized = errors.New("balloc: registry not initialized")

	// ErrLiveManagers is returned by Shutdown when open pools remain.
	ErrLiveManagers = errors.New("balloc: cannot shut down, pools still open")

	// ErrNoGaps is returned by Allocate when a pool has no gap nodes at all.
	ErrNoGaps = errors.New("balloc: pool has no gaps")

	// ErrNoFit is returned by Allocate when no gap satisfies the request
	// under the pool's policy.
	ErrNoFit = errors.New("balloc: no gap large enough for request")

	// ErrNotEmpty is returned by Close when the pool still has live
	// allocations, or does not consist of exactly one gap.
	ErrNotEmpty = errors.New("balloc: pool is not empty")

	// ErrHostOutOfMemory is returned by Open when mmap cannot map the
	// backing buffer. Slab and gap-index growth do not report it.
	ErrHostOutOfMemory = errors.New("balloc: host allocator out of memory")

	// ErrNotFoundInIndex signals a gap-index consistency violation: a gap
	// node with no matching index entry. This indicates a bug in the pool
	// manager itself, not caller misuse; see PanicOnInvariantViolation.
	ErrNotFoundInIndex = errors.New("balloc: gap not found in gap index")

	// ErrInvalidSize is returned by Open/Allocate for a zero size request.
	ErrInvalidSize = errors.New("balloc: size must be greater than zero")

	// ErrUnknownPolicy is returned by Open for a policy value outside
	// {FirstFit, BestFit}.
	ErrUnknownPolicy = errors.New("balloc: unknown allocation policy")

	// ErrInvalidHandle is returned by Deallocate when the handle does not
	// reference a live allocation in the given pool.
	ErrInvalidHandle = errors.New("balloc: handle does not reference a live allocation")
)

// PanicOnInvariantViolation controls how the pool manager reacts to
// ErrNotFoundInIndex, a fatal bug rather than a recoverable condition:
// production code gets a typed error back (the default, false), while
// test builds can flip this to true to fail loudly and immediately at the
// point of corruption rather than downstream of it.
var PanicOnInvariantViolation = false

func invariantViolation(err error) error {
	if PanicOnInvariantViolation {
		panic(err)
	}
	return err
}
