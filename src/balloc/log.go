package balloc

import "go.uber.org/zap"

// log is the package-wide diagnostic logger. It defaults to a no-op so that
// importing balloc never writes anything unless the caller opts in with
// SetLogger. The package logs debug-level events for pool open/close,
// allocate, deallocate, slab and gap-index growth, and registry
// init/shutdown; failure paths (mmap failure, invariant violations) are
// not logged, only returned as errors.
var log = zap.NewNop().Sugar()

// SetLogger installs l as the package-wide diagnostic logger. Passing nil
// restores the no-op default.
func SetLogger(l *zap.SugaredLogger) {
	if l == nil {
		log = zap.NewNop().Sugar()
		return
	}
	log = l
}
