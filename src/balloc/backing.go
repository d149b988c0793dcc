package balloc

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// acquireBackingBuffer maps size bytes of anonymous, private memory to back
// a pool. It is the one real syscall boundary in the whole module.
func acquireBackingBuffer(size uint64) ([]byte, error) {
	mem, err := unix.Mmap(-1, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, errors.Wrapf(ErrHostOutOfMemory, "mmap %d bytes: %v", size, err)
	}
	return mem, nil
}

// releaseBackingBuffer unmaps a buffer obtained from acquireBackingBuffer.
func releaseBackingBuffer(mem []byte) error {
	if len(mem) == 0 {
		return nil
	}
	if err := unix.Munmap(mem); err != nil {
		return errors.Wrap(err, "munmap backing buffer")
	}
	return nil
}
