package memory

import (
	"errors"
	"fmt"
)

// --------------------------------------------------------------------------
// Constants and Errors
// --------------------------------------------------------------------------

const (
	// PageSize is the unit of growth for every Memory implementation in bytes
	PageSize uint64 = 4096

	// NoLimit disables the MaxPages limit of a memory
	NoLimit uint64 = 0
)

var (
	// ErrOutOfBounds is returned for reads and writes beyond the current size
	ErrOutOfBounds = errors.New("memory: access out of bounds")
	// ErrExhausted is returned if the memory can not grow any further
	ErrExhausted = errors.New("memory: address space exhausted")
	// ErrClosed is returned for any operation on a closed memory
	ErrClosed = errors.New("memory: closed")
)

// --------------------------------------------------------------------------
// Memory Interface
// --------------------------------------------------------------------------

// Memory defines a growable, byte-addressable address space.
// All offsets are absolute byte offsets starting at zero.
type Memory interface {
	// Size returns the current size of the memory in pages.
	Size() (pages uint64)

	// Grow extends the memory by the given number of pages.
	// It returns the size (in pages) before growing. The new pages are zeroed.
	// If the memory can not grow, the size stays unchanged and an error is returned.
	Grow(pages uint64) (prevPages uint64, err error)

	// ReadAt reads len(p) bytes starting at offset into p.
	ReadAt(p []byte, offset uint64) (err error)

	// WriteAt writes p starting at offset.
	WriteAt(p []byte, offset uint64) (err error)

	// Sync flushes all writes to the backing medium (no-op for volatile memories).
	Sync() (err error)

	// Close releases the memory. Any further operation fails with ErrClosed.
	Close() (err error)
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// Bytes returns the size of a memory in bytes
func Bytes(m Memory) uint64 {
	return m.Size() * PageSize
}

// PagesFor returns the number of pages needed to hold n bytes
func PagesFor(n uint64) uint64 {
	return (n + PageSize - 1) / PageSize
}

// EnsureBytes grows the memory such that at least n bytes are addressable
func EnsureBytes(m Memory, n uint64) error {
	have := m.Size()
	need := PagesFor(n)
	if need <= have {
		return nil
	}
	if _, err := m.Grow(need - have); err != nil {
		return fmt.Errorf("failed to grow memory to %d pages: %w", need, err)
	}
	return nil
}

// checkBounds reports ErrOutOfBounds if [offset, offset+n) is not inside size bytes
func checkBounds(offset uint64, n int, size uint64) error {
	end := offset + uint64(n)
	if end < offset || end > size {
		return fmt.Errorf("%w: [%d, %d) exceeds %d bytes", ErrOutOfBounds, offset, end, size)
	}
	return nil
}
