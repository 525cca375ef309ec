package memory

import (
	"sync"
)

// VectorMemory is a volatile Memory backed by a byte slice
type VectorMemory struct {
	mu       sync.RWMutex
	data     []byte
	maxPages uint64
	closed   bool
}

// NewVectorMemory creates an empty in-memory Memory.
// maxPages limits the size of the memory (NoLimit = unlimited).
func NewVectorMemory(maxPages uint64) *VectorMemory {
	return &VectorMemory{
		data:     make([]byte, 0),
		maxPages: maxPages,
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see memory.Memory)
// --------------------------------------------------------------------------

func (v *VectorMemory) Size() uint64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return uint64(len(v.data)) / PageSize
}

func (v *VectorMemory) Grow(pages uint64) (uint64, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	prev := uint64(len(v.data)) / PageSize
	if v.closed {
		return prev, ErrClosed
	}
	if v.maxPages != NoLimit && prev+pages > v.maxPages {
		return prev, ErrExhausted
	}

	grown := make([]byte, (prev+pages)*PageSize)
	copy(grown, v.data)
	v.data = grown

	return prev, nil
}

func (v *VectorMemory) ReadAt(p []byte, offset uint64) error {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if v.closed {
		return ErrClosed
	}
	if err := checkBounds(offset, len(p), uint64(len(v.data))); err != nil {
		return err
	}
	copy(p, v.data[offset:])
	return nil
}

func (v *VectorMemory) WriteAt(p []byte, offset uint64) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return ErrClosed
	}
	if err := checkBounds(offset, len(p), uint64(len(v.data))); err != nil {
		return err
	}
	copy(v.data[offset:], p)
	return nil
}

func (v *VectorMemory) Sync() error {
	return nil
}

func (v *VectorMemory) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closed = true
	v.data = nil
	return nil
}
