package idalloc

import (
	"encoding/binary"
	"errors"
	"fmt"
	"github.com/ValentinKolb/shelf/lib/memory"
	"math"
)

const (
	magic       = "SIC"
	cellVersion = 1
	cellSize    = 12
	offValue    = 4
)

var (
	// ErrCounterOverflow is returned by Next once the counter reached math.MaxUint64
	ErrCounterOverflow = errors.New("idalloc: counter overflow")
	// ErrCorrupted is returned if the memory contains no valid counter cell
	ErrCorrupted = errors.New("idalloc: corrupted counter cell")
)

// Allocator hands out strictly increasing ids.
//
// Thread-safety: The Allocator is not safe for concurrent use; the caller must
// serialize access.
type Allocator struct {
	mem     memory.Memory
	current uint64
}

// Init attaches an allocator to the given memory.
// On an empty memory a new cell holding initial is written, otherwise the existing
// cell is loaded and initial is ignored.
func Init(mem memory.Memory, initial uint64) (*Allocator, error) {
	a := &Allocator{mem: mem}

	if mem.Size() == 0 {
		if err := memory.EnsureBytes(mem, cellSize); err != nil {
			return nil, err
		}
		cell := make([]byte, cellSize)
		copy(cell, magic)
		cell[3] = cellVersion
		binary.LittleEndian.PutUint64(cell[offValue:], initial)
		if err := mem.WriteAt(cell, 0); err != nil {
			return nil, fmt.Errorf("failed to write counter cell: %w", err)
		}
		a.current = initial
		return a, nil
	}

	cell := make([]byte, cellSize)
	if err := mem.ReadAt(cell, 0); err != nil {
		return nil, fmt.Errorf("failed to read counter cell: %w", err)
	}
	if string(cell[:3]) != magic || cell[3] != cellVersion {
		return nil, ErrCorrupted
	}
	a.current = binary.LittleEndian.Uint64(cell[offValue:])
	return a, nil
}

// Next increments the counter, persists it and returns the new value.
// The first id of a counter initialized with 0 is 1.
func (a *Allocator) Next() (uint64, error) {
	if a.current == math.MaxUint64 {
		return 0, ErrCounterOverflow
	}

	next := a.current + 1
	var value [8]byte
	binary.LittleEndian.PutUint64(value[:], next)
	if err := a.mem.WriteAt(value[:], offValue); err != nil {
		return 0, fmt.Errorf("failed to persist counter: %w", err)
	}

	a.current = next
	return next, nil
}

// Current returns the last issued id (or the initial value if no id was issued yet)
func (a *Allocator) Current() uint64 {
	return a.current
}
