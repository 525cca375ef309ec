package util

import (
	"container/heap"
)

// SlotHeap is a set of free slot numbers that hands out the lowest slot first.
// Reusing low slots keeps live records close to the start of a region.
//
// A binary heap gives the minimum in O(log n), the index map allows O(1)
// membership checks so a slot can not be freed twice.
//
// Thread-safety: SlotHeap is not thread-safe, callers must synchronize.
type SlotHeap struct {
	slots slotHeap
	index map[uint64]struct{}
}

// NewSlotHeap creates an empty SlotHeap
func NewSlotHeap() *SlotHeap {
	return &SlotHeap{
		slots: make(slotHeap, 0),
		index: make(map[uint64]struct{}),
	}
}

// Len returns the number of free slots
func (h *SlotHeap) Len() int { return len(h.slots) }

// Push adds a free slot. It reports false if the slot already is free.
func (h *SlotHeap) Push(slot uint64) bool {
	if _, exists := h.index[slot]; exists {
		return false
	}
	h.index[slot] = struct{}{}
	heap.Push(&h.slots, slot)
	return true
}

// Peek returns the lowest free slot without removing it
func (h *SlotHeap) Peek() (uint64, bool) {
	if len(h.slots) == 0 {
		return 0, false
	}
	return h.slots[0], true
}

// Pop removes and returns the lowest free slot
func (h *SlotHeap) Pop() (uint64, bool) {
	if len(h.slots) == 0 {
		return 0, false
	}
	slot := heap.Pop(&h.slots).(uint64)
	delete(h.index, slot)
	return slot, true
}

// Contains reports whether slot is free
func (h *SlotHeap) Contains(slot uint64) bool {
	_, exists := h.index[slot]
	return exists
}

// --------------------------------------------------------------------------
// heap.Interface
// --------------------------------------------------------------------------

type slotHeap []uint64

func (s slotHeap) Len() int           { return len(s) }
func (s slotHeap) Less(i, j int) bool { return s[i] < s[j] }
func (s slotHeap) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }

func (s *slotHeap) Push(x interface{}) {
	*s = append(*s, x.(uint64))
}

func (s *slotHeap) Pop() interface{} {
	old := *s
	n := len(old)
	slot := old[n-1]
	*s = old[:n-1]
	return slot
}
