package util

import (
	"math/rand"
	"reflect"
	"sort"
	"testing"
)

func TestSlotHeapEmpty(t *testing.T) {
	h := NewSlotHeap()

	if h.Len() != 0 {
		t.Errorf("New heap should be empty, but has length %d", h.Len())
	}
	if _, ok := h.Peek(); ok {
		t.Error("Peek() on an empty heap should return false")
	}
	if _, ok := h.Pop(); ok {
		t.Error("Pop() on an empty heap should return false")
	}
}

func TestSlotHeapOrder(t *testing.T) {
	h := NewSlotHeap()
	slots := []uint64{7, 3, 9, 0, 5, 1}
	for _, slot := range slots {
		if !h.Push(slot) {
			t.Fatalf("Push(%d) should succeed", slot)
		}
	}

	if slot, ok := h.Peek(); !ok || slot != 0 {
		t.Errorf("Peek() = %d, %v, want 0, true", slot, ok)
	}

	var got []uint64
	for h.Len() > 0 {
		slot, _ := h.Pop()
		got = append(got, slot)
	}

	want := []uint64{0, 1, 3, 5, 7, 9}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Pop order = %v, want %v", got, want)
	}
}

func TestSlotHeapDoublePush(t *testing.T) {
	h := NewSlotHeap()
	h.Push(4)

	if h.Push(4) {
		t.Error("second Push(4) should report false")
	}
	if h.Len() != 1 {
		t.Errorf("Len() = %d, want 1", h.Len())
	}
	if !h.Contains(4) || h.Contains(5) {
		t.Error("Contains() reports the wrong membership")
	}

	h.Pop()
	if h.Contains(4) {
		t.Error("Contains(4) after Pop() should be false")
	}
	if !h.Push(4) {
		t.Error("Push(4) after Pop() should succeed")
	}
}

func TestSlotHeapRandom(t *testing.T) {
	h := NewSlotHeap()
	r := rand.New(rand.NewSource(1))

	seen := make(map[uint64]bool)
	var want []uint64
	for i := 0; i < 1000; i++ {
		slot := uint64(r.Intn(500))
		if h.Push(slot) != !seen[slot] {
			t.Fatalf("Push(%d) result does not match membership", slot)
		}
		if !seen[slot] {
			seen[slot] = true
			want = append(want, slot)
		}
	}
	sort.Slice(want, func(i, j int) bool { return want[i] < want[j] })

	for i, w := range want {
		slot, ok := h.Pop()
		if !ok || slot != w {
			t.Fatalf("Pop() #%d = %d, %v, want %d", i, slot, ok, w)
		}
	}
}
