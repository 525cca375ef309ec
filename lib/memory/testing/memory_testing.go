package testing

import (
	"bytes"
	"errors"
	"github.com/ValentinKolb/shelf/lib/memory"
	"strconv"
	"testing"
)

// MemoryFactory creates a new, empty Memory limited to maxPages pages (memory.NoLimit = unlimited)
type MemoryFactory func(t testing.TB, maxPages uint64) memory.Memory

// RunMemoryTests runs the conformance suite for a Memory implementation.
func RunMemoryTests(t *testing.T, name string, factory MemoryFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Empty", func(t *testing.T) {
			testEmpty(t, factory(t, memory.NoLimit))
		})

		t.Run("Grow", func(t *testing.T) {
			testGrow(t, factory(t, memory.NoLimit))
		})

		t.Run("ReadWrite", func(t *testing.T) {
			testReadWrite(t, factory(t, memory.NoLimit))
		})

		t.Run("CrossPage", func(t *testing.T) {
			testCrossPage(t, factory(t, memory.NoLimit))
		})

		t.Run("OutOfBounds", func(t *testing.T) {
			testOutOfBounds(t, factory(t, memory.NoLimit))
		})

		t.Run("Exhaustion", func(t *testing.T) {
			testExhaustion(t, factory(t, 4))
		})
	})
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testEmpty(t *testing.T, m memory.Memory) {
	if size := m.Size(); size != 0 {
		t.Fatalf("Expected new memory to be empty, got %d pages", size)
	}
	if err := m.ReadAt(make([]byte, 1), 0); !errors.Is(err, memory.ErrOutOfBounds) {
		t.Errorf("Expected ErrOutOfBounds reading an empty memory, got %v", err)
	}
}

func testGrow(t *testing.T, m memory.Memory) {
	prev, err := m.Grow(2)
	if err != nil {
		t.Fatalf("Failed to grow memory: %v", err)
	}
	if prev != 0 {
		t.Errorf("Expected previous size 0, got %d", prev)
	}

	prev, err = m.Grow(3)
	if err != nil {
		t.Fatalf("Failed to grow memory: %v", err)
	}
	if prev != 2 {
		t.Errorf("Expected previous size 2, got %d", prev)
	}
	if size := m.Size(); size != 5 {
		t.Errorf("Expected size 5, got %d", size)
	}

	// new pages must be zeroed
	buf := make([]byte, memory.PageSize)
	if err := m.ReadAt(buf, 4*memory.PageSize); err != nil {
		t.Fatalf("Failed to read last page: %v", err)
	}
	if !bytes.Equal(buf, make([]byte, memory.PageSize)) {
		t.Errorf("Expected grown page to be zeroed")
	}
}

func testReadWrite(t *testing.T, m memory.Memory) {
	if _, err := m.Grow(1); err != nil {
		t.Fatalf("Failed to grow memory: %v", err)
	}

	data := []byte("hello, region")
	if err := m.WriteAt(data, 100); err != nil {
		t.Fatalf("Failed to write: %v", err)
	}

	got := make([]byte, len(data))
	if err := m.ReadAt(got, 100); err != nil {
		t.Fatalf("Failed to read: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("Read data mismatch: expected %q, got %q", data, got)
	}

	// overwrite part of the data
	if err := m.WriteAt([]byte("J"), 100); err != nil {
		t.Fatalf("Failed to overwrite: %v", err)
	}
	if err := m.ReadAt(got, 100); err != nil {
		t.Fatalf("Failed to read: %v", err)
	}
	if string(got) != "Jello, region" {
		t.Errorf("Expected %q after overwrite, got %q", "Jello, region", got)
	}
}

func testCrossPage(t *testing.T, m memory.Memory) {
	if _, err := m.Grow(3); err != nil {
		t.Fatalf("Failed to grow memory: %v", err)
	}

	// a write spanning three pages
	data := make([]byte, memory.PageSize+200)
	for i := range data {
		data[i] = byte(i % 251)
	}
	offset := memory.PageSize - 100

	if err := m.WriteAt(data, offset); err != nil {
		t.Fatalf("Failed to write across pages: %v", err)
	}

	got := make([]byte, len(data))
	if err := m.ReadAt(got, offset); err != nil {
		t.Fatalf("Failed to read across pages: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("Cross page data mismatch")
	}
}

func testOutOfBounds(t *testing.T, m memory.Memory) {
	if _, err := m.Grow(1); err != nil {
		t.Fatalf("Failed to grow memory: %v", err)
	}

	if err := m.WriteAt([]byte{1, 2}, memory.PageSize-1); !errors.Is(err, memory.ErrOutOfBounds) {
		t.Errorf("Expected ErrOutOfBounds for write past the end, got %v", err)
	}
	if err := m.ReadAt(make([]byte, 2), memory.PageSize-1); !errors.Is(err, memory.ErrOutOfBounds) {
		t.Errorf("Expected ErrOutOfBounds for read past the end, got %v", err)
	}

	// the last byte is still addressable
	if err := m.WriteAt([]byte{7}, memory.PageSize-1); err != nil {
		t.Errorf("Failed to write the last byte: %v", err)
	}
}

func testExhaustion(t *testing.T, m memory.Memory) {
	if _, err := m.Grow(3); err != nil {
		t.Fatalf("Failed to grow memory within limits: %v", err)
	}

	prev, err := m.Grow(2)
	if !errors.Is(err, memory.ErrExhausted) {
		t.Fatalf("Expected ErrExhausted, got %v", err)
	}
	if prev != 3 {
		t.Errorf("Expected previous size 3 on failure, got %d", prev)
	}
	if size := m.Size(); size != 3 {
		t.Errorf("Expected size to stay at 3 pages, got %d", size)
	}

	if _, err := m.Grow(1); err != nil {
		t.Errorf("Expected growing up to the limit to succeed, got %v", err)
	}
}

// --------------------------------------------------------------------------
// Benchmarks
// --------------------------------------------------------------------------

// RunMemoryBenchmarks runs read and write benchmarks for a Memory implementation.
func RunMemoryBenchmarks(b *testing.B, name string, factory MemoryFactory) {
	b.Run(name, func(b *testing.B) {
		for _, size := range []int{64, 1024, 16 * 1024} {
			size := size

			b.Run("Write/"+byteCount(size), func(b *testing.B) {
				m := factory(b, memory.NoLimit)
				if err := memory.EnsureBytes(m, 1024*1024); err != nil {
					b.Fatal(err)
				}
				data := make([]byte, size)
				limit := uint64(1024*1024 - size)
				b.SetBytes(int64(size))
				b.ResetTimer()
				for i := 0; i < b.N; i++ {
					if err := m.WriteAt(data, uint64(i*size)%limit); err != nil {
						b.Fatal(err)
					}
				}
			})

			b.Run("Read/"+byteCount(size), func(b *testing.B) {
				m := factory(b, memory.NoLimit)
				if err := memory.EnsureBytes(m, 1024*1024); err != nil {
					b.Fatal(err)
				}
				data := make([]byte, size)
				limit := uint64(1024*1024 - size)
				b.SetBytes(int64(size))
				b.ResetTimer()
				for i := 0; i < b.N; i++ {
					if err := m.ReadAt(data, uint64(i*size)%limit); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	})
}

func byteCount(n int) string {
	if n >= 1024 && n%1024 == 0 {
		return strconv.Itoa(n/1024) + "KB"
	}
	return strconv.Itoa(n) + "B"
}
