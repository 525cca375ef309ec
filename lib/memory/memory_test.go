package memory_test

import (
	"errors"
	"github.com/ValentinKolb/shelf/lib/memory"
	memtesting "github.com/ValentinKolb/shelf/lib/memory/testing"
	"os"
	"path/filepath"
	"testing"
)

func vectorFactory(_ testing.TB, maxPages uint64) memory.Memory {
	return memory.NewVectorMemory(maxPages)
}

func fileFactory(t testing.TB, maxPages uint64) memory.Memory {
	path := filepath.Join(t.TempDir(), "test.mem")
	m, err := memory.OpenFileMemory(path, &memory.FileOptions{MaxPages: maxPages})
	if err != nil {
		t.Fatalf("Failed to open file memory: %v", err)
	}
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestVectorMemory(t *testing.T) {
	memtesting.RunMemoryTests(t, "VectorMemory", vectorFactory)
}

func TestFileMemory(t *testing.T) {
	memtesting.RunMemoryTests(t, "FileMemory", fileFactory)
}

func BenchmarkVectorMemory(b *testing.B) {
	memtesting.RunMemoryBenchmarks(b, "VectorMemory", vectorFactory)
}

func BenchmarkFileMemory(b *testing.B) {
	memtesting.RunMemoryBenchmarks(b, "FileMemory", fileFactory)
}

// TestFileMemoryReopen tests that the content of a file memory survives closing and reopening
func TestFileMemoryReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.mem")

	m, err := memory.OpenFileMemory(path, nil)
	if err != nil {
		t.Fatalf("Failed to open file memory: %v", err)
	}
	if _, err := m.Grow(2); err != nil {
		t.Fatalf("Failed to grow: %v", err)
	}
	if err := m.WriteAt([]byte("persistent"), memory.PageSize+10); err != nil {
		t.Fatalf("Failed to write: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("Failed to close: %v", err)
	}

	m, err = memory.OpenFileMemory(path, nil)
	if err != nil {
		t.Fatalf("Failed to reopen file memory: %v", err)
	}
	defer m.Close()

	if size := m.Size(); size != 2 {
		t.Fatalf("Expected 2 pages after reopen, got %d", size)
	}
	got := make([]byte, len("persistent"))
	if err := m.ReadAt(got, memory.PageSize+10); err != nil {
		t.Fatalf("Failed to read: %v", err)
	}
	if string(got) != "persistent" {
		t.Errorf("Expected %q after reopen, got %q", "persistent", got)
	}
}

// TestFileMemoryInvalidLength tests that a file that is not page aligned is rejected
func TestFileMemoryInvalidLength(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.mem")
	if err := os.WriteFile(path, []byte("not a page"), 0o644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	if _, err := memory.OpenFileMemory(path, nil); err == nil {
		t.Errorf("Expected an error opening a file with invalid length")
	}
}

// TestClosedMemory tests that all operations fail after closing
func TestClosedMemory(t *testing.T) {
	m := memory.NewVectorMemory(memory.NoLimit)
	if _, err := m.Grow(1); err != nil {
		t.Fatalf("Failed to grow: %v", err)
	}
	_ = m.Close()

	if _, err := m.Grow(1); !errors.Is(err, memory.ErrClosed) {
		t.Errorf("Expected ErrClosed for Grow, got %v", err)
	}
	if err := m.WriteAt([]byte{1}, 0); !errors.Is(err, memory.ErrClosed) {
		t.Errorf("Expected ErrClosed for WriteAt, got %v", err)
	}
}
