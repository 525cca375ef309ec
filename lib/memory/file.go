package memory

import (
	"fmt"
	"os"
	"sync"
)

// FileOptions configures a FileMemory
type FileOptions struct {
	MaxPages   uint64 // Maximum size in pages (NoLimit = unlimited)
	SyncWrites bool   // fsync after every write
}

// DefaultFileOptions returns the default FileMemory options
func DefaultFileOptions() *FileOptions {
	return &FileOptions{
		MaxPages:   NoLimit,
		SyncWrites: false,
	}
}

// FileMemory is a durable Memory backed by a single file.
// The file length always is a multiple of PageSize.
type FileMemory struct {
	mu     sync.RWMutex
	file   *os.File
	pages  uint64
	opts   FileOptions
	closed bool
}

// OpenFileMemory opens (or creates) the file at path as Memory.
// An existing file must have a length that is a multiple of PageSize.
func OpenFileMemory(path string, opts *FileOptions) (*FileMemory, error) {
	if opts == nil {
		opts = DefaultFileOptions()
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open memory file %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to stat memory file %s: %w", path, err)
	}

	size := uint64(info.Size())
	if size%PageSize != 0 {
		_ = f.Close()
		return nil, fmt.Errorf("memory file %s has invalid length %d (not a multiple of %d)", path, size, PageSize)
	}

	return &FileMemory{
		file:  f,
		pages: size / PageSize,
		opts:  *opts,
	}, nil
}

// Path returns the path of the backing file
func (m *FileMemory) Path() string {
	return m.file.Name()
}

// --------------------------------------------------------------------------
// Interface Methods (docu see memory.Memory)
// --------------------------------------------------------------------------

func (m *FileMemory) Size() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pages
}

func (m *FileMemory) Grow(pages uint64) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev := m.pages
	if m.closed {
		return prev, ErrClosed
	}
	if m.opts.MaxPages != NoLimit && prev+pages > m.opts.MaxPages {
		return prev, ErrExhausted
	}

	if err := m.file.Truncate(int64((prev + pages) * PageSize)); err != nil {
		return prev, fmt.Errorf("%w: %v", ErrExhausted, err)
	}
	m.pages = prev + pages

	return prev, nil
}

func (m *FileMemory) ReadAt(p []byte, offset uint64) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return ErrClosed
	}
	if err := checkBounds(offset, len(p), m.pages*PageSize); err != nil {
		return err
	}
	if _, err := m.file.ReadAt(p, int64(offset)); err != nil {
		return fmt.Errorf("failed to read %d bytes at %d: %w", len(p), offset, err)
	}
	return nil
}

func (m *FileMemory) WriteAt(p []byte, offset uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if err := checkBounds(offset, len(p), m.pages*PageSize); err != nil {
		return err
	}
	if _, err := m.file.WriteAt(p, int64(offset)); err != nil {
		return fmt.Errorf("failed to write %d bytes at %d: %w", len(p), offset, err)
	}
	if m.opts.SyncWrites {
		return m.file.Sync()
	}
	return nil
}

func (m *FileMemory) Sync() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	return m.file.Sync()
}

func (m *FileMemory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true

	if err := m.file.Sync(); err != nil {
		_ = m.file.Close()
		return err
	}
	return m.file.Close()
}
