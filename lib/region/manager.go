package region

import (
	"encoding/binary"
	"errors"
	"fmt"
	"github.com/ValentinKolb/shelf/lib/memory"
	"github.com/lni/dragonboat/v4/logger"
	"sync"
)

var Logger = logger.GetLogger("region")

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	magic         = "SRM"
	layoutVersion = 1

	// MaxRegions is the number of regions a manager can hand out (ids 0 to MaxRegions-1)
	MaxRegions = 255
	// MaxBuckets is the number of buckets the header can track
	MaxBuckets = 12288
	// DefaultBucketPages is the default bucket size in pages (64 KiB)
	DefaultBucketPages = 16

	unallocated byte = 0xFF

	headerSize        uint64 = 16 * 1024
	offBucketPages    uint64 = 4
	offAllocated      uint64 = 8
	offRegionPages    uint64 = 16
	offBucketOwners          = offRegionPages + MaxRegions*8
	headerContentSize        = offBucketOwners + MaxBuckets
)

var (
	// ErrCorrupted is returned if the backing memory contains no valid region layout
	ErrCorrupted = errors.New("region: corrupted layout")
	// ErrExhausted is returned by Grow if no bucket is left or the backing memory can not grow
	ErrExhausted = memory.ErrExhausted
)

// RegionID identifies a region of a manager
type RegionID uint8

// Options configures a new region layout. The options are ignored when reattaching
// to an existing layout, the stored values are used instead.
type Options struct {
	BucketPages uint16 // Size of a bucket in pages (0 = DefaultBucketPages)
}

// --------------------------------------------------------------------------
// Manager
// --------------------------------------------------------------------------

// Manager partitions a memory into regions
type Manager struct {
	mu          sync.RWMutex
	mem         memory.Memory
	bucketPages uint64
	allocated   uint32
	regionPages [MaxRegions]uint64
	buckets     [MaxRegions][]uint32
	regions     map[RegionID]*Region
}

// Init creates a Manager for the given memory.
// An empty memory is formatted, a memory with an existing layout is reattached.
func Init(mem memory.Memory, opts *Options) (*Manager, error) {
	m := &Manager{
		mem:     mem,
		regions: make(map[RegionID]*Region),
	}

	if mem.Size() == 0 {
		bucketPages := uint64(DefaultBucketPages)
		if opts != nil && opts.BucketPages > 0 {
			bucketPages = uint64(opts.BucketPages)
		}
		if err := m.format(bucketPages); err != nil {
			return nil, err
		}
		Logger.Infof("formatted new region layout (bucket size %d pages)", bucketPages)
		return m, nil
	}

	if err := m.load(); err != nil {
		return nil, err
	}
	Logger.Infof("reattached region layout with %d allocated buckets", m.allocated)
	return m, nil
}

// Region returns the region with the given id.
// The same id always yields the same region, including after a restart.
// Panics if id is not smaller than MaxRegions.
func (m *Manager) Region(id RegionID) *Region {
	if int(id) >= MaxRegions {
		panic(fmt.Sprintf("region: invalid region id %d (max %d)", id, MaxRegions-1))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if r, ok := m.regions[id]; ok {
		return r
	}
	r := &Region{id: id, mgr: m}
	m.regions[id] = r
	return r
}

// Memory returns the backing memory of the manager
func (m *Manager) Memory() memory.Memory {
	return m.mem
}

// RegionInfo describes a single region
type RegionInfo struct {
	ID      RegionID `json:"id"`
	Pages   uint64   `json:"pages"`
	Buckets int      `json:"buckets"`
}

// Info describes the state of a manager
type Info struct {
	BucketPages      uint64       `json:"bucket_pages"`
	AllocatedBuckets uint32       `json:"allocated_buckets"`
	MaxBuckets       uint32       `json:"max_buckets"`
	Regions          []RegionInfo `json:"regions"`
}

// Info returns the bucket usage of the manager and all non-empty regions
func (m *Manager) Info() Info {
	m.mu.RLock()
	defer m.mu.RUnlock()

	info := Info{
		BucketPages:      m.bucketPages,
		AllocatedBuckets: m.allocated,
		MaxBuckets:       MaxBuckets,
	}
	for id := 0; id < MaxRegions; id++ {
		if len(m.buckets[id]) == 0 {
			continue
		}
		info.Regions = append(info.Regions, RegionInfo{
			ID:      RegionID(id),
			Pages:   m.regionPages[id],
			Buckets: len(m.buckets[id]),
		})
	}
	return info
}

// --------------------------------------------------------------------------
// Layout Helper
// --------------------------------------------------------------------------

// format writes an empty header to the memory
func (m *Manager) format(bucketPages uint64) error {
	if err := memory.EnsureBytes(m.mem, headerSize); err != nil {
		return err
	}

	header := make([]byte, headerContentSize)
	copy(header, magic)
	header[3] = layoutVersion
	binary.LittleEndian.PutUint16(header[offBucketPages:], uint16(bucketPages))
	for i := offBucketOwners; i < headerContentSize; i++ {
		header[i] = unallocated
	}

	if err := m.mem.WriteAt(header, 0); err != nil {
		return fmt.Errorf("failed to write region header: %w", err)
	}

	m.bucketPages = bucketPages
	return nil
}

// load reads an existing header and rebuilds the bucket lists of all regions
func (m *Manager) load() error {
	if memory.Bytes(m.mem) < headerSize {
		return fmt.Errorf("%w: memory too small for header", ErrCorrupted)
	}

	header := make([]byte, headerContentSize)
	if err := m.mem.ReadAt(header, 0); err != nil {
		return fmt.Errorf("failed to read region header: %w", err)
	}

	if string(header[:3]) != magic {
		return fmt.Errorf("%w: magic number mismatch", ErrCorrupted)
	}
	if header[3] != layoutVersion {
		return fmt.Errorf("%w: unsupported version %d (expected %d)", ErrCorrupted, header[3], layoutVersion)
	}

	m.bucketPages = uint64(binary.LittleEndian.Uint16(header[offBucketPages:]))
	m.allocated = binary.LittleEndian.Uint32(header[offAllocated:])
	if m.bucketPages == 0 || m.allocated > MaxBuckets {
		return fmt.Errorf("%w: invalid bucket configuration", ErrCorrupted)
	}

	for id := 0; id < MaxRegions; id++ {
		m.regionPages[id] = binary.LittleEndian.Uint64(header[offRegionPages+uint64(id)*8:])
	}

	for b := uint32(0); b < m.allocated; b++ {
		owner := header[offBucketOwners+uint64(b)]
		if owner == unallocated {
			continue
		}
		m.buckets[owner] = append(m.buckets[owner], b)
	}

	// every region must own enough buckets for its size
	for id := 0; id < MaxRegions; id++ {
		if uint64(len(m.buckets[id]))*m.bucketPages < m.regionPages[id] {
			return fmt.Errorf("%w: region %d has %d pages but only %d buckets", ErrCorrupted, id, m.regionPages[id], len(m.buckets[id]))
		}
	}

	// the memory must contain all allocated buckets
	if memory.Bytes(m.mem) < m.bucketOffset(m.allocated) {
		return fmt.Errorf("%w: memory smaller than allocated buckets", ErrCorrupted)
	}

	return nil
}

// bucketBytes returns the size of one bucket in bytes
func (m *Manager) bucketBytes() uint64 {
	return m.bucketPages * memory.PageSize
}

// bucketOffset returns the physical offset of a bucket
func (m *Manager) bucketOffset(bucket uint32) uint64 {
	return headerSize + uint64(bucket)*m.bucketBytes()
}

// grow extends a region by the given number of pages, allocating buckets as needed
func (m *Manager) grow(id RegionID, pages uint64) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev := m.regionPages[id]
	newPages := prev + pages
	if newPages < prev {
		return prev, ErrExhausted
	}

	var missing uint64
	if needed, owned := (newPages+m.bucketPages-1)/m.bucketPages, uint64(len(m.buckets[id])); needed > owned {
		missing = needed - owned
	}

	if missing > 0 {
		if uint64(m.allocated)+missing > MaxBuckets {
			return prev, fmt.Errorf("%w: no free bucket left for region %d", ErrExhausted, id)
		}

		// make sure the backing memory holds all new buckets
		first := m.allocated
		last := first + uint32(missing)
		if err := memory.EnsureBytes(m.mem, m.bucketOffset(last)); err != nil {
			return prev, err
		}

		// persist the owner of each new bucket, then the bucket count
		owners := make([]byte, missing)
		for i := range owners {
			owners[i] = byte(id)
		}
		if err := m.mem.WriteAt(owners, offBucketOwners+uint64(first)); err != nil {
			return prev, fmt.Errorf("failed to write bucket owners: %w", err)
		}
		var count [4]byte
		binary.LittleEndian.PutUint32(count[:], last)
		if err := m.mem.WriteAt(count[:], offAllocated); err != nil {
			return prev, fmt.Errorf("failed to write bucket count: %w", err)
		}

		for b := first; b < last; b++ {
			m.buckets[id] = append(m.buckets[id], b)
		}
		m.allocated = last
	}

	var size [8]byte
	binary.LittleEndian.PutUint64(size[:], newPages)
	if err := m.mem.WriteAt(size[:], offRegionPages+uint64(id)*8); err != nil {
		return prev, fmt.Errorf("failed to write region size: %w", err)
	}
	m.regionPages[id] = newPages

	Logger.Debugf("region %d grew from %d to %d pages (%d buckets)", id, prev, newPages, len(m.buckets[id]))
	return prev, nil
}

// access translates a virtual range of a region to physical ranges of the backing memory
// and calls fn for each of them
func (m *Manager) access(id RegionID, offset uint64, n int, fn func(physical uint64, from, to int) error) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	size := m.regionPages[id] * memory.PageSize
	end := offset + uint64(n)
	if end < offset || end > size {
		return fmt.Errorf("%w: region %d [%d, %d) exceeds %d bytes", memory.ErrOutOfBounds, id, offset, end, size)
	}

	bucketBytes := m.bucketBytes()
	done := 0
	for done < n {
		virtual := offset + uint64(done)
		bucket := m.buckets[id][virtual/bucketBytes]
		within := virtual % bucketBytes

		chunk := int(bucketBytes - within)
		if chunk > n-done {
			chunk = n - done
		}

		if err := fn(m.bucketOffset(bucket)+within, done, done+chunk); err != nil {
			return err
		}
		done += chunk
	}
	return nil
}
