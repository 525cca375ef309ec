package region_test

import (
	"bytes"
	"errors"
	"github.com/ValentinKolb/shelf/lib/memory"
	memtesting "github.com/ValentinKolb/shelf/lib/memory/testing"
	"github.com/ValentinKolb/shelf/lib/region"
	"path/filepath"
	"testing"
)

// headerPages is the number of pages occupied by the region header
const headerPages = 4

func newManager(t testing.TB, mem memory.Memory, bucketPages uint16) *region.Manager {
	m, err := region.Init(mem, &region.Options{BucketPages: bucketPages})
	if err != nil {
		t.Fatalf("Failed to init region manager: %v", err)
	}
	return m
}

// regionFactory returns region 7 of a fresh manager with single-page buckets,
// so the page limit of the backing memory translates 1:1 to the region.
func regionFactory(t testing.TB, maxPages uint64) memory.Memory {
	limit := memory.NoLimit
	if maxPages != memory.NoLimit {
		limit = headerPages + maxPages
	}
	return newManager(t, memory.NewVectorMemory(limit), 1).Region(7)
}

func TestRegionMemory(t *testing.T) {
	memtesting.RunMemoryTests(t, "Region", regionFactory)
}

func TestRegionIdentity(t *testing.T) {
	m := newManager(t, memory.NewVectorMemory(memory.NoLimit), 0)

	if m.Region(3) != m.Region(3) {
		t.Errorf("Expected the same region for the same id")
	}
	if m.Region(3).ID() != 3 {
		t.Errorf("Expected region id 3, got %d", m.Region(3).ID())
	}

	defer func() {
		if recover() == nil {
			t.Errorf("Expected panic for region id 255")
		}
	}()
	m.Region(255)
}

func TestRegionIsolation(t *testing.T) {
	m := newManager(t, memory.NewVectorMemory(memory.NoLimit), 1)
	a, b := m.Region(0), m.Region(1)

	// interleaved growth makes the buckets of both regions non-contiguous
	for i := 0; i < 4; i++ {
		if _, err := a.Grow(1); err != nil {
			t.Fatalf("Failed to grow region a: %v", err)
		}
		if _, err := b.Grow(1); err != nil {
			t.Fatalf("Failed to grow region b: %v", err)
		}
	}

	dataA := bytes.Repeat([]byte{0xAA}, int(4*memory.PageSize))
	dataB := bytes.Repeat([]byte{0xBB}, int(4*memory.PageSize))
	if err := a.WriteAt(dataA, 0); err != nil {
		t.Fatalf("Failed to write region a: %v", err)
	}
	if err := b.WriteAt(dataB, 0); err != nil {
		t.Fatalf("Failed to write region b: %v", err)
	}

	got := make([]byte, len(dataA))
	if err := a.ReadAt(got, 0); err != nil {
		t.Fatalf("Failed to read region a: %v", err)
	}
	if !bytes.Equal(got, dataA) {
		t.Errorf("Region a was overwritten by region b")
	}
	if err := b.ReadAt(got, 0); err != nil {
		t.Fatalf("Failed to read region b: %v", err)
	}
	if !bytes.Equal(got, dataB) {
		t.Errorf("Region b was overwritten by region a")
	}

	info := m.Info()
	if info.AllocatedBuckets != 8 {
		t.Errorf("Expected 8 allocated buckets, got %d", info.AllocatedBuckets)
	}
	if len(info.Regions) != 2 {
		t.Errorf("Expected 2 non-empty regions, got %d", len(info.Regions))
	}
}

func TestRegionGrowWithinBucket(t *testing.T) {
	m := newManager(t, memory.NewVectorMemory(memory.NoLimit), 0)
	r := m.Region(0)

	for i := uint64(0); i < region.DefaultBucketPages; i++ {
		prev, err := r.Grow(1)
		if err != nil {
			t.Fatalf("Failed to grow region: %v", err)
		}
		if prev != i {
			t.Errorf("Expected previous size %d, got %d", i, prev)
		}
	}

	if got := m.Info().AllocatedBuckets; got != 1 {
		t.Errorf("Expected a single bucket for %d pages, got %d", region.DefaultBucketPages, got)
	}
}

func TestRegionReattach(t *testing.T) {
	path := filepath.Join(t.TempDir(), "regions.mem")

	mem, err := memory.OpenFileMemory(path, memory.DefaultFileOptions())
	if err != nil {
		t.Fatalf("Failed to open file memory: %v", err)
	}
	m := newManager(t, mem, 2)

	data := map[region.RegionID][]byte{
		0:   []byte("counter"),
		1:   bytes.Repeat([]byte("records"), 2000),
		254: []byte("last region"),
	}
	for id, d := range data {
		r := m.Region(id)
		if err := memory.EnsureBytes(r, uint64(len(d))); err != nil {
			t.Fatalf("Failed to grow region %d: %v", id, err)
		}
		if err := r.WriteAt(d, 0); err != nil {
			t.Fatalf("Failed to write region %d: %v", id, err)
		}
	}
	if err := mem.Close(); err != nil {
		t.Fatalf("Failed to close memory: %v", err)
	}

	mem, err = memory.OpenFileMemory(path, memory.DefaultFileOptions())
	if err != nil {
		t.Fatalf("Failed to reopen file memory: %v", err)
	}
	defer mem.Close()

	// options are ignored for an existing layout
	m = newManager(t, mem, 8)
	if got := m.Info().BucketPages; got != 2 {
		t.Errorf("Expected stored bucket size 2, got %d", got)
	}

	for id, d := range data {
		r := m.Region(id)
		if r.Size() != memory.PagesFor(uint64(len(d))) {
			t.Errorf("Region %d: expected %d pages, got %d", id, memory.PagesFor(uint64(len(d))), r.Size())
		}
		got := make([]byte, len(d))
		if err := r.ReadAt(got, 0); err != nil {
			t.Fatalf("Failed to read region %d: %v", id, err)
		}
		if !bytes.Equal(got, d) {
			t.Errorf("Region %d: content mismatch after reattach", id)
		}
	}

	if size := m.Region(42).Size(); size != 0 {
		t.Errorf("Expected untouched region to be empty, got %d pages", size)
	}
}

func TestRegionCorrupted(t *testing.T) {
	mem := memory.NewVectorMemory(memory.NoLimit)
	if _, err := mem.Grow(headerPages); err != nil {
		t.Fatalf("Failed to grow memory: %v", err)
	}
	if err := mem.WriteAt([]byte("XYZ"), 0); err != nil {
		t.Fatalf("Failed to write: %v", err)
	}

	if _, err := region.Init(mem, nil); !errors.Is(err, region.ErrCorrupted) {
		t.Errorf("Expected ErrCorrupted, got %v", err)
	}
}

func TestRegionExhaustion(t *testing.T) {
	// room for the header and exactly three buckets
	m := newManager(t, memory.NewVectorMemory(headerPages+3), 1)
	a, b := m.Region(0), m.Region(1)

	if _, err := a.Grow(2); err != nil {
		t.Fatalf("Failed to grow region a: %v", err)
	}
	if _, err := b.Grow(2); !errors.Is(err, memory.ErrExhausted) {
		t.Errorf("Expected ErrExhausted, got %v", err)
	}
	if size := b.Size(); size != 0 {
		t.Errorf("Expected failed grow to leave size unchanged, got %d", size)
	}
	if _, err := b.Grow(1); err != nil {
		t.Errorf("Expected remaining bucket to be usable: %v", err)
	}
}
