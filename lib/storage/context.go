package storage

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/shelf/lib/idalloc"
	"github.com/ValentinKolb/shelf/lib/memory"
	"github.com/ValentinKolb/shelf/lib/region"
	"github.com/ValentinKolb/shelf/lib/store/rstore"
)

const (
	// RegionIDs holds the id counter
	RegionIDs region.RegionID = 0
	// RegionRecords holds the record store
	RegionRecords region.RegionID = 1
)

// Options configures a new storage context
type Options struct {
	BucketPages uint16 // Bucket size of a new region layout (0 = region.DefaultBucketPages)
}

// Context bundles everything a catalog needs to persist its state
type Context struct {
	Memory  memory.Memory
	Regions *region.Manager
	IDs     *idalloc.Allocator
	Records *rstore.Store
}

// Open creates or reattaches a storage context on the given memory.
// On success the context owns mem and closes it in Close.
func Open(mem memory.Memory, opts *Options) (*Context, error) {
	regionOpts := &region.Options{}
	if opts != nil {
		regionOpts.BucketPages = opts.BucketPages
	}

	regions, err := region.Init(mem, regionOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to init regions: %w", err)
	}

	ids, err := idalloc.Init(regions.Region(RegionIDs), 0)
	if err != nil {
		return nil, fmt.Errorf("failed to init id allocator: %w", err)
	}

	records, err := rstore.Open(regions.Region(RegionRecords))
	if err != nil {
		return nil, fmt.Errorf("failed to open record store: %w", err)
	}

	return &Context{
		Memory:  mem,
		Regions: regions,
		IDs:     ids,
		Records: records,
	}, nil
}

// OpenFile opens a storage context persisted in the file at path
func OpenFile(path string, fileOpts *memory.FileOptions, opts *Options) (*Context, error) {
	mem, err := memory.OpenFileMemory(path, fileOpts)
	if err != nil {
		return nil, err
	}
	ctx, err := Open(mem, opts)
	if err != nil {
		return nil, errors.Join(err, mem.Close())
	}
	return ctx, nil
}

// OpenVolatile opens a storage context in a new in-memory memory limited to maxPages
func OpenVolatile(maxPages uint64, opts *Options) (*Context, error) {
	return Open(memory.NewVectorMemory(maxPages), opts)
}

// Close flushes and closes the backing memory
func (c *Context) Close() error {
	return errors.Join(c.Records.Sync(), c.Memory.Close())
}
