package region

// Region is a virtual memory inside of a Manager.
// It implements memory.Memory.
type Region struct {
	id  RegionID
	mgr *Manager
}

// ID returns the id of the region
func (r *Region) ID() RegionID {
	return r.id
}

// --------------------------------------------------------------------------
// Interface Methods (docu see memory.Memory)
// --------------------------------------------------------------------------

func (r *Region) Size() uint64 {
	r.mgr.mu.RLock()
	defer r.mgr.mu.RUnlock()
	return r.mgr.regionPages[r.id]
}

func (r *Region) Grow(pages uint64) (uint64, error) {
	return r.mgr.grow(r.id, pages)
}

func (r *Region) ReadAt(p []byte, offset uint64) error {
	return r.mgr.access(r.id, offset, len(p), func(physical uint64, from, to int) error {
		return r.mgr.mem.ReadAt(p[from:to], physical)
	})
}

func (r *Region) WriteAt(p []byte, offset uint64) error {
	return r.mgr.access(r.id, offset, len(p), func(physical uint64, from, to int) error {
		return r.mgr.mem.WriteAt(p[from:to], physical)
	})
}

// Sync flushes the backing memory of the manager
func (r *Region) Sync() error {
	return r.mgr.mem.Sync()
}

// Close is a no-op, the backing memory is owned by whoever created the Manager
func (r *Region) Close() error {
	return nil
}
