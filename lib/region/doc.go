// Package region slices a single memory.Memory into up to 255 independent,
// independently growable regions.
//
// Unrelated persistent structures (e.g. the id counter and the record heap) each
// get their own region and can grow without ever colliding with each other.
// Every region implements memory.Memory itself, so structures written for a plain
// memory work unchanged on a region.
//
// Layout of the backing memory:
//
//	[header (16 KiB)][bucket 0][bucket 1]...[bucket N]
//
// The header contains:
//   - Magic "SRM" and the layout version (4 bytes)
//   - The bucket size in pages (uint16) and padding (2 bytes)
//   - The number of allocated buckets (uint32) and padding (4 bytes)
//   - The size in pages of each of the 255 regions (255 x uint64)
//   - The owner of each bucket (MaxBuckets x uint8, 0xFF = unallocated)
//
// Buckets are handed out in allocation order and never returned. The buckets of a
// region, taken in ascending bucket order, form its contiguous virtual address space.
// Because the owner table is part of the header, calling Init on a memory that
// already contains a layout reattaches all regions with their content.
//
// There is no operation to merge, shrink, or delete a region. If the backing memory
// can not grow or no bucket is left, Grow fails with memory.ErrExhausted.
//
// Thread-safety: The Manager and all regions are safe for concurrent use.
package region
