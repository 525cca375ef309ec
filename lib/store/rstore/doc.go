// Package rstore implements store.IRecordStore on top of a single memory.Memory.
//
// Layout of the memory:
//
//	[header (16 bytes)][slot 0][slot 1]...[slot N-1]
//
// The header holds the magic "SRS", the layout version, the slot size (uint32) and the
// number of slots ever allocated (uint64). Every slot has the same size and can hold
// any record:
//
//	[state u8][reserved u8][len u16][id u64][encoded record (up to record.MaxSize)]
//
// Freed slots are kept in a free list and reused before the memory grows.
//
// The ordered id index is kept in memory only (a B-tree mapping id to slot) and is
// rebuilt by scanning all slots when the store is opened. Open fails with
// store.ErrCorrupted if a slot can not be decoded or an id occurs twice.
//
// Thread-safety: The store is safe for concurrent use.
package rstore
