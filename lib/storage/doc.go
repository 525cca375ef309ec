// Package storage wires the persistent building blocks of a catalog into a single
// context object.
//
// A Context owns one memory.Memory, partitions it with a region.Manager and opens
// the id allocator (region 0) and the record store (region 1) on top of it. There is
// no global state: every Context is independent, so tests and multiple shards in one
// process can each open their own.
package storage
