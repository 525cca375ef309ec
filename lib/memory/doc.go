// Package memory provides the byte-addressable, growable address space that all
// persistent structures of shelf are stored in.
//
// The package focuses on:
//   - A minimal Memory interface (page granular growth, byte granular access)
//   - A volatile implementation backed by a byte slice (VectorMemory)
//   - A durable implementation backed by a single file (FileMemory)
//
// Key Components:
//
//   - Memory Interface: The core interface every backing space must satisfy.
//     Memory is measured in pages of PageSize bytes. It can only grow, never shrink.
//     Reads and writes outside of Size()*PageSize fail with ErrOutOfBounds.
//
//   - VectorMemory: Keeps all data in a byte slice. Content is lost when the
//     process exits. Used for tests and for volatile shards.
//
//   - FileMemory: Keeps all data in one file. The file length is always a multiple
//     of PageSize. Growing the memory extends the file. With SyncWrites enabled
//     every write is followed by an fsync.
//
// Both implementations accept a MaxPages limit. Growing beyond that limit fails
// with ErrExhausted, which the upper layers treat as resource exhaustion.
//
// Related Packages:
//
// The region package (github.com/ValentinKolb/shelf/lib/region) slices one Memory
// into independent regions that implement the Memory interface again.
//
// The testing package (github.com/ValentinKolb/shelf/lib/memory/testing) provides
// a conformance suite for Memory implementations.
package memory
