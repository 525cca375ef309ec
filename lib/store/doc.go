// Package store defines the interface of the record store underneath the catalog.
//
// A record store is an ordered persistent map from a u64 record id to a record.
// It knows nothing about loans or validation; the catalog builds the state machine
// on top of it.
//
// Key Components:
//
//   - IRecordStore Interface: Get, Put, Remove and ordered iteration over all
//     records. Reads always return copies, iteration reflects the state at the
//     time Iterate was called.
//
//   - Info: Slot usage, record size distribution and operation counters of a store.
//
// Implementations:
//
//	- Region Store (rstore): Persists records in fixed size slots inside a single
//	  memory (usually region 1 of a region.Manager) and keeps an ordered in-memory
//	  index that is rebuilt on open.
//	  Available in the "github.com/ValentinKolb/shelf/lib/store/rstore" package.
package store
