package store

import (
	"errors"
	"github.com/ValentinKolb/shelf/lib/record"
	"github.com/ValentinKolb/shelf/lib/util"
	"iter"
)

// ErrCorrupted is returned if the persisted store can not be loaded
var ErrCorrupted = errors.New("store: corrupted")

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// IRecordStore is an ordered, persistent map from record id to record.
// Values are returned as copies; modifying them never changes the store.
type IRecordStore interface {
	// Get returns the record stored under id. The boolean reports whether it was found.
	Get(id uint64) (r record.Record, found bool)
	// Put inserts or replaces the record stored under id.
	// On error the store is left unchanged.
	Put(id uint64, r record.Record) (err error)
	// Remove deletes the record stored under id and reports whether it existed.
	Remove(id uint64) (removed bool, err error)
	// Iterate returns all records in ascending id order.
	// The sequence reflects the store at the time Iterate was called; each call
	// starts a fresh traversal.
	Iterate() iter.Seq2[uint64, record.Record]
	// Len returns the number of stored records.
	Len() int
	// Info returns metadata about the store.
	// It is not guaranteed that all fields are up-to-date!
	Info() (info Info)
	// Sync flushes all writes to the backing memory.
	Sync() (err error)
}

// --------------------------------------------------------------------------
// Info
// --------------------------------------------------------------------------

// Info describes the state of a store
type Info struct {
	Records   int                    `json:"records"`
	Slots     uint64                 `json:"slots"`
	FreeSlots int                    `json:"free_slots"`
	SlotSize  uint32                 `json:"slot_size"`
	SizeBytes uint64                 `json:"size_bytes"`
	Sizes     util.HistogramSnapshot `json:"record_sizes"`
	Ops       map[string]int64       `json:"ops"`
}
