package catalog

import (
	"github.com/ValentinKolb/shelf/lib/record"
	"github.com/ValentinKolb/shelf/lib/store"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// ICatalog is the interface for interacting with a lending catalog.
// All methods return a *Error (nil on success) as error.
type ICatalog interface {
	// Add validates the payload and creates a new available record with a fresh id.
	Add(payload Payload) (r record.Record, err error)
	// Get returns the record with the given id or a RetCNotFound error.
	Get(id uint64) (r record.Record, err error)
	// ListAvailable returns all available records in ascending id order.
	ListAvailable() (records []record.Record, err error)
	// ListAll returns all records in ascending id order.
	ListAll() (records []record.Record, err error)
	// SearchByCategory returns all records of the given category in ascending id order.
	SearchByCategory(category record.Category) (records []record.Record, err error)
	// Borrow marks an available record as borrowed by caller.
	Borrow(id uint64, caller string) (r record.Record, err error)
	// Return marks a borrowed record as available again.
	Return(id uint64) (r record.Record, err error)
	// Delete removes a record regardless of its state.
	Delete(id uint64) (err error)
	// Info returns statistics about the catalog.
	// It is not guaranteed that all fields are filled in or that the information is up-to-date!
	Info() (info Info, err error)
}

// IDAllocator hands out strictly increasing record ids
type IDAllocator interface {
	Next() (id uint64, err error)
	Current() (id uint64)
}

// Payload holds the user supplied fields of a new record
type Payload struct {
	Title    string          `json:"title"`
	Author   string          `json:"author"`
	Category record.Category `json:"category"`
}

// Info describes the state of a catalog
type Info struct {
	Total      int            `json:"total"`
	Available  int            `json:"available"`
	Borrowed   int            `json:"borrowed"`
	LastID     uint64         `json:"last_id"`
	Categories map[string]int `json:"categories"`
	Store      store.Info     `json:"store"`
}
