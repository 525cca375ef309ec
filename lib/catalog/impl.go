package catalog

import (
	"fmt"
	"github.com/ValentinKolb/shelf/lib/record"
	"github.com/ValentinKolb/shelf/lib/store"
	"github.com/lni/dragonboat/v4/logger"
	"math"
	"sync"
)

var Logger = logger.GetLogger("catalog")

// --------------------------------------------------------------------------
// Options
// --------------------------------------------------------------------------

// Option configures a catalog
type Option func(c *catalog)

// WithValidator replaces the default validator (RequireTitleAndAuthor)
func WithValidator(v Validator) Option {
	return func(c *catalog) {
		if v != nil {
			c.validate = v
		}
	}
}

// WithLogger replaces the package logger
func WithLogger(l logger.ILogger) Option {
	return func(c *catalog) {
		if l != nil {
			c.log = l
		}
	}
}

// --------------------------------------------------------------------------
// Catalog
// --------------------------------------------------------------------------

type catalog struct {
	mu       sync.Mutex
	ids      IDAllocator
	records  store.IRecordStore
	validate Validator
	log      logger.ILogger
}

// NewCatalog creates a catalog on top of the given id allocator and record store.
// The catalog assumes exclusive access to both.
func NewCatalog(ids IDAllocator, records store.IRecordStore, opts ...Option) ICatalog {
	c := &catalog{
		ids:      ids,
		records:  records,
		validate: RequireTitleAndAuthor,
		log:      Logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// --------------------------------------------------------------------------
// Interface Methods (docu see catalog.ICatalog)
// --------------------------------------------------------------------------

func (c *catalog) Add(payload Payload) (record.Record, error) {
	if err := c.validate(payload); err != nil {
		if CodeOf(err) == RetCInternalError {
			return record.Record{}, NewError(RetCInvalidInput, err.Error())
		}
		return record.Record{}, err
	}
	if !payload.Category.Valid() {
		return record.Record{}, Errorf(RetCInvalidInput, "unknown category %d", uint8(payload.Category))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// the record is stored under the next id before the counter moves,
	// so a failed add leaves both untouched
	if c.ids.Current() == math.MaxUint64 {
		return record.Record{}, NewError(RetCInternalError, "failed to allocate record id: id space exhausted")
	}
	id := c.ids.Current() + 1

	r := record.Record{
		ID:        id,
		Title:     payload.Title,
		Author:    payload.Author,
		Category:  payload.Category,
		Available: true,
	}

	if err := c.records.Put(id, r); err != nil {
		c.log.Errorf("failed to store record %d: %v", id, err)
		return record.Record{}, Errorf(RetCInternalError, "failed to store record: %v", err)
	}

	if next, err := c.ids.Next(); err != nil || next != id {
		if _, rmErr := c.records.Remove(id); rmErr != nil {
			c.log.Errorf("failed to roll back record %d: %v", id, rmErr)
		}
		if err == nil {
			err = fmt.Errorf("allocator issued %d, expected %d", next, id)
		}
		c.log.Errorf("failed to allocate record id: %v", err)
		return record.Record{}, Errorf(RetCInternalError, "failed to allocate record id: %v", err)
	}

	c.log.Debugf("added record %d", id)
	return r, nil
}

func (c *catalog) Get(id uint64) (record.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.get(id)
}

func (c *catalog) ListAvailable() ([]record.Record, error) {
	return c.filter(func(r record.Record) bool {
		return r.Available
	})
}

func (c *catalog) ListAll() ([]record.Record, error) {
	return c.filter(func(record.Record) bool {
		return true
	})
}

func (c *catalog) SearchByCategory(category record.Category) ([]record.Record, error) {
	return c.filter(func(r record.Record) bool {
		return r.Category == category
	})
}

func (c *catalog) Borrow(id uint64, caller string) (record.Record, error) {
	if caller == "" {
		return record.Record{}, NewError(RetCInvalidInput, "caller identity cannot be empty")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	r, err := c.get(id)
	if err != nil {
		return record.Record{}, err
	}
	if !r.Available {
		return record.Record{}, NewError(RetCInvalidOperation, "record is not available for borrowing")
	}

	r.Available = false
	r.Holder = &caller
	if err := c.put(r); err != nil {
		return record.Record{}, err
	}

	c.log.Debugf("record %d borrowed by %s", id, caller)
	return r.Clone(), nil
}

func (c *catalog) Return(id uint64) (record.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, err := c.get(id)
	if err != nil {
		return record.Record{}, err
	}
	if r.Available {
		return record.Record{}, NewError(RetCInvalidOperation, "record is already available")
	}

	r.Available = true
	r.Holder = nil
	if err := c.put(r); err != nil {
		return record.Record{}, err
	}

	c.log.Debugf("record %d returned", id)
	return r, nil
}

func (c *catalog) Delete(id uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed, err := c.records.Remove(id)
	if err != nil {
		c.log.Errorf("failed to remove record %d: %v", id, err)
		return Errorf(RetCInternalError, "failed to remove record: %v", err)
	}
	if !removed {
		return notFound(id)
	}

	c.log.Debugf("deleted record %d", id)
	return nil
}

func (c *catalog) Info() (Info, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	info := Info{
		LastID:     c.ids.Current(),
		Categories: make(map[string]int),
		Store:      c.records.Info(),
	}
	for _, cat := range record.Categories {
		info.Categories[cat.String()] = 0
	}
	for _, r := range c.records.Iterate() {
		info.Total++
		if r.Available {
			info.Available++
		} else {
			info.Borrowed++
		}
		info.Categories[r.Category.String()]++
	}
	return info, nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func notFound(id uint64) *Error {
	return Errorf(RetCNotFound, "record with id=%d not found", id)
}

// get returns a record or a RetCNotFound error (caller must hold the lock)
func (c *catalog) get(id uint64) (record.Record, error) {
	r, ok := c.records.Get(id)
	if !ok {
		return record.Record{}, notFound(id)
	}
	return r, nil
}

// put writes a changed record back (caller must hold the lock)
func (c *catalog) put(r record.Record) error {
	if err := c.records.Put(r.ID, r); err != nil {
		c.log.Errorf("failed to update record %d: %v", r.ID, err)
		return Errorf(RetCInternalError, "failed to update record: %v", err)
	}
	return nil
}

// filter returns all records matching keep in ascending id order
func (c *catalog) filter(keep func(r record.Record) bool) ([]record.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	records := make([]record.Record, 0)
	for _, r := range c.records.Iterate() {
		if keep(r) {
			records = append(records, r)
		}
	}
	return records, nil
}
