package catalog

import (
	"errors"
	"github.com/ValentinKolb/shelf/lib/idalloc"
	"github.com/ValentinKolb/shelf/lib/memory"
	"github.com/ValentinKolb/shelf/lib/record"
	"github.com/ValentinKolb/shelf/lib/storage"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func newCatalog(t testing.TB, opts ...Option) ICatalog {
	ctx, err := storage.OpenVolatile(memory.NoLimit, nil)
	if err != nil {
		t.Fatalf("Failed to open storage: %v", err)
	}
	t.Cleanup(func() { _ = ctx.Close() })
	return NewCatalog(ctx.IDs, ctx.Records, opts...)
}

func mustAdd(t testing.TB, c ICatalog, title, author string, category record.Category) record.Record {
	r, err := c.Add(Payload{Title: title, Author: author, Category: category})
	if err != nil {
		t.Fatalf("Add(%q) failed: %v", title, err)
	}
	return r
}

func ids(records []record.Record) []uint64 {
	out := make([]uint64, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}

// checkHolderInvariant verifies that exactly the borrowed records have a holder
func checkHolderInvariant(t *testing.T, c ICatalog) {
	t.Helper()
	all, err := c.ListAll()
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	for _, r := range all {
		if (r.Holder != nil) == r.Available {
			t.Errorf("Record %d violates the holder invariant: %v", r.ID, r)
		}
	}
}

func TestLoanScenario(t *testing.T) {
	c := newCatalog(t)

	r := mustAdd(t, c, "Dune", "Herbert", record.Science)
	if r.ID != 1 || !r.Available || r.Holder != nil {
		t.Fatalf("Expected available record with id 1, got %v", r)
	}

	r, err := c.Borrow(1, "alice")
	if err != nil {
		t.Fatalf("Borrow failed: %v", err)
	}
	if r.Available || r.HolderName() != "alice" {
		t.Fatalf("Expected record borrowed by alice, got %v", r)
	}
	checkHolderInvariant(t, c)

	if _, err := c.Borrow(1, "bob"); !IsInvalidOperation(err) {
		t.Fatalf("Expected InvalidOperation, got %v", err)
	}
	if got, _ := c.Get(1); got.HolderName() != "alice" {
		t.Errorf("Expected failed borrow to leave the holder unchanged, got %v", got)
	}

	r, err = c.Return(1)
	if err != nil {
		t.Fatalf("Return failed: %v", err)
	}
	if !r.Available || r.Holder != nil {
		t.Fatalf("Expected available record, got %v", r)
	}
	checkHolderInvariant(t, c)

	available, err := c.ListAvailable()
	if err != nil {
		t.Fatalf("ListAvailable failed: %v", err)
	}
	if !reflect.DeepEqual(ids(available), []uint64{1}) {
		t.Errorf("Expected record 1 to be available, got %v", ids(available))
	}

	if err := c.Delete(1); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := c.Get(1); !IsNotFound(err) {
		t.Errorf("Expected NotFound, got %v", err)
	}
}

func TestStateMachineLegality(t *testing.T) {
	c := newCatalog(t)
	mustAdd(t, c, "Dune", "Herbert", record.Fiction)

	before, _ := c.Get(1)
	if _, err := c.Return(1); !IsInvalidOperation(err) {
		t.Errorf("Expected InvalidOperation returning an available record, got %v", err)
	}
	var e *Error
	if _, err := c.Return(1); !errors.As(err, &e) || e.Msg != "record is already available" {
		t.Errorf("Unexpected error %v", err)
	}
	if after, _ := c.Get(1); !after.Equal(before) {
		t.Errorf("Expected record to be unchanged, got %v", after)
	}

	if _, err := c.Borrow(1, "carol"); err != nil {
		t.Fatalf("Borrow failed: %v", err)
	}
	before, _ = c.Get(1)
	if _, err := c.Borrow(1, "carol"); !errors.As(err, &e) || e.Msg != "record is not available for borrowing" {
		t.Errorf("Expected InvalidOperation borrowing a borrowed record, got %v", err)
	}
	if after, _ := c.Get(1); !after.Equal(before) {
		t.Errorf("Expected record to be unchanged, got %v", after)
	}
}

func TestNotFound(t *testing.T) {
	c := newCatalog(t)

	tests := []struct {
		name string
		op   func() error
	}{
		{"Get", func() error { _, err := c.Get(42); return err }},
		{"Borrow", func() error { _, err := c.Borrow(42, "dave"); return err }},
		{"Return", func() error { _, err := c.Return(42); return err }},
		{"Delete", func() error { return c.Delete(42) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.op()
			if !IsNotFound(err) {
				t.Fatalf("Expected NotFound, got %v", err)
			}
			var e *Error
			if errors.As(err, &e); e.Msg != "record with id=42 not found" {
				t.Errorf("Unexpected message %q", e.Msg)
			}
		})
	}
}

func TestDeleteTwice(t *testing.T) {
	c := newCatalog(t)
	mustAdd(t, c, "Dune", "Herbert", record.Fiction)

	if err := c.Delete(1); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := c.Delete(1); !IsNotFound(err) {
		t.Errorf("Expected NotFound on second delete, got %v", err)
	}
}

func TestDeleteBorrowed(t *testing.T) {
	c := newCatalog(t)
	mustAdd(t, c, "Dune", "Herbert", record.Fiction)
	if _, err := c.Borrow(1, "erin"); err != nil {
		t.Fatalf("Borrow failed: %v", err)
	}
	if err := c.Delete(1); err != nil {
		t.Errorf("Expected borrowed record to be deletable, got %v", err)
	}
}

func TestValidation(t *testing.T) {
	c := newCatalog(t)

	tests := []struct {
		name    string
		payload Payload
	}{
		{"EmptyTitle", Payload{Title: "", Author: "Herbert"}},
		{"BlankAuthor", Payload{Title: "Dune", Author: "  \t"}},
		{"UnknownCategory", Payload{Title: "Dune", Author: "Herbert", Category: record.Category(9)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := c.Add(tt.payload); !IsInvalidInput(err) {
				t.Errorf("Expected InvalidInput, got %v", err)
			}
		})
	}

	// rejected payloads must not consume ids
	if r := mustAdd(t, c, "Dune", "Herbert", record.Fiction); r.ID != 1 {
		t.Errorf("Expected id 1, got %d", r.ID)
	}

	if _, err := c.Borrow(1, ""); !IsInvalidInput(err) {
		t.Errorf("Expected InvalidInput for empty caller, got %v", err)
	}
}

func TestCustomValidator(t *testing.T) {
	c := newCatalog(t, WithValidator(func(p Payload) error {
		if p.Category != record.Science {
			return errors.New("only science")
		}
		return nil
	}))

	if _, err := c.Add(Payload{Title: "Dune", Author: "Herbert"}); !IsInvalidInput(err) {
		t.Errorf("Expected plain validator error to become InvalidInput, got %v", err)
	}
	if _, err := c.Add(Payload{Title: "", Author: "", Category: record.Science}); err != nil {
		t.Errorf("Expected custom validator to replace the default, got %v", err)
	}

	c = newCatalog(t, WithValidator(NoValidation))
	if _, err := c.Add(Payload{}); err != nil {
		t.Errorf("Expected NoValidation to accept everything, got %v", err)
	}
}

func TestIDsMonotonicAcrossDeletes(t *testing.T) {
	c := newCatalog(t)

	var last uint64
	for i := 0; i < 20; i++ {
		r := mustAdd(t, c, "t", "a", record.Fiction)
		if r.ID <= last {
			t.Fatalf("Expected id > %d, got %d", last, r.ID)
		}
		last = r.ID
		if i%3 == 0 {
			if err := c.Delete(r.ID); err != nil {
				t.Fatalf("Delete failed: %v", err)
			}
		}
	}
	if last != 20 {
		t.Errorf("Expected last id 20, got %d", last)
	}
}

func TestListings(t *testing.T) {
	c := newCatalog(t)
	mustAdd(t, c, "Dune", "Herbert", record.Fiction)
	mustAdd(t, c, "Cosmos", "Sagan", record.Science)
	mustAdd(t, c, "SICP", "Abelson", record.Technology)
	mustAdd(t, c, "A Brief History of Time", "Hawking", record.Science)
	if _, err := c.Borrow(2, "frank"); err != nil {
		t.Fatalf("Borrow failed: %v", err)
	}

	tests := []struct {
		name string
		list func() ([]record.Record, error)
		want []uint64
	}{
		{"All", c.ListAll, []uint64{1, 2, 3, 4}},
		{"Available", c.ListAvailable, []uint64{1, 3, 4}},
		{"Science", func() ([]record.Record, error) { return c.SearchByCategory(record.Science) }, []uint64{2, 4}},
		{"NonFiction", func() ([]record.Record, error) { return c.SearchByCategory(record.NonFiction) }, []uint64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.list()
			if err != nil {
				t.Fatalf("Listing failed: %v", err)
			}
			if !reflect.DeepEqual(ids(got), tt.want) {
				t.Errorf("Expected ids %v, got %v", tt.want, ids(got))
			}
		})
	}

	info, err := c.Info()
	if err != nil {
		t.Fatalf("Info failed: %v", err)
	}
	if info.Total != 4 || info.Available != 3 || info.Borrowed != 1 || info.LastID != 4 {
		t.Errorf("Unexpected info %+v", info)
	}
	if info.Categories["Science"] != 2 || info.Categories["NonFiction"] != 0 {
		t.Errorf("Unexpected category counts %v", info.Categories)
	}
}

func TestReturnedRecordsAreCopies(t *testing.T) {
	c := newCatalog(t)
	mustAdd(t, c, "Dune", "Herbert", record.Fiction)

	r, err := c.Borrow(1, "gina")
	if err != nil {
		t.Fatalf("Borrow failed: %v", err)
	}
	*r.Holder = "mallory"

	if got, _ := c.Get(1); got.HolderName() != "gina" {
		t.Errorf("Expected stored holder gina, got %q", got.HolderName())
	}
}

func TestPersistAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.mem")

	ctx, err := storage.OpenFile(path, nil, nil)
	if err != nil {
		t.Fatalf("Failed to open storage: %v", err)
	}
	c := NewCatalog(ctx.IDs, ctx.Records)
	mustAdd(t, c, "Dune", "Herbert", record.Science)
	mustAdd(t, c, "Cosmos", "Sagan", record.Science)
	if _, err := c.Borrow(1, "alice"); err != nil {
		t.Fatalf("Borrow failed: %v", err)
	}
	if err := c.Delete(2); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := ctx.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	ctx, err = storage.OpenFile(path, nil, nil)
	if err != nil {
		t.Fatalf("Failed to reopen storage: %v", err)
	}
	defer ctx.Close()
	c = NewCatalog(ctx.IDs, ctx.Records)

	r, err := c.Get(1)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if r.Available || r.HolderName() != "alice" {
		t.Errorf("Expected record borrowed by alice after reopen, got %v", r)
	}
	if _, err := c.Get(2); !IsNotFound(err) {
		t.Errorf("Expected deleted record to stay deleted, got %v", err)
	}

	// the deleted id 2 is never reissued
	if r := mustAdd(t, c, "SICP", "Abelson", record.Technology); r.ID != 3 {
		t.Errorf("Expected id 3 after reopen, got %d", r.ID)
	}
}

func TestInternalErrors(t *testing.T) {
	t.Run("CounterOverflow", func(t *testing.T) {
		ctx, err := storage.OpenVolatile(memory.NoLimit, nil)
		if err != nil {
			t.Fatalf("Failed to open storage: %v", err)
		}
		defer ctx.Close()

		ids, err := idalloc.Init(memory.NewVectorMemory(memory.NoLimit), ^uint64(0))
		if err != nil {
			t.Fatalf("Failed to init allocator: %v", err)
		}
		c := NewCatalog(ids, ctx.Records)
		if _, err := c.Add(Payload{Title: "Dune", Author: "Herbert"}); !IsInternal(err) {
			t.Errorf("Expected InternalError, got %v", err)
		}
		if ctx.Records.Len() != 0 {
			t.Errorf("Expected no record to be written")
		}
	})

	t.Run("StoreExhausted", func(t *testing.T) {
		// the region header and the counter leave three pages for records
		ctx, err := storage.OpenVolatile(8, &storage.Options{BucketPages: 1})
		if err != nil {
			t.Fatalf("Failed to open storage: %v", err)
		}
		defer ctx.Close()

		c := NewCatalog(ctx.IDs, ctx.Records)
		var lastErr error
		for i := 0; i < 100 && lastErr == nil; i++ {
			_, lastErr = c.Add(Payload{Title: "Dune", Author: "Herbert"})
		}
		if !IsInternal(lastErr) {
			t.Fatalf("Expected InternalError once the memory is exhausted, got %v", lastErr)
		}

		// the failed add left the counter at the last stored record
		all, _ := c.ListAll()
		if uint64(len(all)) != ctx.IDs.Current() {
			t.Errorf("Expected %d records, got %d", ctx.IDs.Current(), len(all))
		}
	})

	t.Run("CounterWriteFails", func(t *testing.T) {
		ctx, err := storage.OpenVolatile(memory.NoLimit, nil)
		if err != nil {
			t.Fatalf("Failed to open storage: %v", err)
		}
		defer ctx.Close()

		c := NewCatalog(&brokenIDs{}, ctx.Records)
		if _, err := c.Add(Payload{Title: "Dune", Author: "Herbert"}); !IsInternal(err) {
			t.Errorf("Expected InternalError, got %v", err)
		}
		if ctx.Records.Len() != 0 {
			t.Errorf("Expected the stored record to be rolled back, got %d records", ctx.Records.Len())
		}
	})
}

// brokenIDs is an allocator whose counter can not be persisted
type brokenIDs struct{}

func (*brokenIDs) Next() (uint64, error) { return 0, errors.New("write failed") }
func (*brokenIDs) Current() uint64       { return 0 }

func TestFailedAddKeepsCounter(t *testing.T) {
	ctx, err := storage.OpenVolatile(memory.NoLimit, nil)
	if err != nil {
		t.Fatalf("Failed to open storage: %v", err)
	}
	defer ctx.Close()
	c := NewCatalog(ctx.IDs, ctx.Records)

	_, err = c.Add(Payload{Title: strings.Repeat("x", 2*record.MaxSize), Author: "a"})
	if !IsInternal(err) {
		t.Fatalf("Expected InternalError for an oversized record, got %v", err)
	}
	if ctx.IDs.Current() != 0 {
		t.Errorf("Expected counter 0 after failed add, got %d", ctx.IDs.Current())
	}

	if r := mustAdd(t, c, "Dune", "Herbert", record.Science); r.ID != 1 {
		t.Errorf("Expected id 1 after failed add, got %d", r.ID)
	}
	all, _ := c.ListAll()
	if got, want := ids(all), []uint64{1}; !reflect.DeepEqual(got, want) {
		t.Errorf("Expected ids %v, got %v", want, got)
	}
}
