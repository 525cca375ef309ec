package rstore

import (
	"encoding/binary"
	"fmt"
	"github.com/ValentinKolb/shelf/lib/memory"
	"github.com/ValentinKolb/shelf/lib/record"
	"github.com/ValentinKolb/shelf/lib/store"
	"github.com/ValentinKolb/shelf/lib/util"
	"github.com/google/btree"
	"github.com/lni/dragonboat/v4/logger"
	gometrics "github.com/rcrowley/go-metrics"
	"iter"
	"sync"
	"time"
)

var Logger = logger.GetLogger("store")

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	magic         = "SRS"
	layoutVersion = 1

	headerSize     uint64 = 16
	offSlotSize    uint64 = 4
	offSlotCount   uint64 = 8
	slotHeaderSize        = 12

	// SlotSize is the size of a single slot in bytes
	SlotSize = slotHeaderSize + record.MaxSize

	slotFree byte = 0
	slotUsed byte = 1

	btreeDegree = 32
)

// entry is an element of the in-memory index
type entry struct {
	id   uint64
	slot uint64
	size int
}

// --------------------------------------------------------------------------
// Store
// --------------------------------------------------------------------------

var _ store.IRecordStore = (*Store)(nil)

// Store is a slot based record store
type Store struct {
	mu        sync.RWMutex
	mem       memory.Memory
	index     *btree.BTreeG[entry]
	free      *util.SlotHeap // free slots, lowest first
	slotCount uint64
	sizes     *util.SizeHistogram

	registry gometrics.Registry
	gets     gometrics.Counter
	misses   gometrics.Counter
	puts     gometrics.Timer
	removes  gometrics.Counter
}

// Open creates a store in an empty memory or loads the store persisted in mem.
func Open(mem memory.Memory) (*Store, error) {
	registry := gometrics.NewRegistry()
	s := &Store{
		mem: mem,
		index: btree.NewG(btreeDegree, func(a, b entry) bool {
			return a.id < b.id
		}),
		free:     util.NewSlotHeap(),
		sizes:    util.NewSizeHistogram(),
		registry: registry,
		gets:     gometrics.NewRegisteredCounter("get", registry),
		misses:   gometrics.NewRegisteredCounter("get_miss", registry),
		puts:     gometrics.NewRegisteredTimer("put", registry),
		removes:  gometrics.NewRegisteredCounter("remove", registry),
	}

	if mem.Size() == 0 {
		if err := s.format(); err != nil {
			return nil, err
		}
		Logger.Infof("created new record store")
		return s, nil
	}

	if err := s.load(); err != nil {
		return nil, err
	}
	Logger.Infof("loaded record store with %d records (%d slots, %d free)", s.index.Len(), s.slotCount, s.free.Len())
	return s, nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store.IRecordStore)
// --------------------------------------------------------------------------

func (s *Store) Get(id uint64) (record.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	s.gets.Inc(1)
	e, ok := s.index.Get(entry{id: id})
	if !ok {
		s.misses.Inc(1)
		return record.Record{}, false
	}
	return s.mustRead(e), true
}

func (s *Store) Put(id uint64, r record.Record) error {
	defer s.puts.UpdateSince(time.Now())

	if r.ID != id {
		return fmt.Errorf("record id %d does not match key %d", r.ID, id)
	}
	value, err := record.Encode(r)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// existing records are overwritten in place
	if old, ok := s.index.Get(entry{id: id}); ok {
		if err := s.writeSlot(old.slot, id, value); err != nil {
			return err
		}
		s.sizes.RemoveSample(old.size)
		s.sizes.AddSample(len(value))
		s.index.ReplaceOrInsert(entry{id: id, slot: old.slot, size: len(value)})
		return nil
	}

	slot, appended, err := s.allocSlot()
	if err != nil {
		return err
	}
	if err := s.writeSlot(slot, id, value); err != nil {
		return err
	}
	if appended {
		if err := s.writeSlotCount(slot + 1); err != nil {
			return err
		}
		s.slotCount = slot + 1
	} else {
		s.free.Pop()
	}

	s.sizes.AddSample(len(value))
	s.index.ReplaceOrInsert(entry{id: id, slot: slot, size: len(value)})
	return nil
}

func (s *Store) Remove(id uint64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removes.Inc(1)
	e, ok := s.index.Get(entry{id: id})
	if !ok {
		return false, nil
	}

	if err := s.mem.WriteAt([]byte{slotFree}, s.slotOffset(e.slot)); err != nil {
		return false, fmt.Errorf("failed to free slot %d: %w", e.slot, err)
	}

	s.index.Delete(e)
	s.free.Push(e.slot)
	s.sizes.RemoveSample(e.size)
	return true, nil
}

// Iterate yields all records in ascending id order.
// The records are read when Iterate is called, later writes do not change the sequence.
// Thread-safety: The store is not locked while yield runs.
func (s *Store) Iterate() iter.Seq2[uint64, record.Record] {
	s.mu.RLock()
	ids := make([]uint64, 0, s.index.Len())
	records := make([]record.Record, 0, s.index.Len())
	s.index.Ascend(func(e entry) bool {
		ids = append(ids, e.id)
		records = append(records, s.mustRead(e))
		return true
	})
	s.mu.RUnlock()

	return func(yield func(uint64, record.Record) bool) {
		for i, r := range records {
			if !yield(ids[i], r.Clone()) {
				return
			}
		}
	}
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Len()
}

func (s *Store) Info() store.Info {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ops := make(map[string]int64)
	s.registry.Each(func(name string, i interface{}) {
		switch m := i.(type) {
		case gometrics.Counter:
			ops[name] = m.Count()
		case gometrics.Timer:
			ops[name] = m.Count()
		}
	})

	return store.Info{
		Records:   s.index.Len(),
		Slots:     s.slotCount,
		FreeSlots: s.free.Len(),
		SlotSize:  SlotSize,
		SizeBytes: memory.Bytes(s.mem),
		Sizes:     s.sizes.Snapshot(),
		Ops:       ops,
	}
}

func (s *Store) Sync() error {
	return s.mem.Sync()
}

// --------------------------------------------------------------------------
// Slot Helper
// --------------------------------------------------------------------------

func (s *Store) slotOffset(slot uint64) uint64 {
	return headerSize + slot*SlotSize
}

// allocSlot returns a free slot (without removing it from the free list) or
// grows the memory by one slot
func (s *Store) allocSlot() (slot uint64, appended bool, err error) {
	if slot, ok := s.free.Peek(); ok {
		return slot, false, nil
	}

	slot = s.slotCount
	if err := memory.EnsureBytes(s.mem, s.slotOffset(slot+1)); err != nil {
		return 0, false, fmt.Errorf("failed to allocate slot %d: %w", slot, err)
	}
	return slot, true, nil
}

// writeSlot writes a used slot in a single write
func (s *Store) writeSlot(slot, id uint64, value []byte) error {
	buf := make([]byte, slotHeaderSize+len(value))
	buf[0] = slotUsed
	binary.LittleEndian.PutUint16(buf[2:], uint16(len(value)))
	binary.LittleEndian.PutUint64(buf[4:], id)
	copy(buf[slotHeaderSize:], value)

	if err := s.mem.WriteAt(buf, s.slotOffset(slot)); err != nil {
		return fmt.Errorf("failed to write slot %d: %w", slot, err)
	}
	return nil
}

func (s *Store) writeSlotCount(count uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], count)
	if err := s.mem.WriteAt(buf[:], offSlotCount); err != nil {
		return fmt.Errorf("failed to write slot count: %w", err)
	}
	return nil
}

// readSlot reads and decodes the record stored in a slot
func (s *Store) readSlot(slot uint64) (state byte, id uint64, r record.Record, size int, err error) {
	var head [slotHeaderSize]byte
	if err = s.mem.ReadAt(head[:], s.slotOffset(slot)); err != nil {
		return
	}
	state = head[0]
	if state != slotUsed {
		return
	}

	size = int(binary.LittleEndian.Uint16(head[2:]))
	id = binary.LittleEndian.Uint64(head[4:])
	if size > record.MaxSize {
		err = fmt.Errorf("%w: slot %d holds %d bytes", store.ErrCorrupted, slot, size)
		return
	}

	value := make([]byte, size)
	if err = s.mem.ReadAt(value, s.slotOffset(slot)+slotHeaderSize); err != nil {
		return
	}
	r, err = record.Decode(value)
	return
}

// mustRead reads the record of an index entry.
// The index only references slots written by this store, a failure is fatal corruption.
func (s *Store) mustRead(e entry) record.Record {
	state, id, r, _, err := s.readSlot(e.slot)
	if err != nil {
		panic(fmt.Sprintf("rstore: failed to read record %d from slot %d: %v", e.id, e.slot, err))
	}
	if state != slotUsed || id != e.id {
		panic(fmt.Sprintf("rstore: slot %d does not hold record %d", e.slot, e.id))
	}
	return r
}

// --------------------------------------------------------------------------
// Layout Helper
// --------------------------------------------------------------------------

func (s *Store) format() error {
	if err := memory.EnsureBytes(s.mem, headerSize); err != nil {
		return err
	}

	header := make([]byte, headerSize)
	copy(header, magic)
	header[3] = layoutVersion
	binary.LittleEndian.PutUint32(header[offSlotSize:], SlotSize)

	if err := s.mem.WriteAt(header, 0); err != nil {
		return fmt.Errorf("failed to write store header: %w", err)
	}
	return nil
}

// load reads the header and rebuilds the index and the free list from all slots
func (s *Store) load() error {
	header := make([]byte, headerSize)
	if err := s.mem.ReadAt(header, 0); err != nil {
		return fmt.Errorf("failed to read store header: %w", err)
	}

	if string(header[:3]) != magic {
		return fmt.Errorf("%w: magic number mismatch", store.ErrCorrupted)
	}
	if header[3] != layoutVersion {
		return fmt.Errorf("%w: unsupported version %d", store.ErrCorrupted, header[3])
	}
	if size := binary.LittleEndian.Uint32(header[offSlotSize:]); size != SlotSize {
		return fmt.Errorf("%w: slot size %d (expected %d)", store.ErrCorrupted, size, SlotSize)
	}

	s.slotCount = binary.LittleEndian.Uint64(header[offSlotCount:])
	if memory.Bytes(s.mem) < s.slotOffset(s.slotCount) {
		return fmt.Errorf("%w: memory smaller than %d slots", store.ErrCorrupted, s.slotCount)
	}

	for slot := uint64(0); slot < s.slotCount; slot++ {
		state, id, r, size, err := s.readSlot(slot)
		if err != nil {
			return fmt.Errorf("%w: slot %d: %v", store.ErrCorrupted, slot, err)
		}

		switch state {
		case slotFree:
			s.free.Push(slot)
			continue
		case slotUsed:
		default:
			return fmt.Errorf("%w: slot %d has unknown state %d", store.ErrCorrupted, slot, state)
		}

		if r.ID != id {
			return fmt.Errorf("%w: slot %d is keyed %d but holds record %d", store.ErrCorrupted, slot, id, r.ID)
		}
		if _, dup := s.index.ReplaceOrInsert(entry{id: id, slot: slot, size: size}); dup {
			return fmt.Errorf("%w: duplicate record id %d", store.ErrCorrupted, id)
		}
		s.sizes.AddSample(size)
	}

	return nil
}
