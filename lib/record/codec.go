package record

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// MaxSize is the upper bound of an encoded record in bytes
	MaxSize = 1024

	codecVersion = 1

	flagAvailable byte = 1 << 0
	flagHolder    byte = 1 << 1

	fixedSize = 1 + 1 + 1 + 8 // version, flags, category, id
)

var (
	// ErrTooLarge is returned if the encoding of a record would exceed MaxSize
	ErrTooLarge = errors.New("record: encoded record exceeds max size")
	// ErrMalformed is returned if bytes can not be decoded into a record
	ErrMalformed = errors.New("record: malformed encoding")
)

// EncodedSize returns the number of bytes Encode produces for r
func EncodedSize(r Record) int {
	size := fixedSize + 2 + len(r.Title) + 2 + len(r.Author)
	if r.Holder != nil {
		size += 2 + len(*r.Holder)
	}
	return size
}

// Encode serializes a record. It fails with ErrTooLarge if the result would exceed MaxSize.
func Encode(r Record) ([]byte, error) {
	size := EncodedSize(r)
	if size > MaxSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrTooLarge, size, MaxSize)
	}
	if !r.Category.Valid() {
		return nil, fmt.Errorf("invalid category %d", uint8(r.Category))
	}

	var flags byte
	if r.Available {
		flags |= flagAvailable
	}
	if r.Holder != nil {
		flags |= flagHolder
	}

	buf := make([]byte, size)
	buf[0] = codecVersion
	buf[1] = flags
	buf[2] = byte(r.Category)
	binary.BigEndian.PutUint64(buf[3:], r.ID)

	offset := fixedSize
	offset = putString(buf, offset, r.Title)
	offset = putString(buf, offset, r.Author)
	if r.Holder != nil {
		putString(buf, offset, *r.Holder)
	}

	return buf, nil
}

// Decode deserializes a record produced by Encode
func Decode(data []byte) (Record, error) {
	var r Record

	if len(data) < fixedSize {
		return r, fmt.Errorf("%w: %d bytes is shorter than the fixed header", ErrMalformed, len(data))
	}
	if data[0] != codecVersion {
		return r, fmt.Errorf("%w: unsupported version %d", ErrMalformed, data[0])
	}

	flags := data[1]
	if flags&^(flagAvailable|flagHolder) != 0 {
		return r, fmt.Errorf("%w: unknown flags 0x%02x", ErrMalformed, flags)
	}
	r.Available = flags&flagAvailable != 0
	r.Category = Category(data[2])
	if !r.Category.Valid() {
		return r, fmt.Errorf("%w: unknown category %d", ErrMalformed, data[2])
	}
	r.ID = binary.BigEndian.Uint64(data[3:])

	var err error
	offset := fixedSize
	if r.Title, offset, err = readString(data, offset); err != nil {
		return Record{}, err
	}
	if r.Author, offset, err = readString(data, offset); err != nil {
		return Record{}, err
	}
	if flags&flagHolder != 0 {
		var holder string
		if holder, offset, err = readString(data, offset); err != nil {
			return Record{}, err
		}
		r.Holder = &holder
	}

	if offset != len(data) {
		return Record{}, fmt.Errorf("%w: %d trailing bytes", ErrMalformed, len(data)-offset)
	}
	return r, nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func putString(buf []byte, offset int, s string) int {
	binary.BigEndian.PutUint16(buf[offset:], uint16(len(s)))
	offset += 2
	return offset + copy(buf[offset:], s)
}

func readString(data []byte, offset int) (string, int, error) {
	if offset+2 > len(data) {
		return "", offset, fmt.Errorf("%w: truncated length at offset %d", ErrMalformed, offset)
	}
	n := int(binary.BigEndian.Uint16(data[offset:]))
	offset += 2
	if offset+n > len(data) {
		return "", offset, fmt.Errorf("%w: truncated string at offset %d", ErrMalformed, offset)
	}
	return string(data[offset : offset+n]), offset + n, nil
}
