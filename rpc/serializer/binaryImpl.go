package serializer

import (
	"encoding/binary"
	"fmt"
	"github.com/ValentinKolb/shelf/lib/catalog"
	"github.com/ValentinKolb/shelf/lib/record"
	"github.com/ValentinKolb/shelf/rpc/common"
)

// NewBinarySerializer creates a new serializer using a custom binary format
// optimized for speed and efficiency
func NewBinarySerializer() IRPCSerializer {
	return &binarySerializerImpl{}
}

// binarySerializerImpl implements IRPCSerializer using a custom binary format.
//
// Layout: [MsgType u8][flags u16] followed by the fields whose flag is set, in
// flag order. Strings and byte slices are prefixed with their length (u32), records
// are encoded with the record codec and prefixed with their length (u16).
type binarySerializerImpl struct {
}

// Bit flags to indicate which optional fields are present
const (
	hasID       uint16 = 1 << 0
	hasTitle    uint16 = 1 << 1
	hasAuthor   uint16 = 1 << 2
	hasCategory uint16 = 1 << 3
	hasCaller   uint16 = 1 << 4
	hasRecords  uint16 = 1 << 5
	hasOk       uint16 = 1 << 6 // no payload, the flag is the value
	hasErrCode  uint16 = 1 << 7
	hasErr      uint16 = 1 << 8
	hasMeta     uint16 = 1 << 9

	headerSize = 3
)

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (b binarySerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	// Encode records first, they decide the total size
	var records [][]byte
	if msg.Records != nil {
		records = make([][]byte, len(msg.Records))
		for i, r := range msg.Records {
			encoded, err := record.Encode(r)
			if err != nil {
				return nil, fmt.Errorf("failed to encode record %d: %w", r.ID, err)
			}
			records[i] = encoded
		}
	}

	result := make([]byte, b.sizeBytes(msg, records))

	// Write message type
	result[0] = byte(msg.MsgType)

	// Initialize flags
	var flags uint16 = 0

	// Set position for writing
	pos := headerSize

	if msg.ID != 0 {
		flags |= hasID
		binary.BigEndian.PutUint64(result[pos:pos+8], msg.ID)
		pos += 8
	}

	if msg.Title != "" {
		flags |= hasTitle
		pos = putBytes(result, pos, []byte(msg.Title))
	}

	if msg.Author != "" {
		flags |= hasAuthor
		pos = putBytes(result, pos, []byte(msg.Author))
	}

	if msg.Category != record.Fiction {
		flags |= hasCategory
		result[pos] = byte(msg.Category)
		pos += 1
	}

	if msg.Caller != "" {
		flags |= hasCaller
		pos = putBytes(result, pos, []byte(msg.Caller))
	}

	if records != nil {
		flags |= hasRecords
		binary.BigEndian.PutUint32(result[pos:pos+4], uint32(len(records)))
		pos += 4
		for _, encoded := range records {
			binary.BigEndian.PutUint16(result[pos:pos+2], uint16(len(encoded)))
			pos += 2
			pos += copy(result[pos:], encoded)
		}
	}

	if msg.Ok {
		flags |= hasOk
	}

	if msg.ErrCode != catalog.RetCSuccess {
		flags |= hasErrCode
		binary.BigEndian.PutUint64(result[pos:pos+8], uint64(msg.ErrCode))
		pos += 8
	}

	if msg.Err != "" {
		flags |= hasErr
		pos = putBytes(result, pos, []byte(msg.Err))
	}

	if msg.Meta != nil {
		flags |= hasMeta
		pos = putBytes(result, pos, msg.Meta)
	}

	// Set flags after knowing which fields are present
	binary.BigEndian.PutUint16(result[1:3], flags)

	return result, nil
}

func (b binarySerializerImpl) Deserialize(data []byte, msg *common.Message) error {
	// Check minimum size (MsgType + flags)
	if len(data) < headerSize {
		return fmt.Errorf("data too short for message header")
	}

	// Reset all fields, the message may be reused
	*msg = common.Message{}

	// Read message type and flags
	msg.MsgType = common.MessageType(data[0])
	flags := binary.BigEndian.Uint16(data[1:3])

	// Initialize read position
	pos := headerSize
	var err error

	if flags&hasID != 0 {
		if pos+8 > len(data) {
			return fmt.Errorf("data too short for id")
		}
		msg.ID = binary.BigEndian.Uint64(data[pos : pos+8])
		pos += 8
	}

	if flags&hasTitle != 0 {
		if msg.Title, pos, err = readString(data, pos, "title"); err != nil {
			return err
		}
	}

	if flags&hasAuthor != 0 {
		if msg.Author, pos, err = readString(data, pos, "author"); err != nil {
			return err
		}
	}

	if flags&hasCategory != 0 {
		if pos+1 > len(data) {
			return fmt.Errorf("data too short for category")
		}
		msg.Category = record.Category(data[pos])
		pos += 1
	}

	if flags&hasCaller != 0 {
		if msg.Caller, pos, err = readString(data, pos, "caller"); err != nil {
			return err
		}
	}

	if flags&hasRecords != 0 {
		if pos+4 > len(data) {
			return fmt.Errorf("data too short for record count")
		}
		count := binary.BigEndian.Uint32(data[pos : pos+4])
		pos += 4

		// every record needs at least its length prefix
		if uint64(count)*2 > uint64(len(data)-pos) {
			return fmt.Errorf("data too short for %d records", count)
		}

		msg.Records = make([]record.Record, count)
		for i := range msg.Records {
			if pos+2 > len(data) {
				return fmt.Errorf("data too short for record length")
			}
			recordLen := int(binary.BigEndian.Uint16(data[pos : pos+2]))
			pos += 2
			if pos+recordLen > len(data) {
				return fmt.Errorf("data too short for record data")
			}
			if msg.Records[i], err = record.Decode(data[pos : pos+recordLen]); err != nil {
				return err
			}
			pos += recordLen
		}
	}

	msg.Ok = flags&hasOk != 0

	if flags&hasErrCode != 0 {
		if pos+8 > len(data) {
			return fmt.Errorf("data too short for error code")
		}
		msg.ErrCode = catalog.RetCode(binary.BigEndian.Uint64(data[pos : pos+8]))
		pos += 8
	}

	if flags&hasErr != 0 {
		if msg.Err, pos, err = readString(data, pos, "error"); err != nil {
			return err
		}
	}

	if flags&hasMeta != 0 {
		var meta []byte
		if meta, pos, err = readBytes(data, pos, "meta"); err != nil {
			return err
		}
		// copy, data may be a pooled buffer
		msg.Meta = append(make([]byte, 0, len(meta)), meta...)
	}

	if pos != len(data) {
		return fmt.Errorf("%d unexpected trailing bytes", len(data)-pos)
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// sizeBytes calculates the total size needed for serialization
func (b binarySerializerImpl) sizeBytes(msg common.Message, records [][]byte) int {
	// 1 byte for MsgType + 2 bytes for flags
	size := headerSize

	if msg.ID != 0 {
		size += 8 // uint64
	}
	if msg.Title != "" {
		size += 4 + len(msg.Title) // 4 bytes for length + string
	}
	if msg.Author != "" {
		size += 4 + len(msg.Author)
	}
	if msg.Category != record.Fiction {
		size += 1
	}
	if msg.Caller != "" {
		size += 4 + len(msg.Caller)
	}
	if records != nil {
		size += 4 // record count
		for _, encoded := range records {
			size += 2 + len(encoded) // 2 bytes for length + encoded record
		}
	}
	if msg.ErrCode != catalog.RetCSuccess {
		size += 8
	}
	if msg.Err != "" {
		size += 4 + len(msg.Err)
	}
	if msg.Meta != nil {
		size += 4 + len(msg.Meta)
	}

	return size
}

// putBytes writes a length prefixed byte slice and returns the new position
func putBytes(dst []byte, pos int, src []byte) int {
	binary.BigEndian.PutUint32(dst[pos:pos+4], uint32(len(src)))
	pos += 4
	return pos + copy(dst[pos:], src)
}

// readBytes reads a length prefixed byte slice (without copying it)
func readBytes(data []byte, pos int, field string) ([]byte, int, error) {
	if pos+4 > len(data) {
		return nil, pos, fmt.Errorf("data too short for %s length", field)
	}
	n := int(binary.BigEndian.Uint32(data[pos : pos+4]))
	pos += 4
	if n > len(data)-pos {
		return nil, pos, fmt.Errorf("data too short for %s data", field)
	}
	return data[pos : pos+n], pos + n, nil
}

// readString reads a length prefixed string
func readString(data []byte, pos int, field string) (string, int, error) {
	b, pos, err := readBytes(data, pos, field)
	if err != nil {
		return "", pos, err
	}
	return string(b), pos, nil
}
