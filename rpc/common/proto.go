package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"github.com/ValentinKolb/shelf/lib/catalog"
	"github.com/ValentinKolb/shelf/lib/record"
)

// --------------------------------------------------------------------------
// Message Structure
// --------------------------------------------------------------------------

// Message represents a single message used for both requests and responses.
// Which fields are used depends on the type of message.
type Message struct {
	// Type of message
	MsgType MessageType `json:"msg_type"`

	// Request fields
	ID       uint64          `json:"id,omitempty"`     // Used for: Get, Borrow, Return, Delete
	Title    string          `json:"title,omitempty"`  // Used for: Add
	Author   string          `json:"author,omitempty"` // Used for: Add
	Category record.Category `json:"category"`         // Used for: Add, Search
	Caller   string          `json:"caller,omitempty"` // Used for: Borrow

	// Response only fields
	Records []record.Record `json:"records,omitempty"`  // Used for: all record returning responses
	Ok      bool            `json:"ok,omitempty"`       // Used for: Delete responses
	ErrCode catalog.RetCode `json:"err_code,omitempty"` // Return code of Err
	Err     string          `json:"err,omitempty"`      // Empty if no error, otherwise contains the error message

	// Meta information
	Meta []byte `json:"meta,omitempty"` // Used for: Info responses (json encoded catalog.Info)
}

// AsError rebuilds the error carried by a response (nil if there is none).
// Errors are always returned as *catalog.Error.
func (m *Message) AsError() error {
	if m.Err == "" && m.ErrCode == catalog.RetCSuccess {
		return nil
	}
	code := m.ErrCode
	if code == catalog.RetCSuccess {
		code = catalog.RetCInternalError
	}
	return catalog.NewError(code, m.Err)
}

// Record returns the single record of a response
func (m *Message) Record() (record.Record, error) {
	if len(m.Records) != 1 {
		return record.Record{}, catalog.Errorf(catalog.RetCInternalError, "expected one record in %s response, got %d", m.MsgType, len(m.Records))
	}
	return m.Records[0], nil
}

// Payload returns the payload of an add request
func (m *Message) Payload() catalog.Payload {
	return catalog.Payload{
		Title:    m.Title,
		Author:   m.Author,
		Category: m.Category,
	}
}

// setErr stores err in the message, keeping the return code of *catalog.Error values
func (m *Message) setErr(err error) {
	if err == nil {
		return
	}
	var e *catalog.Error
	if errors.As(err, &e) {
		m.ErrCode = e.Code
		m.Err = e.Msg
		return
	}
	m.ErrCode = catalog.RetCInternalError
	m.Err = err.Error()
}

// --------------------------------------------------------------------------
// Message Factory Functions
// --------------------------------------------------------------------------

// NewGetRequest creates a new Get request
func NewGetRequest(id uint64) *Message {
	return &Message{
		MsgType: MsgTGet,
		ID:      id,
	}
}

// NewListAvailableRequest creates a new ListAvailable request
func NewListAvailableRequest() *Message {
	return &Message{
		MsgType: MsgTListAvailable,
	}
}

// NewListAllRequest creates a new ListAll request
func NewListAllRequest() *Message {
	return &Message{
		MsgType: MsgTListAll,
	}
}

// NewSearchRequest creates a new SearchByCategory request
func NewSearchRequest(category record.Category) *Message {
	return &Message{
		MsgType:  MsgTSearch,
		Category: category,
	}
}

// NewAddRequest creates a new Add request
func NewAddRequest(payload catalog.Payload) *Message {
	return &Message{
		MsgType:  MsgTAdd,
		Title:    payload.Title,
		Author:   payload.Author,
		Category: payload.Category,
	}
}

// NewBorrowRequest creates a new Borrow request
func NewBorrowRequest(id uint64, caller string) *Message {
	return &Message{
		MsgType: MsgTBorrow,
		ID:      id,
		Caller:  caller,
	}
}

// NewReturnRequest creates a new Return request
func NewReturnRequest(id uint64) *Message {
	return &Message{
		MsgType: MsgTReturn,
		ID:      id,
	}
}

// NewDeleteRequest creates a new Delete request
func NewDeleteRequest(id uint64) *Message {
	return &Message{
		MsgType: MsgTDelete,
		ID:      id,
	}
}

// NewInfoRequest creates a new Info request
func NewInfoRequest() *Message {
	return &Message{
		MsgType: MsgTInfo,
	}
}

// NewRecordResponse creates a response holding a single record (Get, Add, Borrow, Return)
func NewRecordResponse(msgType MessageType, r record.Record, err error) *Message {
	msg := &Message{
		MsgType: msgType,
	}
	if err != nil {
		msg.setErr(err)
		return msg
	}
	msg.Records = []record.Record{r}
	return msg
}

// NewRecordsResponse creates a response holding a list of records (ListAvailable, ListAll, Search)
func NewRecordsResponse(msgType MessageType, records []record.Record, err error) *Message {
	msg := &Message{
		MsgType: msgType,
		Records: records,
	}
	msg.setErr(err)
	return msg
}

// NewDeleteResponse creates a new Delete response
func NewDeleteResponse(err error) *Message {
	msg := &Message{
		MsgType: MsgTDelete,
		Ok:      err == nil,
	}
	msg.setErr(err)
	return msg
}

// NewInfoResponse creates a new Info response
func NewInfoResponse(info catalog.Info, err error) *Message {
	msg := &Message{
		MsgType: MsgTInfo,
	}
	if err != nil {
		msg.setErr(err)
		return msg
	}
	meta, err := json.Marshal(info)
	if err != nil {
		msg.setErr(fmt.Errorf("failed to encode info: %w", err))
		return msg
	}
	msg.Meta = meta
	return msg
}

// NewErrorResponse creates a new Error response
func NewErrorResponse(err string) *Message {
	return &Message{
		MsgType: MsgTError,
		ErrCode: catalog.RetCInternalError,
		Err:     err,
	}
}

// --------------------------------------------------------------------------
// Message Type Definition
// --------------------------------------------------------------------------

// MessageType defines the type of message used in RPC communication.
type MessageType uint8

var msgTypeNames = map[MessageType]string{
	MsgTSuccess:       "success",
	MsgTError:         "error",
	MsgTGet:           "get",
	MsgTListAvailable: "listAvailable",
	MsgTListAll:       "listAll",
	MsgTSearch:        "search",
	MsgTAdd:           "add",
	MsgTBorrow:        "borrow",
	MsgTReturn:        "return",
	MsgTDelete:        "delete",
	MsgTInfo:          "info",
}

// String returns the string representation of a MessageType.
func (t MessageType) String() string {
	if name, ok := msgTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// MarshalJSON implements the json.Marshaller interface for MessageType.
// This allows MessageType to be serialized as a string in JSON.
func (t MessageType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for MessageType.
// This allows MessageType to be deserialized from a string in JSON.
func (t *MessageType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	for msgType, name := range msgTypeNames {
		if name == s {
			*t = msgType
			return nil
		}
	}
	return fmt.Errorf("unknown message type: %s", s)
}

// --------------------------------------------------------------------------
// Message Type Constants
// --------------------------------------------------------------------------

const (
	// General message types

	MsgTUnknown MessageType = iota
	MsgTSuccess             // Indicates a successful operation
	MsgTError               // Indicates an error occurred

	// ICatalog queries

	MsgTGet           // Get a record by id
	MsgTListAvailable // List all available records
	MsgTListAll       // List all records
	MsgTSearch        // List all records of a category
	MsgTInfo          // Catalog statistics

	// ICatalog updates

	MsgTAdd    // Add a new record
	MsgTBorrow // Borrow a record
	MsgTReturn // Return a borrowed record
	MsgTDelete // Delete a record
)
