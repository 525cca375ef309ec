package serializer

import (
	"encoding/json"
	"fmt"
	"github.com/ValentinKolb/shelf/rpc/common"
)

// NewJSONSerializer creates a new serializer using json encoding.
// Categories are written by name, see record.Category.MarshalJSON.
func NewJSONSerializer() IRPCSerializer {
	return &jsonSerializerImpl{}
}

type jsonSerializerImpl struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (j jsonSerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s message as json: %w", msg.MsgType, err)
	}
	return data, nil
}

func (j jsonSerializerImpl) Deserialize(b []byte, msg *common.Message) error {
	// json.Unmarshal merges into existing values, start from a clean message
	*msg = common.Message{}
	if err := json.Unmarshal(b, msg); err != nil {
		return fmt.Errorf("failed to decode json message: %w", err)
	}
	return nil
}
