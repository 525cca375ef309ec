// Package serializer turns catalog RPC messages into bytes and back. All
// implementations satisfy IRPCSerializer and are interchangeable as long as
// client and server agree on the format.
//
// Implementations:
//
//   - binarySerializerImpl: flag based format that writes only present fields.
//     Records inside a message are written with the record codec (lib/record),
//     so a record looks the same on the wire as it does in the store. This is
//     the default and the fastest option.
//
//   - jsonSerializerImpl: human readable, useful together with the http
//     transport and for debugging.
//
//   - gobSerializerImpl: Go's gob format. Works, but has the biggest payloads
//     since every message carries its type description.
//
// Thread Safety:
//
//	All serializers are stateless and safe for concurrent use.
//
// Usage:
//
//	s := serializer.NewBinarySerializer()
//	data, err := s.Serialize(*common.NewGetRequest(42))
//	// ... send data ...
//	var resp common.Message
//	err = s.Deserialize(received, &resp)
package serializer
