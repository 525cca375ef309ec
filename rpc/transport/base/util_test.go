package base

import (
	"bytes"
	"encoding/binary"
	"net"
	"testing"
)

func TestFrameRoundTrip(t *testing.T) {
	tests := []struct {
		name      string
		shardID   uint64
		requestID uint64
		data      []byte
		buf       []byte
	}{
		{"empty payload", 1, 1, []byte{}, nil},
		{"fits buffer", 2, 42, []byte("hello"), make([]byte, 16)},
		{"larger than buffer", 3, 1 << 40, bytes.Repeat([]byte{7}, 100), make([]byte, 8)},
		{"no buffer", 1<<64 - 1, 0, []byte{1, 2, 3}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, server := net.Pipe()
			defer client.Close()
			defer server.Close()

			errCh := make(chan error, 1)
			go func() { errCh <- writeFrame(client, tt.shardID, tt.requestID, tt.data) }()

			shardID, requestID, data, err := readFrame(server, tt.buf)
			if err != nil {
				t.Fatalf("readFrame failed: %v", err)
			}
			if err := <-errCh; err != nil {
				t.Fatalf("writeFrame failed: %v", err)
			}

			if shardID != tt.shardID || requestID != tt.requestID {
				t.Errorf("header = (%d, %d), want (%d, %d)", shardID, requestID, tt.shardID, tt.requestID)
			}
			if !bytes.Equal(data, tt.data) {
				t.Errorf("data = %v, want %v", data, tt.data)
			}
		})
	}
}

func TestReadFrameErrors(t *testing.T) {
	oversized := make([]byte, frameHeaderSize)
	binary.BigEndian.PutUint32(oversized[16:20], maxFrameSize+1)

	truncated := make([]byte, frameHeaderSize+2)
	binary.BigEndian.PutUint32(truncated[16:20], 10)

	tests := []struct {
		name string
		data []byte
	}{
		{"short header", []byte{0, 0, 0}},
		{"oversized frame", oversized},
		{"truncated payload", truncated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, _, err := readFrame(bytes.NewReader(tt.data), nil); err == nil {
				t.Errorf("expected an error")
			}
		})
	}
}
