package http

import (
	"bytes"
	"github.com/ValentinKolb/shelf/rpc/common"
	"github.com/VictoriaMetrics/metrics"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// newTestServer starts the routes of a server transport that echoes shard id and body
func newTestServer(t *testing.T) *httptest.Server {
	srv := &httpServerTransport{}
	srv.RegisterHandler(func(shardId uint64, req []byte) []byte {
		return append([]byte{byte(shardId)}, req...)
	})
	ts := httptest.NewServer(srv.routes())
	t.Cleanup(ts.Close)
	return ts
}

func TestRoundTrip(t *testing.T) {
	ts := newTestServer(t)

	client := NewHttpClientTransport()
	err := client.Connect(common.ClientConfig{
		TimeoutSecond: 5,
		Transport:     common.ClientTransportConfig{Endpoints: []string{ts.URL}},
	})
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer client.Close()

	tests := []struct {
		shardId uint64
		req     []byte
	}{
		{1, []byte("hello")},
		{7, []byte{}},
		{200, bytes.Repeat([]byte{0xAB}, 64*1024)},
	}

	for _, tt := range tests {
		resp, err := client.Send(tt.shardId, tt.req)
		if err != nil {
			t.Fatalf("Send(%d) failed: %v", tt.shardId, err)
		}
		want := append([]byte{byte(tt.shardId)}, tt.req...)
		if !bytes.Equal(resp, want) {
			t.Errorf("Send(%d) = %d bytes, want %d bytes", tt.shardId, len(resp), len(want))
		}
	}
}

func TestInvalidShardId(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/not-a-number", "application/octet-stream", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Post failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	metrics.GetOrCreateCounter("shelf_http_test_total").Inc()

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if !strings.Contains(string(body), "shelf_http_test_total 1") {
		t.Errorf("metrics output does not contain the test counter:\n%s", body)
	}
}

func TestConnectErrors(t *testing.T) {
	tests := []struct {
		name      string
		endpoints []string
	}{
		{"no endpoints", nil},
		{"missing scheme", []string{"localhost:8080"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewHttpClientTransport()
			err := client.Connect(common.ClientConfig{Transport: common.ClientTransportConfig{Endpoints: tt.endpoints}})
			if err == nil {
				t.Errorf("expected an error")
			}
		})
	}
}

func TestSendWithoutConnect(t *testing.T) {
	if _, err := NewHttpClientTransport().Send(1, nil); err == nil {
		t.Errorf("expected an error")
	}
}
