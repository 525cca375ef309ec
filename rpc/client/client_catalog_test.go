package client_test

import (
	"errors"
	"github.com/ValentinKolb/shelf/lib/catalog"
	"github.com/ValentinKolb/shelf/lib/record"
	"github.com/ValentinKolb/shelf/rpc/client"
	"github.com/ValentinKolb/shelf/rpc/common"
	"github.com/ValentinKolb/shelf/rpc/serializer"
	"github.com/ValentinKolb/shelf/rpc/server"
	"github.com/ValentinKolb/shelf/rpc/transport"
	"github.com/ValentinKolb/shelf/rpc/transport/unix"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

// --------------------------------------------------------------------------
// In-process transport
// --------------------------------------------------------------------------

// pipeServer hands requests directly to the registered handler
type pipeServer struct {
	handler transport.ServerHandleFunc
	ready   chan struct{}
	done    chan struct{}
}

func newPipeServer() *pipeServer {
	return &pipeServer{ready: make(chan struct{}), done: make(chan struct{})}
}

func (p *pipeServer) RegisterHandler(handler transport.ServerHandleFunc) { p.handler = handler }

func (p *pipeServer) Listen(common.ServerConfig) error {
	close(p.ready)
	<-p.done
	return nil
}

func (p *pipeServer) Close() error {
	select {
	case <-p.done:
	default:
		close(p.done)
	}
	return nil
}

// pipeClient is the client side of a pipeServer
type pipeClient struct {
	server *pipeServer
	err    error // returned by Send if set
}

func (p *pipeClient) Connect(common.ClientConfig) error { return nil }
func (p *pipeClient) Close() error                      { return nil }

func (p *pipeClient) Send(shardId uint64, req []byte) ([]byte, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.server.handler(shardId, req), nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func serverConfig(endpoint string) common.ServerConfig {
	return common.ServerConfig{
		Endpoint:      endpoint,
		TimeoutSecond: 5,
		Shards: []common.ServerShard{
			{ShardID: 1, Type: common.ShardTypeMemory},
			{ShardID: 2, Type: common.ShardTypeMemory},
		},
	}
}

// startServer runs s in the background and closes it at the end of the test
func startServer(t *testing.T, s *server.RPCServer) {
	errCh := make(chan error, 1)
	go func() { errCh <- s.Serve() }()
	t.Cleanup(func() {
		_ = s.Close()
		if err := <-errCh; err != nil {
			t.Errorf("Serve returned %v", err)
		}
	})
}

// pipeCatalog returns a catalog for shardId served through the in-process transport
func pipeCatalog(t *testing.T, shardId uint64) (catalog.ICatalog, *pipeClient) {
	ps := newPipeServer()
	startServer(t, server.NewRPCServer(serverConfig(""), ps, serializer.NewBinarySerializer()))
	<-ps.ready

	pc := &pipeClient{server: ps}
	c, err := client.NewRPCCatalog(shardId, common.ClientConfig{}, pc, serializer.NewBinarySerializer())
	if err != nil {
		t.Fatalf("NewRPCCatalog failed: %v", err)
	}
	return c, pc
}

// --------------------------------------------------------------------------
// Tests
// --------------------------------------------------------------------------

func TestRemoteCatalog(t *testing.T) {
	serializers := map[string]func() serializer.IRPCSerializer{
		"Binary": serializer.NewBinarySerializer,
		"JSON":   serializer.NewJSONSerializer,
		"GOB":    serializer.NewGOBSerializer,
	}

	for name, factory := range serializers {
		t.Run(name, func(t *testing.T) {
			ps := newPipeServer()
			startServer(t, server.NewRPCServer(serverConfig(""), ps, factory()))
			<-ps.ready

			c, err := client.NewRPCCatalog(1, common.ClientConfig{}, &pipeClient{server: ps}, factory())
			if err != nil {
				t.Fatalf("NewRPCCatalog failed: %v", err)
			}
			runLendingScenario(t, c)
		})
	}
}

// runLendingScenario exercises all operations of a fresh catalog
func runLendingScenario(t *testing.T, c catalog.ICatalog) {
	empty := map[string]func() ([]record.Record, error){
		"ListAll":          c.ListAll,
		"ListAvailable":    c.ListAvailable,
		"SearchByCategory": func() ([]record.Record, error) { return c.SearchByCategory(record.Science) },
	}
	for name, list := range empty {
		if got, err := list(); err != nil || got == nil || len(got) != 0 {
			t.Errorf("%s on an empty catalog = %#v, %v, want an empty list", name, got, err)
		}
	}

	dune, err := c.Add(catalog.Payload{Title: "Dune", Author: "Frank Herbert", Category: record.Fiction})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	sicp, err := c.Add(catalog.Payload{Title: "SICP", Author: "Abelson", Category: record.Technology})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if dune.ID != 1 || sicp.ID != 2 {
		t.Errorf("ids = %d, %d, want 1, 2", dune.ID, sicp.ID)
	}

	got, err := c.Get(dune.ID)
	if err != nil || !reflect.DeepEqual(got, dune) {
		t.Errorf("Get = %+v, %v, want %+v", got, err, dune)
	}

	borrowed, err := c.Borrow(dune.ID, "alice")
	if err != nil {
		t.Fatalf("Borrow failed: %v", err)
	}
	if borrowed.Available || borrowed.HolderName() != "alice" {
		t.Errorf("Borrow returned %+v", borrowed)
	}

	if _, err := c.Borrow(dune.ID, "bob"); !catalog.IsInvalidOperation(err) {
		t.Errorf("second Borrow returned %v, want invalid operation", err)
	}

	available, err := c.ListAvailable()
	if err != nil || len(available) != 1 || available[0].ID != sicp.ID {
		t.Errorf("ListAvailable = %+v, %v", available, err)
	}

	tech, err := c.SearchByCategory(record.Technology)
	if err != nil || len(tech) != 1 || tech[0].ID != sicp.ID {
		t.Errorf("SearchByCategory = %+v, %v", tech, err)
	}

	// borrowed records can be deleted as well
	if err := c.Delete(dune.ID); err != nil {
		t.Errorf("Delete of a borrowed record failed: %v", err)
	}

	info, err := c.Info()
	if err != nil {
		t.Fatalf("Info failed: %v", err)
	}
	if info.LastID != 2 || info.Total != 1 || info.Available != 1 {
		t.Errorf("Info = %+v, want last id 2 and one available record", info)
	}

	all, err := c.ListAll()
	if err != nil || len(all) != info.Total {
		t.Errorf("ListAll = %d records, %v, want %d", len(all), err, info.Total)
	}

	if _, err := c.Get(99); !catalog.IsNotFound(err) {
		t.Errorf("Get(99) returned %v, want not found", err)
	}
	if err := c.Delete(99); !catalog.IsNotFound(err) {
		t.Errorf("Delete(99) returned %v, want not found", err)
	}
	if _, err := c.Add(catalog.Payload{Author: "nobody"}); !catalog.IsInvalidInput(err) {
		t.Errorf("Add without title returned %v, want invalid input", err)
	}
}

func TestRemoteShardsAreIsolated(t *testing.T) {
	ps := newPipeServer()
	startServer(t, server.NewRPCServer(serverConfig(""), ps, serializer.NewBinarySerializer()))
	<-ps.ready

	one, _ := client.NewRPCCatalog(1, common.ClientConfig{}, &pipeClient{server: ps}, serializer.NewBinarySerializer())
	two, _ := client.NewRPCCatalog(2, common.ClientConfig{}, &pipeClient{server: ps}, serializer.NewBinarySerializer())

	if _, err := one.Add(catalog.Payload{Title: "A", Author: "B"}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	records, err := two.ListAll()
	if err != nil || len(records) != 0 {
		t.Errorf("shard 2 ListAll = %+v, %v, want empty", records, err)
	}
}

func TestUnknownShard(t *testing.T) {
	c, _ := pipeCatalog(t, 42)
	if _, err := c.ListAll(); !catalog.IsInternal(err) {
		t.Errorf("ListAll on unknown shard returned %v, want internal error", err)
	}
}

func TestTransportFailure(t *testing.T) {
	c, pc := pipeCatalog(t, 1)
	pc.err = errors.New("connection refused")

	_, err := c.Get(1)
	if !catalog.IsInternal(err) {
		t.Errorf("Get with broken transport returned %v, want internal error", err)
	}
	var e *catalog.Error
	if !errors.As(err, &e) {
		t.Errorf("error %T is no *catalog.Error", err)
	}
}

func TestUnixSocket(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "shelf.sock")
	startServer(t, server.NewRPCServer(serverConfig(socket), unix.NewUnixServerTransport(), serializer.NewBinarySerializer()))

	config := common.ClientConfig{
		TimeoutSecond: 5,
		Transport:     common.ClientTransportConfig{Endpoints: []string{socket}, RetryCount: 2},
	}

	tr := unix.NewUnixClientTransport()
	defer tr.Close()

	// The server listens asynchronously
	var c catalog.ICatalog
	var err error
	for i := 0; i < 50; i++ {
		if c, err = client.NewRPCCatalog(1, config, tr, serializer.NewBinarySerializer()); err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("NewRPCCatalog failed: %v", err)
	}

	runLendingScenario(t, c)
}
