package server

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/shelf/lib/catalog"
	"github.com/ValentinKolb/shelf/lib/memory"
	"github.com/ValentinKolb/shelf/lib/storage"
	"github.com/ValentinKolb/shelf/rpc/common"
	"github.com/ValentinKolb/shelf/rpc/serializer"
	"github.com/ValentinKolb/shelf/rpc/transport"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"
)

var Logger = logger.GetLogger("rpc")

// serverShard is a struct that represents a shard in the RPC server
// It contains the catalog it serves, the storage backing the catalog and the adapter
// that handles requests for the catalog
type serverShard struct {
	Catalog catalog.ICatalog
	Storage *storage.Context
	Adapter IRPCServerAdapter
}

// RPCServer serves one catalog per configured shard over a transport
type RPCServer struct {
	config     common.ServerConfig
	transport  transport.IRPCServerTransport
	serializer serializer.IRPCSerializer
	shards     *xsync.MapOf[uint64, serverShard]
	closeOnce  sync.Once
}

// NewRPCServer creates a new RPC server
// It takes a config, transport and serializer as parameters
//
// Usage:
//
//	s := server.NewRPCServer(
//		*config,
//		tcp.NewTCPServerTransport(),
//		serializer.NewBinarySerializer(),
//	)
//
//	if err := s.Serve(); err != nil {
//		panic(err)
//	}
func NewRPCServer(
	config common.ServerConfig,
	transport transport.IRPCServerTransport,
	serializer serializer.IRPCSerializer,
) *RPCServer {
	// https://github.com/golang/go/issues/17393
	if runtime.GOOS == "darwin" {
		signal.Ignore(syscall.Signal(0xd))
	}

	Logger.Infof("Created RPC Server")
	Logger.Infof(config.String())

	return &RPCServer{
		config:     config,
		transport:  transport,
		serializer: serializer,
		shards:     xsync.NewMapOf[uint64, serverShard](),
	}
}

// Serve opens the catalogs of all shards and starts the transport layer.
// It blocks until Close is called or the transport fails.
func (s *RPCServer) Serve() error {
	if err := s.init(); err != nil {
		return errors.Join(err, s.Close())
	}
	return s.transport.Listen(s.config)
}

// Close stops the transport and closes the storage of all shards
func (s *RPCServer) Close() error {
	var errs []error
	s.closeOnce.Do(func() {
		if err := s.transport.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close transport: %w", err))
		}
		s.shards.Range(func(shardId uint64, shard serverShard) bool {
			if err := shard.Storage.Close(); err != nil {
				errs = append(errs, fmt.Errorf("failed to close shard %d: %w", shardId, err))
			}
			s.shards.Delete(shardId)
			return true
		})
		Logger.Infof("RPC Server closed")
	})
	return errors.Join(errs...)
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func (s *RPCServer) init() error {
	if s.config.HasFileShard() {
		if err := os.MkdirAll(s.config.DataDir, 0o755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	for _, shardConfig := range s.config.Shards {
		if _, exists := s.shards.Load(shardConfig.ShardID); exists {
			return fmt.Errorf("duplicate shard id %d", shardConfig.ShardID)
		}

		ctx, err := s.openStorage(shardConfig)
		if err != nil {
			return fmt.Errorf("failed to open shard %d: %w", shardConfig.ShardID, err)
		}

		s.shards.Store(shardConfig.ShardID, serverShard{
			Catalog: catalog.NewCatalog(ctx.IDs, ctx.Records),
			Storage: ctx,
			Adapter: NewCatalogServerAdapter(),
		})
		Logger.Infof("opened %s catalog for shard %d with %d records (last id %d)",
			shardConfig.Type, shardConfig.ShardID, ctx.Records.Len(), ctx.IDs.Current())
	}

	Logger.Infof("shelf setup completed successfully")

	s.registerTransportHandler()
	return nil
}

// openStorage opens the storage context of a shard depending on its type
func (s *RPCServer) openStorage(shardConfig common.ServerShard) (*storage.Context, error) {
	opts := &storage.Options{BucketPages: s.config.BucketPages}

	switch shardConfig.Type {
	case common.ShardTypeFile:
		return storage.OpenFile(s.config.ShardPath(shardConfig.ShardID), &memory.FileOptions{
			MaxPages:   s.config.MaxPages,
			SyncWrites: s.config.SyncWrites,
		}, opts)
	case common.ShardTypeMemory:
		return storage.OpenVolatile(s.config.MaxPages, opts)
	default:
		return nil, fmt.Errorf("invalid shard type: %q", shardConfig.Type)
	}
}

func (s *RPCServer) registerTransportHandler() {
	s.transport.RegisterHandler(s.handle)
}

// handle decodes a request, passes it to the adapter of the shard and encodes the response
func (s *RPCServer) handle(shardId uint64, req []byte) []byte {
	start := time.Now()

	var msg common.Message
	var respMsg *common.Message

	shard, ok := s.shards.Load(shardId)
	if !ok {
		respMsg = common.NewErrorResponse(fmt.Sprintf("shard %d not found", shardId))
	} else if err := s.serializer.Deserialize(req, &msg); err != nil {
		respMsg = common.NewErrorResponse(fmt.Sprintf("failed to deserialize request: %s", err))
	} else {
		respMsg = shard.Adapter.Handle(&msg, shard.Catalog)
	}

	observeRequest(msg.MsgType, respMsg.ErrCode, start)

	val, err := s.serializer.Serialize(*respMsg)
	if err != nil {
		Logger.Errorf("failed to serialize %s response: %v", respMsg.MsgType, err)
		val, _ = s.serializer.Serialize(*common.NewErrorResponse(fmt.Sprintf("failed to serialize response: %s", err)))
	}
	return val
}

// observeRequest records the request in the process wide metrics
func observeRequest(msgType common.MessageType, code catalog.RetCode, start time.Time) {
	metrics.GetOrCreateCounter(fmt.Sprintf(`shelf_rpc_requests_total{type=%q,code=%q}`, msgType, code)).Inc()
	metrics.GetOrCreateHistogram(fmt.Sprintf(`shelf_rpc_request_duration_seconds{type=%q}`, msgType)).UpdateDuration(start)
}
