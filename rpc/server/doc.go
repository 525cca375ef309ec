// Package server implements the RPC server of the catalog service.
// It opens one catalog per configured shard and routes every incoming request
// to the catalog of its shard.
//
// Key Components:
//
//   - IRPCServerAdapter: Interface defining the contract for server adapters,
//     with the Handle method that applies a request message to a catalog.ICatalog.
//
//   - NewCatalogServerAdapter: Factory function creating the adapter that translates
//     request messages to catalog.ICatalog method calls and builds the response.
//
//   - NewRPCServer: Factory function creating a configured server with the specified
//     transport and serializer mechanisms.
//
// Usage Example:
//
//	config := common.ServerConfig{
//	  Shards: []common.ServerShard{
//	    {ShardID: 100, Type: common.ShardTypeFile},
//	    {ShardID: 200, Type: common.ShardTypeMemory},
//	  },
//	  DataDir:       "./data",
//	  Endpoint:      "0.0.0.0:8080",
//	  TimeoutSecond: 5,
//	  LogLevel:      "info",
//	}
//
//	s := server.NewRPCServer(
//	  config,
//	  tcp.NewTCPServerTransport(),
//	  serializer.NewBinarySerializer(),
//	)
//
//	if err := s.Serve(); err != nil {
//	  log.Fatalf("Server error: %v", err)
//	}
//
// Shard types:
//
//   - ShardTypeFile: The catalog lives in a memory file below DataDir
//     (see ServerConfig.ShardPath) and survives restarts.
//
//   - ShardTypeMemory: The catalog lives in process memory and is lost on Close.
//
// Thread Safety:
//
//	Requests are handled concurrently, each catalog serializes its own operations.
//	Serve must be called only once, Close may be called from any goroutine.
package server
