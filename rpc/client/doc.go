// Package client provides catalog.ICatalog on top of the RPC layer. Every call
// is turned into a common.Message, sent through the configured transport to
// one shard of a server and the response is turned back into records or errors.
//
// Errors reported by the server keep their catalog.RetCode, so callers can use
// catalog.IsNotFound and friends on remote catalogs as well. Transport and
// serialization failures are reported as catalog.RetCInternalError.
//
// Usage Example:
//
//	config := common.ClientConfig{
//	  TimeoutSecond: 5,
//	  Transport: common.ClientTransportConfig{
//	    Endpoints:  []string{"localhost:8080"},
//	    RetryCount: 3,
//	  },
//	}
//
//	t := tcp.NewTCPClientTransport()
//	defer t.Close()
//
//	c, err := client.NewRPCCatalog(1, config, t, serializer.NewBinarySerializer())
//	if err != nil {
//	  log.Fatal(err)
//	}
//	r, err := c.Add(catalog.Payload{Title: "Dune", Author: "Frank Herbert"})
package client
