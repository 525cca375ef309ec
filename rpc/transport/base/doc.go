// Package base implements the stream transports (tcp, unix) independent of the
// socket type. Protocol specifics are injected through IClientConnector and
// IServerConnector.
//
// Wire format:
//
//	[shardId u64][requestId u64][length u32][payload]
//
// All integers are big endian. Responses carry the requestId of their request,
// so a single connection can have many requests in flight. Frames above 64 MiB
// are rejected.
//
// Client:
//
//   - Keeps ConnectionsPerEndpoint connections per endpoint and picks one per
//     request round robin.
//   - Retries failed requests RetryCount times with exponential backoff.
//   - A broken connection fails all requests waiting on it, then reconnects.
//
// Server:
//
//   - One goroutine per connection reads frames. Up to WorkersPerConn requests of
//     a connection are handled concurrently, responses may be written out of order.
//   - Read buffers are pooled (sync.Pool), their size is Transport.BufferSize.
//   - Close stops the accept loop, closes all connections and waits for running
//     handlers.
//
// Thread Safety:
//
//	Send may be called from any number of goroutines. Connect and Close must not
//	race with each other.
package base
