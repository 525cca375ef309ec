// Package transport defines the contract between the catalog RPC layer and the
// network. A transport moves opaque byte slices, tagged with the shard they
// belong to, between client and server. It knows nothing about messages or
// catalogs.
//
// Implementations live in the sub packages:
//
//   - base: framing, connection pooling and worker pools shared by tcp and unix
//   - tcp: TCP sockets
//   - unix: unix domain sockets
//   - http: one POST request per message, plus a prometheus /metrics endpoint
package transport
