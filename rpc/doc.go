// Package rpc provides the remote procedure call layer of the catalog service.
// It lets clients use a catalog.ICatalog that is served by another process.
//
// The package is organized into several subpackages:
//
//   - common: The Message protocol, configuration structures and logging.
//
//   - transport: Network communication abstractions with pluggable implementations
//     (TCP, Unix sockets, HTTP).
//
//   - serializer: Message serialization with multiple format options (Binary, JSON, GOB).
//
//   - client: A catalog.ICatalog implementation that forwards every call to a server.
//
//   - server: The server that opens the catalogs of its shards and answers requests.
package rpc
