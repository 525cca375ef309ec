// Package cmd implements the command-line interface of shelf. It provides a
// hierarchical command structure with operations for running the server and
// for working with a catalog as a client.
//
// The package is organized into several subpackages:
//
//   - serve: starts the server with its shards
//   - record: client commands (add, get, list, borrow, return, ...)
//   - util: shared flag and configuration helpers (internal use)
//
// All flags can be set as environment variables SHELF_<FLAG> (e.g.
// SHELF_DATA_DIR=/var/lib/shelf), also from .env and .env.local files.
//
// See shelf -help for a list of all commands.
package cmd
