// Package common provides core data structures and utilities shared across
// the RPC layer of the catalog service. It defines the wire message,
// configuration structures and the logging setup used by other packages.
//
// Key Components:
//
//   - Message: Core data structure for all RPC communication, with a flexible
//     structure that adapts to the different catalog operations. Includes factory
//     methods for all request and response messages. Errors travel as a return code
//     plus message, so the client can rebuild the original *catalog.Error.
//
//   - MessageType: Enumeration of all catalog operations and control messages.
//
//   - ServerConfig: Configuration of a server: the served shards, storage
//     settings, network configuration and log level.
//
//   - ClientConfig: Configuration for clients, controlling the caller identity,
//     connection parameters, timeouts and retry behavior.
//
//   - Logger: Custom formatting for the dragonboat logger package that is used for
//     all named loggers of the application.
package common
