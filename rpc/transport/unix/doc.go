// Package unix provides the unix domain socket connectors for the base transport.
// The endpoint is the path of the socket file, an existing file at that path is
// removed before listening.
//
// The default server read buffer is 64 KB.
package unix
