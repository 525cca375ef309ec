// Package tcp provides the TCP connectors for the base transport. Socket buffer
// sizes, TCP_NODELAY, keep-alive and linger are applied to both ends from the
// SocketConf and TCPConf of the respective config.
//
// The default server read buffer is 512 KB.
package tcp
