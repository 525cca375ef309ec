// Package http implements the RPC transport on top of plain HTTP. Every message
// is one POST /{shardId} with the serialized request as body, the response body
// is the serialized answer.
//
// The server additionally exposes GET /metrics with all VictoriaMetrics metrics
// of the process in the prometheus text format. With log level debug every
// request is logged with its status and duration.
//
// The client balances round robin over all endpoints. A failed request is
// retried on the next endpoint up to RetryCount times.
//
// Thread Safety:
//
//	Send is safe for concurrent use. Connect and Close must not race with it.
package http
