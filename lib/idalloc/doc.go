// Package idalloc provides a persistent, strictly increasing id counter.
//
// The counter lives in its own memory (usually region 0 of a region.Manager) as a
// small cell: magic "SIC", a version byte and the current value as little endian
// uint64. Every id returned by Next is persisted before it is handed out, so ids are
// never reissued, neither after deleting the record that used it nor after a restart.
package idalloc
