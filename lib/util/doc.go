// Package util provides small helpers shared by the storage packages.
//
// SizeHistogram tracks the size distribution of live records without storing the
// individual sizes. Unlike a sampling histogram it supports removing a sample, so it
// stays accurate while records are overwritten and deleted.
package util
