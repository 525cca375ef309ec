// Package testing provides standardised tests and benchmarks for
// implementations of the memory.Memory interface.
//
// The package contains:
//   - RunMemoryTests: A test suite for validating conformance to the Memory contract
//   - RunMemoryBenchmarks: Throughput benchmarks for reads and writes
//
// The regions handed out by the region package implement memory.Memory as well,
// so the same suite validates the virtual memories of the region manager.
//
// Example usage:
//
//	factory := func(t testing.TB, maxPages uint64) memory.Memory {
//		return memory.NewVectorMemory(maxPages)
//	}
//
//	memtesting.RunMemoryTests(t, "VectorMemory", factory)
package testing
