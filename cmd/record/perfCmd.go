package record

import (
	"encoding/csv"
	"fmt"
	"github.com/ValentinKolb/shelf/cmd/util"
	"github.com/ValentinKolb/shelf/lib/catalog"
	"github.com/ValentinKolb/shelf/lib/record"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"log"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for shelf servers",
		Long:    "Runs benchmarks against a catalog. All records created by the benchmarks are deleted afterwards, existing records are not touched.",
		Args:    cobra.NoArgs,
		RunE:    runPerf,
		PreRunE: processPerfConfig,
	}
	perfTitlePrefix = "__perf"
	perfNumThreads  = 10
	perfRecords     = 100
	perfSkip        = make([]string, 0)
)

// benchmarks in the order they are run
var perfTests = []struct {
	name string
	run  func(b *testing.B)
}{
	{"add-delete", benchAddDelete},
	{"get", benchGet},
	{"list-available", benchListAvailable},
	{"borrow-return", benchBorrowReturn},
	{"info", benchInfo},
}

func init() {
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. get,info)"))
	key = "threads"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("Number of threads to use for the benchmark"))
	key = "records"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How many records to create for the read and lending benchmarks"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	perfNumThreads = max(viper.GetInt("threads"), 1)
	perfRecords = max(viper.GetInt("records"), 1)
	perfSkip = util.SplitList(viper.GetString("skip"))

	return nil
}

func runPerf(_ *cobra.Command, _ []string) error {
	fmt.Println("Performance testing tool for shelf servers")

	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(clientConfig.String())
	fmt.Printf("Threads: %d\n", perfNumThreads)
	fmt.Printf("Records: %d\n", perfRecords)
	fmt.Println()

	fmt.Println("starting tests...")

	results := make(map[string]testing.BenchmarkResult)
	for _, test := range perfTests {
		var result testing.BenchmarkResult
		if !slices.Contains(perfSkip, test.name) {
			result = testing.Benchmark(test.run)
		}
		results[test.name] = result
		printResult(test.name, result)
	}

	if csvPath := viper.GetString("csv"); csvPath != "" {
		if err := writeResultsToCSV(csvPath, results); err != nil {
			return err
		}
		fmt.Printf("results written to %s\n", csvPath)
	}

	return nil
}

// --------------------------------------------------------------------------
// Benchmarks
// --------------------------------------------------------------------------

func benchAddDelete(b *testing.B) {
	b.SetParallelism(perfNumThreads)
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			r, err := rpcCatalog.Add(catalog.Payload{Title: perfTitlePrefix + "-add", Author: "perf"})
			if err != nil {
				log.Printf("(add-delete) - error adding record: %v\n", err)
				continue
			}
			if err := rpcCatalog.Delete(r.ID); err != nil {
				log.Printf("(add-delete) - error deleting record: %v\n", err)
			}
		}
	})
}

func benchGet(b *testing.B) {
	ids := createRecords(b, "get")
	var counter atomic.Uint64

	b.SetParallelism(perfNumThreads)
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			id := ids[counter.Add(1)%uint64(len(ids))]
			if _, err := rpcCatalog.Get(id); err != nil {
				log.Printf("(get) - error reading record: %v\n", err)
			}
		}
	})
}

func benchListAvailable(b *testing.B) {
	createRecords(b, "list-available")

	b.SetParallelism(perfNumThreads)
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := rpcCatalog.ListAvailable(); err != nil {
				log.Printf("(list-available) - error listing records: %v\n", err)
			}
		}
	})
}

// benchBorrowReturn gives every worker its own records so the loans never collide
func benchBorrowReturn(b *testing.B) {
	ids := createRecords(b, "borrow-return")
	var worker atomic.Uint64

	b.SetParallelism(perfNumThreads)
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		w := worker.Add(1)
		caller := fmt.Sprintf("%s-%d", perfTitlePrefix, w)
		counter := 0
		for pb.Next() {
			id := ids[(int(w)+counter*perfNumThreads)%len(ids)]
			counter++
			if _, err := rpcCatalog.Borrow(id, caller); err != nil {
				// another worker holds it
				if !catalog.IsInvalidOperation(err) {
					log.Printf("(borrow-return) - error borrowing record: %v\n", err)
				}
				continue
			}
			if _, err := rpcCatalog.Return(id); err != nil {
				log.Printf("(borrow-return) - error returning record: %v\n", err)
			}
		}
	})
}

func benchInfo(b *testing.B) {
	b.SetParallelism(perfNumThreads)
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := rpcCatalog.Info(); err != nil {
				log.Printf("(info) - error reading info: %v\n", err)
			}
		}
	})
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// createRecords adds perfRecords records and deletes them when the benchmark is done
func createRecords(b *testing.B, test string) []uint64 {
	b.Helper()

	ids := make([]uint64, 0, perfRecords)
	for i := 0; i < perfRecords; i++ {
		r, err := rpcCatalog.Add(catalog.Payload{
			Title:    fmt.Sprintf("%s-%s-%d", perfTitlePrefix, test, i),
			Author:   "perf",
			Category: record.Categories[i%len(record.Categories)],
		})
		if err != nil {
			b.Fatalf("(%s) - error creating record: %v", test, err)
		}
		ids = append(ids, r.ID)
	}

	b.Cleanup(func() {
		for _, id := range ids {
			if err := rpcCatalog.Delete(id); err != nil {
				log.Printf("(%s) - error deleting record: %v\n", test, err)
			}
		}
	})

	return ids
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(test string, result testing.BenchmarkResult) {
	if result.NsPerOp() == 0 {
		fmt.Printf("%-20sskipped\n", test)
		return
	}

	nsPerOp := math.Max(float64(result.NsPerOp()), 1) // prevent division by zero
	opsPerSec := 1.0 / (nsPerOp / 1e9)

	fmt.Printf("%-20s%.0fns/op (%s/op)\t%.0f ops/sec\n", test, nsPerOp, time.Duration(nsPerOp), opsPerSec)
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results map[string]testing.BenchmarkResult) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{
		"Test", "NsPerOp", "DurationPerOp", "OpsPerSec", "Skipped",
		"Endpoints", "TimeoutSec", "RetryCount", "ConnectionsPerEndpoint",
		"ShardID", "Serializer", "Transport", "Threads", "Records",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	for _, test := range perfTests {
		result := results[test.name]

		nsPerOp, opsPerSec, skipped := 0.0, 0.0, "true"
		if result.NsPerOp() != 0 {
			skipped = "false"
			nsPerOp = math.Max(float64(result.NsPerOp()), 1)
			opsPerSec = 1.0 / (nsPerOp / 1e9)
		}

		row := []string{
			test.name,
			fmt.Sprintf("%.0f", nsPerOp),
			time.Duration(nsPerOp).String(),
			fmt.Sprintf("%.0f", opsPerSec),
			skipped,
			strings.Join(clientConfig.Transport.Endpoints, ";"),
			strconv.Itoa(clientConfig.TimeoutSecond),
			strconv.Itoa(clientConfig.Transport.RetryCount),
			strconv.Itoa(clientConfig.Transport.ConnectionsPerEndpoint),
			strconv.FormatUint(util.GetShardID(), 10),
			viper.GetString("serializer"),
			viper.GetString("transport"),
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfRecords),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", test.name, err)
		}
	}

	return nil
}
