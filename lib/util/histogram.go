package util

import (
	"math"
	"sync"
)

// ----------------------------------------------------------------------------
// SizeHistogram
// ----------------------------------------------------------------------------

// DefaultBoundaries are bucket boundaries for values up to one KiB
var DefaultBoundaries = []int{16, 32, 64, 128, 256, 512, 1024}

// SizeHistogram tracks the distribution of sizes.
// Sizes are organized into buckets, one bucket per boundary plus one for larger values.
type SizeHistogram struct {
	mutex      sync.RWMutex
	boundaries []int
	buckets    []int64
	count      int64
	sum        int64
}

// NewSizeHistogram creates a histogram with the given ascending bucket boundaries.
// Without boundaries DefaultBoundaries is used.
func NewSizeHistogram(boundaries ...int) *SizeHistogram {
	if len(boundaries) == 0 {
		boundaries = DefaultBoundaries
	}
	return &SizeHistogram{
		boundaries: boundaries,
		buckets:    make([]int64, len(boundaries)+1),
	}
}

// bucketFor returns the index of the bucket a size belongs to
func (h *SizeHistogram) bucketFor(size int) int {
	for i, boundary := range h.boundaries {
		if size <= boundary {
			return i
		}
	}
	return len(h.boundaries)
}

// AddSample adds a size sample to the histogram
//
// Thread-safe: This method is safe for concurrent use
func (h *SizeHistogram) AddSample(size int) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.buckets[h.bucketFor(size)]++
	h.count++
	h.sum += int64(size)
}

// RemoveSample removes a previously added size sample.
// Removing a sample that was never added is ignored.
//
// Thread-safe: This method is safe for concurrent use
func (h *SizeHistogram) RemoveSample(size int) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	i := h.bucketFor(size)
	if h.buckets[i] == 0 {
		return
	}
	h.buckets[i]--
	h.count--
	h.sum -= int64(size)
}

// Count returns the number of samples
//
// Thread-safe: This method is safe for concurrent use
func (h *SizeHistogram) Count() int64 {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.count
}

// Sum returns the sum of all samples
//
// Thread-safe: This method is safe for concurrent use
func (h *SizeHistogram) Sum() int64 {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.sum
}

// AverageSize returns the average size across all samples
//
// Thread-safe: This method is safe for concurrent use
func (h *SizeHistogram) AverageSize() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	if h.count == 0 {
		return 0
	}
	return int(h.sum / h.count)
}

// PercentileEstimate returns an estimate for the given percentile (0-100)
//
// Thread-safe: This method is safe for concurrent use
func (h *SizeHistogram) PercentileEstimate(percentile int) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.percentile(percentile)
}

func (h *SizeHistogram) percentile(percentile int) int {
	if h.count == 0 || percentile < 0 || percentile > 100 {
		return 0
	}

	target := int64(math.Ceil(float64(h.count) * float64(percentile) / 100.0))
	cumulative := int64(0)

	for i, count := range h.buckets {
		cumulative += count
		if cumulative < target || count == 0 {
			continue
		}
		switch {
		case i == 0:
			return h.boundaries[0] / 2
		case i < len(h.boundaries):
			return (h.boundaries[i-1] + h.boundaries[i]) / 2
		default:
			// estimate for the overflow bucket
			return h.boundaries[len(h.boundaries)-1] * 2
		}
	}

	return int(h.sum / h.count)
}

// ----------------------------------------------------------------------------
// Snapshot
// ----------------------------------------------------------------------------

// HistogramSnapshot is a point in time view of a SizeHistogram
type HistogramSnapshot struct {
	Count      int64     `json:"count"`
	Average    int       `json:"average"`
	Median     int       `json:"median"`
	P95        int       `json:"p95"`
	Boundaries []int     `json:"boundaries"`
	Percentage []float64 `json:"percentage"`
}

// Snapshot returns the current distribution of the histogram
//
// Thread-safe: This method is safe for concurrent use
func (h *SizeHistogram) Snapshot() HistogramSnapshot {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	s := HistogramSnapshot{
		Count:      h.count,
		Median:     h.percentile(50),
		P95:        h.percentile(95),
		Boundaries: append([]int(nil), h.boundaries...),
		Percentage: make([]float64, len(h.buckets)),
	}
	if h.count == 0 {
		return s
	}

	s.Average = int(h.sum / h.count)
	for i, count := range h.buckets {
		s.Percentage[i] = float64(count) * 100.0 / float64(h.count)
	}
	return s
}
