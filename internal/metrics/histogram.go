// Package metrics accumulates per-worker latency histograms and outcome
// records, merging them only when a Snapshot is requested. Workers never
// contend on a shared lock while recording — each owns its own histogram and
// buffer, grounded on the teacher's stats.Monitor reshaped per spec.md §9's
// recommendation to aggregate per-worker above high request rates.
package metrics

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/vanguard-load/vanguard/pkg/model"
)

const (
	histogramMin     = 1        // 1 microsecond
	histogramMax     = 60000000 // 60 seconds, in microseconds
	histogramSigFigs = 3
)

// HistogramStore holds one HDR histogram per worker, each guarded by its
// own mutex. hdrhistogram-go's RecordValue and Merge both mutate/read the
// same internal counts slice, so a worker's Record and a concurrent
// Snapshot's Merge over that same bin must be mutually exclusive — the
// per-worker lock here is what makes that true without workers contending
// with each other (only with the occasional Snapshot).
type HistogramStore struct {
	mus  []sync.Mutex
	bins []*hdrhistogram.Histogram
}

// NewHistogramStore builds an empty store sized for the given worker count.
func NewHistogramStore(workers int) *HistogramStore {
	s := &HistogramStore{
		mus:  make([]sync.Mutex, workers),
		bins: make([]*hdrhistogram.Histogram, workers),
	}
	for i := range s.bins {
		s.bins[i] = hdrhistogram.New(histogramMin, histogramMax, histogramSigFigs)
	}
	return s
}

// WorkerHistogram is a per-worker recording handle, not shared across
// goroutines.
type WorkerHistogram struct {
	h  *hdrhistogram.Histogram
	mu *sync.Mutex
}

// Worker returns the recording handle for worker index i.
func (s *HistogramStore) Worker(i int) *WorkerHistogram {
	return &WorkerHistogram{h: s.bins[i], mu: &s.mus[i]}
}

// Record adds a latency sample. Values above the store's 60s ceiling are
// clamped rather than dropped, so tail latency is never silently lost from
// the count even when it can't be placed precisely. Takes this worker's
// own lock so a concurrent Snapshot can never observe a partially-updated
// histogram.
func (w *WorkerHistogram) Record(latency time.Duration) {
	us := latency.Microseconds()
	if us < histogramMin {
		us = histogramMin
	}
	if us > histogramMax {
		us = histogramMax
	}
	w.mu.Lock()
	_ = w.h.RecordValue(us)
	w.mu.Unlock()
}

// Snapshot merges every worker's histogram into one and reports the
// resulting percentile estimate. Each bin is locked only for the duration
// of its own Merge call, so this never blocks more than one worker's
// Record at a time.
func (s *HistogramStore) Snapshot() model.HistogramSnapshot {
	merged := hdrhistogram.New(histogramMin, histogramMax, histogramSigFigs)
	for i, h := range s.bins {
		s.mus[i].Lock()
		merged.Merge(h)
		s.mus[i].Unlock()
	}

	if merged.TotalCount() == 0 {
		return model.HistogramSnapshot{}
	}

	return model.HistogramSnapshot{
		Count: merged.TotalCount(),
		Min:   time.Duration(merged.Min()) * time.Microsecond,
		Max:   time.Duration(merged.Max()) * time.Microsecond,
		Mean:  time.Duration(merged.Mean()) * time.Microsecond,
		P50:   time.Duration(merged.ValueAtQuantile(50)) * time.Microsecond,
		P90:   time.Duration(merged.ValueAtQuantile(90)) * time.Microsecond,
		P95:   time.Duration(merged.ValueAtQuantile(95)) * time.Microsecond,
		P99:   time.Duration(merged.ValueAtQuantile(99)) * time.Microsecond,
	}
}
