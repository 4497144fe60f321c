package metrics

import (
	"sync"

	"github.com/vanguard-load/vanguard/pkg/model"
)

// OutcomeLog holds one append-only Outcome buffer per worker, each guarded
// by its own mutex so that two workers' Appends never contend with each
// other — only Snapshot, which must briefly hold every per-worker lock to
// read a consistent view, contends with them. This is what makes Append
// safe against a concurrently-running Snapshot (the progress-sampling
// goroutine calls Snapshot every 200ms for the life of every run, see
// internal/executor's sampleProgress), matching spec.md §3's "concurrent
// appends... must be linearizable" against reads.
type OutcomeLog struct {
	mus  []sync.Mutex
	bufs [][]model.Outcome

	successCodes map[int]bool // optional override of the default [200,399] rule
}

// NewOutcomeLog builds an empty log sized for the given worker count.
// successCodes, if non-nil, overrides the default success range for the
// SuccessfulRequests/FailedRequests/ErrorRate accounting in Snapshot
// (spec.md §6); StatusCodeCounts counts every status either way.
func NewOutcomeLog(workers int, successCodes map[int]bool) *OutcomeLog {
	return &OutcomeLog{
		mus:          make([]sync.Mutex, workers),
		bufs:         make([][]model.Outcome, workers),
		successCodes: successCodes,
	}
}

// WorkerLog is a per-worker append handle, not shared across goroutines.
type WorkerLog struct {
	log *OutcomeLog
	idx int
}

// Worker returns the append handle for worker index i.
func (l *OutcomeLog) Worker(i int) *WorkerLog {
	return &WorkerLog{log: l, idx: i}
}

// Append records one Outcome, taking this worker's own lock so a
// concurrent Snapshot never observes a half-written slice header.
func (w *WorkerLog) Append(o model.Outcome) {
	w.log.mus[w.idx].Lock()
	w.log.bufs[w.idx] = append(w.log.bufs[w.idx], o)
	w.log.mus[w.idx].Unlock()
}

func (l *OutcomeLog) isSuccess(o model.Outcome) bool {
	if o.ErrorKind != model.ErrNone {
		return false
	}
	if l.successCodes != nil {
		return l.successCodes[o.Status]
	}
	return o.Success()
}

// Snapshot merges every worker's buffer and computes the summary counters
// spec.md §6 requires. Results are returned in the same order outcomes were
// recorded per worker, workers in index order — callers that need a single
// run-wide chronological order should sort on TimestampMs.
func (l *OutcomeLog) Snapshot() ([]model.Outcome, model.Summary) {
	var all []model.Outcome
	for i := range l.bufs {
		l.mus[i].Lock()
		all = append(all, l.bufs[i]...)
		l.mus[i].Unlock()
	}

	summary := model.Summary{StatusCodeCounts: make(map[int]int64)}
	var totalLatency float64
	var latencyCount int64
	for _, o := range all {
		summary.TotalRequests++
		summary.StatusCodeCounts[o.Status]++
		if l.isSuccess(o) {
			summary.SuccessfulRequests++
		} else {
			summary.FailedRequests++
		}
		if o.AssertionFailed {
			summary.AssertionFailures++
		}
		if o.ErrorKind == model.ErrNone {
			totalLatency += float64(o.Latency.Microseconds()) / 1000.0
			latencyCount++
		}
	}
	if summary.TotalRequests > 0 {
		summary.ErrorRate = float64(summary.FailedRequests) / float64(summary.TotalRequests)
	}
	if latencyCount > 0 {
		summary.MeanMs = totalLatency / float64(latencyCount)
	}

	return all, summary
}
