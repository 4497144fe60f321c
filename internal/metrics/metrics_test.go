package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanguard-load/vanguard/pkg/model"
)

func TestHistogramStore_MergesAcrossWorkers(t *testing.T) {
	store := NewHistogramStore(2)
	store.Worker(0).Record(10 * time.Millisecond)
	store.Worker(1).Record(20 * time.Millisecond)

	snap := store.Snapshot()
	require.EqualValues(t, 2, snap.Count)
	assert.InDelta(t, 10*time.Millisecond, snap.Min, float64(time.Millisecond))
	assert.InDelta(t, 20*time.Millisecond, snap.Max, float64(time.Millisecond))
}

func TestHistogramStore_Empty(t *testing.T) {
	store := NewHistogramStore(4)
	snap := store.Snapshot()
	assert.Zero(t, snap.Count)
}

func TestHistogramStore_ClampsAboveCeiling(t *testing.T) {
	store := NewHistogramStore(1)
	store.Worker(0).Record(90 * time.Second)
	snap := store.Snapshot()
	assert.LessOrEqual(t, snap.Max, 60*time.Second+time.Second)
}

func TestOutcomeLog_SnapshotAggregates(t *testing.T) {
	log := NewOutcomeLog(2, nil)
	log.Worker(0).Append(model.Outcome{Status: 200, Latency: 5 * time.Millisecond})
	log.Worker(0).Append(model.Outcome{Status: 500})
	log.Worker(1).Append(model.Outcome{ErrorKind: model.ErrTransportTimeout})

	all, summary := log.Snapshot()
	assert.Len(t, all, 3)
	assert.EqualValues(t, 3, summary.TotalRequests)
	assert.EqualValues(t, 1, summary.SuccessfulRequests)
	assert.EqualValues(t, 2, summary.FailedRequests)
	assert.InDelta(t, 2.0/3.0, summary.ErrorRate, 0.001)
}

func TestOutcomeLog_CustomSuccessCodes(t *testing.T) {
	log := NewOutcomeLog(1, map[int]bool{418: true})
	log.Worker(0).Append(model.Outcome{Status: 418})
	log.Worker(0).Append(model.Outcome{Status: 200})

	_, summary := log.Snapshot()
	assert.EqualValues(t, 1, summary.SuccessfulRequests)
	assert.EqualValues(t, 1, summary.FailedRequests)
}
