package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanguard-load/vanguard/pkg/model"
)

func sampleReport() model.Report {
	return model.Report{
		TargetURL:   "http://example.com",
		Method:      "GET",
		Duration:    2 * time.Second,
		Concurrency: 4,
		Summary: model.Summary{
			TotalRequests:      100,
			SuccessfulRequests: 95,
			FailedRequests:     5,
			ThroughputRPS:      50,
			P50Ms:              10,
			P90Ms:              20,
			P95Ms:              25,
			P99Ms:              40,
			MaxMs:              60,
			MinMs:              2,
			StatusCodeCounts:   map[int]int64{200: 95, 500: 5},
			ErrorRate:          0.05,
			AssertionFailures:  2,
		},
		Results: []model.Outcome{
			{TimestampMs: 100, Latency: 10 * time.Millisecond, Status: 200},
			{TimestampMs: 1100, Latency: 12 * time.Millisecond, Status: 200},
			{TimestampMs: 1200, ErrorKind: model.ErrConnectError, ErrorMessage: "connect refused"},
		},
	}
}

func TestWriteJSON_RoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.json")
	require.NoError(t, WriteJSON(sampleReport(), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got model.Report
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, int64(100), got.Summary.TotalRequests)
	assert.Equal(t, "http://example.com", got.TargetURL)
}

func TestWriteHTML_ProducesValidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.html")
	require.NoError(t, WriteHTML(sampleReport(), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	html := string(data)
	assert.Contains(t, html, "Vanguard Load Test Report")
	assert.Contains(t, html, "connect refused")
	assert.Contains(t, html, "Assertion Failures")
}

func TestBucketBySecond_GroupsByTimestamp(t *testing.T) {
	buckets := bucketBySecond(sampleReport().Results)
	require.Contains(t, buckets, 0)
	require.Contains(t, buckets, 1)
	assert.Equal(t, int64(1), buckets[0].requests)
	assert.Equal(t, int64(2), buckets[1].requests)
	assert.Equal(t, int64(1), buckets[1].failure)
}

func TestWriteJSON_NoLeftoverTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.json")
	require.NoError(t, WriteJSON(sampleReport(), path))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "report.json", entries[0].Name())
}
