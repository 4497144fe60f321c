package executor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanguard-load/vanguard/pkg/model"
)

func TestRun_SimpleGETSaturation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(10 * time.Millisecond)
		w.WriteHeader(200)
	}))
	defer srv.Close()

	cfg := model.RunConfig{
		Concurrency: 10,
		Duration:    time.Second,
		Mode:        model.ModeAsync,
		Timeout:     5 * time.Second,
		Workload:    model.Workload{Kind: model.WorkloadSimple, Simple: model.RequestSpec{Method: "GET", URL: srv.URL}},
	}
	ex, err := New(cfg, nil)
	require.NoError(t, err)

	report, err := ex.Run(context.Background())
	require.NoError(t, err)

	assert.GreaterOrEqual(t, report.Summary.TotalRequests, int64(700))
	assert.LessOrEqual(t, report.Summary.TotalRequests, int64(1100))
	assert.Zero(t, report.Summary.ErrorRate)
	assert.Equal(t, report.Summary.TotalRequests, report.Summary.StatusCodeCounts[200])
}

func TestRun_ReportsSuccessAndFailureSumToTotal(t *testing.T) {
	var n int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n++
		if n%2 == 0 {
			w.WriteHeader(500)
		} else {
			w.WriteHeader(200)
		}
	}))
	defer srv.Close()

	cfg := model.RunConfig{
		Concurrency: 4,
		Duration:    300 * time.Millisecond,
		Mode:        model.ModeAsync,
		Timeout:     time.Second,
		Workload:    model.Workload{Kind: model.WorkloadSimple, Simple: model.RequestSpec{Method: "GET", URL: srv.URL}},
	}
	ex, err := New(cfg, nil)
	require.NoError(t, err)

	report, err := ex.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, report.Summary.TotalRequests, report.Summary.SuccessfulRequests+report.Summary.FailedRequests)
}

func TestRun_GracefulCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
	}))
	defer srv.Close()

	cfg := model.RunConfig{
		Concurrency: 5,
		Duration:    30 * time.Second,
		Mode:        model.ModeAsync,
		Timeout:     time.Second,
		Workload:    model.Workload{Kind: model.WorkloadSimple, Simple: model.RequestSpec{Method: "GET", URL: srv.URL}},
	}
	ex, err := New(cfg, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	report, err := ex.Run(ctx)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Less(t, elapsed, 6*time.Second)
	assert.Greater(t, report.Summary.TotalRequests, int64(0))
}

func TestRun_SyncModeWorks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
	}))
	defer srv.Close()

	cfg := model.RunConfig{
		Concurrency: 2,
		Duration:    100 * time.Millisecond,
		Mode:        model.ModeSync,
		Timeout:     time.Second,
		Workload:    model.Workload{Kind: model.WorkloadSimple, Simple: model.RequestSpec{Method: "GET", URL: srv.URL}},
	}
	ex, err := New(cfg, nil)
	require.NoError(t, err)

	report, err := ex.Run(context.Background())
	require.NoError(t, err)
	assert.Greater(t, report.Summary.TotalRequests, int64(0))
}

func TestRun_ProgressCallbackInvoked(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
	}))
	defer srv.Close()

	var samples []model.Progress
	cfg := model.RunConfig{
		Concurrency: 3,
		Duration:    600 * time.Millisecond,
		Mode:        model.ModeAsync,
		Timeout:     time.Second,
		Workload:    model.Workload{Kind: model.WorkloadSimple, Simple: model.RequestSpec{Method: "GET", URL: srv.URL}},
	}
	ex, err := New(cfg, func(p model.Progress) {
		samples = append(samples, p)
	})
	require.NoError(t, err)

	_, err = ex.Run(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, samples)
}
