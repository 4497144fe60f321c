// Package executor spawns and coordinates a run's workers: deadline and
// cancellation handling, dispatch to the ScenarioRunner, publication into
// the metrics aggregators, and graceful shutdown. Grounded on
// internal/attacker/attacker.go's Attack (goroutine-per-worker WaitGroup,
// ctx.Done() checks at loop head) generalized to a deadline-based model.
package executor

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/vanguard-load/vanguard/internal/circuitbreaker"
	"github.com/vanguard-load/vanguard/internal/feed"
	"github.com/vanguard-load/vanguard/internal/httpclient"
	"github.com/vanguard-load/vanguard/internal/metrics"
	"github.com/vanguard-load/vanguard/internal/scenario"
	"github.com/vanguard-load/vanguard/pkg/model"
)

// Grace is the default wait after deadline/cancellation for in-flight
// requests to finish before the client is forcibly closed.
const Grace = 5 * time.Second

// sampleInterval is the progress-sampling period: 5 Hz, within the spec's
// 2-10 Hz band.
const sampleInterval = 200 * time.Millisecond

// workerState names a worker's position in the per-worker state machine:
// Starting -> Running -> Draining -> Terminated.
type workerState int32

const (
	stateStarting workerState = iota
	stateRunning
	stateDraining
	stateTerminated
)

// Executor runs a validated RunConfig to completion. Owns the connection
// pool and the aggregates; callers get a Report back from Run.
type Executor struct {
	cfg     model.RunConfig
	client  *httpclient.Client
	runner  *scenario.Runner
	hist    *metrics.HistogramStore
	log     *metrics.OutcomeLog
	feeds   feed.Set
	breaker *circuitbreaker.Breaker

	varPool sync.Pool

	progress func(model.Progress)

	states []int32 // one workerState per worker, atomically updated
}

// New builds an Executor from a validated RunConfig. progress, if non-nil,
// is invoked from a single dedicated goroutine at 2-10 Hz while the run is
// in flight.
func New(cfg model.RunConfig, progress func(model.Progress)) (*Executor, error) {
	feeds, err := feed.Load(cfg.Data)
	if err != nil {
		return nil, err
	}

	breaker, err := circuitbreaker.New(cfg.CircuitBreaker)
	if err != nil {
		return nil, err
	}

	client := httpclient.New(httpclient.Options{
		Concurrency: cfg.Concurrency,
		Timeout:     cfg.Timeout,
		Insecure:    cfg.Insecure,
		KeepAlive:   cfg.KeepAlive,
		HTTP2:       cfg.HTTP2,
		H2C:         cfg.H2C,
	})

	runner, err := scenario.New(client, cfg.Workload)
	if err != nil {
		client.Close()
		return nil, err
	}

	return &Executor{
		cfg:      cfg,
		client:   client,
		runner:   runner,
		hist:     metrics.NewHistogramStore(cfg.Concurrency),
		log:      metrics.NewOutcomeLog(cfg.Concurrency, cfg.SuccessCodes),
		feeds:    feeds,
		breaker:  breaker,
		progress: progress,
		states:   make([]int32, cfg.Concurrency),
		varPool: sync.Pool{
			New: func() any { return make(map[string]string) },
		},
	}, nil
}

// Run executes the workload to deadline or cancellation, whichever comes
// first, and returns the final report. ctx's cancellation is the
// cancellation signal of spec.md §5; Run also enforces cfg.Duration
// internally via its own deadline.
func (e *Executor) Run(ctx context.Context) (model.Report, error) {
	t0 := time.Now()
	deadline := t0.Add(e.cfg.Duration)
	runCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < e.cfg.Concurrency; i++ {
		wg.Add(1)
		if e.cfg.Mode == model.ModeSync {
			go e.runSyncWorker(runCtx, i, t0, &wg)
		} else {
			go e.runAsyncWorker(runCtx, i, t0, &wg)
		}
	}

	progressDone := make(chan struct{})
	if e.progress != nil {
		go func() {
			defer close(progressDone)
			e.sampleProgress(runCtx, t0)
		}()
	} else {
		close(progressDone)
	}

	workersDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(workersDone)
	}()

	select {
	case <-workersDone:
	case <-runCtx.Done():
		select {
		case <-workersDone:
		case <-time.After(Grace):
		}
	}
	<-progressDone
	e.client.Close()

	outcomes, summary := e.log.Snapshot()
	snap := e.hist.Snapshot()
	summary.ThroughputRPS = float64(summary.TotalRequests) / time.Since(t0).Seconds()
	summary.MinMs = durationMs(snap.Min)
	summary.P50Ms = durationMs(snap.P50)
	summary.P90Ms = durationMs(snap.P90)
	summary.P95Ms = durationMs(snap.P95)
	summary.P99Ms = durationMs(snap.P99)
	summary.MaxMs = durationMs(snap.Max)

	target := e.cfg.Workload.BaseURL
	method := ""
	if e.cfg.Workload.Kind == model.WorkloadSimple {
		if target == "" {
			target = e.cfg.Workload.Simple.URL
		}
		method = e.cfg.Workload.Simple.Method
	}

	return model.Report{
		TargetURL:   target,
		Method:      method,
		Duration:    time.Since(t0),
		Concurrency: e.cfg.Concurrency,
		Summary:     summary,
		Results:     outcomes,
	}, nil
}

func durationMs(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}

// runAsyncWorker runs worker i as a lightweight goroutine, Go's default
// work-stealing scheduling.
func (e *Executor) runAsyncWorker(ctx context.Context, i int, t0 time.Time, wg *sync.WaitGroup) {
	defer wg.Done()
	e.workerLoop(ctx, i, t0)
}

// runSyncWorker pins worker i to a dedicated OS thread for the run's
// lifetime, a Go-idiomatic reading of "OS thread per worker" (spec.md §5's
// secondary sync mode).
func (e *Executor) runSyncWorker(ctx context.Context, i int, t0 time.Time, wg *sync.WaitGroup) {
	defer wg.Done()
	done := make(chan struct{})
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		e.workerLoop(ctx, i, t0)
		close(done)
	}()
	<-done
}

// workerLoop runs passes until the deadline, cancellation, or a tripped
// circuit breaker stops it.
func (e *Executor) workerLoop(ctx context.Context, i int, t0 time.Time) {
	atomic.StoreInt32(&e.states[i], int32(stateRunning))
	defer atomic.StoreInt32(&e.states[i], int32(stateTerminated))

	hw := e.hist.Worker(i)
	lw := e.log.Worker(i)

	for {
		select {
		case <-ctx.Done():
			atomic.StoreInt32(&e.states[i], int32(stateDraining))
			return
		default:
		}
		if e.breaker.IsTripped() {
			return
		}

		vars := e.varPool.Get().(map[string]string)
		clear(vars)
		e.feeds.Apply(vars)

		e.runner.RunPass(ctx, t0, vars, func(o model.Outcome) {
			lw.Append(o)
			if o.ErrorKind == model.ErrNone {
				hw.Record(o.Latency)
			}
		})

		e.varPool.Put(vars)

		if e.breaker != nil {
			total, failed := e.approximateCounts()
			e.breaker.Check(total, failed)
		}
	}
}

// approximateCounts gives the circuit breaker the current run totals by
// taking a full OutcomeLog snapshot, which briefly locks every per-worker
// buffer; the executor calls it once per pass.
func (e *Executor) approximateCounts() (total, failed int64) {
	_, summary := e.log.Snapshot()
	return summary.TotalRequests, summary.FailedRequests
}

// sampleProgress runs on its own goroutine, reporting aggregate counters at
// the spec-mandated 2-10 Hz. golang.org/x/time/rate throttles the sample
// cadence rather than request throughput here, since this Executor's
// concurrency model is fixed-concurrency, not rate-shaped.
func (e *Executor) sampleProgress(ctx context.Context, t0 time.Time) {
	limiter := rate.NewLimiter(rate.Every(sampleInterval), 1)
	for {
		if err := limiter.Wait(ctx); err != nil {
			return
		}
		_, summary := e.log.Snapshot()
		snap := e.hist.Snapshot()
		elapsed := time.Since(t0)
		rps := 0.0
		if elapsed.Seconds() > 0 {
			rps = float64(summary.TotalRequests) / elapsed.Seconds()
		}
		e.progress(model.Progress{
			Elapsed:       elapsed,
			TotalRequests: summary.TotalRequests,
			CurrentRPS:    rps,
			ErrorRate:     summary.ErrorRate,
			P50:           snap.P50,
			P95:           snap.P95,
		})
	}
}
