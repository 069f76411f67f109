package bench

import (
	"context"
	"errors"
	"fmt"
	"github.com/ValentinKolb/dCAS/lib/common"
	"github.com/lni/dragonboat/v4/logger"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/sourcegraph/conc/pool"
	"time"
)

var Logger = logger.GetLogger("bench")

var (
	// ErrInvalidConfig is returned for a non-positive concurrency or batch size
	ErrInvalidConfig = errors.New("invalid benchmark config")
	// ErrIncomplete is returned if not all workers signaled completion in time
	ErrIncomplete = errors.New("benchmark incomplete")
)

// Outcome is the logical result of one unit of work
type Outcome int

const (
	Applied  Outcome = iota // the operation took effect
	Rejected                // the operation was refused (lost race, exhausted resource), not an error
)

// Resource is the session a worker holds for its whole batch
type Resource interface {
	Close() error
}

// Workload describes what every worker does.
type Workload[S Resource] struct {
	// Name labels logs and metrics of the run
	Name string
	// Acquire checks out the worker's session before the barrier
	Acquire func(ctx context.Context, worker int) (S, error)
	// UnitOfWork runs operation op of the worker's batch. A returned error aborts the batch.
	UnitOfWork func(ctx context.Context, s S, op int) (Outcome, error)
}

// latencySampleSize is the reservoir size of the per-worker latency histogram
const latencySampleSize = 1028

// runner holds the shared state of one benchmark run
type runner[S Resource] struct {
	config   common.BenchConfig
	workload Workload[S]
	barrier  *Barrier
	latch    *Latch
	results  []WorkerResult // slot i is owned by worker i until the latch opened
}

// Run executes the workload with config.Concurrency workers of config.BatchSize
// operations each. All workers acquire their session, meet at a barrier and are
// released together; the run ends when every worker signaled completion.
//
// Workers that fail before reaching the barrier break it, so their peers fail
// fast instead of waiting. With config.StrictBarrier the peers keep waiting,
// which only ends through config.Timeout or ctx. If the run does not complete,
// the returned report is marked incomplete and the error wraps ErrIncomplete.
func Run[S Resource](ctx context.Context, config common.BenchConfig, workload Workload[S]) (*Report, error) {
	if config.Concurrency < 1 || config.BatchSize < 1 {
		return nil, fmt.Errorf("%w: concurrency %d and batch size %d must be positive",
			ErrInvalidConfig, config.Concurrency, config.BatchSize)
	}
	if workload.Acquire == nil || workload.UnitOfWork == nil {
		return nil, fmt.Errorf("%w: workload %q needs Acquire and UnitOfWork", ErrInvalidConfig, workload.Name)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	r := &runner[S]{
		config:   config,
		workload: workload,
		barrier:  NewBarrier(config.Concurrency),
		latch:    NewLatch(config.Concurrency),
		results:  make([]WorkerResult, config.Concurrency),
	}

	Logger.Infof("starting %s: %d workers x %d operations", workload.Name, config.Concurrency, config.BatchSize)

	// exactly one goroutine per worker, all running at once
	p := pool.New().WithMaxGoroutines(config.Concurrency)

	start := time.Now()
	for i := 0; i < config.Concurrency; i++ {
		id := i
		p.Go(func() {
			r.work(runCtx, id)
		})
	}

	waitCtx := runCtx
	if config.Timeout > 0 {
		var cancelWait context.CancelFunc
		waitCtx, cancelWait = context.WithTimeout(runCtx, config.Timeout)
		defer cancelWait()
	}
	waitErr := r.latch.Wait(waitCtx)
	end := time.Now()

	if waitErr != nil {
		Logger.Errorf("%s did not complete (%d workers outstanding): %v", workload.Name, r.latch.Count(), waitErr)
		// unblock workers stuck at the barrier or in the store
		cancel()
	}
	p.Wait()

	report := newReport(workload.Name, config, r.results, end.Sub(start), waitErr != nil)
	Logger.Infof("finished %s: %d ops in %d ms (%d QPS), %d failed workers",
		workload.Name, report.TotalOperations, report.ElapsedMillis, report.QPS, report.FailedWorkers)

	if waitErr != nil {
		return report, fmt.Errorf("%w: %v", ErrIncomplete, waitErr)
	}
	return report, nil
}

// work runs the lifecycle of one worker. Whatever path it takes, the session is
// closed once and the latch is signaled once.
func (r *runner[S]) work(ctx context.Context, id int) {
	res := &r.results[id]
	res.ID = id
	res.State = StateSpawned
	arrived := false

	defer r.latch.CountDown()
	defer func() {
		if p := recover(); p != nil {
			r.failWorker(res, fmt.Errorf("worker panicked: %v", p), arrived)
		}
	}()

	res.State = StateAcquiringSession
	s, err := r.workload.Acquire(ctx, id)
	if err != nil {
		r.failWorker(res, fmt.Errorf("acquire session: %w", err), false)
		return
	}
	defer func() {
		if err := s.Close(); err != nil {
			Logger.Warningf("%s worker %d: closing session failed: %v", r.workload.Name, id, err)
		}
	}()

	res.State = StateAwaitingBarrier
	res.ArrivedAt = time.Now()
	if _, err := r.barrier.Await(ctx); err != nil {
		r.failWorker(res, fmt.Errorf("await barrier: %w", err), true)
		return
	}
	arrived = true

	res.State = StateExecuting
	latency := gometrics.NewHistogram(gometrics.NewUniformSample(latencySampleSize))
	defer func() {
		res.BatchEnd = time.Now()
		res.LatencyMean = latency.Mean()
		res.LatencyP50 = latency.Percentile(0.5)
		res.LatencyP99 = latency.Percentile(0.99)
	}()

	res.BatchStart = time.Now()
	for op := 0; op < r.config.BatchSize; op++ {
		callStart := time.Now()
		outcome, err := r.workload.UnitOfWork(ctx, s, op)
		latency.Update(int64(time.Since(callStart)))
		res.Attempted++

		if err != nil {
			r.failWorker(res, fmt.Errorf("operation %d: %w", op, err), true)
			return
		}
		if outcome == Applied {
			res.Applied++
		} else {
			res.Rejected++
		}
	}
	res.State = StateCompleted
}

// failWorker records err and, unless the barrier is strict, breaks the barrier
// for a worker that never arrived at it.
func (r *runner[S]) failWorker(res *WorkerResult, err error, arrived bool) {
	Logger.Errorf("%s worker %d failed in state %s: %v", r.workload.Name, res.ID, res.State, err)
	res.fail(err)
	if !arrived && !r.config.StrictBarrier {
		r.barrier.Break(err)
	}
}

// QPS computes operations per second with integer division. Elapsed times
// below one millisecond count as one millisecond.
func QPS(totalOperations, elapsedMillis int64) int64 {
	if elapsedMillis < 1 {
		elapsedMillis = 1
	}
	return totalOperations * 1000 / elapsedMillis
}
