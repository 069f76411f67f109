package bench

import (
	"time"
)

// WorkerState is the lifecycle state of a benchmark worker
type WorkerState int

const (
	StateSpawned WorkerState = iota
	StateAcquiringSession
	StateAwaitingBarrier
	StateExecuting
	StateCompleted
	StateFailed
)

func (s WorkerState) String() string {
	switch s {
	case StateSpawned:
		return "SPAWNED"
	case StateAcquiringSession:
		return "ACQUIRING_SESSION"
	case StateAwaitingBarrier:
		return "AWAITING_BARRIER"
	case StateExecuting:
		return "EXECUTING"
	case StateCompleted:
		return "COMPLETED"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether no further transition follows s
func (s WorkerState) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// WorkerResult is the outcome of one worker's batch
type WorkerResult struct {
	ID    int
	State WorkerState
	// Err is set if State is StateFailed
	Err error

	Attempted int64
	Applied   int64
	Rejected  int64

	// ArrivedAt is the moment the worker reached the barrier (zero if it never did)
	ArrivedAt  time.Time
	BatchStart time.Time
	BatchEnd   time.Time

	// call latency of the batch in nanoseconds
	LatencyMean float64
	LatencyP50  float64
	LatencyP99  float64
}

// Span returns the wall-clock duration of the executed batch
func (w *WorkerResult) Span() time.Duration {
	if w.BatchStart.IsZero() || w.BatchEnd.IsZero() {
		return 0
	}
	return w.BatchEnd.Sub(w.BatchStart)
}

// fail moves the worker into the failed state
func (w *WorkerResult) fail(err error) {
	w.State = StateFailed
	w.Err = err
}
