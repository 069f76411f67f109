package bench

import (
	"math"
	"time"
)

// Stats summarizes durations in milliseconds
type Stats struct {
	Count        int     `json:"count"`
	Min          float64 `json:"min_ms"`
	Max          float64 `json:"max_ms"`
	Mean         float64 `json:"mean_ms"`
	StdDeviation float64 `json:"std_deviation_ms"`
	// Spread is Max - Min
	Spread float64 `json:"spread_ms"`
}

// NewStats summarizes the given durations. Non-positive durations are skipped.
func NewStats(durations []time.Duration) Stats {
	values := make([]float64, 0, len(durations))
	for _, d := range durations {
		if d > 0 {
			values = append(values, float64(d)/float64(time.Millisecond))
		}
	}
	if len(values) == 0 {
		return Stats{}
	}

	lo, hi := values[0], values[0]
	var sum float64
	for _, v := range values {
		sum += v
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	mean := sum / float64(len(values))

	// population standard deviation
	var sumSquaredDiffs float64
	for _, v := range values {
		sumSquaredDiffs += (v - mean) * (v - mean)
	}

	return Stats{
		Count:        len(values),
		Min:          lo,
		Max:          hi,
		Mean:         mean,
		StdDeviation: math.Sqrt(sumSquaredDiffs / float64(len(values))),
		Spread:       hi - lo,
	}
}

// startOffsets returns how long after the earliest batch start every other
// executed batch started. A synchronized start keeps these close to zero.
func startOffsets(workers []WorkerResult) []time.Duration {
	var first time.Time
	for i := range workers {
		if s := workers[i].BatchStart; !s.IsZero() && (first.IsZero() || s.Before(first)) {
			first = s
		}
	}
	offsets := make([]time.Duration, 0, len(workers))
	for i := range workers {
		if s := workers[i].BatchStart; !s.IsZero() {
			// one nanosecond keeps the earliest worker in the sample
			offsets = append(offsets, s.Sub(first)+time.Nanosecond)
		}
	}
	return offsets
}
