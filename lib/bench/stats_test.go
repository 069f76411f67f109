package bench

import (
	"github.com/stretchr/testify/assert"
	"testing"
	"time"
)

func TestNewStats(t *testing.T) {
	s := NewStats([]time.Duration{2 * time.Millisecond, 0, 4 * time.Millisecond, 6 * time.Millisecond})

	assert.Equal(t, 3, s.Count)
	assert.InDelta(t, 2.0, s.Min, 1e-9)
	assert.InDelta(t, 6.0, s.Max, 1e-9)
	assert.InDelta(t, 4.0, s.Mean, 1e-9)
	assert.InDelta(t, 4.0, s.Spread, 1e-9)
	assert.InDelta(t, 1.633, s.StdDeviation, 1e-3)

	assert.Equal(t, Stats{}, NewStats(nil))
}

func TestStartOffsets(t *testing.T) {
	base := time.Now()
	workers := []WorkerResult{
		{BatchStart: base.Add(3 * time.Millisecond)},
		{}, // never started
		{BatchStart: base},
	}

	offsets := startOffsets(workers)
	if assert.Len(t, offsets, 2) {
		assert.Equal(t, 3*time.Millisecond+time.Nanosecond, offsets[0])
		assert.Equal(t, time.Nanosecond, offsets[1])
	}
}
