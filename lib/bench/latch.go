package bench

import (
	"context"
	"fmt"
	"sync"
)

// Latch is a one-shot countdown. Wait unblocks exactly when the count reaches
// zero and never before. The count never increases and never drops below zero.
type Latch struct {
	mu    sync.Mutex
	count int
	done  chan struct{}
}

// NewLatch creates a latch that opens after count calls of CountDown. Panics if count < 0.
func NewLatch(count int) *Latch {
	if count < 0 {
		panic(fmt.Sprintf("latch count must not be negative, got %d", count))
	}
	l := &Latch{
		count: count,
		done:  make(chan struct{}),
	}
	if count == 0 {
		close(l.done)
	}
	return l
}

// CountDown decrements the count, opening the latch when it reaches zero.
// Calls on an open latch have no effect.
func (l *Latch) CountDown() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.count == 0 {
		return
	}
	l.count--
	if l.count == 0 {
		close(l.done)
	}
}

// Count returns the current count
func (l *Latch) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}

// Done returns a channel that is closed when the latch opens
func (l *Latch) Done() <-chan struct{} {
	return l.done
}

// Wait blocks until the latch opens or ctx is done
func (l *Latch) Wait(ctx context.Context) error {
	select {
	case <-l.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
