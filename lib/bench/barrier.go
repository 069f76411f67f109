package bench

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrBrokenBarrier is returned by Await if the barrier generation was broken
// before all parties arrived.
var ErrBrokenBarrier = errors.New("barrier is broken")

// generation is one trip of the barrier. done is closed on trip or break.
type generation struct {
	done   chan struct{}
	broken error
}

// Barrier is a reusable rendezvous point for a fixed number of parties.
// All parties that call Await are released together once the last one arrives,
// and never before. After a trip the barrier resets itself for the next round.
type Barrier struct {
	parties int

	mu      sync.Mutex
	waiting int
	gen     *generation
}

// NewBarrier creates a barrier for parties participants. Panics if parties < 1.
func NewBarrier(parties int) *Barrier {
	if parties < 1 {
		panic(fmt.Sprintf("barrier needs at least one party, got %d", parties))
	}
	return &Barrier{
		parties: parties,
		gen:     &generation{done: make(chan struct{})},
	}
}

// Parties returns the number of parties required to trip the barrier
func (b *Barrier) Parties() int {
	return b.parties
}

// Waiting returns the number of parties currently blocked in Await
func (b *Barrier) Waiting() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.waiting
}

// Await blocks until all parties arrived, the barrier is broken or ctx is done.
// It returns the arrival index of the caller (parties-1 for the first, 0 for the last).
// A caller leaving through ctx breaks the generation for all other waiters.
func (b *Barrier) Await(ctx context.Context) (int, error) {
	b.mu.Lock()
	gen := b.gen
	if gen.broken != nil {
		b.mu.Unlock()
		return 0, gen.broken
	}

	b.waiting++
	index := b.parties - b.waiting
	if index == 0 {
		// last arrival trips the barrier and starts the next generation
		b.waiting = 0
		b.gen = &generation{done: make(chan struct{})}
		close(gen.done)
		b.mu.Unlock()
		return 0, nil
	}
	b.mu.Unlock()

	select {
	case <-gen.done:
		if gen.broken != nil {
			return index, gen.broken
		}
		return index, nil
	case <-ctx.Done():
		b.breakGeneration(gen, fmt.Errorf("%w: %v", ErrBrokenBarrier, ctx.Err()))
		// the generation may have tripped concurrently
		if gen.broken == nil {
			return index, nil
		}
		return index, ctx.Err()
	}
}

// Break breaks the current generation. All waiting and future callers of Await
// fail with an error wrapping ErrBrokenBarrier and cause, until Reset is called.
func (b *Barrier) Break(cause error) {
	err := ErrBrokenBarrier
	if cause != nil {
		err = fmt.Errorf("%w: %v", ErrBrokenBarrier, cause)
	}
	b.mu.Lock()
	gen := b.gen
	b.mu.Unlock()
	b.breakGeneration(gen, err)
}

// IsBroken reports whether the current generation is broken
func (b *Barrier) IsBroken() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.gen.broken != nil
}

// Reset breaks the current generation and starts a fresh one
func (b *Barrier) Reset() {
	b.Break(errors.New("barrier reset"))
	b.mu.Lock()
	defer b.mu.Unlock()
	b.waiting = 0
	b.gen = &generation{done: make(chan struct{})}
}

// breakGeneration marks gen as broken if it is still the current, untripped generation
func (b *Barrier) breakGeneration(gen *generation, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.gen != gen || gen.broken != nil {
		return
	}
	gen.broken = err
	b.waiting = 0
	close(gen.done)
}
