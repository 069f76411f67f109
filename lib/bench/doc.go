// Package bench measures the throughput of a unit of work under N-way
// concurrency with a synchronized start.
//
// A run spawns exactly Concurrency workers on a bounded pool. Each worker
//
//  1. acquires its session,
//  2. waits at a Barrier sized for all workers,
//  3. executes BatchSize operations once the barrier released everyone,
//  4. closes its session and counts down a Latch.
//
// The run measures from spawning the workers until the latch opens and
// reports QPS = TotalOperations * 1000 / ElapsedMillis.
//
// Worker lifecycle:
//
//	SPAWNED -> ACQUIRING_SESSION -> AWAITING_BARRIER -> EXECUTING -> COMPLETED
//	                 |                     |                |
//	                 +---------------------+----------------+-> FAILED
//
// Rejected operations (a lost race, an exhausted counter) do not stop a batch.
// A returned error does: the worker ends in FAILED, still closes its session
// and still counts down the latch.
//
// Failure before the barrier:
//
//	A worker that cannot reach the barrier would leave its peers waiting
//	forever. By default such a worker breaks the barrier and the peers fail
//	with ErrBrokenBarrier. With StrictBarrier the peers keep waiting; the run
//	then only ends through Timeout (or the caller's context) and is reported
//	as incomplete.
//
// Primitives:
//
//   - Barrier: reusable rendezvous for a fixed number of parties
//   - Latch: one-shot countdown
package bench
