// Package cmd implements the command-line interface of dCAS. It provides a
// hierarchical command structure for running atomic conditional updates
// against a store, benchmarking them and serving an embedded store.
//
// The package is organized into several subpackages:
//
//   - cas: One-shot atomic operations (release, decrement, set-stale, drain)
//   - script: Raw script access (eval, load, evalsha)
//   - lock: Lock operations built on the scripts (acquire, release)
//   - bench: Synchronized concurrent benchmarks (decrement, release, lock, sql)
//   - serve: An embedded in-memory store for local experiments
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See dcas -help for a list of all commands.
package cmd
