// Package workload binds the benchmark harness to concrete units of work:
// inventory decrements, lock releases and acquire-release cycles against a
// store, and prepared statements against a relational database.
package workload
