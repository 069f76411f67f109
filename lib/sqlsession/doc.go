// Package sqlsession provides database sessions for the relational variant of
// the benchmark. A session pins one connection of a database/sql pool, so all
// statements of a worker run on the same connection and prepared statements
// can be reused across the worker's batch.
//
// Supported drivers are sqlite3 (github.com/mattn/go-sqlite3) and mysql
// (github.com/go-sql-driver/mysql). Errors are *session.Error values with the
// same return codes as store sessions.
package sqlsession
