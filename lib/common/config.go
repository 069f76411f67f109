package common

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// addSection and addField render config structs in a uniform layout
func addSection(sb *strings.Builder, title string) {
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
}

func addField(sb *strings.Builder, name, value string) {
	sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
}

// --------------------------------------------------------------------------
// Store configuration struct
// --------------------------------------------------------------------------

// StoreConfig holds the connection parameters of the script-capable store
type StoreConfig struct {
	// Endpoint is the host:port of the store
	Endpoint string
	Password string
	DB       int

	// PoolSize is the maximum number of sessions handed out concurrently
	PoolSize     int
	MinIdleConns int

	// AcquireTimeout bounds how long Acquire waits for a free session
	AcquireTimeout time.Duration
	// CommandTimeout bounds a single round trip (read and write)
	CommandTimeout time.Duration
}

// String returns a formatted string representation of the configuration
func (c *StoreConfig) String() string {
	var sb strings.Builder

	addSection(&sb, "Store")
	addField(&sb, "Endpoint", c.Endpoint)
	addField(&sb, "Database", strconv.Itoa(c.DB))
	addField(&sb, "Pool Size", strconv.Itoa(c.PoolSize))
	addField(&sb, "Min Idle Connections", strconv.Itoa(c.MinIdleConns))
	addField(&sb, "Acquire Timeout", c.AcquireTimeout.String())
	addField(&sb, "Command Timeout", c.CommandTimeout.String())

	return sb.String()
}

// --------------------------------------------------------------------------
// Database configuration struct
// --------------------------------------------------------------------------

// DBConfig holds the parameters of the relational database used by the sql benchmark
type DBConfig struct {
	// Driver is the database/sql driver name (sqlite3, mysql)
	Driver string
	DSN    string

	MaxOpenConns   int
	AcquireTimeout time.Duration
}

// String returns a formatted string representation of the configuration.
// The DSN is omitted since it may carry credentials.
func (c *DBConfig) String() string {
	var sb strings.Builder

	addSection(&sb, "Database")
	addField(&sb, "Driver", c.Driver)
	addField(&sb, "Max Open Connections", strconv.Itoa(c.MaxOpenConns))
	addField(&sb, "Acquire Timeout", c.AcquireTimeout.String())

	return sb.String()
}

// --------------------------------------------------------------------------
// Benchmark configuration struct
// --------------------------------------------------------------------------

// BenchConfig holds the harness parameters of a benchmark run
type BenchConfig struct {
	// Concurrency is the number of workers released together by the barrier
	Concurrency int
	// BatchSize is the number of operations every worker executes
	BatchSize int
	// Timeout bounds the whole run, zero waits forever
	Timeout time.Duration
	// StrictBarrier keeps peers waiting at the barrier when one worker fails before arriving
	StrictBarrier bool
}

// String returns a formatted string representation of the configuration
func (c *BenchConfig) String() string {
	var sb strings.Builder

	timeout := "none"
	if c.Timeout > 0 {
		timeout = c.Timeout.String()
	}

	addSection(&sb, "Benchmark")
	addField(&sb, "Concurrency", strconv.Itoa(c.Concurrency))
	addField(&sb, "Batch Size", strconv.Itoa(c.BatchSize))
	addField(&sb, "Total Operations", strconv.Itoa(c.Concurrency*c.BatchSize))
	addField(&sb, "Timeout", timeout)
	addField(&sb, "Strict Barrier", strconv.FormatBool(c.StrictBarrier))

	return sb.String()
}
