package util

import (
	"context"
	"fmt"
	"github.com/ValentinKolb/dCAS/lib/common"
	"github.com/ValentinKolb/dCAS/lib/session"
	"github.com/ValentinKolb/dCAS/lib/session/rsession"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"strings"
	"time"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50

	// EnvPrefix is the prefix of all environment variables read by dcas
	EnvPrefix = "dcas"
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		// Add space before word (if not first word on line)
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// InitConfig loads .env files and makes viper read DCAS_* environment variables
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// PrepareCommand binds the flags of cmd and configures the package loggers.
// Every command group calls it from its PersistentPreRunE.
func PrepareCommand(cmd *cobra.Command) error {
	if err := BindCommandFlags(cmd); err != nil {
		return err
	}
	return common.InitLoggers(viper.GetString("log-level"))
}

// --------------------------------------------------------------------------
// Store flags
// --------------------------------------------------------------------------

// SetupStoreFlags adds the store connection flags to a command
func SetupStoreFlags(cmd *cobra.Command) {
	key := "endpoint"
	cmd.PersistentFlags().String(key, "localhost:6379", WrapString("The host:port of the script-capable store"))

	key = "password"
	cmd.PersistentFlags().String(key, "", WrapString("Password used to authenticate against the store"))

	key = "db"
	cmd.PersistentFlags().Int(key, 0, WrapString("Logical database number of the store"))

	key = "pool-size"
	cmd.PersistentFlags().Int(key, 0, WrapString("Maximum number of sessions checked out concurrently. 0 uses the number of threads for benchmarks"))

	key = "min-idle"
	cmd.PersistentFlags().Int(key, 0, WrapString("Minimum number of idle connections kept open"))

	key = "acquire-timeout"
	cmd.PersistentFlags().Duration(key, 5*time.Second, WrapString("How long acquiring a session may wait for a free connection"))

	key = "command-timeout"
	cmd.PersistentFlags().Duration(key, 5*time.Second, WrapString("Read and write timeout of a single round trip"))
}

// GetStoreConfig reads the store configuration from viper
func GetStoreConfig() common.StoreConfig {
	return common.StoreConfig{
		Endpoint:       viper.GetString("endpoint"),
		Password:       viper.GetString("password"),
		DB:             viper.GetInt("db"),
		PoolSize:       viper.GetInt("pool-size"),
		MinIdleConns:   viper.GetInt("min-idle"),
		AcquireTimeout: viper.GetDuration("acquire-timeout"),
		CommandTimeout: viper.GetDuration("command-timeout"),
	}
}

// StoreClient is one pool with one checked out session, used by the one-shot commands
type StoreClient struct {
	Pool    session.IPool
	Session session.ISession
}

// OpenStoreClient connects to the configured store and checks out a session
func OpenStoreClient(ctx context.Context) (*StoreClient, error) {
	config := GetStoreConfig()
	config.PoolSize = 1

	pool := rsession.NewRedisPool(config)
	s, err := pool.Acquire(ctx)
	if err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("connect to %s: %w", config.Endpoint, err)
	}
	return &StoreClient{Pool: pool, Session: s}, nil
}

// Close returns the session and closes the pool
func (c *StoreClient) Close() error {
	if c == nil {
		return nil
	}
	_ = c.Session.Close()
	return c.Pool.Close()
}

// --------------------------------------------------------------------------
// Database flags
// --------------------------------------------------------------------------

// SetupDBFlags adds the database connection flags to a command
func SetupDBFlags(cmd *cobra.Command) {
	key := "driver"
	cmd.Flags().String(key, "sqlite3", WrapString("database/sql driver to use (sqlite3, mysql)"))

	key = "dsn"
	cmd.Flags().String(key, "file:dcas.db?_busy_timeout=5000", WrapString("Data source name passed to the driver (e.g. user:pass@tcp(localhost:3306)/db for mysql)"))

	key = "max-open"
	cmd.Flags().Int(key, 0, WrapString("Maximum number of open connections. 0 uses the number of threads"))
}

// GetDBConfig reads the database configuration from viper
func GetDBConfig() common.DBConfig {
	return common.DBConfig{
		Driver:         viper.GetString("driver"),
		DSN:            viper.GetString("dsn"),
		MaxOpenConns:   viper.GetInt("max-open"),
		AcquireTimeout: viper.GetDuration("acquire-timeout"),
	}
}

// --------------------------------------------------------------------------
// Benchmark flags
// --------------------------------------------------------------------------

// SetupBenchFlags adds the harness flags to a command
func SetupBenchFlags(cmd *cobra.Command) {
	key := "threads"
	cmd.PersistentFlags().Int(key, 10, WrapString("Number of workers released together by the barrier"))

	key = "batch"
	cmd.PersistentFlags().Int(key, 1000, WrapString("Number of operations every worker executes"))

	key = "run-timeout"
	cmd.PersistentFlags().Duration(key, 0, WrapString("Upper bound for the whole run, 0 waits until every worker finished"))

	key = "strict-barrier"
	cmd.PersistentFlags().Bool(key, false, WrapString("Keep workers waiting at the barrier if a peer fails before reaching it, instead of failing them fast"))

	key = "csv"
	cmd.PersistentFlags().String(key, "", WrapString("Optional path to save the per-worker results as CSV"))

	key = "metrics-out"
	cmd.PersistentFlags().String(key, "", WrapString("Optional path to save the run metrics in Prometheus text format"))
}

// GetBenchConfig reads the harness configuration from viper
func GetBenchConfig() common.BenchConfig {
	return common.BenchConfig{
		Concurrency:   viper.GetInt("threads"),
		BatchSize:     viper.GetInt("batch"),
		Timeout:       viper.GetDuration("run-timeout"),
		StrictBarrier: viper.GetBool("strict-barrier"),
	}
}
