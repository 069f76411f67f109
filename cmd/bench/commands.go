package bench

import (
	"context"
	"fmt"
	"github.com/ValentinKolb/dCAS/cmd/util"
	"github.com/ValentinKolb/dCAS/lib/bench"
	"github.com/ValentinKolb/dCAS/lib/lockmgr"
	"github.com/ValentinKolb/dCAS/lib/script"
	"github.com/ValentinKolb/dCAS/lib/session"
	"github.com/ValentinKolb/dCAS/lib/session/rsession"
	"github.com/ValentinKolb/dCAS/lib/sqlsession"
	"github.com/ValentinKolb/dCAS/lib/workload"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"strings"
	"time"
)

// seedCounterScript overwrites the counter before a decrement run
const seedCounterScript = `return redis.call('set', KEYS[1], ARGV[1])`

// default schema of the sql benchmark for sqlite, mirroring a sequence table
const defaultSQLiteSetup = `CREATE TABLE IF NOT EXISTS identity_t (id INTEGER PRIMARY KEY, step INTEGER NOT NULL);
INSERT OR IGNORE INTO identity_t (id, step) VALUES (1, 0)`

var (
	decrementCmd = &cobra.Command{
		Use:   "decrement",
		Short: "Benchmark conditional decrements of one shared counter",
		Long: `Every operation decrements the counter at --key by --amount if it holds at
least --amount. Once the stock is exhausted the remaining operations are
rejected, so applied * amount never exceeds the stock.`,
		RunE: runDecrement,
	}
	releaseCmd = &cobra.Command{
		Use:   "release",
		Short: "Benchmark compare-and-delete of one shared lock",
		Long: `A lock is acquired at --key before the run and every operation tries to
release it with the same owner token. Exactly one operation is applied.`,
		RunE: runRelease,
	}
	lockCmd = &cobra.Command{
		Use:   "lock",
		Short: "Benchmark acquire-release cycles on one contended lock",
		RunE:  runLock,
	}
	sqlCmd = &cobra.Command{
		Use:   "sql",
		Short: "Benchmark a prepared statement against a relational database",
		Long: `Every operation executes --statement on the worker's own connection.
The statement is prepared once per connection. An operation affecting no
rows counts as rejected.`,
		RunE: runSQL,
	}
)

func init() {
	key := "key"
	decrementCmd.Flags().String(key, "goods1.number", util.WrapString("Key of the counter"))
	key = "amount"
	decrementCmd.Flags().Int64(key, 1, util.WrapString("Amount decremented per operation"))
	key = "stock"
	decrementCmd.Flags().Int64(key, -1, util.WrapString("Value the counter is set to before the run, -1 keeps the stored value"))
	key = "preload"
	decrementCmd.Flags().Bool(key, true, util.WrapString("Register the scripts before the barrier so the batch only evaluates by handle"))

	key = "key"
	releaseCmd.Flags().String(key, "user.lock", util.WrapString("Key of the lock"))

	key = "key"
	lockCmd.Flags().String(key, "bench.lock", util.WrapString("Key of the lock all workers compete for"))
	key = "ttl"
	lockCmd.Flags().Duration(key, 5*time.Second, util.WrapString("Lock timeout of every acquisition"))

	util.SetupDBFlags(sqlCmd)
	key = "statement"
	sqlCmd.Flags().String(key, "UPDATE identity_t SET step = step + 1 WHERE id = 1", util.WrapString("Statement every operation executes"))
	key = "setup"
	sqlCmd.Flags().String(key, "", util.WrapString("Semicolon separated statements executed once before the run. Defaults to creating identity_t for sqlite3"))
}

// storeRun runs a workload on sessions of a fresh pool
func storeRun(ctx context.Context, name string, engine *script.Engine, preload bool, seed func(context.Context, session.ISession) error, unit func(context.Context, session.ISession, int) (bench.Outcome, error)) error {
	config := storeConfig()
	pool := rsession.NewRedisPool(config)
	defer pool.Close()

	fmt.Println(config.String())
	fmt.Println(benchConfig.String())

	if seed != nil {
		s, err := pool.Acquire(ctx)
		if err != nil {
			return fmt.Errorf("prepare %s: %w", name, err)
		}
		err = seed(ctx, s)
		_ = s.Close()
		if err != nil {
			return fmt.Errorf("prepare %s: %w", name, err)
		}
	}

	report, err := bench.Run(ctx, benchConfig, bench.Workload[session.ISession]{
		Name:       name,
		Acquire:    workload.StoreAcquirer(pool, engine, preload),
		UnitOfWork: unit,
	})
	return finish(report, err)
}

func runDecrement(cmd *cobra.Command, _ []string) error {
	engine := script.NewEngine()
	key := viper.GetString("key")
	stock := viper.GetInt64("stock")
	d := workload.NewDecrement(engine, key, viper.GetInt64("amount"))

	var seed func(context.Context, session.ISession) error
	if stock >= 0 {
		seed = func(ctx context.Context, s session.ISession) error {
			_, err := s.Evaluate(ctx, seedCounterScript, []string{key}, stock)
			return err
		}
	}

	err := storeRun(cmd.Context(), "decrement", engine, viper.GetBool("preload"), seed, d.UnitOfWork)
	fmt.Printf("sold=%d\n", d.Sold())
	return err
}

func runRelease(cmd *cobra.Command, _ []string) error {
	engine := script.NewEngine()
	r := &workload.Release{Engine: engine, Key: viper.GetString("key")}

	seed := func(ctx context.Context, s session.ISession) error {
		ok, owner, err := lockmgr.NewLockManager(engine, s).AcquireLock(ctx, r.Key, 0)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("lock %s is already held", r.Key)
		}
		r.Token = owner
		return nil
	}

	return storeRun(cmd.Context(), "release", engine, true, seed, r.UnitOfWork)
}

func runLock(cmd *cobra.Command, _ []string) error {
	engine := script.NewEngine()
	l := &workload.LockCycle{
		Engine: engine,
		Key:    viper.GetString("key"),
		TTL:    viper.GetDuration("ttl"),
	}
	return storeRun(cmd.Context(), "lock", engine, true, nil, l.UnitOfWork)
}

func runSQL(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	config := util.GetDBConfig()
	if config.MaxOpenConns == 0 {
		config.MaxOpenConns = benchConfig.Concurrency
	}

	fmt.Println(config.String())
	fmt.Println(benchConfig.String())

	pool, err := sqlsession.Open(ctx, config)
	if err != nil {
		return err
	}
	defer pool.Close()

	setup := viper.GetString("setup")
	if setup == "" && config.Driver == "sqlite3" {
		setup = defaultSQLiteSetup
	}
	for _, stmt := range strings.Split(setup, ";") {
		if stmt = strings.TrimSpace(stmt); stmt == "" {
			continue
		}
		if _, err := pool.DB().ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("setup statement %q: %w", stmt, err)
		}
	}

	st := &workload.Statement{SQL: viper.GetString("statement")}
	report, err := bench.Run(ctx, benchConfig, bench.Workload[sqlsession.ISession]{
		Name:       "sql",
		Acquire:    workload.DBAcquirer(pool),
		UnitOfWork: st.UnitOfWork,
	})
	return finish(report, err)
}
