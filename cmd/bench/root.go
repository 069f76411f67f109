package bench

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/dCAS/cmd/util"
	"github.com/ValentinKolb/dCAS/lib/bench"
	"github.com/ValentinKolb/dCAS/lib/common"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	Logger = logger.GetLogger("cli")

	// BenchCommands represents the bench command group
	BenchCommands = &cobra.Command{
		Use:   "bench",
		Short: "Benchmark atomic updates under synchronized concurrent load",
		Long: `Benchmark atomic updates under synchronized concurrent load.

Every worker checks out its own session, waits at a barrier until all workers
are ready and then executes its batch. Throughput is reported as
QPS = threads * batch * 1000 / elapsed milliseconds.`,
		PersistentPreRunE: processBenchConfig,
	}

	benchConfig common.BenchConfig
)

func init() {
	// Add common flags to the bench command
	util.SetupStoreFlags(BenchCommands)
	util.SetupBenchFlags(BenchCommands)

	// Add subcommands
	BenchCommands.AddCommand(decrementCmd)
	BenchCommands.AddCommand(releaseCmd)
	BenchCommands.AddCommand(lockCmd)
	BenchCommands.AddCommand(sqlCmd)
}

func processBenchConfig(cmd *cobra.Command, _ []string) error {
	if err := util.PrepareCommand(cmd); err != nil {
		return err
	}

	benchConfig = util.GetBenchConfig()
	if benchConfig.Concurrency < 1 || benchConfig.BatchSize < 1 {
		return fmt.Errorf("threads and batch must be positive (got %d and %d)", benchConfig.Concurrency, benchConfig.BatchSize)
	}
	return nil
}

// storeConfig returns the store configuration with the pool sized for the benchmark
func storeConfig() common.StoreConfig {
	config := util.GetStoreConfig()
	if config.PoolSize == 0 {
		config.PoolSize = benchConfig.Concurrency
	}
	return config
}

// finish prints and exports the report of a run. An incomplete run is still
// reported before its error is returned.
func finish(report *bench.Report, runErr error) error {
	if report == nil {
		return runErr
	}

	fmt.Println(report.String())

	if path := viper.GetString("csv"); path != "" {
		if err := writeResultsToCSV(path, report); err != nil {
			return errors.Join(runErr, err)
		}
		Logger.Infof("results written to %s", path)
	}

	if path := viper.GetString("metrics-out"); path != "" {
		if err := writeMetrics(path, report); err != nil {
			return errors.Join(runErr, err)
		}
		Logger.Infof("metrics written to %s", path)
	}

	return runErr
}
