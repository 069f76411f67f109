package cmd

import (
	"context"
	"fmt"
	"github.com/ValentinKolb/dCAS/cmd/bench"
	"github.com/ValentinKolb/dCAS/cmd/cas"
	"github.com/ValentinKolb/dCAS/cmd/lock"
	"github.com/ValentinKolb/dCAS/cmd/script"
	"github.com/ValentinKolb/dCAS/cmd/serve"
	"github.com/ValentinKolb/dCAS/cmd/util"
	"github.com/spf13/cobra"
	"os"
	"os/signal"
	"syscall"
)

const (
	Version = "0.3.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "dcas",
		Short: "atomic conditional updates and concurrency benchmarks",
		Long: fmt.Sprintf(`dCAS (v%s)

Runs atomic check-and-set scripts (compare-and-delete, conditional
decrement, set-if-stale) against a Lua-capable key-value store and
measures their throughput under a synchronized concurrent load.`, Version),
		SilenceUsage: true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of dCAS",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("dCAS v%s\n", Version)
		},
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(cas.CASCommands)
	RootCmd.AddCommand(script.ScriptCommands)
	RootCmd.AddCommand(lock.LockCommands)
	RootCmd.AddCommand(bench.BenchCommands)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "log-level"
	RootCmd.PersistentFlags().String(key, "warn", util.WrapString("level at which logs will be output (debug, info, warn, error)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := RootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
