package serve

import (
	"fmt"
	"github.com/ValentinKolb/dCAS/cmd/util"
	"github.com/alicebob/miniredis/v2"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"strings"
)

var (
	Logger = logger.GetLogger("cli")

	ServeCmd = &cobra.Command{
		Use:   "serve",
		Short: "Start an embedded in-memory store",
		Long: `Start an embedded, in-memory store speaking the Redis protocol with Lua scripting support.
It is meant for local experiments and benchmarks of the scripts without an external server.
The configuration can be set via command line flags or environment variables. The format of the
environment variables is DCAS_<flag> (e.g. DCAS_ENDPOINT=0.0.0.0:6379)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// add flags
	key := "endpoint"
	ServeCmd.PersistentFlags().String(key, "127.0.0.1:6379", util.WrapString("The address on which the store will listen"))

	key = "password"
	ServeCmd.PersistentFlags().String(key, "", util.WrapString("Require clients to authenticate with this password"))

	key = "seed"
	ServeCmd.PersistentFlags().StringSlice(key, nil, util.WrapString("Comma-separated list of KEY=VALUE pairs written before the store accepts clients (e.g. goods1.number=100)"))
}

// processConfig binds the flags to viper and configures the loggers
func processConfig(cmd *cobra.Command, _ []string) error {
	return util.PrepareCommand(cmd)
}

// parseSeed splits KEY=VALUE pairs
func parseSeed(pairs []string) (map[string]string, error) {
	seed := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("invalid seed format: %s (expected KEY=VALUE)", pair)
		}
		seed[strings.TrimSpace(k)] = v
	}
	return seed, nil
}

// run starts the store and blocks until the command is interrupted
func run(cmd *cobra.Command, _ []string) error {
	seed, err := parseSeed(viper.GetStringSlice("seed"))
	if err != nil {
		return err
	}

	m := miniredis.NewMiniRedis()
	if pw := viper.GetString("password"); pw != "" {
		m.RequireAuth(pw)
	}
	for k, v := range seed {
		if err := m.Set(k, v); err != nil {
			return fmt.Errorf("seed %s: %w", k, err)
		}
	}

	if err := m.StartAddr(viper.GetString("endpoint")); err != nil {
		return fmt.Errorf("failed to start store: %w", err)
	}
	defer m.Close()

	Logger.Infof("store listening on %s (%d seeded keys)", m.Addr(), len(seed))
	fmt.Printf("listening on %s\n", m.Addr())

	<-cmd.Context().Done()

	Logger.Infof("shutting down store")
	return nil
}
