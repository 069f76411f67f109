package cas

import (
	"github.com/ValentinKolb/dCAS/cmd/util"
	"github.com/ValentinKolb/dCAS/lib/script"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/cobra"
)

var (
	Logger = logger.GetLogger("cli")

	client *util.StoreClient
	engine = script.NewEngine()

	// CASCommands represents the cas command group
	CASCommands = &cobra.Command{
		Use:                "cas",
		Short:              "Perform atomic conditional updates",
		PersistentPreRunE:  setupStoreClient,
		PersistentPostRunE: closeStoreClient,
	}
)

func init() {
	// Add common store flags to the cas command
	util.SetupStoreFlags(CASCommands)

	// Add subcommands
	CASCommands.AddCommand(releaseCmd)
	CASCommands.AddCommand(decrementCmd)
	CASCommands.AddCommand(setStaleCmd)
	CASCommands.AddCommand(drainCmd)

	// Add flags specific to set-stale
	key := "predicate"
	setStaleCmd.Flags().String(key, script.OlderVersion.Name, util.WrapString("When the stored value counts as stale: older-version (numeric less than the candidate) or not-equal"))
}

// setupStoreClient connects to the store and checks out the session of the command
func setupStoreClient(cmd *cobra.Command, _ []string) error {
	if err := util.PrepareCommand(cmd); err != nil {
		return err
	}

	var err error
	if client, err = util.OpenStoreClient(cmd.Context()); err != nil {
		return err
	}
	Logger.Debugf("connected to %s", util.GetStoreConfig().Endpoint)
	return nil
}

func closeStoreClient(_ *cobra.Command, _ []string) error {
	return client.Close()
}
