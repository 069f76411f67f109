package lock

import (
	"fmt"
	"github.com/ValentinKolb/dCAS/cmd/util"
	"github.com/ValentinKolb/dCAS/lib/lockmgr"
	"github.com/ValentinKolb/dCAS/lib/script"
	"github.com/spf13/cobra"
	"time"
)

var (
	client     *util.StoreClient
	lockMgr    lockmgr.ILockManager
	acquireTTL time.Duration

	// LockCommands represents the lock command group
	LockCommands = &cobra.Command{
		Use:                "lock",
		Short:              "Perform lock operations",
		PersistentPreRunE:  setupLockClient,
		PersistentPostRunE: closeLockClient,
	}

	// acquireCmd represents the acquire command
	acquireCmd = &cobra.Command{
		Use:   "acquire [key]",
		Short: "Acquire a lock",
		Args:  cobra.ExactArgs(1),
		RunE:  runAcquire,
	}

	// releaseCmd represents the release command
	releaseCmd = &cobra.Command{
		Use:   "release [key] [ownerID]",
		Short: "Release a previously acquired lock",
		Long:  "Release a lock using the key and owner ID. The owner ID is the token returned by the acquire command.",
		Args:  cobra.ExactArgs(2),
		RunE:  runRelease,
	}
)

func init() {
	// Add subcommands to lock command
	LockCommands.AddCommand(acquireCmd)
	LockCommands.AddCommand(releaseCmd)

	// Add common store flags to the lock command
	util.SetupStoreFlags(LockCommands)

	// Add flags specific to acquire
	acquireCmd.Flags().DurationVar(&acquireTTL, "ttl", 30*time.Second, "Lock timeout (0 for no timeout)")
}

// setupLockClient checks out a session and creates the lock manager on it
func setupLockClient(cmd *cobra.Command, _ []string) error {
	if err := util.PrepareCommand(cmd); err != nil {
		return err
	}

	var err error
	if client, err = util.OpenStoreClient(cmd.Context()); err != nil {
		return err
	}

	lockMgr = lockmgr.NewLockManager(script.NewEngine(), client.Session)
	return nil
}

func closeLockClient(_ *cobra.Command, _ []string) error {
	return client.Close()
}

// runAcquire handles the acquire lock command
func runAcquire(cmd *cobra.Command, args []string) error {
	key := args[0]

	// Attempt to acquire the lock
	acquired, ownerID, err := lockMgr.AcquireLock(cmd.Context(), key, acquireTTL)
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}

	if !acquired {
		fmt.Printf("acquired=false\n")
		return nil
	}

	fmt.Printf("acquired=true, ownerID=%s\n", ownerID)
	return nil
}

// runRelease handles the release lock command
func runRelease(cmd *cobra.Command, args []string) error {
	key := args[0]
	ownerID := args[1]

	released, err := lockMgr.ReleaseLock(cmd.Context(), key, ownerID)
	if err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}

	fmt.Printf("released=%v\n", released)
	return nil
}
