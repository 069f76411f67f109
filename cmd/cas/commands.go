package cas

import (
	"fmt"
	"github.com/ValentinKolb/dCAS/lib/script"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"strconv"
)

var (
	releaseCmd = &cobra.Command{
		Use:   "release [key] [owner]",
		Short: "Deletes the lock at key if it is held by owner",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := engine.ReleaseLockIfOwner(cmd.Context(), client.Session, args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Println(res)
			return nil
		},
	}
	decrementCmd = &cobra.Command{
		Use:   "decrement [key] [amount]",
		Short: "Decrements the counter at key by amount if it holds at least amount",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("amount must be a number: %w", err)
			}
			res, err := engine.DecrementIfSufficient(cmd.Context(), client.Session, args[0], amount)
			if err != nil {
				return err
			}
			fmt.Println(res)
			return nil
		},
	}
	setStaleCmd = &cobra.Command{
		Use:   "set-stale [key] [value]",
		Short: "Sets key to value if it is absent or its stored value is stale",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			predicate, err := parsePredicate(viper.GetString("predicate"))
			if err != nil {
				return err
			}
			res, err := engine.SetIfAbsentOrStale(cmd.Context(), client.Session, args[0], args[1], predicate)
			if err != nil {
				return err
			}
			fmt.Println(res)
			return nil
		},
	}
	drainCmd = &cobra.Command{
		Use:   "drain [key]",
		Short: "Returns all members of the set at key and deletes it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			members, err := engine.DrainSet(cmd.Context(), client.Session, args[0])
			if err != nil {
				return err
			}
			if len(members) == 0 {
				fmt.Println("(empty)")
				return nil
			}
			for _, m := range members {
				fmt.Println(m)
			}
			return nil
		},
	}
)

func parsePredicate(name string) (script.Predicate, error) {
	switch name {
	case script.OlderVersion.Name:
		return script.OlderVersion, nil
	case script.NotEqual.Name:
		return script.NotEqual, nil
	default:
		return script.Predicate{}, fmt.Errorf("invalid predicate %s (expected one of: %s, %s)", name, script.OlderVersion.Name, script.NotEqual.Name)
	}
}
