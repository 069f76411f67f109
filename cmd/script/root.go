package script

import (
	"fmt"
	"github.com/ValentinKolb/dCAS/cmd/util"
	"github.com/ValentinKolb/dCAS/lib/session"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"os"
	"strings"
)

var (
	client *util.StoreClient

	// ScriptCommands represents the script command group
	ScriptCommands = &cobra.Command{
		Use:                "script",
		Short:              "Evaluate and register raw scripts",
		PersistentPreRunE:  setupStoreClient,
		PersistentPostRunE: closeStoreClient,
	}

	evalCmd = &cobra.Command{
		Use:   "eval [source]",
		Short: "Evaluates a script from its source",
		Long:  "Evaluates a script from its source. A source starting with @ is read from the named file.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := readSource(args[0])
			if err != nil {
				return err
			}
			res, err := client.Session.Evaluate(cmd.Context(), source, getKeys(), getArgs()...)
			if err != nil {
				return err
			}
			fmt.Println(formatReply(res))
			return nil
		},
	}
	loadCmd = &cobra.Command{
		Use:   "load [source]",
		Short: "Registers a script and prints its handle",
		Long:  "Registers a script and prints its handle. A source starting with @ is read from the named file.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := readSource(args[0])
			if err != nil {
				return err
			}
			handle, err := client.Session.Register(cmd.Context(), source)
			if err != nil {
				return err
			}
			fmt.Println(handle)
			return nil
		},
	}
	evalShaCmd = &cobra.Command{
		Use:   "evalsha [handle]",
		Short: "Evaluates a previously registered script by its handle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := client.Session.EvaluateByHandle(cmd.Context(), args[0], getKeys(), getArgs()...)
			if session.IsScriptNotRegistered(err) {
				return fmt.Errorf("script %s is not registered, load it first: %w", args[0], err)
			}
			if err != nil {
				return err
			}
			fmt.Println(formatReply(res))
			return nil
		},
	}
)

func init() {
	// Add common store flags to the script command
	util.SetupStoreFlags(ScriptCommands)

	// Add subcommands
	ScriptCommands.AddCommand(evalCmd)
	ScriptCommands.AddCommand(loadCmd)
	ScriptCommands.AddCommand(evalShaCmd)

	// Add flags shared by eval and evalsha
	for _, c := range []*cobra.Command{evalCmd, evalShaCmd} {
		key := "keys"
		c.Flags().StringSlice(key, nil, util.WrapString("Comma-separated keys passed to the script as KEYS"))
		key = "args"
		c.Flags().StringSlice(key, nil, util.WrapString("Comma-separated arguments passed to the script as ARGV"))
	}
}

func setupStoreClient(cmd *cobra.Command, _ []string) error {
	if err := util.PrepareCommand(cmd); err != nil {
		return err
	}

	var err error
	client, err = util.OpenStoreClient(cmd.Context())
	return err
}

func closeStoreClient(_ *cobra.Command, _ []string) error {
	return client.Close()
}

// readSource returns text, or the content of the file if text is @path
func readSource(text string) (string, error) {
	path, ok := strings.CutPrefix(text, "@")
	if !ok {
		return text, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read script: %w", err)
	}
	return string(b), nil
}

func getKeys() []string {
	return viper.GetStringSlice("keys")
}

func getArgs() []interface{} {
	raw := viper.GetStringSlice("args")
	args := make([]interface{}, len(raw))
	for i, a := range raw {
		args[i] = a
	}
	return args
}

// formatReply renders a script reply the way redis-cli does
func formatReply(res interface{}) string {
	switch v := res.(type) {
	case nil:
		return "(nil)"
	case int64:
		return fmt.Sprintf("(integer) %d", v)
	case string:
		return fmt.Sprintf("%q", v)
	case []interface{}:
		if len(v) == 0 {
			return "(empty array)"
		}
		var sb strings.Builder
		for i, e := range v {
			if i > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(fmt.Sprintf("%d) %s", i+1, formatReply(e)))
		}
		return sb.String()
	default:
		return fmt.Sprint(v)
	}
}
