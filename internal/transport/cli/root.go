// Package cli defines the cpfvariants command tree. Command handlers that
// need configuration or long-lived services are injected by cmd/cpfvariants.
package cli

import (
	"github.com/spf13/cobra"
)

// GlobalOptions holds the persistent flags shared by every command.
type GlobalOptions struct {
	Env        string
	ConfigPath string
	Verbose    bool
}

// NewRootCmd creates the top-level cpfvariants command.
func NewRootCmd(version string, globals *GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cpfvariants",
		Short: "Find valid CPF numbers close to a mistyped one",
		Long: "cpfvariants searches for valid CPF numbers that differ from a given CPF in one, " +
			"two or three digit positions, stopping at the smallest number of changes that yields a match.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Version = version

	cmd.PersistentFlags().StringVar(&globals.Env, "env", globals.Env, "Config environment (selects config/<env>.yaml)")
	cmd.PersistentFlags().StringVar(&globals.ConfigPath, "config", "", "Path to a config file (overrides --env)")
	cmd.PersistentFlags().BoolVarP(&globals.Verbose, "verbose", "v", false, "Log debug output to stderr")

	return cmd
}
