// Package commands defines the CLI command structure and flag bindings.
//
// Commands parse arguments and flags only; execution is delegated to the
// handlers package.
package commands

import "github.com/spf13/cobra"

// configPath is bound to the persistent --config flag.
var configPath string

// Root returns the root command for the stratus CLI.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "stratus",
		Short:         "Manage buckets, web instances and repository mirrors",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (defaults and environment apply when empty)")

	cmd.AddCommand(Bucket())
	cmd.AddCommand(Instance())
	cmd.AddCommand(Repo())
	cmd.AddCommand(Serve())
	cmd.AddCommand(Version())
	cmd.AddCommand(Completion())

	return cmd
}
