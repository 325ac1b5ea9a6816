package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/stratus/cmd/stratus/handlers"
)

// Repo returns the repo command group.
func Repo() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repo",
		Short: "Mirror git repositories for static serving",
	}
	cmd.AddCommand(repoClone(), repoList(), repoResolve())
	return cmd
}

func repoClone() *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "clone URL",
		Short: "Shallow-clone a repository into a new mirror",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.RepoClone(cmd.Context(), configPath, args[0], jsonOutput)
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func repoList() *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List mirrors",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return handlers.RepoList(configPath, jsonOutput)
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func repoResolve() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve ID [PATH]",
		Short: "Print the local file a request path maps to",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(_ *cobra.Command, args []string) error {
			path := ""
			if len(args) == 2 {
				path = args[1]
			}
			return handlers.RepoResolve(configPath, args[0], path)
		},
	}
}
