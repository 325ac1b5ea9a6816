package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/stratus/cmd/stratus/handlers"
)

// Serve returns the serve command.
func Serve() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve repository mirrors over HTTP",
		Long: `Serve exposes every mirror as static files under /repo/{id}/, plus
/health and prometheus metrics under /metrics. It stops on interrupt.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Serve(cmd.Context(), configPath, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (defaults to serve.addr)")
	return cmd
}
