// Package main is the entry point for the stratus CLI.
//
// stratus manages object storage buckets, launches web-serving compute
// instances and mirrors git repositories for static serving. Every command
// is a thin caller of the orchestrators under internal/provisioning.
//
// For detailed usage information, run:
//
//	stratus --help
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/imamik/stratus/cmd/stratus/commands"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
