// Package handlers implements the business logic for CLI commands.
//
// Each handler loads the configuration, builds the orchestrator it needs
// through a package-level factory variable and renders the result. Tests
// replace the factory variables with orchestrators over in-memory fakes.
package handlers
