package handlers

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/imamik/stratus/internal/config"
	"github.com/imamik/stratus/internal/platform/cloud"
	testutil "github.com/imamik/stratus/internal/testing"
)

// stubSession makes handlers use cfg and a zero factory, and captures stdout.
// Handlers share package state, so tests using it must not run in parallel.
func stubSession(t *testing.T) (*config.Config, *bytes.Buffer) {
	t.Helper()
	cfg := testutil.NewConfigBuilder().WithWorkspace(t.TempDir()).Build()
	cfg.Log.Format = "text"

	origLoad, origFactory := loadConfig, newCloudFactory
	origOut, origErr := stdout, stderr
	t.Cleanup(func() {
		loadConfig, newCloudFactory = origLoad, origFactory
		stdout, stderr = origOut, origErr
	})

	loadConfig = func(string) (*config.Config, error) { return cfg, nil }
	newCloudFactory = func(context.Context, *config.Config) (*cloud.Factory, error) {
		return &cloud.Factory{}, nil
	}
	out := &bytes.Buffer{}
	stdout = out
	stderr = io.Discard
	return cfg, out
}
