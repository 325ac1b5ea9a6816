package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/stratus/internal/provisioning"
)

func TestRoot(t *testing.T) {
	cmd := Root()

	require.NotNil(t, cmd)
	assert.Equal(t, "stratus", cmd.Use)
	assert.True(t, cmd.SilenceUsage)

	flag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, flag, "config flag should exist")
	assert.Equal(t, "c", flag.Shorthand)
	assert.Equal(t, "", flag.DefValue)
}

func TestRoot_Subcommands(t *testing.T) {
	cmd := Root()

	names := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"bucket", "instance", "repo", "serve", "version", "completion"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "stratus.yaml")
	content := "region: us-east-1\nworkspace: " + dir + "\nlog:\n  format: text\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRoot_RepoResolveUnknownMirror(t *testing.T) {
	cmd := Root()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"repo", "resolve", "repo-missing", "index.html", "--config", writeConfig(t)})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, provisioning.KindNotFound, provisioning.Kind(err))
}

func TestRoot_InvalidConfig(t *testing.T) {
	cmd := Root()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"repo", "list", "--config", filepath.Join(t.TempDir(), "missing.yaml")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestRoot_ArgumentValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"bucket create without name", []string{"bucket", "create"}},
		{"bucket upload one arg", []string{"bucket", "upload", "b"}},
		{"instance show without id", []string{"instance", "show"}},
		{"instance launch positional", []string{"instance", "launch", "extra"}},
		{"repo clone without url", []string{"repo", "clone"}},
		{"repo resolve too many", []string{"repo", "resolve", "a", "b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := Root()
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetErr(&bytes.Buffer{})
			cmd.SetArgs(tt.args)
			assert.Error(t, cmd.Execute())
		})
	}
}
