package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{name: "empty region", mutate: func(c *Config) { c.Region = "" }, wantErr: "region is required"},
		{name: "malformed region", mutate: func(c *Config) { c.Region = "Paris" }, wantErr: "invalid region"},
		{name: "empty workspace", mutate: func(c *Config) { c.Workspace = "" }, wantErr: "workspace is required"},
		{name: "port out of range", mutate: func(c *Config) { c.Compute.WebPort = 0 }, wantErr: "web_port"},
		{
			name:    "half a credential pair",
			mutate:  func(c *Config) { c.AWS.AccessKeyID = "AKIA" },
			wantErr: "must be set together",
		},
		{name: "rsa key type", mutate: func(c *Config) { c.Compute.KeyType = KeyTypeRSA }},
		{name: "unknown key type", mutate: func(c *Config) { c.Compute.KeyType = "dsa" }, wantErr: "key_type"},
		{name: "unknown log format", mutate: func(c *Config) { c.Log.Format = "xml" }, wantErr: "log.format"},
		{name: "negative verbosity", mutate: func(c *Config) { c.Log.Verbosity = -1 }, wantErr: "verbosity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
