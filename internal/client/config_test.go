package client

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadClientConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadClientConfig(filepath.Join(t.TempDir(), "missing.hcl"))
	require.NoError(t, err)
	assert.Equal(t, DefaultClientConfig(), cfg)
	require.NoError(t, cfg.Validate())
}

func TestLoadClientConfig_AppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`
server {
  address    = "ws://localhost:7778"
  secret_key = "hunter2"
}

ui {
  no_color = true
}
`), 0o644))

	cfg, err := LoadClientConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:7778", cfg.Server.Address)
	assert.Equal(t, "hunter2", cfg.Server.SecretKey)
	assert.Equal(t, 10, cfg.Server.ConnectTimeout)
	assert.Equal(t, 30, cfg.Server.RequestTimeout)
	assert.Equal(t, "warn", cfg.UI.LogLevel)
	assert.True(t, cfg.UI.NoColor)
}

func TestLoadClientConfig_InvalidHCL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`server {`), 0o644))

	_, err := LoadClientConfig(path)
	assert.ErrorContains(t, err, "failed to parse HCL file")
}

func TestClientConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ClientConfig)
		wantErr string
	}{
		{name: "defaults", mutate: func(*ClientConfig) {}},
		{name: "no address", mutate: func(c *ClientConfig) { c.Server.Address = "" }, wantErr: "server address is required"},
		{name: "zero connect timeout", mutate: func(c *ClientConfig) { c.Server.ConnectTimeout = 0 }, wantErr: "connect timeout must be positive"},
		{name: "negative request timeout", mutate: func(c *ClientConfig) { c.Server.RequestTimeout = -1 }, wantErr: "request timeout must be positive"},
		{name: "bad log level", mutate: func(c *ClientConfig) { c.UI.LogLevel = "loud" }, wantErr: "invalid log level: loud"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultClientConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}
