package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const validConfig = `{
	"rpc_url": "https://api.mainnet-beta.solana.com",
	"private_key": "5HueCGU8rMjxEXxiPuD5BDku4MkFqeZyd4dZ1jvhTVqvbTLvyTJ"
}`

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	require.NoError(t, err)

	assert.Equal(t, "confirmed", cfg.Commitment)
	assert.Equal(t, uint32(DefaultComputeUnitLimit), cfg.ComputeUnitLimit)
	assert.Equal(t, DefaultMaxPollAttempts, cfg.MaxPollAttempts)
	assert.Equal(t, 3*time.Second, cfg.PollInterval())
	assert.Equal(t, 15*time.Second, cfg.BroadcastTimeout())
	assert.Equal(t, uint64(DefaultSlippageBps), cfg.DefaultSlippageBps)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{
		"rpc_url": "https://rpc.example.com",
		"private_key": "key",
		"commitment": "finalized",
		"poll_interval_ms": 1000,
		"max_poll_attempts": 5,
		"default_slippage_bps": 250
	}`))
	require.NoError(t, err)

	assert.Equal(t, "finalized", cfg.Commitment)
	assert.Equal(t, time.Second, cfg.PollInterval())
	assert.Equal(t, 5, cfg.MaxPollAttempts)
	assert.Equal(t, uint64(250), cfg.DefaultSlippageBps)
}

func TestLoad_EnvPrivateKey(t *testing.T) {
	t.Setenv("AGENTIPY_PRIVATE_KEY", "env-key")

	cfg, err := Load(writeConfig(t, `{"rpc_url": "https://rpc.example.com"}`))
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.PrivateKey)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing rpc url",
			content: `{"private_key": "key"}`,
			wantErr: "rpc_url",
		},
		{
			name:    "non-http rpc url",
			content: `{"rpc_url": "ws://rpc.example.com", "private_key": "key"}`,
			wantErr: "rpc_url",
		},
		{
			name:    "missing private key",
			content: `{"rpc_url": "https://rpc.example.com"}`,
			wantErr: "private key",
		},
		{
			name:    "bad commitment",
			content: `{"rpc_url": "https://rpc.example.com", "private_key": "k", "commitment": "instant"}`,
			wantErr: "commitment",
		},
		{
			name:    "zero poll interval",
			content: `{"rpc_url": "https://rpc.example.com", "private_key": "k", "poll_interval_ms": 0}`,
			wantErr: "poll_interval_ms",
		},
		{
			name:    "slippage at full scale",
			content: `{"rpc_url": "https://rpc.example.com", "private_key": "k", "default_slippage_bps": 10000}`,
			wantErr: "slippage",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
