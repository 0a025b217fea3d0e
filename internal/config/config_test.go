package config

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chainjack.hcl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.hcl"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	require.NoError(t, cfg.Validate())
}

func TestLoadAppliesDefaultsToPartialConfig(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
chain {
  rpc_url  = "https://sepolia.example.org"
  contract_address = "0x1111111111111111111111111111111111111111"
}
game {
  strategy = "threshold"
}
server {}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "https://sepolia.example.org", cfg.Chain.RPCURL)
	assert.Equal(t, "threshold", cfg.Game.Strategy)
	assert.Equal(t, 3, cfg.Game.PollIntervalSeconds)
	assert.Equal(t, 300, cfg.Game.PollTimeoutSeconds)
	assert.Equal(t, "localhost:8080", cfg.Server.Address)
	assert.Equal(t, "CHAINJACK_PRIVATE_KEY", cfg.Chain.PrivateKeyEnv)
}

func TestWagerParsesBeyondInt64(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
chain {}
game {
  wager_wei = "100000000000000000000"
}
server {}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	want, _ := new(big.Int).SetString("100000000000000000000", 10)
	assert.Zero(t, cfg.Wager().Cmp(want))
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad contract address", func(c *Config) { c.Chain.ContractAddress = "not-an-address" }},
		{"non-numeric wager", func(c *Config) { c.Game.WagerWei = "1.5 ether" }},
		{"zero wager", func(c *Config) { c.Game.WagerWei = "0" }},
		{"timeout below interval", func(c *Config) {
			c.Game.PollIntervalSeconds = 30
			c.Game.PollTimeoutSeconds = 10
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestPrivateKeyFromEnvironment(t *testing.T) {
	cfg := Default()
	cfg.Chain.PrivateKeyEnv = "CHAINJACK_TEST_KEY"

	_, err := cfg.PrivateKey()
	require.Error(t, err, "unset variable must not produce an empty key")

	t.Setenv("CHAINJACK_TEST_KEY", "deadbeef")
	key, err := cfg.PrivateKey()
	require.NoError(t, err)
	assert.Equal(t, "deadbeef", key)
}

func TestLoadRejectsMalformedHCL(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `chain { rpc_url = `)
	_, err := Load(path)
	require.Error(t, err)
}
