// Package config loads the autoplayer configuration from HCL files.
package config

import (
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config represents the complete autoplayer configuration
type Config struct {
	Chain  ChainSettings  `hcl:"chain,block"`
	Game   GameSettings   `hcl:"game,block"`
	Server ServerSettings `hcl:"server,block"`
}

// ChainSettings contains the RPC endpoint and signing identity
type ChainSettings struct {
	RPCURL          string `hcl:"rpc_url,optional"`
	ContractAddress string `hcl:"contract_address,optional"`

	// PrivateKeyEnv names the environment variable holding the hex
	// private key. The key itself never appears in config files.
	PrivateKeyEnv string `hcl:"private_key_env,optional"`
}

// GameSettings contains wager and play-loop tuning
type GameSettings struct {
	// WagerWei is a decimal string; wei amounts overflow int64
	WagerWei string `hcl:"wager_wei,optional"`
	Strategy string `hcl:"strategy,optional"`

	PollIntervalSeconds int `hcl:"poll_interval_seconds,optional"`
	PollTimeoutSeconds  int `hcl:"poll_timeout_seconds,optional"`
}

// ServerSettings contains the control API configuration
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	NATSURL  string `hcl:"nats_url,optional"`
	LogLevel string `hcl:"log_level,optional"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Chain: ChainSettings{
			RPCURL:        "http://localhost:8545",
			PrivateKeyEnv: "CHAINJACK_PRIVATE_KEY",
		},
		Game: GameSettings{
			WagerWei:            "1000000000000000", // 0.001 ether
			Strategy:            "basic",
			PollIntervalSeconds: 3,
			PollTimeoutSeconds:  300,
		},
		Server: ServerSettings{
			Address:  "localhost:8080",
			LogLevel: "info",
		},
	}
}

// Load loads configuration from an HCL file, falling back to defaults
// when the file does not exist.
func Load(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return Default(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	// Apply defaults for missing values
	defaults := Default()
	if config.Chain.RPCURL == "" {
		config.Chain.RPCURL = defaults.Chain.RPCURL
	}
	if config.Chain.PrivateKeyEnv == "" {
		config.Chain.PrivateKeyEnv = defaults.Chain.PrivateKeyEnv
	}
	if config.Game.WagerWei == "" {
		config.Game.WagerWei = defaults.Game.WagerWei
	}
	if config.Game.Strategy == "" {
		config.Game.Strategy = defaults.Game.Strategy
	}
	if config.Game.PollIntervalSeconds == 0 {
		config.Game.PollIntervalSeconds = defaults.Game.PollIntervalSeconds
	}
	if config.Game.PollTimeoutSeconds == 0 {
		config.Game.PollTimeoutSeconds = defaults.Game.PollTimeoutSeconds
	}
	if config.Server.Address == "" {
		config.Server.Address = defaults.Server.Address
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = defaults.Server.LogLevel
	}

	return &config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Chain.RPCURL == "" {
		return fmt.Errorf("chain rpc_url must be set")
	}
	if c.Chain.ContractAddress != "" && !common.IsHexAddress(c.Chain.ContractAddress) {
		return fmt.Errorf("invalid contract address: %s", c.Chain.ContractAddress)
	}
	if _, ok := new(big.Int).SetString(c.Game.WagerWei, 10); !ok {
		return fmt.Errorf("invalid wager_wei: %q is not a decimal integer", c.Game.WagerWei)
	}
	if wager, _ := new(big.Int).SetString(c.Game.WagerWei, 10); wager.Sign() <= 0 {
		return fmt.Errorf("wager_wei must be positive")
	}
	if c.Game.PollIntervalSeconds <= 0 {
		return fmt.Errorf("poll_interval_seconds must be positive")
	}
	if c.Game.PollTimeoutSeconds <= c.Game.PollIntervalSeconds {
		return fmt.Errorf("poll_timeout_seconds (%d) must exceed poll_interval_seconds (%d)",
			c.Game.PollTimeoutSeconds, c.Game.PollIntervalSeconds)
	}
	return nil
}

// Wager returns the configured wager in wei.
func (c *Config) Wager() *big.Int {
	wager, _ := new(big.Int).SetString(c.Game.WagerWei, 10)
	return wager
}

// PollInterval returns the delay between snapshot reads.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Game.PollIntervalSeconds) * time.Second
}

// PollTimeout returns the hard poll ceiling.
func (c *Config) PollTimeout() time.Duration {
	return time.Duration(c.Game.PollTimeoutSeconds) * time.Second
}

// PrivateKey reads the signing key from the configured environment
// variable.
func (c *Config) PrivateKey() (string, error) {
	key := os.Getenv(c.Chain.PrivateKeyEnv)
	if key == "" {
		return "", fmt.Errorf("environment variable %s is not set", c.Chain.PrivateKeyEnv)
	}
	return key, nil
}
