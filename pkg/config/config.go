// Package config provides configuration management for stableweb.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/tyler-smith/go-bip39"
)

// Default values.
var (
	DefaultHost          = "127.0.0.1"
	DefaultPort          = 8545
	DefaultAccountCount  = 10
	DefaultMnemonic      = "test test test test test test test test test test test junk"
	DefaultTokenName     = "StableWeb USD"
	DefaultTokenSymbol   = "SWUSD"
	DefaultTokenDecimals = uint8(6)
	DefaultChainIDs      = []uint64{1, 2}
	DefaultLogLevel      = "info"

	// DefaultInitialCap is one billion whole tokens at the default six
	// decimals.
	DefaultInitialCap = new(big.Int).Mul(big.NewInt(1_000_000_000), big.NewInt(1_000_000))
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "STABLEWEB_"

// TokenConfig holds the token parameters shared by every chain.
type TokenConfig struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

// ChainConfig describes one chain in the web.
type ChainConfig struct {
	ID uint64 `json:"id"`

	// Contract is the token's own address on this chain. Empty derives a
	// deterministic address from the admin account and the chain id.
	Contract common.Address `json:"contract,omitempty"`

	// InitialCap seeds the chain's reserve oracle. Nil uses the default.
	InitialCap *big.Int `json:"initialCap,omitempty"`
}

// LogConfig holds the logging knobs.
type LogConfig struct {
	Level string `json:"level"`

	// File enables a rotating file sink next to stderr when set.
	File       string `json:"file,omitempty"`
	MaxSizeMB  int    `json:"maxSizeMb"`
	MaxBackups int    `json:"maxBackups"`
	MaxAgeDays int    `json:"maxAgeDays"`
	Compress   bool   `json:"compress"`
}

// Config defines the platform configuration.
type Config struct {
	// Server configuration
	Host string `json:"host"`
	Port int    `json:"port"`

	// Token parameters
	Token TokenConfig `json:"token"`

	// Chains in the web
	Chains []ChainConfig `json:"chains"`

	// Account configuration
	Mnemonic     string `json:"mnemonic"`
	AccountCount int    `json:"accountCount"`

	// Genesis role holders. Zero values fall back to accounts derived
	// from the mnemonic: admin 0, relayer 1, oracle 2, bridge 3,
	// pauser 4.
	Admin   common.Address   `json:"admin,omitempty"`
	Relayer common.Address   `json:"relayer,omitempty"`
	Oracles []common.Address `json:"oracles,omitempty"`
	Bridge  common.Address   `json:"bridge,omitempty"`
	Pauser  common.Address   `json:"pauser,omitempty"`

	// Whitelist is KYC-approved on every chain at genesis. Empty
	// approves all derived accounts.
	Whitelist []common.Address `json:"whitelist,omitempty"`

	// Logging configuration
	Log LogConfig `json:"log"`
}

// Default returns a configuration with default values.
func Default() *Config {
	chains := make([]ChainConfig, len(DefaultChainIDs))
	for i, id := range DefaultChainIDs {
		chains[i] = ChainConfig{ID: id, InitialCap: new(big.Int).Set(DefaultInitialCap)}
	}

	return &Config{
		Host: DefaultHost,
		Port: DefaultPort,
		Token: TokenConfig{
			Name:     DefaultTokenName,
			Symbol:   DefaultTokenSymbol,
			Decimals: DefaultTokenDecimals,
		},
		Chains:       chains,
		Mnemonic:     DefaultMnemonic,
		AccountCount: DefaultAccountCount,
		Log: LogConfig{
			Level:      DefaultLogLevel,
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []string

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, "port must be between 1 and 65535")
	}

	if c.Token.Name == "" {
		errs = append(errs, "token name cannot be empty")
	}
	if c.Token.Symbol == "" {
		errs = append(errs, "token symbol cannot be empty")
	}

	if len(c.Chains) == 0 {
		errs = append(errs, "at least one chain must be configured")
	}
	seen := make(map[uint64]bool)
	for _, chain := range c.Chains {
		if chain.ID == 0 {
			errs = append(errs, "chain id must be greater than 0")
			continue
		}
		if seen[chain.ID] {
			errs = append(errs, fmt.Sprintf("duplicate chain id %d", chain.ID))
		}
		seen[chain.ID] = true
		if chain.InitialCap != nil && chain.InitialCap.Sign() < 0 {
			errs = append(errs, fmt.Sprintf("chain %d initial cap cannot be negative", chain.ID))
		}
	}

	if c.AccountCount <= 0 {
		errs = append(errs, "accountCount must be greater than 0")
	}

	if c.Mnemonic != "" && !bip39.IsMnemonicValid(c.Mnemonic) {
		errs = append(errs, "mnemonic is invalid")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

// LoadFromFile loads configuration from a JSON file and merges it with
// defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return MergeWithDefaults(&cfg), nil
}

// MergeWithDefaults merges partial config with default values.
func MergeWithDefaults(partial *Config) *Config {
	def := Default()

	if partial.Host != "" {
		def.Host = partial.Host
	}
	if partial.Port != 0 {
		def.Port = partial.Port
	}
	if partial.Token.Name != "" {
		def.Token.Name = partial.Token.Name
	}
	if partial.Token.Symbol != "" {
		def.Token.Symbol = partial.Token.Symbol
	}
	if partial.Token.Decimals != 0 {
		def.Token.Decimals = partial.Token.Decimals
	}
	if len(partial.Chains) != 0 {
		def.Chains = make([]ChainConfig, len(partial.Chains))
		for i, chain := range partial.Chains {
			def.Chains[i] = chain
			if chain.InitialCap == nil {
				def.Chains[i].InitialCap = new(big.Int).Set(DefaultInitialCap)
			}
		}
	}
	if partial.Mnemonic != "" {
		def.Mnemonic = partial.Mnemonic
	}
	if partial.AccountCount != 0 {
		def.AccountCount = partial.AccountCount
	}
	if partial.Admin != (common.Address{}) {
		def.Admin = partial.Admin
	}
	if partial.Relayer != (common.Address{}) {
		def.Relayer = partial.Relayer
	}
	if len(partial.Oracles) != 0 {
		def.Oracles = partial.Oracles
	}
	if partial.Bridge != (common.Address{}) {
		def.Bridge = partial.Bridge
	}
	if partial.Pauser != (common.Address{}) {
		def.Pauser = partial.Pauser
	}
	if len(partial.Whitelist) != 0 {
		def.Whitelist = partial.Whitelist
	}
	if partial.Log.Level != "" {
		def.Log.Level = partial.Log.Level
	}
	if partial.Log.File != "" {
		def.Log.File = partial.Log.File
	}
	if partial.Log.MaxSizeMB != 0 {
		def.Log.MaxSizeMB = partial.Log.MaxSizeMB
	}
	if partial.Log.MaxBackups != 0 {
		def.Log.MaxBackups = partial.Log.MaxBackups
	}
	if partial.Log.MaxAgeDays != 0 {
		def.Log.MaxAgeDays = partial.Log.MaxAgeDays
	}
	def.Log.Compress = partial.Log.Compress

	return def
}

// ApplyEnv overrides configuration fields from STABLEWEB_* environment
// variables.
func ApplyEnv(cfg *Config) error {
	if host := os.Getenv(EnvPrefix + "HOST"); host != "" {
		cfg.Host = host
	}
	if port := os.Getenv(EnvPrefix + "PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid %sPORT: %w", EnvPrefix, err)
		}
		cfg.Port = p
	}
	if mnemonic := os.Getenv(EnvPrefix + "MNEMONIC"); mnemonic != "" {
		cfg.Mnemonic = mnemonic
	}
	if chains := os.Getenv(EnvPrefix + "CHAINS"); chains != "" {
		parsed, err := parseChainList(chains)
		if err != nil {
			return fmt.Errorf("invalid %sCHAINS: %w", EnvPrefix, err)
		}
		cfg.Chains = parsed
	}
	if level := os.Getenv(EnvPrefix + "LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if file := os.Getenv(EnvPrefix + "LOG_FILE"); file != "" {
		cfg.Log.File = file
	}
	return nil
}

// parseChainList parses a comma-separated chain id list like "1,2,5".
func parseChainList(value string) ([]ChainConfig, error) {
	parts := strings.Split(value, ",")
	chains := make([]ChainConfig, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("chain id %q: %w", part, err)
		}
		chains = append(chains, ChainConfig{
			ID:         id,
			InitialCap: new(big.Int).Set(DefaultInitialCap),
		})
	}
	return chains, nil
}

// Copy creates a deep copy of the configuration.
func (c *Config) Copy() *Config {
	copied := *c

	copied.Chains = make([]ChainConfig, len(c.Chains))
	for i, chain := range c.Chains {
		copied.Chains[i] = chain
		if chain.InitialCap != nil {
			copied.Chains[i].InitialCap = new(big.Int).Set(chain.InitialCap)
		}
	}
	if c.Oracles != nil {
		copied.Oracles = make([]common.Address, len(c.Oracles))
		copy(copied.Oracles, c.Oracles)
	}
	if c.Whitelist != nil {
		copied.Whitelist = make([]common.Address, len(c.Whitelist))
		copy(copied.Whitelist, c.Whitelist)
	}

	return &copied
}

// ServerAddr returns the server address string.
func (c *Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ChainIDs returns the configured chain ids in order.
func (c *Config) ChainIDs() []uint64 {
	ids := make([]uint64, len(c.Chains))
	for i, chain := range c.Chains {
		ids[i] = chain.ID
	}
	return ids
}

// Chain returns the configuration of one chain, if present.
func (c *Config) Chain(id uint64) (ChainConfig, bool) {
	for _, chain := range c.Chains {
		if chain.ID == id {
			return chain, true
		}
	}
	return ChainConfig{}, false
}
