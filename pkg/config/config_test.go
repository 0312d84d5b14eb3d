package config

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, 8545, cfg.Port)
	assert.Equal(t, "StableWeb USD", cfg.Token.Name)
	assert.Equal(t, "SWUSD", cfg.Token.Symbol)
	assert.Equal(t, uint8(6), cfg.Token.Decimals)
	assert.Equal(t, 10, cfg.AccountCount)
	assert.Equal(t, DefaultMnemonic, cfg.Mnemonic)
	assert.Equal(t, "info", cfg.Log.Level)

	require.Len(t, cfg.Chains, 2)
	assert.Equal(t, uint64(1), cfg.Chains[0].ID)
	assert.Equal(t, uint64(2), cfg.Chains[1].ID)
	assert.Equal(t, DefaultInitialCap, cfg.Chains[0].InitialCap)
}

func TestConfigValidation_Valid(t *testing.T) {
	cfg := Default()
	err := cfg.Validate()
	assert.NoError(t, err)
}

func TestConfigValidation_InvalidPort(t *testing.T) {
	tests := []struct {
		name string
		port int
	}{
		{"negative", -1},
		{"zero", 0},
		{"too high", 65536},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Port = tt.port

			err := cfg.Validate()

			assert.Error(t, err)
			assert.Contains(t, err.Error(), "port")
		})
	}
}

func TestConfigValidation_EmptyTokenName(t *testing.T) {
	cfg := Default()
	cfg.Token.Name = ""

	err := cfg.Validate()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "token name")
}

func TestConfigValidation_NoChains(t *testing.T) {
	cfg := Default()
	cfg.Chains = nil

	err := cfg.Validate()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "chain")
}

func TestConfigValidation_ZeroChainID(t *testing.T) {
	cfg := Default()
	cfg.Chains = []ChainConfig{{ID: 0}}

	err := cfg.Validate()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "chain id")
}

func TestConfigValidation_DuplicateChainID(t *testing.T) {
	cfg := Default()
	cfg.Chains = []ChainConfig{{ID: 7}, {ID: 7}}

	err := cfg.Validate()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate chain id")
}

func TestConfigValidation_NegativeCap(t *testing.T) {
	cfg := Default()
	cfg.Chains = []ChainConfig{{ID: 1, InitialCap: big.NewInt(-1)}}

	err := cfg.Validate()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "initial cap")
}

func TestConfigValidation_InvalidAccountCount(t *testing.T) {
	cfg := Default()
	cfg.AccountCount = 0

	err := cfg.Validate()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "accountCount")
}

func TestConfigValidation_InvalidMnemonic(t *testing.T) {
	cfg := Default()
	cfg.Mnemonic = "invalid mnemonic"

	err := cfg.Validate()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "mnemonic")
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	configJSON := `{
		"port": 9999,
		"accountCount": 5,
		"token": {"symbol": "TUSD"},
		"chains": [{"id": 11}, {"id": 12, "initialCap": 500}]
	}`

	err := os.WriteFile(configPath, []byte(configJSON), 0644)
	require.NoError(t, err)

	cfg, err := LoadFromFile(configPath)

	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Port)
	assert.Equal(t, 5, cfg.AccountCount)
	assert.Equal(t, "TUSD", cfg.Token.Symbol)
	require.Len(t, cfg.Chains, 2)
	assert.Equal(t, uint64(11), cfg.Chains[0].ID)
	// Defaults should be applied for missing fields
	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, "StableWeb USD", cfg.Token.Name)
	assert.Equal(t, DefaultInitialCap, cfg.Chains[0].InitialCap)
	assert.Equal(t, big.NewInt(500), cfg.Chains[1].InitialCap)
}

func TestLoadFromFile_NotFound(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path/config.json")
	assert.Error(t, err)
}

func TestLoadFromFile_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	err := os.WriteFile(configPath, []byte("invalid json"), 0644)
	require.NoError(t, err)

	_, err = LoadFromFile(configPath)
	assert.Error(t, err)
}

func TestMergeWithDefaults(t *testing.T) {
	partial := &Config{
		Port:  9999,
		Admin: common.HexToAddress("0x1111111111111111111111111111111111111111"),
	}

	merged := MergeWithDefaults(partial)

	assert.Equal(t, 9999, merged.Port)
	assert.Equal(t, partial.Admin, merged.Admin)
	// Defaults applied
	assert.Equal(t, "127.0.0.1", merged.Host)
	assert.Equal(t, 10, merged.AccountCount)
	assert.Len(t, merged.Chains, 2)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvPrefix+"HOST", "0.0.0.0")
	t.Setenv(EnvPrefix+"PORT", "7001")
	t.Setenv(EnvPrefix+"CHAINS", "5, 6, 7")
	t.Setenv(EnvPrefix+"LOG_LEVEL", "debug")

	cfg := Default()
	err := ApplyEnv(cfg)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, 7001, cfg.Port)
	assert.Equal(t, []uint64{5, 6, 7}, cfg.ChainIDs())
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestApplyEnv_InvalidPort(t *testing.T) {
	t.Setenv(EnvPrefix+"PORT", "not-a-port")

	cfg := Default()
	err := ApplyEnv(cfg)
	assert.Error(t, err)
}

func TestApplyEnv_InvalidChains(t *testing.T) {
	t.Setenv(EnvPrefix+"CHAINS", "1,abc")

	cfg := Default()
	err := ApplyEnv(cfg)
	assert.Error(t, err)
}

func TestConfigCopy(t *testing.T) {
	cfg := Default()
	copied := cfg.Copy()

	// Mutating the original must not reach the copy
	cfg.Chains[0].InitialCap.SetInt64(1)
	cfg.Port = 1

	assert.Equal(t, DefaultInitialCap, copied.Chains[0].InitialCap)
	assert.Equal(t, 8545, copied.Port)
}

func TestConfig_ChainLookup(t *testing.T) {
	cfg := Default()

	chain, ok := cfg.Chain(2)
	require.True(t, ok)
	assert.Equal(t, uint64(2), chain.ID)

	_, ok = cfg.Chain(99)
	assert.False(t, ok)
}

func TestConfig_ServerAddr(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "127.0.0.1:8545", cfg.ServerAddr())
}
