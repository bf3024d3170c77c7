package config

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)

	// The file now exists and loads back identically.
	_, err = os.Stat(path)
	require.NoError(t, err)
	again, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg, again)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
NetworkName = "idxnet-test"

[epochs]
length_blocks = 100

[curation]
minimum_deposit = "500000000000000000000"
default_reserve_ratio_ppm = 333333

[staking]
thawing_period_epochs = 3
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "idxnet-test", cfg.NetworkName)
	require.Equal(t, uint64(100), cfg.Epochs.LengthBlocks)
	// 500 tokens at 18 decimals does not fit an int64.
	want, ok := new(big.Int).SetString("500000000000000000000", 10)
	require.True(t, ok)
	require.Equal(t, want, cfg.Curation.MinimumDepositAmount())
	require.Equal(t, uint32(333_333), cfg.Curation.DefaultReserveRatioPpm)
	require.Equal(t, uint64(3), cfg.Staking.ThawingPeriodEpochs)
	// Unset fields keep their defaults.
	require.Equal(t, Default().Staking.CurationFeePpm, cfg.Staking.CurationFeePpm)
}

func TestValidateRejectsBadRanges(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero epoch length", func(c *Config) { c.Epochs.LengthBlocks = 0 }},
		{"zero minimum deposit", func(c *Config) { c.Curation.MinimumDeposit = "0" }},
		{"negative minimum deposit", func(c *Config) { c.Curation.MinimumDeposit = "-1" }},
		{"unparseable minimum deposit", func(c *Config) { c.Curation.MinimumDeposit = "1e18" }},
		{"zero seed signal", func(c *Config) { c.Curation.SeedSignal = "0" }},
		{"empty seed signal", func(c *Config) { c.Curation.SeedSignal = "" }},
		{"ratio too high", func(c *Config) { c.Curation.DefaultReserveRatioPpm = 1_000_001 }},
		{"ratio zero", func(c *Config) { c.Curation.DefaultReserveRatioPpm = 0 }},
		{"confiscatory fee", func(c *Config) { c.Curation.WithdrawalFeePpm = 1_000_000 }},
		{"zero thawing period", func(c *Config) { c.Staking.ThawingPeriodEpochs = 0 }},
		{"zero max allocation", func(c *Config) { c.Staking.MaxAllocationEpochs = 0 }},
		{"curation fee too high", func(c *Config) { c.Staking.CurationFeePpm = 1_000_001 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			require.Error(t, Validate(cfg))
		})
	}
	require.NoError(t, Validate(Default()))
}
