package config

import (
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the node configuration loaded from TOML.
type Config struct {
	ListenAddress  string   `toml:"ListenAddress"`
	MetricsAddress string   `toml:"MetricsAddress"`
	DataDir        string   `toml:"DataDir"`
	NetworkName    string   `toml:"NetworkName"`
	Environment    string   `toml:"Environment"`
	Epochs         Epochs   `toml:"epochs"`
	Curation       Curation `toml:"curation"`
	Staking        Staking  `toml:"staking"`
}

// Epochs configures the block-height clock.
type Epochs struct {
	LengthBlocks uint64 `toml:"length_blocks"`
}

// Curation configures the bonding-curve market. Token amounts are decimal
// strings in the ledger's base units; with 18 decimals they routinely exceed
// what an int64 can hold.
type Curation struct {
	MinimumDeposit         string `toml:"minimum_deposit"`
	SeedSignal             string `toml:"seed_signal"`
	DefaultReserveRatioPpm uint32 `toml:"default_reserve_ratio_ppm"`
	WithdrawalFeePpm       uint32 `toml:"withdrawal_fee_ppm"`
}

// Staking configures the collateral ledger. Slashers lists the 0x-prefixed
// hex addresses granted the slasher role.
type Staking struct {
	ThawingPeriodEpochs          uint64   `toml:"thawing_period_epochs"`
	MaxAllocationEpochs          uint64   `toml:"max_allocation_epochs"`
	RebateDisputeEpochs          uint64   `toml:"rebate_dispute_epochs"`
	CurationFeePpm               uint32   `toml:"curation_fee_ppm"`
	DelegationCapacityMultiplier uint32   `toml:"delegation_capacity_multiplier"`
	MinDelegationCooldownBlocks  uint64   `toml:"min_delegation_cooldown_blocks"`
	Slashers                     []string `toml:"slashers"`
}

// Default returns the configuration a fresh node starts with.
func Default() *Config {
	return &Config{
		ListenAddress:  "0.0.0.0:8546",
		MetricsAddress: "127.0.0.1:9464",
		DataDir:        "./data",
		NetworkName:    "idxnet-local",
		Environment:    "dev",
		Epochs:         Epochs{LengthBlocks: 7200},
		Curation: Curation{
			MinimumDeposit:         "1000000000000000000",
			SeedSignal:             "1000000000000000000",
			DefaultReserveRatioPpm: 500_000,
			WithdrawalFeePpm:       10_000,
		},
		Staking: Staking{
			ThawingPeriodEpochs:          28,
			MaxAllocationEpochs:          28,
			RebateDisputeEpochs:          7,
			CurationFeePpm:               100_000,
			DelegationCapacityMultiplier: 16,
			MinDelegationCooldownBlocks:  7200,
		},
	}
}

// Load loads the configuration from the given path. A missing file is
// created with defaults so a fresh node can start without hand-writing TOML.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func createDefault(path string) (*Config, error) {
	cfg := Default()
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MinimumDepositAmount returns the curation floor as a big integer, or nil
// when the configured string does not parse. Validate rejects such values
// before the engines see them.
func (c Curation) MinimumDepositAmount() *big.Int {
	return parseAmount(c.MinimumDeposit)
}

// SeedSignalAmount returns the initialization signal as a big integer, or nil
// when the configured string does not parse.
func (c Curation) SeedSignalAmount() *big.Int {
	return parseAmount(c.SeedSignal)
}

func parseAmount(raw string) *big.Int {
	v, ok := new(big.Int).SetString(strings.TrimSpace(raw), 10)
	if !ok {
		return nil
	}
	return v
}
