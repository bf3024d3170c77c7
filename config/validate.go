package config

import "fmt"

const maxPpm = 1_000_000

// Validate range-checks a loaded configuration before the engines see it.
func Validate(cfg *Config) error {
	if cfg.Epochs.LengthBlocks == 0 {
		return fmt.Errorf("epochs: length_blocks must be positive")
	}
	if v := cfg.Curation.MinimumDepositAmount(); v == nil || v.Sign() <= 0 {
		return fmt.Errorf("curation: minimum_deposit must be a positive decimal amount: %q", cfg.Curation.MinimumDeposit)
	}
	if v := cfg.Curation.SeedSignalAmount(); v == nil || v.Sign() <= 0 {
		return fmt.Errorf("curation: seed_signal must be a positive decimal amount: %q", cfg.Curation.SeedSignal)
	}
	if cfg.Curation.DefaultReserveRatioPpm == 0 || cfg.Curation.DefaultReserveRatioPpm > maxPpm {
		return fmt.Errorf("curation: default_reserve_ratio_ppm out of range: %d", cfg.Curation.DefaultReserveRatioPpm)
	}
	if cfg.Curation.WithdrawalFeePpm >= maxPpm {
		return fmt.Errorf("curation: withdrawal_fee_ppm out of range: %d", cfg.Curation.WithdrawalFeePpm)
	}
	if cfg.Staking.ThawingPeriodEpochs == 0 {
		return fmt.Errorf("staking: thawing_period_epochs must be positive")
	}
	if cfg.Staking.MaxAllocationEpochs == 0 {
		return fmt.Errorf("staking: max_allocation_epochs must be positive")
	}
	if cfg.Staking.CurationFeePpm > maxPpm {
		return fmt.Errorf("staking: curation_fee_ppm out of range: %d", cfg.Staking.CurationFeePpm)
	}
	return nil
}
