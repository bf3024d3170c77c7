package staking

import (
	"fmt"

	"idxnet/native/curve"
)

// Params groups the governance-controlled staking settings.
type Params struct {
	// ThawingPeriodEpochs is the delay between requesting unstake and being
	// able to withdraw. Repeated unstake requests reset the timer.
	ThawingPeriodEpochs uint64
	// MaxAllocationEpochs caps the duration weighting of an allocation and,
	// once exceeded, lets any party force-close it.
	MaxAllocationEpochs uint64
	// RebateDisputeEpochs freezes rebate pools for a dispute window before
	// settlements become redeemable.
	RebateDisputeEpochs uint64
	// CurationFeePpm is the share of collected query fees routed to the
	// dataset's curation pool when the dataset is curated.
	CurationFeePpm uint32
	// DelegationCapacityMultiplier caps the delegated tokens counted toward
	// a provider's allocation capacity at staked × multiplier.
	DelegationCapacityMultiplier uint32
	// MinDelegationCooldownBlocks is the protocol floor for per-pool
	// parameter-change cooldowns.
	MinDelegationCooldownBlocks uint64
}

// Validate range-checks the parameter set.
func (p Params) Validate() error {
	if p.ThawingPeriodEpochs == 0 {
		return fmt.Errorf("staking: thawing period must be positive")
	}
	if p.MaxAllocationEpochs == 0 {
		return fmt.Errorf("staking: max allocation epochs must be positive")
	}
	if p.CurationFeePpm > curve.MaxRatioPpm {
		return fmt.Errorf("staking: curation fee out of range: %d", p.CurationFeePpm)
	}
	return nil
}
