package staking

import (
	"math/big"

	"idxnet/core/types"
	"idxnet/native/pool"
)

// ProviderStake tracks a service provider's collateral position.
// TokensAllocated may exceed TokensStaked when allocations are backed by
// counted delegation; the engine judges over-allocation against staked plus
// counted delegation. Slashing can push commitments past that backing, a
// state that is tolerated but blocks further allocation and withdrawal until
// the provider tops up or its allocations close.
type ProviderStake struct {
	TokensStaked    *big.Int
	TokensAllocated *big.Int
	TokensLocked    *big.Int
	// TokensLockedUntil is the epoch at which the locked tranche thaws.
	TokensLockedUntil uint64
}

func newProviderStake() *ProviderStake {
	return &ProviderStake{
		TokensStaked:    big.NewInt(0),
		TokensAllocated: big.NewInt(0),
		TokensLocked:    big.NewInt(0),
	}
}

// TokensAvailable returns staked − allocated − locked, floored at zero.
func (s *ProviderStake) TokensAvailable() *big.Int {
	if s == nil {
		return big.NewInt(0)
	}
	avail := new(big.Int).Sub(s.TokensStaked, s.TokensAllocated)
	avail.Sub(avail, s.TokensLocked)
	if avail.Sign() < 0 {
		avail.SetInt64(0)
	}
	return avail
}

// OverAllocated reports whether commitments exceed the provider's own stake.
// This is the delegation-blind view; the engine additionally counts
// delegation before treating the position as over-allocated.
func (s *ProviderStake) OverAllocated() bool {
	if s == nil {
		return false
	}
	committed := new(big.Int).Add(s.TokensAllocated, s.TokensLocked)
	return s.TokensStaked.Cmp(committed) < 0
}

// Clone returns a deep copy.
func (s *ProviderStake) Clone() *ProviderStake {
	if s == nil {
		return nil
	}
	return &ProviderStake{
		TokensStaked:      new(big.Int).Set(s.TokensStaked),
		TokensAllocated:   new(big.Int).Set(s.TokensAllocated),
		TokensLocked:      new(big.Int).Set(s.TokensLocked),
		TokensLockedUntil: s.TokensLockedUntil,
	}
}

// AllocationState models the None → Open → Closed lifecycle. Closed is
// terminal; identifiers are never reused.
type AllocationState uint8

const (
	AllocationOpen AllocationState = iota + 1
	AllocationClosed
)

// Allocation is a time-bounded commitment of provider stake to a dataset.
type Allocation struct {
	ID             types.AllocationID
	Provider       [20]byte
	Dataset        types.DatasetID
	Tokens         *big.Int
	CreatedAtEpoch uint64
	ClosedAtEpoch  uint64
	CollectedFees  *big.Int
	State          AllocationState
}

// Clone returns a deep copy.
func (a *Allocation) Clone() *Allocation {
	if a == nil {
		return nil
	}
	clone := *a
	if a.Tokens != nil {
		clone.Tokens = new(big.Int).Set(a.Tokens)
	} else {
		clone.Tokens = big.NewInt(0)
	}
	if a.CollectedFees != nil {
		clone.CollectedFees = new(big.Int).Set(a.CollectedFees)
	} else {
		clone.CollectedFees = big.NewInt(0)
	}
	return &clone
}

// SettlementKey identifies a settlement within an epoch's rebate pool.
type SettlementKey struct {
	Provider [20]byte
	Dataset  types.DatasetID
}

// Settlement is a closed allocation's claim on an epoch's fee pool.
type Settlement struct {
	EffectiveAllocation *big.Int
	Fees                *big.Int
}

// Clone returns a deep copy.
func (s *Settlement) Clone() *Settlement {
	if s == nil {
		return nil
	}
	return &Settlement{
		EffectiveAllocation: new(big.Int).Set(s.EffectiveAllocation),
		Fees:                new(big.Int).Set(s.Fees),
	}
}

// RebatePool accumulates the settlements of allocations closed in one epoch.
// It is deleted once every settlement has been redeemed, bounding state
// growth.
type RebatePool struct {
	TotalFees                *big.Int
	TotalEffectiveAllocation *big.Int
	SettlementsRemaining     uint32
	Settlements              map[SettlementKey]*Settlement
}

func newRebatePool() *RebatePool {
	return &RebatePool{
		TotalFees:                big.NewInt(0),
		TotalEffectiveAllocation: big.NewInt(0),
		Settlements:              make(map[SettlementKey]*Settlement),
	}
}

// addSettlement folds a closed allocation into the pool.
func (p *RebatePool) addSettlement(key SettlementKey, effective, fees *big.Int) {
	p.TotalFees = new(big.Int).Add(p.TotalFees, fees)
	p.TotalEffectiveAllocation = new(big.Int).Add(p.TotalEffectiveAllocation, effective)
	p.SettlementsRemaining++
	p.Settlements[key] = &Settlement{
		EffectiveAllocation: new(big.Int).Set(effective),
		Fees:                new(big.Int).Set(fees),
	}
}

// redeemAmount computes the proportional claim for a settlement: a simple
// totalFees × effective ÷ totalEffective split, rounding down. The flooring
// residue stays in the staking vault.
func (p *RebatePool) redeemAmount(s *Settlement) *big.Int {
	if p.TotalEffectiveAllocation.Sign() == 0 {
		return big.NewInt(0)
	}
	amount := new(big.Int).Mul(p.TotalFees, s.EffectiveAllocation)
	return amount.Quo(amount, p.TotalEffectiveAllocation)
}

// Clone returns a deep copy.
func (p *RebatePool) Clone() *RebatePool {
	if p == nil {
		return nil
	}
	clone := newRebatePool()
	clone.TotalFees.Set(p.TotalFees)
	clone.TotalEffectiveAllocation.Set(p.TotalEffectiveAllocation)
	clone.SettlementsRemaining = p.SettlementsRemaining
	for key, s := range p.Settlements {
		clone.Settlements[key] = s.Clone()
	}
	return clone
}

// DelegationPool holds third-party tokens delegated into a provider's
// capacity, plus the provider's published fee cuts. Parameter changes are
// cooldown-gated so a provider cannot front-run its delegators.
type DelegationPool struct {
	Shares               *pool.SharePool
	QueryFeeCutPpm       uint32
	IndexingRewardCutPpm uint32
	CooldownBlocks       uint64
	UpdatedAtBlock       uint64
}

// Clone returns a deep copy.
func (p *DelegationPool) Clone() *DelegationPool {
	if p == nil {
		return nil
	}
	clone := *p
	clone.Shares = p.Shares.Clone()
	return &clone
}

// Tokens returns the pool's token balance.
func (p *DelegationPool) Tokens() *big.Int {
	if p == nil || p.Shares == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(p.Shares.TotalTokens)
}
