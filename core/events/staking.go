package events

import (
	"math/big"

	"idxnet/core/types"
)

const (
	// TypeStakeDeposited captures new provider collateral.
	TypeStakeDeposited = "staking.deposited"
	// TypeStakeLocked captures an unstake request entering its thaw window.
	TypeStakeLocked = "staking.locked"
	// TypeStakeWithdrawn captures thawed tokens leaving the ledger.
	TypeStakeWithdrawn = "staking.withdrawn"
	// TypeStakeSlashed captures a slash applied to a provider.
	TypeStakeSlashed = "staking.slashed"

	// TypeAllocationOpened captures stake being committed to a dataset.
	TypeAllocationOpened = "staking.allocationOpened"
	// TypeAllocationClosed captures an allocation settling into an epoch's
	// rebate pool.
	TypeAllocationClosed = "staking.allocationClosed"
	// TypeAllocationFees captures query fees attributed to an allocation.
	TypeAllocationFees = "staking.allocationFees"

	// TypeRebateClaimed captures a settlement redeemed from a rebate pool.
	TypeRebateClaimed = "staking.rebateClaimed"

	// TypeDelegated captures third-party tokens entering a provider's
	// delegation pool.
	TypeDelegated = "staking.delegated"
	// TypeUndelegated captures delegation shares redeemed for tokens.
	TypeUndelegated = "staking.undelegated"
	// TypeDelegationParamsUpdated captures a provider retuning its
	// delegation fee cuts after the cooldown.
	TypeDelegationParamsUpdated = "staking.delegationParamsUpdated"
)

// StakeDeposited records collateral added to a provider's stake.
type StakeDeposited struct {
	Provider [20]byte
	Tokens   *big.Int
	Staked   *big.Int
}

// EventType satisfies the Event interface.
func (StakeDeposited) EventType() string { return TypeStakeDeposited }

// Event converts the payload into its broadcastable form.
func (e StakeDeposited) Event() *types.Event {
	return &types.Event{Type: TypeStakeDeposited, Attributes: map[string]string{
		"provider": formatAddress(e.Provider),
		"tokens":   formatAmount(e.Tokens),
		"staked":   formatAmount(e.Staked),
	}}
}

// StakeLocked records tokens entering the thaw window ahead of withdrawal.
type StakeLocked struct {
	Provider    [20]byte
	Tokens      *big.Int
	Locked      *big.Int
	LockedUntil uint64
}

// EventType satisfies the Event interface.
func (StakeLocked) EventType() string { return TypeStakeLocked }

// Event converts the payload into its broadcastable form.
func (e StakeLocked) Event() *types.Event {
	return &types.Event{Type: TypeStakeLocked, Attributes: map[string]string{
		"provider":    formatAddress(e.Provider),
		"tokens":      formatAmount(e.Tokens),
		"locked":      formatAmount(e.Locked),
		"lockedUntil": formatEpoch(e.LockedUntil),
	}}
}

// StakeWithdrawn records thawed tokens paid back to the provider.
type StakeWithdrawn struct {
	Provider [20]byte
	Tokens   *big.Int
}

// EventType satisfies the Event interface.
func (StakeWithdrawn) EventType() string { return TypeStakeWithdrawn }

// Event converts the payload into its broadcastable form.
func (e StakeWithdrawn) Event() *types.Event {
	return &types.Event{Type: TypeStakeWithdrawn, Attributes: map[string]string{
		"provider": formatAddress(e.Provider),
		"tokens":   formatAmount(e.Tokens),
	}}
}

// StakeSlashed records a slash: burned tokens, the beneficiary reward and the
// provider's remaining stake.
type StakeSlashed struct {
	Provider    [20]byte
	Tokens      *big.Int
	Reward      *big.Int
	Beneficiary [20]byte
	Remaining   *big.Int
}

// EventType satisfies the Event interface.
func (StakeSlashed) EventType() string { return TypeStakeSlashed }

// Event converts the payload into its broadcastable form.
func (e StakeSlashed) Event() *types.Event {
	return &types.Event{Type: TypeStakeSlashed, Attributes: map[string]string{
		"provider":    formatAddress(e.Provider),
		"tokens":      formatAmount(e.Tokens),
		"reward":      formatAmount(e.Reward),
		"beneficiary": formatAddress(e.Beneficiary),
		"remaining":   formatAmount(e.Remaining),
	}}
}

// AllocationOpened records stake committed to a dataset.
type AllocationOpened struct {
	Allocation types.AllocationID
	Provider   [20]byte
	Dataset    types.DatasetID
	Tokens     *big.Int
	Epoch      uint64
}

// EventType satisfies the Event interface.
func (AllocationOpened) EventType() string { return TypeAllocationOpened }

// Event converts the payload into its broadcastable form.
func (e AllocationOpened) Event() *types.Event {
	return &types.Event{Type: TypeAllocationOpened, Attributes: map[string]string{
		"allocation": e.Allocation.String(),
		"provider":   formatAddress(e.Provider),
		"dataset":    e.Dataset.String(),
		"tokens":     formatAmount(e.Tokens),
		"epoch":      formatEpoch(e.Epoch),
	}}
}

// AllocationClosed records an allocation settling into a rebate pool.
type AllocationClosed struct {
	Allocation types.AllocationID
	Provider   [20]byte
	Dataset    types.DatasetID
	Tokens     *big.Int
	Effective  *big.Int
	Fees       *big.Int
	Epoch      uint64
	Forced     bool
}

// EventType satisfies the Event interface.
func (AllocationClosed) EventType() string { return TypeAllocationClosed }

// Event converts the payload into its broadcastable form.
func (e AllocationClosed) Event() *types.Event {
	attrs := map[string]string{
		"allocation": e.Allocation.String(),
		"provider":   formatAddress(e.Provider),
		"dataset":    e.Dataset.String(),
		"tokens":     formatAmount(e.Tokens),
		"effective":  formatAmount(e.Effective),
		"fees":       formatAmount(e.Fees),
		"epoch":      formatEpoch(e.Epoch),
	}
	if e.Forced {
		attrs["forced"] = "true"
	}
	return &types.Event{Type: TypeAllocationClosed, Attributes: attrs}
}

// AllocationFees records query fees split between curation and rebates.
type AllocationFees struct {
	Allocation  types.AllocationID
	Dataset     types.DatasetID
	Tokens      *big.Int
	CurationCut *big.Int
	RebateCut   *big.Int
}

// EventType satisfies the Event interface.
func (AllocationFees) EventType() string { return TypeAllocationFees }

// Event converts the payload into its broadcastable form.
func (e AllocationFees) Event() *types.Event {
	return &types.Event{Type: TypeAllocationFees, Attributes: map[string]string{
		"allocation":  e.Allocation.String(),
		"dataset":     e.Dataset.String(),
		"tokens":      formatAmount(e.Tokens),
		"curationCut": formatAmount(e.CurationCut),
		"rebateCut":   formatAmount(e.RebateCut),
	}}
}

// RebateClaimed records a settlement redeemed from an epoch's rebate pool.
type RebateClaimed struct {
	Provider      [20]byte
	Dataset       types.DatasetID
	Epoch         uint64
	Tokens        *big.Int
	DelegationCut *big.Int
	Restaked      bool
}

// EventType satisfies the Event interface.
func (RebateClaimed) EventType() string { return TypeRebateClaimed }

// Event converts the payload into its broadcastable form.
func (e RebateClaimed) Event() *types.Event {
	attrs := map[string]string{
		"provider":      formatAddress(e.Provider),
		"dataset":       e.Dataset.String(),
		"epoch":         formatEpoch(e.Epoch),
		"tokens":        formatAmount(e.Tokens),
		"delegationCut": formatAmount(e.DelegationCut),
	}
	if e.Restaked {
		attrs["restaked"] = "true"
	}
	return &types.Event{Type: TypeRebateClaimed, Attributes: attrs}
}

// Delegated records tokens deposited into a provider's delegation pool.
type Delegated struct {
	Delegator [20]byte
	Provider  [20]byte
	Tokens    *big.Int
	Shares    *big.Int
}

// EventType satisfies the Event interface.
func (Delegated) EventType() string { return TypeDelegated }

// Event converts the payload into its broadcastable form.
func (e Delegated) Event() *types.Event {
	return &types.Event{Type: TypeDelegated, Attributes: map[string]string{
		"delegator": formatAddress(e.Delegator),
		"provider":  formatAddress(e.Provider),
		"tokens":    formatAmount(e.Tokens),
		"shares":    formatAmount(e.Shares),
	}}
}

// Undelegated records delegation shares redeemed for tokens.
type Undelegated struct {
	Delegator [20]byte
	Provider  [20]byte
	Shares    *big.Int
	Tokens    *big.Int
}

// EventType satisfies the Event interface.
func (Undelegated) EventType() string { return TypeUndelegated }

// Event converts the payload into its broadcastable form.
func (e Undelegated) Event() *types.Event {
	return &types.Event{Type: TypeUndelegated, Attributes: map[string]string{
		"delegator": formatAddress(e.Delegator),
		"provider":  formatAddress(e.Provider),
		"shares":    formatAmount(e.Shares),
		"tokens":    formatAmount(e.Tokens),
	}}
}

// DelegationParamsUpdated records new delegation fee cuts taking effect.
type DelegationParamsUpdated struct {
	Provider          [20]byte
	QueryFeeCut       uint32
	IndexingRewardCut uint32
	CooldownBlocks    uint64
	UpdatedAtBlock    uint64
}

// EventType satisfies the Event interface.
func (DelegationParamsUpdated) EventType() string { return TypeDelegationParamsUpdated }

// Event converts the payload into its broadcastable form.
func (e DelegationParamsUpdated) Event() *types.Event {
	return &types.Event{Type: TypeDelegationParamsUpdated, Attributes: map[string]string{
		"provider":          formatAddress(e.Provider),
		"queryFeeCut":       formatEpoch(uint64(e.QueryFeeCut)),
		"indexingRewardCut": formatEpoch(uint64(e.IndexingRewardCut)),
		"cooldownBlocks":    formatEpoch(e.CooldownBlocks),
		"updatedAtBlock":    formatEpoch(e.UpdatedAtBlock),
	}}
}
