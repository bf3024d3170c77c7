// Package staking implements the provider collateral ledger: stake deposits
// with thaw-gated withdrawal and slashing, time-bounded allocations of stake
// to datasets, per-epoch rebate pools distributing collected query fees, and
// share-based delegation into provider capacity.
package staking

import (
	"errors"
	"math/big"

	"idxnet/core/events"
	"idxnet/core/types"
	nativecommon "idxnet/native/common"
)

const moduleName = "staking"

// RoleSlasher is the access-control role required to slash providers.
const RoleSlasher = "slasher"

var (
	errNilState    = errors.New("staking engine: state not configured")
	errNilTreasury = errors.New("staking engine: treasury not configured")
	errNilClock    = errors.New("staking engine: clock not configured")

	ErrInvalidProvider   = errors.New("staking: provider address required")
	ErrInvalidAmount     = errors.New("staking: amount must be positive")
	ErrInvalidDataset    = errors.New("staking: dataset id required")
	ErrInvalidAllocation = errors.New("staking: allocation id required")
	ErrUnknownProvider   = errors.New("staking: provider has no stake")

	ErrInsufficientStake    = errors.New("staking: insufficient available stake")
	ErrNothingToWithdraw    = errors.New("staking: no tokens locked for withdrawal")
	ErrStillThawing         = errors.New("staking: thawing period not elapsed")
	ErrOverAllocated        = errors.New("staking: stake below commitments, resolve over-allocation first")
	ErrSlashExceedsStake    = errors.New("staking: slash amount exceeds staked tokens")
	ErrRewardExceedsSlash   = errors.New("staking: reward exceeds slash amount")
	ErrInvalidBeneficiary   = errors.New("staking: beneficiary address required")
	ErrUnauthorizedSlasher  = errors.New("staking: caller not authorized to slash")
	ErrUnauthorizedCloser   = errors.New("staking: only the allocation owner may close before the forced-close window")
	ErrAllocationExists     = errors.New("staking: allocation id already used")
	ErrAllocationOpenForSet = errors.New("staking: provider already has an open allocation for dataset")
	ErrAllocationNotFound   = errors.New("staking: allocation not found")
	ErrAllocationNotOpen    = errors.New("staking: allocation already closed")
	ErrEpochNotElapsed      = errors.New("staking: allocation must stay open for at least one full epoch")

	ErrRebatePoolNotFound = errors.New("staking: rebate pool not found")
	ErrSettlementNotFound = errors.New("staking: settlement not found")
	ErrRebateWindowActive = errors.New("staking: dispute window still open")
	ErrDelegationNotFound = errors.New("staking: delegation pool not found")
	ErrCooldownActive     = errors.New("staking: delegation parameter cooldown active")
	ErrCooldownBelowFloor = errors.New("staking: cooldown below protocol minimum")
	ErrInvalidPercentage  = errors.New("staking: percentage out of range")
)

// engineState abstracts the persistence the staking ledger requires. Open
// allocations are additionally indexed by (provider, dataset) to enforce
// exclusivity.
type engineState interface {
	StakeGet(provider [20]byte) (*ProviderStake, bool, error)
	StakePut(provider [20]byte, s *ProviderStake) error

	AllocationGet(id types.AllocationID) (*Allocation, bool, error)
	AllocationPut(a *Allocation) error
	OpenAllocationGet(provider [20]byte, dataset types.DatasetID) (types.AllocationID, bool, error)
	OpenAllocationPut(provider [20]byte, dataset types.DatasetID, id types.AllocationID) error
	OpenAllocationDelete(provider [20]byte, dataset types.DatasetID) error

	RebatePoolGet(epoch uint64) (*RebatePool, bool, error)
	RebatePoolPut(epoch uint64, p *RebatePool) error
	RebatePoolDelete(epoch uint64) error

	DelegationGet(provider [20]byte) (*DelegationPool, bool, error)
	DelegationPut(provider [20]byte, p *DelegationPool) error
}

// Treasury is the external fungible-token collaborator. Transfer pays out of
// the staking vault, TransferFrom pulls deposits in, Burn destroys vault
// tokens. The engine persists ledger state before invoking any of these.
type Treasury interface {
	Transfer(to [20]byte, amount *big.Int) error
	TransferFrom(from, to [20]byte, amount *big.Int) error
	Burn(amount *big.Int) error
}

// Clock is the external chain-head view. CurrentEpoch never decreases;
// BlockHeight is the head the epochs derive from and gates delegation
// parameter cooldowns.
type Clock interface {
	CurrentEpoch() uint64
	EpochsSince(epoch uint64) (elapsed uint64, current uint64)
	BlockHeight() uint64
}

// AccessControl answers role checks for privileged entry points.
type AccessControl interface {
	IsAuthorized(caller [20]byte, role string) bool
}

// curationMarket is the slice of the curation engine the staking ledger
// needs to route fee income.
type curationMarket interface {
	IsCurated(dataset types.DatasetID) (bool, error)
	CollectFees(caller [20]byte, dataset types.DatasetID, tokens *big.Int) error
}

// Engine wires the staking ledger to its collaborators. All entry points run
// to completion under the host's transactional serialization; validation
// precedes every state mutation and treasury calls come last.
type Engine struct {
	state         engineState
	treasury      Treasury
	clock         Clock
	access        AccessControl
	curation      curationMarket
	params        Params
	vault         [20]byte
	curationVault [20]byte
	emitter       events.Emitter
	pauses        nativecommon.PauseView
}

// NewEngine constructs a staking engine with the supplied parameters and a
// no-op emitter.
func NewEngine(params Params) *Engine {
	return &Engine{params: params, emitter: events.NoopEmitter{}}
}

// SetState configures the persistence backend.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetTreasury configures the token collaborator.
func (e *Engine) SetTreasury(t Treasury) { e.treasury = t }

// SetClock configures the chain-head clock.
func (e *Engine) SetClock(c Clock) { e.clock = c }

// SetAccessControl configures the role authority consulted by slashing.
func (e *Engine) SetAccessControl(a AccessControl) { e.access = a }

// SetCurationMarket wires the curation engine and the vault that holds its
// reserves, used when routing the curation share of collected fees.
func (e *Engine) SetCurationMarket(m curationMarket, vault [20]byte) {
	e.curation = m
	e.curationVault = vault
}

// SetVault configures the address holding staked tokens and pending rebates.
func (e *Engine) SetVault(addr [20]byte) { e.vault = addr }

// Vault returns the staking module's vault address. The curation market uses
// it to authenticate fee collection.
func (e *Engine) Vault() [20]byte { return e.vault }

// SetPauses wires the governance pause switch.
func (e *Engine) SetPauses(p nativecommon.PauseView) { e.pauses = p }

// SetEmitter configures the event emitter. Nil resets to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// Params returns the engine's parameter set.
func (e *Engine) Params() Params { return e.params }

func (e *Engine) ready() error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if e.treasury == nil {
		return errNilTreasury
	}
	if e.clock == nil {
		return errNilClock
	}
	return nil
}

func (e *Engine) guard() error {
	return nativecommon.Guard(e.pauses, moduleName)
}

func (e *Engine) loadStake(provider [20]byte) (*ProviderStake, error) {
	stake, ok, err := e.state.StakeGet(provider)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrUnknownProvider
	}
	return stake, nil
}
