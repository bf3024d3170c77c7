package staking

import (
	"math/big"

	"idxnet/core/events"
	"idxnet/native/curve"
	"idxnet/native/pool"
	"idxnet/observability/metrics"
)

// Delegate deposits third-party tokens into a provider's delegation pool in
// exchange for shares. The provider must already have a stake position. A
// fresh pool starts with both fee cuts at 100% so delegators earn nothing
// until the provider publishes its cuts.
func (e *Engine) Delegate(delegator, provider [20]byte, tokens *big.Int) (*big.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := e.guard(); err != nil {
		return nil, err
	}
	if delegator == ([20]byte{}) || provider == ([20]byte{}) {
		return nil, ErrInvalidProvider
	}
	if tokens == nil || tokens.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if _, ok, err := e.state.StakeGet(provider); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrUnknownProvider
	}
	dpool, ok, err := e.state.DelegationGet(provider)
	if err != nil {
		return nil, err
	}
	if !ok {
		dpool = &DelegationPool{
			Shares:               pool.New(),
			QueryFeeCutPpm:       curve.MaxRatioPpm,
			IndexingRewardCutPpm: curve.MaxRatioPpm,
			CooldownBlocks:       e.params.MinDelegationCooldownBlocks,
		}
	}
	tokens = new(big.Int).Set(tokens)
	shares, err := dpool.Shares.Deposit(delegator, tokens)
	if err != nil {
		return nil, err
	}
	if err := e.state.DelegationPut(provider, dpool); err != nil {
		return nil, err
	}
	if err := e.treasury.TransferFrom(delegator, e.vault, tokens); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.Delegated{
		Delegator: delegator,
		Provider:  provider,
		Tokens:    tokens,
		Shares:    new(big.Int).Set(shares),
	})
	metrics.Staking().ObserveDelegated(tokens)
	return shares, nil
}

// Undelegate redeems delegation shares for tokens at the pool's current rate
// and pays them out immediately.
func (e *Engine) Undelegate(delegator, provider [20]byte, shares *big.Int) (*big.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := e.guard(); err != nil {
		return nil, err
	}
	if delegator == ([20]byte{}) || provider == ([20]byte{}) {
		return nil, ErrInvalidProvider
	}
	if shares == nil || shares.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	dpool, ok, err := e.state.DelegationGet(provider)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrDelegationNotFound
	}
	tokens, err := dpool.Shares.Withdraw(delegator, shares)
	if err != nil {
		return nil, err
	}
	if err := e.state.DelegationPut(provider, dpool); err != nil {
		return nil, err
	}
	if err := e.treasury.Transfer(delegator, tokens); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.Undelegated{
		Delegator: delegator,
		Provider:  provider,
		Shares:    new(big.Int).Set(shares),
		Tokens:    new(big.Int).Set(tokens),
	})
	return new(big.Int).Set(tokens), nil
}

// SetDelegationParameters publishes a provider's fee cuts and cooldown. After
// the first call, changes are gated by the previously published cooldown so
// delegators always see parameter moves coming.
func (e *Engine) SetDelegationParameters(provider [20]byte, queryFeeCutPpm, indexingRewardCutPpm uint32, cooldownBlocks uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.guard(); err != nil {
		return err
	}
	if provider == ([20]byte{}) {
		return ErrInvalidProvider
	}
	if queryFeeCutPpm > curve.MaxRatioPpm || indexingRewardCutPpm > curve.MaxRatioPpm {
		return ErrInvalidPercentage
	}
	if cooldownBlocks < e.params.MinDelegationCooldownBlocks {
		return ErrCooldownBelowFloor
	}
	if _, ok, err := e.state.StakeGet(provider); err != nil {
		return err
	} else if !ok {
		return ErrUnknownProvider
	}
	dpool, ok, err := e.state.DelegationGet(provider)
	if err != nil {
		return err
	}
	if !ok {
		dpool = &DelegationPool{
			Shares:               pool.New(),
			QueryFeeCutPpm:       curve.MaxRatioPpm,
			IndexingRewardCutPpm: curve.MaxRatioPpm,
			CooldownBlocks:       e.params.MinDelegationCooldownBlocks,
		}
	}
	height := e.clock.BlockHeight()
	if dpool.UpdatedAtBlock > 0 && height < dpool.UpdatedAtBlock+dpool.CooldownBlocks {
		return ErrCooldownActive
	}
	dpool.QueryFeeCutPpm = queryFeeCutPpm
	dpool.IndexingRewardCutPpm = indexingRewardCutPpm
	dpool.CooldownBlocks = cooldownBlocks
	dpool.UpdatedAtBlock = height
	if err := e.state.DelegationPut(provider, dpool); err != nil {
		return err
	}
	e.emitter.Emit(events.DelegationParamsUpdated{
		Provider:          provider,
		QueryFeeCut:       queryFeeCutPpm,
		IndexingRewardCut: indexingRewardCutPpm,
		CooldownBlocks:    cooldownBlocks,
		UpdatedAtBlock:    height,
	})
	return nil
}

// DelegationOf returns a copy of the provider's delegation pool.
func (e *Engine) DelegationOf(provider [20]byte) (*DelegationPool, bool, error) {
	if e == nil || e.state == nil {
		return nil, false, errNilState
	}
	dpool, ok, err := e.state.DelegationGet(provider)
	if err != nil || !ok {
		return nil, ok, err
	}
	return dpool.Clone(), true, nil
}
