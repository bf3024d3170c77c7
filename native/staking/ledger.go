package staking

import (
	"math/big"

	"idxnet/core/events"
	"idxnet/observability/metrics"
)

// Stake deposits tokens as provider collateral.
func (e *Engine) Stake(provider [20]byte, tokens *big.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.guard(); err != nil {
		return err
	}
	if provider == ([20]byte{}) {
		return ErrInvalidProvider
	}
	if tokens == nil || tokens.Sign() <= 0 {
		return ErrInvalidAmount
	}
	tokens = new(big.Int).Set(tokens)
	stake, ok, err := e.state.StakeGet(provider)
	if err != nil {
		return err
	}
	if !ok {
		stake = newProviderStake()
	}
	stake.TokensStaked = new(big.Int).Add(stake.TokensStaked, tokens)
	if err := e.state.StakePut(provider, stake); err != nil {
		return err
	}
	if err := e.treasury.TransferFrom(provider, e.vault, tokens); err != nil {
		return err
	}
	e.emitter.Emit(events.StakeDeposited{Provider: provider, Tokens: tokens, Staked: new(big.Int).Set(stake.TokensStaked)})
	metrics.Staking().ObserveStaked(tokens)
	return nil
}

// Unstake moves available tokens into the thawing tranche. Repeated requests
// fold into a single tranche and reset the thaw window to
// now + ThawingPeriodEpochs.
func (e *Engine) Unstake(provider [20]byte, tokens *big.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.guard(); err != nil {
		return err
	}
	if tokens == nil || tokens.Sign() <= 0 {
		return ErrInvalidAmount
	}
	stake, err := e.loadStake(provider)
	if err != nil {
		return err
	}
	if tokens.Cmp(stake.TokensAvailable()) > 0 {
		return ErrInsufficientStake
	}
	stake.TokensLocked = new(big.Int).Add(stake.TokensLocked, tokens)
	stake.TokensLockedUntil = e.clock.CurrentEpoch() + e.params.ThawingPeriodEpochs
	if err := e.state.StakePut(provider, stake); err != nil {
		return err
	}
	e.emitter.Emit(events.StakeLocked{
		Provider:    provider,
		Tokens:      new(big.Int).Set(tokens),
		Locked:      new(big.Int).Set(stake.TokensLocked),
		LockedUntil: stake.TokensLockedUntil,
	})
	return nil
}

// Withdraw pays out the thawed tranche. Blocked while the thaw window runs
// and when the post-withdrawal stake plus counted delegation would no longer
// back the open allocations, as after a slash.
func (e *Engine) Withdraw(provider [20]byte) (*big.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := e.guard(); err != nil {
		return nil, err
	}
	stake, err := e.loadStake(provider)
	if err != nil {
		return nil, err
	}
	if stake.TokensLocked.Sign() == 0 {
		return nil, ErrNothingToWithdraw
	}
	if e.clock.CurrentEpoch() < stake.TokensLockedUntil {
		return nil, ErrStillThawing
	}
	remaining := new(big.Int).Sub(stake.TokensStaked, stake.TokensLocked)
	counted, err := e.countedDelegation(provider, remaining)
	if err != nil {
		return nil, err
	}
	if stake.TokensAllocated.Cmp(remaining.Add(remaining, counted)) > 0 {
		return nil, ErrOverAllocated
	}
	tokens := new(big.Int).Set(stake.TokensLocked)
	stake.TokensLocked = big.NewInt(0)
	stake.TokensLockedUntil = 0
	stake.TokensStaked = new(big.Int).Sub(stake.TokensStaked, tokens)
	if err := e.state.StakePut(provider, stake); err != nil {
		return nil, err
	}
	if err := e.treasury.Transfer(provider, tokens); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.StakeWithdrawn{Provider: provider, Tokens: tokens})
	metrics.Staking().ObserveWithdrawn(tokens)
	return new(big.Int).Set(tokens), nil
}

// Slash removes tokens from a provider's stake, burning tokens−reward and
// paying reward to the beneficiary. When the slash exceeds the provider's
// available tokens the shortfall is forcibly un-thawed from the locked
// tranche first, so pre-emptive unstaking cannot shelter stake from a slash.
// Only addresses holding the slasher role may call it.
func (e *Engine) Slash(caller, provider [20]byte, tokens, reward *big.Int, beneficiary [20]byte) error {
	if err := e.ready(); err != nil {
		return err
	}
	if e.access == nil || !e.access.IsAuthorized(caller, RoleSlasher) {
		return ErrUnauthorizedSlasher
	}
	if tokens == nil || tokens.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if reward == nil || reward.Sign() < 0 {
		return ErrInvalidAmount
	}
	if reward.Cmp(tokens) > 0 {
		return ErrRewardExceedsSlash
	}
	if reward.Sign() > 0 && beneficiary == ([20]byte{}) {
		return ErrInvalidBeneficiary
	}
	stake, err := e.loadStake(provider)
	if err != nil {
		return err
	}
	if tokens.Cmp(stake.TokensStaked) > 0 {
		return ErrSlashExceedsStake
	}
	if shortfall := new(big.Int).Sub(tokens, stake.TokensAvailable()); shortfall.Sign() > 0 {
		unthaw := shortfall
		if unthaw.Cmp(stake.TokensLocked) > 0 {
			unthaw = new(big.Int).Set(stake.TokensLocked)
		}
		stake.TokensLocked = new(big.Int).Sub(stake.TokensLocked, unthaw)
		if stake.TokensLocked.Sign() == 0 {
			stake.TokensLockedUntil = 0
		}
	}
	stake.TokensStaked = new(big.Int).Sub(stake.TokensStaked, tokens)
	if err := e.state.StakePut(provider, stake); err != nil {
		return err
	}
	burn := new(big.Int).Sub(tokens, reward)
	if burn.Sign() > 0 {
		if err := e.treasury.Burn(burn); err != nil {
			return err
		}
	}
	if reward.Sign() > 0 {
		if err := e.treasury.Transfer(beneficiary, reward); err != nil {
			return err
		}
	}
	e.emitter.Emit(events.StakeSlashed{
		Provider:    provider,
		Tokens:      new(big.Int).Set(tokens),
		Reward:      new(big.Int).Set(reward),
		Beneficiary: beneficiary,
		Remaining:   new(big.Int).Set(stake.TokensStaked),
	})
	metrics.Staking().ObserveSlashed(tokens)
	return nil
}

// StakeOf returns a copy of the provider's stake position.
func (e *Engine) StakeOf(provider [20]byte) (*ProviderStake, bool, error) {
	if e == nil || e.state == nil {
		return nil, false, errNilState
	}
	stake, ok, err := e.state.StakeGet(provider)
	if err != nil || !ok {
		return nil, ok, err
	}
	return stake.Clone(), true, nil
}

// AvailableStake returns the provider's uncommitted, unthawed stake.
func (e *Engine) AvailableStake(provider [20]byte) (*big.Int, error) {
	stake, ok, err := e.StakeOf(provider)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return stake.TokensAvailable(), nil
}
