package staking

import (
	"math/big"

	"idxnet/core/events"
	"idxnet/core/types"
	"idxnet/native/curve"
	"idxnet/observability/metrics"
)

// Redeem pays out a provider's settlement from an epoch's rebate pool once
// the dispute window has elapsed. The delegation share of the payout is
// diluted into the provider's delegation pool; the rest either returns to the
// provider's wallet or, with restake set, folds back into its stake without
// leaving the vault. The settlement is deleted on redemption and the pool is
// garbage-collected with its last settlement.
func (e *Engine) Redeem(provider [20]byte, dataset types.DatasetID, epoch uint64, restake bool) (*big.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := e.guard(); err != nil {
		return nil, err
	}
	if provider == ([20]byte{}) {
		return nil, ErrInvalidProvider
	}
	if elapsed, _ := e.clock.EpochsSince(epoch); elapsed < e.params.RebateDisputeEpochs {
		return nil, ErrRebateWindowActive
	}
	rpool, ok, err := e.state.RebatePoolGet(epoch)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrRebatePoolNotFound
	}
	key := SettlementKey{Provider: provider, Dataset: dataset}
	settlement, ok := rpool.Settlements[key]
	if !ok {
		return nil, ErrSettlementNotFound
	}
	amount := rpool.redeemAmount(settlement)

	delete(rpool.Settlements, key)
	rpool.SettlementsRemaining--
	if rpool.SettlementsRemaining == 0 {
		if err := e.state.RebatePoolDelete(epoch); err != nil {
			return nil, err
		}
		metrics.Staking().RebatePoolDeleted()
	} else {
		if err := e.state.RebatePoolPut(epoch, rpool); err != nil {
			return nil, err
		}
	}

	delegationCut := big.NewInt(0)
	if amount.Sign() > 0 {
		dpool, ok, err := e.state.DelegationGet(provider)
		if err != nil {
			return nil, err
		}
		if ok && !dpool.Shares.Empty() && dpool.QueryFeeCutPpm < curve.MaxRatioPpm {
			delegationCut = new(big.Int).Mul(amount, big.NewInt(int64(curve.MaxRatioPpm-dpool.QueryFeeCutPpm)))
			delegationCut.Quo(delegationCut, big.NewInt(int64(curve.MaxRatioPpm)))
			if delegationCut.Sign() > 0 {
				if err := dpool.Shares.AddTokens(delegationCut); err != nil {
					return nil, err
				}
				if err := e.state.DelegationPut(provider, dpool); err != nil {
					return nil, err
				}
			}
		}
	}
	providerAmount := new(big.Int).Sub(amount, delegationCut)

	if providerAmount.Sign() > 0 {
		if restake {
			stake, err := e.loadStake(provider)
			if err != nil {
				return nil, err
			}
			stake.TokensStaked = new(big.Int).Add(stake.TokensStaked, providerAmount)
			if err := e.state.StakePut(provider, stake); err != nil {
				return nil, err
			}
			metrics.Staking().ObserveStaked(providerAmount)
		} else if err := e.treasury.Transfer(provider, providerAmount); err != nil {
			return nil, err
		}
	}
	e.emitter.Emit(events.RebateClaimed{
		Provider:      provider,
		Dataset:       dataset,
		Epoch:         epoch,
		Tokens:        new(big.Int).Set(amount),
		DelegationCut: delegationCut,
		Restaked:      restake,
	})
	metrics.Staking().ObserveRebateClaimed(amount)
	return amount, nil
}

// RebatePoolOf returns a copy of the rebate pool for an epoch.
func (e *Engine) RebatePoolOf(epoch uint64) (*RebatePool, bool, error) {
	if e == nil || e.state == nil {
		return nil, false, errNilState
	}
	rpool, ok, err := e.state.RebatePoolGet(epoch)
	if err != nil || !ok {
		return nil, ok, err
	}
	return rpool.Clone(), true, nil
}
