package staking

import (
	"math/big"

	"idxnet/core/events"
	"idxnet/core/types"
	"idxnet/native/curve"
	"idxnet/observability/metrics"
)

// countedDelegation returns the provider's delegated tokens counted toward
// allocation backing: the pool balance capped at staked × DelegationCapacityMultiplier.
func (e *Engine) countedDelegation(provider [20]byte, staked *big.Int) (*big.Int, error) {
	dpool, ok, err := e.state.DelegationGet(provider)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	delegated := dpool.Tokens()
	limit := new(big.Int).Mul(staked, new(big.Int).SetUint64(uint64(e.params.DelegationCapacityMultiplier)))
	if delegated.Cmp(limit) > 0 {
		delegated = limit
	}
	return delegated, nil
}

// allocationBacking returns staked plus counted delegation, the total a
// provider's commitments may draw on. Allocated tokens may legitimately
// exceed staked when backed by delegation; commitments exceeding the backing
// is the slash-induced over-allocation state.
func (e *Engine) allocationBacking(provider [20]byte, stake *ProviderStake) (*big.Int, error) {
	counted, err := e.countedDelegation(provider, stake.TokensStaked)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Add(stake.TokensStaked, counted), nil
}

// AllocationCapacity returns the tokens the provider may still commit to
// allocations: staked plus counted delegation, minus what is already
// allocated or thawing, floored at zero.
func (e *Engine) AllocationCapacity(provider [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	stake, ok, err := e.state.StakeGet(provider)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	backing, err := e.allocationBacking(provider, stake)
	if err != nil {
		return nil, err
	}
	committed := new(big.Int).Add(stake.TokensAllocated, stake.TokensLocked)
	capacity := backing.Sub(backing, committed)
	if capacity.Sign() < 0 {
		capacity.SetInt64(0)
	}
	return capacity, nil
}

// OpenAllocation commits tokens of the provider's capacity to a dataset for
// a bounded duration. The allocation identifier must never have been used
// and the (provider, dataset) pair must not already have an open allocation.
func (e *Engine) OpenAllocation(provider [20]byte, id types.AllocationID, dataset types.DatasetID, tokens *big.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.guard(); err != nil {
		return err
	}
	if provider == ([20]byte{}) {
		return ErrInvalidProvider
	}
	if id.IsZero() {
		return ErrInvalidAllocation
	}
	if dataset.IsZero() {
		return ErrInvalidDataset
	}
	if tokens == nil || tokens.Sign() <= 0 {
		return ErrInvalidAmount
	}
	stake, err := e.loadStake(provider)
	if err != nil {
		return err
	}
	backing, err := e.allocationBacking(provider, stake)
	if err != nil {
		return err
	}
	committed := new(big.Int).Add(stake.TokensAllocated, stake.TokensLocked)
	if committed.Cmp(backing) > 0 {
		return ErrOverAllocated
	}
	if tokens.Cmp(backing.Sub(backing, committed)) > 0 {
		return ErrInsufficientStake
	}
	if _, used, err := e.state.AllocationGet(id); err != nil {
		return err
	} else if used {
		return ErrAllocationExists
	}
	if _, open, err := e.state.OpenAllocationGet(provider, dataset); err != nil {
		return err
	} else if open {
		return ErrAllocationOpenForSet
	}
	alloc := &Allocation{
		ID:             id,
		Provider:       provider,
		Dataset:        dataset,
		Tokens:         new(big.Int).Set(tokens),
		CreatedAtEpoch: e.clock.CurrentEpoch(),
		CollectedFees:  big.NewInt(0),
		State:          AllocationOpen,
	}
	stake.TokensAllocated = new(big.Int).Add(stake.TokensAllocated, tokens)
	if err := e.state.StakePut(provider, stake); err != nil {
		return err
	}
	if err := e.state.AllocationPut(alloc); err != nil {
		return err
	}
	if err := e.state.OpenAllocationPut(provider, dataset, id); err != nil {
		return err
	}
	e.emitter.Emit(events.AllocationOpened{
		Allocation: id,
		Provider:   provider,
		Dataset:    dataset,
		Tokens:     new(big.Int).Set(tokens),
		Epoch:      alloc.CreatedAtEpoch,
	})
	metrics.Staking().AllocationOpened()
	return nil
}

// CloseAllocation ends an open allocation, settling its collected fees into
// the current epoch's rebate pool with a duration-capped weight. Only the
// owner may close until MaxAllocationEpochs have elapsed; afterwards any
// caller may force the close so stake cannot stay pinned indefinitely.
func (e *Engine) CloseAllocation(caller [20]byte, id types.AllocationID) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.guard(); err != nil {
		return err
	}
	alloc, ok, err := e.state.AllocationGet(id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAllocationNotFound
	}
	if alloc.State != AllocationOpen {
		return ErrAllocationNotOpen
	}
	elapsed, current := e.clock.EpochsSince(alloc.CreatedAtEpoch)
	if elapsed < 1 {
		return ErrEpochNotElapsed
	}
	forced := caller != alloc.Provider
	if forced && elapsed <= e.params.MaxAllocationEpochs {
		return ErrUnauthorizedCloser
	}
	weight := elapsed
	if weight > e.params.MaxAllocationEpochs {
		weight = e.params.MaxAllocationEpochs
	}
	effective := new(big.Int).Mul(alloc.Tokens, new(big.Int).SetUint64(weight))

	rpool, ok, err := e.state.RebatePoolGet(current)
	if err != nil {
		return err
	}
	if !ok {
		rpool = newRebatePool()
		metrics.Staking().RebatePoolCreated()
	}
	rpool.addSettlement(SettlementKey{Provider: alloc.Provider, Dataset: alloc.Dataset}, effective, alloc.CollectedFees)
	if err := e.state.RebatePoolPut(current, rpool); err != nil {
		return err
	}

	stake, err := e.loadStake(alloc.Provider)
	if err != nil {
		return err
	}
	stake.TokensAllocated = new(big.Int).Sub(stake.TokensAllocated, alloc.Tokens)
	if stake.TokensAllocated.Sign() < 0 {
		stake.TokensAllocated = big.NewInt(0)
	}
	if err := e.state.StakePut(alloc.Provider, stake); err != nil {
		return err
	}

	fees := new(big.Int).Set(alloc.CollectedFees)
	alloc.State = AllocationClosed
	alloc.ClosedAtEpoch = current
	if err := e.state.AllocationPut(alloc); err != nil {
		return err
	}
	if err := e.state.OpenAllocationDelete(alloc.Provider, alloc.Dataset); err != nil {
		return err
	}
	e.emitter.Emit(events.AllocationClosed{
		Allocation: alloc.ID,
		Provider:   alloc.Provider,
		Dataset:    alloc.Dataset,
		Tokens:     new(big.Int).Set(alloc.Tokens),
		Effective:  effective,
		Fees:       fees,
		Epoch:      current,
		Forced:     forced,
	})
	metrics.Staking().AllocationClosed()
	return nil
}

// CollectFees pulls query-fee tokens from the payer and attributes them to an
// open allocation: the curation share goes to the dataset's curve when the
// dataset is curated, the remainder accrues to the allocation and settles at
// close time.
func (e *Engine) CollectFees(payer [20]byte, id types.AllocationID, tokens *big.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.guard(); err != nil {
		return err
	}
	if payer == ([20]byte{}) {
		return ErrInvalidProvider
	}
	if tokens == nil || tokens.Sign() <= 0 {
		return ErrInvalidAmount
	}
	alloc, ok, err := e.state.AllocationGet(id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAllocationNotFound
	}
	if alloc.State != AllocationOpen {
		return ErrAllocationNotOpen
	}
	tokens = new(big.Int).Set(tokens)

	curationCut := big.NewInt(0)
	if e.curation != nil && e.params.CurationFeePpm > 0 {
		curated, err := e.curation.IsCurated(alloc.Dataset)
		if err != nil {
			return err
		}
		if curated {
			curationCut = new(big.Int).Mul(tokens, big.NewInt(int64(e.params.CurationFeePpm)))
			curationCut.Quo(curationCut, big.NewInt(int64(curve.MaxRatioPpm)))
		}
	}
	rebateCut := new(big.Int).Sub(tokens, curationCut)

	alloc.CollectedFees = new(big.Int).Add(alloc.CollectedFees, rebateCut)
	if err := e.state.AllocationPut(alloc); err != nil {
		return err
	}
	if err := e.treasury.TransferFrom(payer, e.vault, tokens); err != nil {
		return err
	}
	if curationCut.Sign() > 0 {
		if err := e.treasury.Transfer(e.curationVault, curationCut); err != nil {
			return err
		}
		if err := e.curation.CollectFees(e.vault, alloc.Dataset, curationCut); err != nil {
			return err
		}
	}
	e.emitter.Emit(events.AllocationFees{
		Allocation:  alloc.ID,
		Dataset:     alloc.Dataset,
		Tokens:      tokens,
		CurationCut: curationCut,
		RebateCut:   rebateCut,
	})
	return nil
}

// AllocationOf returns a copy of the allocation record.
func (e *Engine) AllocationOf(id types.AllocationID) (*Allocation, bool, error) {
	if e == nil || e.state == nil {
		return nil, false, errNilState
	}
	alloc, ok, err := e.state.AllocationGet(id)
	if err != nil || !ok {
		return nil, ok, err
	}
	return alloc.Clone(), true, nil
}
