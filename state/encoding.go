package state

import (
	"bytes"
	"math/big"
	"sort"

	"idxnet/core/types"
	"idxnet/native/curation"
	"idxnet/native/pool"
	"idxnet/native/staking"
)

// RLP cannot encode maps, so share pools and rebate settlements persist as
// entry lists sorted by key. Sorting keeps the encoding deterministic across
// map iteration orders.

type storedShare struct {
	Owner  [20]byte
	Shares *big.Int
}

type storedSharePool struct {
	TotalTokens *big.Int
	TotalShares *big.Int
	Owners      []storedShare
}

func newStoredSharePool(p *pool.SharePool) storedSharePool {
	stored := storedSharePool{
		TotalTokens: new(big.Int).Set(p.TotalTokens),
		TotalShares: new(big.Int).Set(p.TotalShares),
		Owners:      make([]storedShare, 0, len(p.OwnerShares)),
	}
	for owner, shares := range p.OwnerShares {
		stored.Owners = append(stored.Owners, storedShare{Owner: owner, Shares: new(big.Int).Set(shares)})
	}
	sort.Slice(stored.Owners, func(i, j int) bool {
		return bytes.Compare(stored.Owners[i].Owner[:], stored.Owners[j].Owner[:]) < 0
	})
	return stored
}

func (s storedSharePool) sharePool() *pool.SharePool {
	p := pool.New()
	p.TotalTokens.Set(s.TotalTokens)
	p.TotalShares.Set(s.TotalShares)
	for _, entry := range s.Owners {
		p.OwnerShares[entry.Owner] = new(big.Int).Set(entry.Shares)
	}
	return p
}

type storedCurationPool struct {
	ReserveRatioPpm uint32
	Shares          storedSharePool
}

func newStoredCurationPool(p *curation.Pool) storedCurationPool {
	return storedCurationPool{ReserveRatioPpm: p.ReserveRatioPpm, Shares: newStoredSharePool(p.Shares)}
}

func (s storedCurationPool) pool() *curation.Pool {
	return &curation.Pool{ReserveRatioPpm: s.ReserveRatioPpm, Shares: s.Shares.sharePool()}
}

type storedProviderStake struct {
	TokensStaked      *big.Int
	TokensAllocated   *big.Int
	TokensLocked      *big.Int
	TokensLockedUntil uint64
}

func newStoredProviderStake(s *staking.ProviderStake) storedProviderStake {
	return storedProviderStake{
		TokensStaked:      new(big.Int).Set(s.TokensStaked),
		TokensAllocated:   new(big.Int).Set(s.TokensAllocated),
		TokensLocked:      new(big.Int).Set(s.TokensLocked),
		TokensLockedUntil: s.TokensLockedUntil,
	}
}

func (s storedProviderStake) stake() *staking.ProviderStake {
	return &staking.ProviderStake{
		TokensStaked:      new(big.Int).Set(s.TokensStaked),
		TokensAllocated:   new(big.Int).Set(s.TokensAllocated),
		TokensLocked:      new(big.Int).Set(s.TokensLocked),
		TokensLockedUntil: s.TokensLockedUntil,
	}
}

type storedAllocation struct {
	ID             types.AllocationID
	Provider       [20]byte
	Dataset        types.DatasetID
	Tokens         *big.Int
	CreatedAtEpoch uint64
	ClosedAtEpoch  uint64
	CollectedFees  *big.Int
	State          uint8
}

func newStoredAllocation(a *staking.Allocation) storedAllocation {
	return storedAllocation{
		ID:             a.ID,
		Provider:       a.Provider,
		Dataset:        a.Dataset,
		Tokens:         new(big.Int).Set(a.Tokens),
		CreatedAtEpoch: a.CreatedAtEpoch,
		ClosedAtEpoch:  a.ClosedAtEpoch,
		CollectedFees:  new(big.Int).Set(a.CollectedFees),
		State:          uint8(a.State),
	}
}

func (s storedAllocation) allocation() *staking.Allocation {
	return &staking.Allocation{
		ID:             s.ID,
		Provider:       s.Provider,
		Dataset:        s.Dataset,
		Tokens:         new(big.Int).Set(s.Tokens),
		CreatedAtEpoch: s.CreatedAtEpoch,
		ClosedAtEpoch:  s.ClosedAtEpoch,
		CollectedFees:  new(big.Int).Set(s.CollectedFees),
		State:          staking.AllocationState(s.State),
	}
}

type storedSettlement struct {
	Provider            [20]byte
	Dataset             types.DatasetID
	EffectiveAllocation *big.Int
	Fees                *big.Int
}

type storedRebatePool struct {
	TotalFees                *big.Int
	TotalEffectiveAllocation *big.Int
	SettlementsRemaining     uint32
	Settlements              []storedSettlement
}

func newStoredRebatePool(p *staking.RebatePool) storedRebatePool {
	stored := storedRebatePool{
		TotalFees:                new(big.Int).Set(p.TotalFees),
		TotalEffectiveAllocation: new(big.Int).Set(p.TotalEffectiveAllocation),
		SettlementsRemaining:     p.SettlementsRemaining,
		Settlements:              make([]storedSettlement, 0, len(p.Settlements)),
	}
	for key, settlement := range p.Settlements {
		stored.Settlements = append(stored.Settlements, storedSettlement{
			Provider:            key.Provider,
			Dataset:             key.Dataset,
			EffectiveAllocation: new(big.Int).Set(settlement.EffectiveAllocation),
			Fees:                new(big.Int).Set(settlement.Fees),
		})
	}
	sort.Slice(stored.Settlements, func(i, j int) bool {
		a, b := stored.Settlements[i], stored.Settlements[j]
		if cmp := bytes.Compare(a.Provider[:], b.Provider[:]); cmp != 0 {
			return cmp < 0
		}
		return bytes.Compare(a.Dataset[:], b.Dataset[:]) < 0
	})
	return stored
}

func (s storedRebatePool) rebatePool() *staking.RebatePool {
	p := &staking.RebatePool{
		TotalFees:                new(big.Int).Set(s.TotalFees),
		TotalEffectiveAllocation: new(big.Int).Set(s.TotalEffectiveAllocation),
		SettlementsRemaining:     s.SettlementsRemaining,
		Settlements:              make(map[staking.SettlementKey]*staking.Settlement, len(s.Settlements)),
	}
	for _, entry := range s.Settlements {
		key := staking.SettlementKey{Provider: entry.Provider, Dataset: entry.Dataset}
		p.Settlements[key] = &staking.Settlement{
			EffectiveAllocation: new(big.Int).Set(entry.EffectiveAllocation),
			Fees:                new(big.Int).Set(entry.Fees),
		}
	}
	return p
}

type storedDelegationPool struct {
	Shares               storedSharePool
	QueryFeeCutPpm       uint32
	IndexingRewardCutPpm uint32
	CooldownBlocks       uint64
	UpdatedAtBlock       uint64
}

func newStoredDelegationPool(p *staking.DelegationPool) storedDelegationPool {
	return storedDelegationPool{
		Shares:               newStoredSharePool(p.Shares),
		QueryFeeCutPpm:       p.QueryFeeCutPpm,
		IndexingRewardCutPpm: p.IndexingRewardCutPpm,
		CooldownBlocks:       p.CooldownBlocks,
		UpdatedAtBlock:       p.UpdatedAtBlock,
	}
}

func (s storedDelegationPool) delegationPool() *staking.DelegationPool {
	return &staking.DelegationPool{
		Shares:               s.Shares.sharePool(),
		QueryFeeCutPpm:       s.QueryFeeCutPpm,
		IndexingRewardCutPpm: s.IndexingRewardCutPpm,
		CooldownBlocks:       s.CooldownBlocks,
		UpdatedAtBlock:       s.UpdatedAtBlock,
	}
}
