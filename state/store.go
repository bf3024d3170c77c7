// Package state persists the ledger's records as RLP-encoded values in a
// key-value store and implements the treasury the engines move tokens
// through.
package state

import (
	"errors"

	"github.com/ethereum/go-ethereum/rlp"

	"idxnet/core/types"
	"idxnet/native/curation"
	"idxnet/native/staking"
	"idxnet/storage"
)

// Store adapts a storage.Database to the persistence interfaces of the
// curation and staking engines.
type Store struct {
	db storage.Database
}

// NewStore wraps the given database.
func NewStore(db storage.Database) *Store {
	return &Store{db: db}
}

func (s *Store) get(key []byte, out interface{}) (bool, error) {
	raw, err := s.db.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := rlp.DecodeBytes(raw, out); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) put(key []byte, value interface{}) error {
	raw, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	return s.db.Put(key, raw)
}

// CurationGet loads a dataset's bonding-curve pool.
func (s *Store) CurationGet(dataset types.DatasetID) (*curation.Pool, bool, error) {
	var stored storedCurationPool
	ok, err := s.get(curationPoolKey(dataset), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return stored.pool(), true, nil
}

// CurationPut stores a dataset's bonding-curve pool.
func (s *Store) CurationPut(dataset types.DatasetID, p *curation.Pool) error {
	return s.put(curationPoolKey(dataset), newStoredCurationPool(p))
}

// CurationDelete removes a drained pool.
func (s *Store) CurationDelete(dataset types.DatasetID) error {
	return s.db.Delete(curationPoolKey(dataset))
}

// StakeGet loads a provider's stake position.
func (s *Store) StakeGet(provider [20]byte) (*staking.ProviderStake, bool, error) {
	var stored storedProviderStake
	ok, err := s.get(providerStakeKey(provider), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return stored.stake(), true, nil
}

// StakePut stores a provider's stake position.
func (s *Store) StakePut(provider [20]byte, stake *staking.ProviderStake) error {
	return s.put(providerStakeKey(provider), newStoredProviderStake(stake))
}

// AllocationGet loads an allocation by id.
func (s *Store) AllocationGet(id types.AllocationID) (*staking.Allocation, bool, error) {
	var stored storedAllocation
	ok, err := s.get(allocationKey(id), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return stored.allocation(), true, nil
}

// AllocationPut stores an allocation.
func (s *Store) AllocationPut(a *staking.Allocation) error {
	return s.put(allocationKey(a.ID), newStoredAllocation(a))
}

// OpenAllocationGet returns the id of the provider's open allocation for the
// dataset, if any.
func (s *Store) OpenAllocationGet(provider [20]byte, dataset types.DatasetID) (types.AllocationID, bool, error) {
	var id types.AllocationID
	ok, err := s.get(openAllocationKey(provider, dataset), &id)
	if err != nil || !ok {
		return types.AllocationID{}, false, err
	}
	return id, true, nil
}

// OpenAllocationPut records the provider's open allocation for the dataset.
func (s *Store) OpenAllocationPut(provider [20]byte, dataset types.DatasetID, id types.AllocationID) error {
	return s.put(openAllocationKey(provider, dataset), id)
}

// OpenAllocationDelete frees the (provider, dataset) slot.
func (s *Store) OpenAllocationDelete(provider [20]byte, dataset types.DatasetID) error {
	return s.db.Delete(openAllocationKey(provider, dataset))
}

// RebatePoolGet loads an epoch's rebate pool.
func (s *Store) RebatePoolGet(epoch uint64) (*staking.RebatePool, bool, error) {
	var stored storedRebatePool
	ok, err := s.get(rebatePoolKey(epoch), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return stored.rebatePool(), true, nil
}

// RebatePoolPut stores an epoch's rebate pool.
func (s *Store) RebatePoolPut(epoch uint64, p *staking.RebatePool) error {
	return s.put(rebatePoolKey(epoch), newStoredRebatePool(p))
}

// RebatePoolDelete garbage-collects a fully redeemed pool.
func (s *Store) RebatePoolDelete(epoch uint64) error {
	return s.db.Delete(rebatePoolKey(epoch))
}

// DelegationGet loads a provider's delegation pool.
func (s *Store) DelegationGet(provider [20]byte) (*staking.DelegationPool, bool, error) {
	var stored storedDelegationPool
	ok, err := s.get(delegationKey(provider), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return stored.delegationPool(), true, nil
}

// DelegationPut stores a provider's delegation pool.
func (s *Store) DelegationPut(provider [20]byte, p *staking.DelegationPool) error {
	return s.put(delegationKey(provider), newStoredDelegationPool(p))
}
