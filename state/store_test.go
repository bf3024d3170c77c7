package state

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"idxnet/core/types"
	"idxnet/native/curation"
	"idxnet/native/pool"
	"idxnet/native/staking"
	"idxnet/storage"
)

func testAddr(b byte) [20]byte {
	var a [20]byte
	a[19] = b
	return a
}

func testDataset(b byte) types.DatasetID {
	var d types.DatasetID
	d[31] = b
	return d
}

func testAllocation(b byte) types.AllocationID {
	var a types.AllocationID
	a[19] = b
	return a
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	return NewStore(db)
}

func TestCurationPoolPersistence(t *testing.T) {
	store := newTestStore(t)
	dataset := testDataset(1)

	_, ok, err := store.CurationGet(dataset)
	require.NoError(t, err)
	require.False(t, ok)

	shares := pool.New()
	_, err = shares.Deposit(testAddr(1), big.NewInt(1000))
	require.NoError(t, err)
	_, err = shares.Deposit(testAddr(2), big.NewInt(500))
	require.NoError(t, err)
	require.NoError(t, store.CurationPut(dataset, &curation.Pool{ReserveRatioPpm: 500_000, Shares: shares}))

	loaded, ok, err := store.CurationGet(dataset)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint32(500_000), loaded.ReserveRatioPpm)
	require.Zero(t, loaded.Reserve().Cmp(big.NewInt(1500)))
	require.Zero(t, loaded.Shares.SharesOf(testAddr(1)).Cmp(big.NewInt(1000)))
	require.Zero(t, loaded.Shares.SharesOf(testAddr(2)).Cmp(big.NewInt(500)))

	require.NoError(t, store.CurationDelete(dataset))
	_, ok, err = store.CurationGet(dataset)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestProviderStakePersistence(t *testing.T) {
	store := newTestStore(t)
	provider := testAddr(1)

	_, ok, err := store.StakeGet(provider)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.StakePut(provider, &staking.ProviderStake{
		TokensStaked:      big.NewInt(1000),
		TokensAllocated:   big.NewInt(400),
		TokensLocked:      big.NewInt(100),
		TokensLockedUntil: 42,
	}))
	loaded, ok, err := store.StakeGet(provider)
	require.NoError(t, err)
	require.True(t, ok)
	require.Zero(t, loaded.TokensStaked.Cmp(big.NewInt(1000)))
	require.Zero(t, loaded.TokensAllocated.Cmp(big.NewInt(400)))
	require.Zero(t, loaded.TokensLocked.Cmp(big.NewInt(100)))
	require.Equal(t, uint64(42), loaded.TokensLockedUntil)
	require.Zero(t, loaded.TokensAvailable().Cmp(big.NewInt(500)))
}

func TestAllocationPersistence(t *testing.T) {
	store := newTestStore(t)
	id := testAllocation(1)
	alloc := &staking.Allocation{
		ID:             id,
		Provider:       testAddr(1),
		Dataset:        testDataset(1),
		Tokens:         big.NewInt(500),
		CreatedAtEpoch: 10,
		ClosedAtEpoch:  12,
		CollectedFees:  big.NewInt(900),
		State:          staking.AllocationClosed,
	}
	require.NoError(t, store.AllocationPut(alloc))
	loaded, ok, err := store.AllocationGet(id)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, alloc.Provider, loaded.Provider)
	require.Equal(t, alloc.Dataset, loaded.Dataset)
	require.Equal(t, staking.AllocationClosed, loaded.State)
	require.Zero(t, loaded.CollectedFees.Cmp(big.NewInt(900)))
	require.Equal(t, uint64(12), loaded.ClosedAtEpoch)
}

func TestOpenAllocationIndex(t *testing.T) {
	store := newTestStore(t)
	provider := testAddr(1)
	dataset := testDataset(1)

	_, ok, err := store.OpenAllocationGet(provider, dataset)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.OpenAllocationPut(provider, dataset, testAllocation(7)))
	id, ok, err := store.OpenAllocationGet(provider, dataset)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, testAllocation(7), id)

	// Other (provider, dataset) pairs are unaffected.
	_, ok, err = store.OpenAllocationGet(provider, testDataset(2))
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.OpenAllocationDelete(provider, dataset))
	_, ok, err = store.OpenAllocationGet(provider, dataset)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRebatePoolPersistence(t *testing.T) {
	store := newTestStore(t)
	rpool := &staking.RebatePool{
		TotalFees:                big.NewInt(1000),
		TotalEffectiveAllocation: big.NewInt(400),
		SettlementsRemaining:     2,
		Settlements: map[staking.SettlementKey]*staking.Settlement{
			{Provider: testAddr(1), Dataset: testDataset(1)}: {EffectiveAllocation: big.NewInt(300), Fees: big.NewInt(600)},
			{Provider: testAddr(2), Dataset: testDataset(2)}: {EffectiveAllocation: big.NewInt(100), Fees: big.NewInt(400)},
		},
	}
	require.NoError(t, store.RebatePoolPut(7, rpool))
	loaded, ok, err := store.RebatePoolGet(7)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint32(2), loaded.SettlementsRemaining)
	require.Zero(t, loaded.TotalFees.Cmp(big.NewInt(1000)))
	require.Len(t, loaded.Settlements, 2)
	s := loaded.Settlements[staking.SettlementKey{Provider: testAddr(1), Dataset: testDataset(1)}]
	require.NotNil(t, s)
	require.Zero(t, s.Fees.Cmp(big.NewInt(600)))

	require.NoError(t, store.RebatePoolDelete(7))
	_, ok, err = store.RebatePoolGet(7)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDelegationPoolPersistence(t *testing.T) {
	store := newTestStore(t)
	provider := testAddr(1)
	shares := pool.New()
	_, err := shares.Deposit(testAddr(5), big.NewInt(200))
	require.NoError(t, err)
	require.NoError(t, store.DelegationPut(provider, &staking.DelegationPool{
		Shares:               shares,
		QueryFeeCutPpm:       700_000,
		IndexingRewardCutPpm: 800_000,
		CooldownBlocks:       50,
		UpdatedAtBlock:       1000,
	}))
	loaded, ok, err := store.DelegationGet(provider)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint32(700_000), loaded.QueryFeeCutPpm)
	require.Equal(t, uint64(1000), loaded.UpdatedAtBlock)
	require.Zero(t, loaded.Shares.SharesOf(testAddr(5)).Cmp(big.NewInt(200)))
}
