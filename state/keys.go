package state

import (
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"idxnet/core/types"
)

// Key prefixes. Every record key is the keccak hash of its prefix plus the
// identifying bytes, giving fixed-width keys with no prefix collisions.
var (
	curationPoolPrefix   = []byte("curation/pool/")
	providerStakePrefix  = []byte("staking/stake/")
	allocationPrefix     = []byte("staking/allocation/")
	openAllocationPrefix = []byte("staking/open/")
	rebatePoolPrefix     = []byte("staking/rebates/")
	delegationPrefix     = []byte("staking/delegation/")
	accountPrefix        = []byte("treasury/account/")
)

func curationPoolKey(dataset types.DatasetID) []byte {
	return ethcrypto.Keccak256(curationPoolPrefix, dataset[:])
}

func providerStakeKey(provider [20]byte) []byte {
	return ethcrypto.Keccak256(providerStakePrefix, provider[:])
}

func allocationKey(id types.AllocationID) []byte {
	return ethcrypto.Keccak256(allocationPrefix, id[:])
}

func openAllocationKey(provider [20]byte, dataset types.DatasetID) []byte {
	return ethcrypto.Keccak256(openAllocationPrefix, provider[:], dataset[:])
}

func rebatePoolKey(epoch uint64) []byte {
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[7-i] = byte(epoch >> (8 * i))
	}
	return ethcrypto.Keccak256(rebatePoolPrefix, buf[:])
}

func delegationKey(provider [20]byte) []byte {
	return ethcrypto.Keccak256(delegationPrefix, provider[:])
}

func accountKey(addr [20]byte) []byte {
	return ethcrypto.Keccak256(accountPrefix, addr[:])
}
