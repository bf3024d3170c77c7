package curation

import (
	"fmt"
	"math/big"

	"idxnet/native/curve"
	"idxnet/native/pool"
)

// Pool is a dataset's bonding-curve pool: the share pool holds the reserve
// tokens and the signal issued against them, priced by the connector weight.
// A dataset with no stored Pool is uninitialized; pools are deleted again
// when the last signal burns, so a stored pool always has positive reserve
// and supply.
type Pool struct {
	ReserveRatioPpm uint32
	Shares          *pool.SharePool
}

// Reserve returns the pool's reserve token balance.
func (p *Pool) Reserve() *big.Int {
	if p == nil || p.Shares == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(p.Shares.TotalTokens)
}

// Signal returns the outstanding signal supply.
func (p *Pool) Signal() *big.Int {
	if p == nil || p.Shares == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(p.Shares.TotalShares)
}

// Clone returns a deep copy of the pool.
func (p *Pool) Clone() *Pool {
	if p == nil {
		return nil
	}
	return &Pool{ReserveRatioPpm: p.ReserveRatioPpm, Shares: p.Shares.Clone()}
}

// Params groups the governance-controlled curation settings.
type Params struct {
	// MinimumDeposit is the floor for the deposit that initializes a
	// dataset's pool.
	MinimumDeposit *big.Int
	// SeedSignal is the signal issued against the MinimumDeposit portion of
	// the initializing deposit, fixing the curve's starting price.
	SeedSignal *big.Int
	// DefaultReserveRatioPpm is the connector weight assigned to newly
	// initialized pools.
	DefaultReserveRatioPpm uint32
	// WithdrawalFeePpm is taken off the top of every burn payout and
	// destroyed via the treasury.
	WithdrawalFeePpm uint32
}

// Validate range-checks the parameter set.
func (p Params) Validate() error {
	if p.MinimumDeposit == nil || p.MinimumDeposit.Sign() <= 0 {
		return fmt.Errorf("curation: minimum deposit must be positive")
	}
	if p.SeedSignal == nil || p.SeedSignal.Sign() <= 0 {
		return fmt.Errorf("curation: seed signal must be positive")
	}
	if p.DefaultReserveRatioPpm == 0 || p.DefaultReserveRatioPpm > curve.MaxRatioPpm {
		return fmt.Errorf("curation: default reserve ratio out of range: %d", p.DefaultReserveRatioPpm)
	}
	if p.WithdrawalFeePpm >= curve.MaxRatioPpm {
		return fmt.Errorf("curation: withdrawal fee out of range: %d", p.WithdrawalFeePpm)
	}
	return nil
}
