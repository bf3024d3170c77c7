// Package pool implements the shares⇄tokens proportional-ownership primitive
// shared by the curation market and the delegation pools. A pool tracks the
// tokens it holds, the shares issued against them and every owner's balance;
// the tokens/shares quotient is the exchange rate. Share issuance and token
// payout both round down so the pool can never pay out more than it holds.
package pool

import (
	"errors"
	"math/big"
)

var (
	ErrInvalidAmount      = errors.New("pool: amount must be positive")
	ErrInsufficientShares = errors.New("pool: insufficient shares")
	ErrEmptyPool          = errors.New("pool: no shares outstanding")
)

// InitialSharesPerToken fixes the exchange rate applied to the first deposit
// into an empty pool.
var InitialSharesPerToken = big.NewInt(1)

// SharePool is the proportional-ownership ledger. The zero value is not
// usable; construct with New.
type SharePool struct {
	TotalTokens *big.Int
	TotalShares *big.Int
	OwnerShares map[[20]byte]*big.Int
}

// New returns an empty pool.
func New() *SharePool {
	return &SharePool{
		TotalTokens: big.NewInt(0),
		TotalShares: big.NewInt(0),
		OwnerShares: make(map[[20]byte]*big.Int),
	}
}

// Deposit adds tokens and issues shares at the current exchange rate. The
// first deposit seeds the rate at InitialSharesPerToken. Tokens are added
// before shares are issued, so TotalShares > 0 implies TotalTokens > 0.
func (p *SharePool) Deposit(owner [20]byte, tokens *big.Int) (*big.Int, error) {
	if tokens == nil || tokens.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	var shares *big.Int
	if p.TotalShares.Sign() == 0 {
		shares = new(big.Int).Mul(tokens, InitialSharesPerToken)
	} else {
		shares = new(big.Int).Mul(tokens, p.TotalShares)
		shares.Quo(shares, p.TotalTokens)
	}
	p.credit(owner, tokens, shares)
	return shares, nil
}

// Withdraw burns shares and pays out tokens at the current exchange rate,
// rounding down.
func (p *SharePool) Withdraw(owner [20]byte, shares *big.Int) (*big.Int, error) {
	if shares == nil || shares.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	held := p.OwnerShares[owner]
	if held == nil || held.Cmp(shares) < 0 {
		return nil, ErrInsufficientShares
	}
	tokens := new(big.Int).Mul(shares, p.TotalTokens)
	tokens.Quo(tokens, p.TotalShares)
	p.debit(owner, tokens, shares)
	return tokens, nil
}

// Credit records a deposit whose share count was determined externally (the
// curation market derives signal amounts from its bonding curve rather than
// the pool's exchange rate).
func (p *SharePool) Credit(owner [20]byte, tokens, shares *big.Int) error {
	if tokens == nil || tokens.Sign() < 0 || shares == nil || shares.Sign() < 0 {
		return ErrInvalidAmount
	}
	if tokens.Sign() == 0 && shares.Sign() == 0 {
		return ErrInvalidAmount
	}
	p.credit(owner, tokens, shares)
	return nil
}

// Debit removes an externally priced share burn from the pool.
func (p *SharePool) Debit(owner [20]byte, tokens, shares *big.Int) error {
	if tokens == nil || tokens.Sign() < 0 || shares == nil || shares.Sign() <= 0 {
		return ErrInvalidAmount
	}
	held := p.OwnerShares[owner]
	if held == nil || held.Cmp(shares) < 0 {
		return ErrInsufficientShares
	}
	if p.TotalTokens.Cmp(tokens) < 0 {
		return ErrInvalidAmount
	}
	p.debit(owner, tokens, shares)
	return nil
}

// AddTokens folds tokens into the pool without issuing shares, diluting the
// exchange rate in favour of existing owners. Rejected on an empty pool: the
// tokens would be unowned.
func (p *SharePool) AddTokens(tokens *big.Int) error {
	if tokens == nil || tokens.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if p.TotalShares.Sign() == 0 {
		return ErrEmptyPool
	}
	p.TotalTokens = new(big.Int).Add(p.TotalTokens, tokens)
	return nil
}

// SharesOf returns the owner's share balance (zero when absent).
func (p *SharePool) SharesOf(owner [20]byte) *big.Int {
	if held, ok := p.OwnerShares[owner]; ok {
		return new(big.Int).Set(held)
	}
	return big.NewInt(0)
}

// TokensFor quotes the tokens currently redeemable for the given shares,
// rounding down, without mutating the pool.
func (p *SharePool) TokensFor(shares *big.Int) *big.Int {
	if shares == nil || shares.Sign() <= 0 || p.TotalShares.Sign() == 0 {
		return big.NewInt(0)
	}
	tokens := new(big.Int).Mul(shares, p.TotalTokens)
	return tokens.Quo(tokens, p.TotalShares)
}

// Empty reports whether no shares remain outstanding.
func (p *SharePool) Empty() bool { return p.TotalShares.Sign() == 0 }

// Clone returns a deep copy of the pool.
func (p *SharePool) Clone() *SharePool {
	if p == nil {
		return nil
	}
	clone := New()
	clone.TotalTokens.Set(p.TotalTokens)
	clone.TotalShares.Set(p.TotalShares)
	for owner, held := range p.OwnerShares {
		clone.OwnerShares[owner] = new(big.Int).Set(held)
	}
	return clone
}

func (p *SharePool) credit(owner [20]byte, tokens, shares *big.Int) {
	p.TotalTokens = new(big.Int).Add(p.TotalTokens, tokens)
	p.TotalShares = new(big.Int).Add(p.TotalShares, shares)
	held := p.OwnerShares[owner]
	if held == nil {
		held = big.NewInt(0)
	}
	p.OwnerShares[owner] = new(big.Int).Add(held, shares)
}

func (p *SharePool) debit(owner [20]byte, tokens, shares *big.Int) {
	p.TotalTokens = new(big.Int).Sub(p.TotalTokens, tokens)
	p.TotalShares = new(big.Int).Sub(p.TotalShares, shares)
	remaining := new(big.Int).Sub(p.OwnerShares[owner], shares)
	if remaining.Sign() == 0 {
		delete(p.OwnerShares, owner)
	} else {
		p.OwnerShares[owner] = remaining
	}
}
