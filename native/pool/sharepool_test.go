package pool

import (
	"math/big"
	"testing"
)

func addr(fill byte) [20]byte {
	var a [20]byte
	for i := range a {
		a[i] = fill
	}
	return a
}

func TestDepositSeedsExchangeRate(t *testing.T) {
	p := New()
	shares, err := p.Deposit(addr(1), big.NewInt(500))
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}
	want := new(big.Int).Mul(big.NewInt(500), InitialSharesPerToken)
	if shares.Cmp(want) != 0 {
		t.Fatalf("expected %s seed shares, got %s", want, shares)
	}
	if p.TotalTokens.Cmp(big.NewInt(500)) != 0 || p.TotalShares.Cmp(want) != 0 {
		t.Fatalf("pool totals wrong: %s tokens %s shares", p.TotalTokens, p.TotalShares)
	}
}

func TestDepositTracksExchangeRate(t *testing.T) {
	p := New()
	if _, err := p.Deposit(addr(1), big.NewInt(1_000)); err != nil {
		t.Fatalf("seed deposit: %v", err)
	}
	// Dilute: fee income doubles the tokens without minting shares.
	if err := p.AddTokens(big.NewInt(1_000)); err != nil {
		t.Fatalf("add tokens: %v", err)
	}
	shares, err := p.Deposit(addr(2), big.NewInt(500))
	if err != nil {
		t.Fatalf("second deposit: %v", err)
	}
	if shares.Cmp(big.NewInt(250)) != 0 {
		t.Fatalf("expected 250 shares at doubled rate, got %s", shares)
	}
}

func TestRoundTripNeverExceedsDeposit(t *testing.T) {
	p := New()
	if _, err := p.Deposit(addr(1), big.NewInt(997)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := p.AddTokens(big.NewInt(331)); err != nil {
		t.Fatalf("dilute: %v", err)
	}
	deposit := big.NewInt(777)
	shares, err := p.Deposit(addr(2), deposit)
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}
	back, err := p.Withdraw(addr(2), shares)
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if back.Cmp(deposit) > 0 {
		t.Fatalf("round trip profits: %s in, %s out", deposit, back)
	}
}

func TestWithdrawRejectsExcessShares(t *testing.T) {
	p := New()
	shares, err := p.Deposit(addr(1), big.NewInt(100))
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}
	over := new(big.Int).Add(shares, big.NewInt(1))
	if _, err := p.Withdraw(addr(1), over); err != ErrInsufficientShares {
		t.Fatalf("expected ErrInsufficientShares, got %v", err)
	}
	if _, err := p.Withdraw(addr(2), big.NewInt(1)); err != ErrInsufficientShares {
		t.Fatalf("expected ErrInsufficientShares for stranger, got %v", err)
	}
}

func TestOwnerSharesSumMatchesTotal(t *testing.T) {
	p := New()
	owners := [][20]byte{addr(1), addr(2), addr(3)}
	amounts := []int64{100, 250, 333}
	for i, owner := range owners {
		if _, err := p.Deposit(owner, big.NewInt(amounts[i])); err != nil {
			t.Fatalf("deposit %d: %v", i, err)
		}
	}
	half := p.SharesOf(addr(2))
	half.Quo(half, big.NewInt(2))
	if _, err := p.Withdraw(addr(2), half); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	sum := big.NewInt(0)
	for _, held := range p.OwnerShares {
		sum.Add(sum, held)
	}
	if sum.Cmp(p.TotalShares) != 0 {
		t.Fatalf("owner shares sum %s != total %s", sum, p.TotalShares)
	}
}

func TestAddTokensRequiresOutstandingShares(t *testing.T) {
	p := New()
	if err := p.AddTokens(big.NewInt(10)); err != ErrEmptyPool {
		t.Fatalf("expected ErrEmptyPool, got %v", err)
	}
}

func TestFullWithdrawalRemovesOwner(t *testing.T) {
	p := New()
	shares, err := p.Deposit(addr(1), big.NewInt(42))
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if _, err := p.Withdraw(addr(1), shares); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if _, ok := p.OwnerShares[addr(1)]; ok {
		t.Fatalf("expected owner entry removed")
	}
	if !p.Empty() {
		t.Fatalf("expected empty pool")
	}
}
