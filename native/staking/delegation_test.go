package staking

import (
	"errors"
	"math/big"
	"testing"
)

func TestDelegateRequiresProviderStake(t *testing.T) {
	engine, _, _, _ := newTestEngine(t)
	if _, err := engine.Delegate(testAddr(5), testAddr(1), big.NewInt(100)); !errors.Is(err, ErrUnknownProvider) {
		t.Fatalf("delegate to unknown provider: %v", err)
	}
}

func TestDelegateMintsSharesAndPullsTokens(t *testing.T) {
	engine, state, treasury, _ := newTestEngine(t)
	provider := testAddr(1)
	delegator := testAddr(5)
	mustStake(t, engine, provider, 100)

	shares, err := engine.Delegate(delegator, provider, big.NewInt(400))
	if err != nil {
		t.Fatalf("delegate: %v", err)
	}
	if shares.Cmp(big.NewInt(400)) != 0 {
		t.Fatalf("initial shares = %s, want 400", shares)
	}
	dpool := state.delegations[provider]
	if dpool.QueryFeeCutPpm != 1_000_000 || dpool.IndexingRewardCutPpm != 1_000_000 {
		t.Fatalf("fresh pool cuts = %d/%d, want 100%%", dpool.QueryFeeCutPpm, dpool.IndexingRewardCutPpm)
	}
	call := treasury.last()
	if call.op != "transferFrom" || call.from != delegator || call.to != engine.Vault() {
		t.Fatalf("treasury call %+v", call)
	}

	// After dilution the share price rises, so the same deposit mints fewer
	// shares.
	if err := dpool.Shares.AddTokens(big.NewInt(400)); err != nil {
		t.Fatalf("dilute: %v", err)
	}
	state.delegations[provider] = dpool
	shares, err = engine.Delegate(testAddr(6), provider, big.NewInt(400))
	if err != nil {
		t.Fatalf("second delegate: %v", err)
	}
	if shares.Cmp(big.NewInt(200)) != 0 {
		t.Fatalf("diluted shares = %s, want 200", shares)
	}
}

func TestUndelegatePaysAtCurrentRate(t *testing.T) {
	engine, state, treasury, _ := newTestEngine(t)
	provider := testAddr(1)
	delegator := testAddr(5)
	mustStake(t, engine, provider, 100)

	shares, err := engine.Delegate(delegator, provider, big.NewInt(400))
	if err != nil {
		t.Fatalf("delegate: %v", err)
	}
	// Fee income doubles the pool before the delegator exits.
	dpool := state.delegations[provider]
	if err := dpool.Shares.AddTokens(big.NewInt(400)); err != nil {
		t.Fatalf("dilute: %v", err)
	}
	state.delegations[provider] = dpool

	tokens, err := engine.Undelegate(delegator, provider, shares)
	if err != nil {
		t.Fatalf("undelegate: %v", err)
	}
	if tokens.Cmp(big.NewInt(800)) != 0 {
		t.Fatalf("tokens = %s, want 800", tokens)
	}
	payout := treasury.last()
	if payout.op != "transfer" || payout.to != delegator || payout.amount.Cmp(big.NewInt(800)) != 0 {
		t.Fatalf("payout %+v", payout)
	}
	if _, err := engine.Undelegate(delegator, provider, big.NewInt(1)); err == nil {
		t.Fatal("expected error redeeming spent shares")
	}
	if _, err := engine.Undelegate(testAddr(6), testAddr(9), big.NewInt(1)); !errors.Is(err, ErrDelegationNotFound) {
		t.Fatalf("unknown pool: %v", err)
	}
}

func TestSetDelegationParametersCooldown(t *testing.T) {
	engine, _, _, clock := newTestEngine(t)
	provider := testAddr(1)
	mustStake(t, engine, provider, 100)
	floor := engine.Params().MinDelegationCooldownBlocks

	if err := engine.SetDelegationParameters(provider, 1_000_001, 0, floor); !errors.Is(err, ErrInvalidPercentage) {
		t.Fatalf("cut out of range: %v", err)
	}
	if err := engine.SetDelegationParameters(provider, 0, 0, floor-1); !errors.Is(err, ErrCooldownBelowFloor) {
		t.Fatalf("cooldown below floor: %v", err)
	}
	if err := engine.SetDelegationParameters(testAddr(9), 0, 0, floor); !errors.Is(err, ErrUnknownProvider) {
		t.Fatalf("unknown provider: %v", err)
	}

	clock.height = 1000
	if err := engine.SetDelegationParameters(provider, 700_000, 800_000, 50); err != nil {
		t.Fatalf("first update: %v", err)
	}
	dpool, ok, err := engine.DelegationOf(provider)
	if err != nil || !ok {
		t.Fatalf("delegation of: %v %v", ok, err)
	}
	if dpool.QueryFeeCutPpm != 700_000 || dpool.CooldownBlocks != 50 || dpool.UpdatedAtBlock != 1000 {
		t.Fatalf("pool after update %+v", dpool)
	}

	clock.height = 1049
	if err := engine.SetDelegationParameters(provider, 600_000, 800_000, 50); !errors.Is(err, ErrCooldownActive) {
		t.Fatalf("update inside cooldown: %v", err)
	}
	clock.height = 1050
	if err := engine.SetDelegationParameters(provider, 600_000, 800_000, 50); err != nil {
		t.Fatalf("update after cooldown: %v", err)
	}
}
