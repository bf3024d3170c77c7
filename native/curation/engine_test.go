package curation

import (
	"errors"
	"math/big"
	"testing"

	"idxnet/core/types"
)

type mockState struct {
	pools map[types.DatasetID]*Pool
}

func newMockState() *mockState {
	return &mockState{pools: make(map[types.DatasetID]*Pool)}
}

func (m *mockState) CurationGet(dataset types.DatasetID) (*Pool, bool, error) {
	p, ok := m.pools[dataset]
	if !ok {
		return nil, false, nil
	}
	return p.Clone(), true, nil
}

func (m *mockState) CurationPut(dataset types.DatasetID, p *Pool) error {
	m.pools[dataset] = p.Clone()
	return nil
}

func (m *mockState) CurationDelete(dataset types.DatasetID) error {
	delete(m.pools, dataset)
	return nil
}

type treasuryCall struct {
	op     string
	from   [20]byte
	to     [20]byte
	amount *big.Int
}

type mockTreasury struct {
	calls []treasuryCall
}

func (m *mockTreasury) Transfer(to [20]byte, amount *big.Int) error {
	m.calls = append(m.calls, treasuryCall{op: "transfer", to: to, amount: new(big.Int).Set(amount)})
	return nil
}

func (m *mockTreasury) TransferFrom(from, to [20]byte, amount *big.Int) error {
	m.calls = append(m.calls, treasuryCall{op: "transferFrom", from: from, to: to, amount: new(big.Int).Set(amount)})
	return nil
}

func (m *mockTreasury) Burn(amount *big.Int) error {
	m.calls = append(m.calls, treasuryCall{op: "burn", amount: new(big.Int).Set(amount)})
	return nil
}

func (m *mockTreasury) last() treasuryCall {
	if len(m.calls) == 0 {
		return treasuryCall{}
	}
	return m.calls[len(m.calls)-1]
}

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

func testParams() Params {
	return Params{
		MinimumDeposit:         big.NewInt(100),
		SeedSignal:             big.NewInt(100),
		DefaultReserveRatioPpm: 500_000,
		WithdrawalFeePpm:       10_000,
	}
}

var stakingVault = testAddr(0xAA)

func newTestEngine(t *testing.T) (*Engine, *mockState, *mockTreasury) {
	t.Helper()
	state := newMockState()
	treasury := &mockTreasury{}
	engine := NewEngine(testParams())
	engine.SetState(state)
	engine.SetTreasury(treasury)
	engine.SetVault(testAddr(0xBB))
	engine.SetStakingModule(stakingVault)
	return engine, state, treasury
}

func TestMintSignalInitializesPool(t *testing.T) {
	engine, state, treasury := newTestEngine(t)
	curator := testAddr(1)
	dataset := testDataset(1)

	// 1000 tokens: 100 seed the pool at 100 signal, the remaining 900 go
	// through the square-root curve on a pool holding 100/100. The exact
	// return is 100·(√10−1) ≈ 216, and flooring keeps us at or below that.
	signal, err := engine.MintSignal(curator, dataset, big.NewInt(1000))
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if signal.Cmp(big.NewInt(300)) <= 0 || signal.Cmp(big.NewInt(317)) > 0 {
		t.Fatalf("signal = %s, want 100 + ~216", signal)
	}
	cur := state.pools[dataset]
	if cur.Reserve().Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("reserve = %s, want 1000", cur.Reserve())
	}
	if cur.ReserveRatioPpm != 500_000 {
		t.Fatalf("ratio = %d", cur.ReserveRatioPpm)
	}
	deposit := treasury.last()
	if deposit.op != "transferFrom" || deposit.from != curator || deposit.amount.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("deposit call %+v", deposit)
	}
}

func TestMintSignalBelowMinimum(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	if _, err := engine.MintSignal(testAddr(1), testDataset(1), big.NewInt(99)); !errors.Is(err, ErrBelowMinimumDeposit) {
		t.Fatalf("below minimum: %v", err)
	}
	// The floor only applies to the initializing deposit.
	if _, err := engine.MintSignal(testAddr(1), testDataset(1), big.NewInt(100)); err != nil {
		t.Fatalf("minimum deposit: %v", err)
	}
	if _, err := engine.MintSignal(testAddr(2), testDataset(1), big.NewInt(1)); err != nil {
		t.Fatalf("small follow-up deposit: %v", err)
	}
}

func TestMintSignalValidation(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	if _, err := engine.MintSignal(testAddr(1), types.DatasetID{}, big.NewInt(100)); !errors.Is(err, ErrInvalidDataset) {
		t.Fatalf("zero dataset: %v", err)
	}
	if _, err := engine.MintSignal([20]byte{}, testDataset(1), big.NewInt(100)); !errors.Is(err, ErrInvalidCurator) {
		t.Fatalf("zero curator: %v", err)
	}
	if _, err := engine.MintSignal(testAddr(1), testDataset(1), big.NewInt(0)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("zero amount: %v", err)
	}
}

func TestLaterCuratorsPayHigherPrice(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	dataset := testDataset(1)

	first, err := engine.MintSignal(testAddr(1), dataset, big.NewInt(1000))
	if err != nil {
		t.Fatalf("first mint: %v", err)
	}
	second, err := engine.MintSignal(testAddr(2), dataset, big.NewInt(1000))
	if err != nil {
		t.Fatalf("second mint: %v", err)
	}
	if second.Cmp(first) >= 0 {
		t.Fatalf("second mint got %s signal for the same tokens, first got %s", second, first)
	}
}

func TestBurnSignalChargesWithdrawalFee(t *testing.T) {
	engine, _, treasury := newTestEngine(t)
	curator := testAddr(1)
	dataset := testDataset(1)

	signal, err := engine.MintSignal(curator, dataset, big.NewInt(1000))
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	half := new(big.Int).Quo(signal, big.NewInt(2))
	net, err := engine.BurnSignal(curator, dataset, half)
	if err != nil {
		t.Fatalf("burn: %v", err)
	}
	if net.Sign() <= 0 || net.Cmp(big.NewInt(1000)) >= 0 {
		t.Fatalf("net payout = %s", net)
	}
	burn := treasury.calls[len(treasury.calls)-2]
	payout := treasury.last()
	if burn.op != "burn" || burn.amount.Sign() <= 0 {
		t.Fatalf("fee burn call %+v", burn)
	}
	if payout.op != "transfer" || payout.to != curator || payout.amount.Cmp(net) != 0 {
		t.Fatalf("payout call %+v", payout)
	}
}

func TestBurnSignalValidation(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	curator := testAddr(1)
	dataset := testDataset(1)
	if _, err := engine.BurnSignal(curator, dataset, big.NewInt(10)); !errors.Is(err, ErrNotCurated) {
		t.Fatalf("uncurated: %v", err)
	}
	signal, err := engine.MintSignal(curator, dataset, big.NewInt(1000))
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	over := new(big.Int).Add(signal, big.NewInt(1))
	if _, err := engine.BurnSignal(curator, dataset, over); !errors.Is(err, ErrInsufficientSignal) {
		t.Fatalf("over-burn: %v", err)
	}
	if _, err := engine.BurnSignal(testAddr(2), dataset, big.NewInt(1)); !errors.Is(err, ErrInsufficientSignal) {
		t.Fatalf("stranger burn: %v", err)
	}
	if _, err := engine.BurnSignal(curator, dataset, big.NewInt(0)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("zero burn: %v", err)
	}
}

func TestBurnAllResetsPool(t *testing.T) {
	engine, state, _ := newTestEngine(t)
	curator := testAddr(1)
	dataset := testDataset(1)

	signal, err := engine.MintSignal(curator, dataset, big.NewInt(1000))
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	net, err := engine.BurnSignal(curator, dataset, signal)
	if err != nil {
		t.Fatalf("burn all: %v", err)
	}
	// Payout never exceeds the deposit: fee plus rounding always round
	// against the curator.
	if net.Cmp(big.NewInt(1000)) >= 0 {
		t.Fatalf("net payout = %s, want < 1000", net)
	}
	if _, ok := state.pools[dataset]; ok {
		t.Fatal("pool survived a full burn")
	}
	curated, err := engine.IsCurated(dataset)
	if err != nil || curated {
		t.Fatalf("IsCurated after reset = %v, %v", curated, err)
	}
	// A new deposit re-initializes and is subject to the floor again.
	if _, err := engine.MintSignal(curator, dataset, big.NewInt(50)); !errors.Is(err, ErrBelowMinimumDeposit) {
		t.Fatalf("re-init below floor: %v", err)
	}
}

func TestCollectFeesAccruesToReserve(t *testing.T) {
	engine, state, treasury := newTestEngine(t)
	curator := testAddr(1)
	dataset := testDataset(1)

	signal, err := engine.MintSignal(curator, dataset, big.NewInt(1000))
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := engine.CollectFees(stakingVault, dataset, big.NewInt(500)); err != nil {
		t.Fatalf("collect: %v", err)
	}
	cur := state.pools[dataset]
	if cur.Reserve().Cmp(big.NewInt(1500)) != 0 {
		t.Fatalf("reserve = %s, want 1500", cur.Reserve())
	}
	// Fees dilute the reserve without issuing signal.
	if cur.Signal().Cmp(signal) != 0 {
		t.Fatalf("signal supply changed: %s", cur.Signal())
	}
	// Pure accounting, no treasury movement.
	if got := treasury.last(); got.op != "transferFrom" {
		t.Fatalf("unexpected treasury call %+v", got)
	}
}

func TestCollectFeesAuthorization(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	dataset := testDataset(1)
	if _, err := engine.MintSignal(testAddr(1), dataset, big.NewInt(1000)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := engine.CollectFees(testAddr(7), dataset, big.NewInt(10)); !errors.Is(err, ErrUnauthorizedCaller) {
		t.Fatalf("stranger collect: %v", err)
	}
	if err := engine.CollectFees(stakingVault, testDataset(2), big.NewInt(10)); !errors.Is(err, ErrNotCurated) {
		t.Fatalf("uncurated collect: %v", err)
	}
	if err := engine.CollectFees(stakingVault, dataset, big.NewInt(0)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("zero collect: %v", err)
	}
}

func TestSignalOfTracksOwnership(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	dataset := testDataset(1)
	a, b := testAddr(1), testAddr(2)

	sa, err := engine.MintSignal(a, dataset, big.NewInt(1000))
	if err != nil {
		t.Fatalf("mint a: %v", err)
	}
	sb, err := engine.MintSignal(b, dataset, big.NewInt(500))
	if err != nil {
		t.Fatalf("mint b: %v", err)
	}
	got, err := engine.SignalOf(dataset, a)
	if err != nil || got.Cmp(sa) != 0 {
		t.Fatalf("signal of a = %s (%v), want %s", got, err, sa)
	}
	got, err = engine.SignalOf(dataset, b)
	if err != nil || got.Cmp(sb) != 0 {
		t.Fatalf("signal of b = %s (%v), want %s", got, err, sb)
	}
	got, err = engine.SignalOf(testDataset(9), a)
	if err != nil || got.Sign() != 0 {
		t.Fatalf("signal of uncurated = %s (%v)", got, err)
	}
}
