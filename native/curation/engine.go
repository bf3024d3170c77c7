// Package curation implements the per-dataset bonding-curve market. Deposits
// mint signal (proportional ownership of the dataset's reserve), burns redeem
// it, and query fees collected by the staking module accrue to the reserve
// without issuance, creating the curator yield.
package curation

import (
	"errors"
	"math/big"

	"idxnet/core/events"
	"idxnet/core/types"
	nativecommon "idxnet/native/common"
	"idxnet/native/curve"
	"idxnet/native/pool"
	"idxnet/observability/metrics"
)

const moduleName = "curation"

var (
	errNilState    = errors.New("curation engine: state not configured")
	errNilTreasury = errors.New("curation engine: treasury not configured")

	ErrInvalidDataset      = errors.New("curation: dataset id required")
	ErrInvalidCurator      = errors.New("curation: curator address required")
	ErrInvalidAmount       = errors.New("curation: amount must be positive")
	ErrBelowMinimumDeposit = errors.New("curation: deposit below initialization minimum")
	ErrNotCurated          = errors.New("curation: dataset has no signal")
	ErrInsufficientSignal  = errors.New("curation: insufficient signal")
	ErrUnauthorizedCaller  = errors.New("curation: caller not authorized")
)

// engineState abstracts the persistence the curation market requires.
type engineState interface {
	CurationGet(dataset types.DatasetID) (*Pool, bool, error)
	CurationPut(dataset types.DatasetID, p *Pool) error
	CurationDelete(dataset types.DatasetID) error
}

// Treasury is the external fungible-token collaborator. Transfer pays out of
// the curation vault, TransferFrom pulls deposits in, Burn destroys vault
// tokens. Implementations must tolerate reentry: the engine persists all
// ledger state before invoking any of these.
type Treasury interface {
	Transfer(to [20]byte, amount *big.Int) error
	TransferFrom(from, to [20]byte, amount *big.Int) error
	Burn(amount *big.Int) error
}

// Engine wires the curation market to its collaborators.
type Engine struct {
	state         engineState
	treasury      Treasury
	params        Params
	vault         [20]byte
	stakingModule [20]byte
	emitter       events.Emitter
	pauses        nativecommon.PauseView
}

// NewEngine constructs a curation engine with the supplied parameters and a
// no-op emitter.
func NewEngine(params Params) *Engine {
	return &Engine{params: params, emitter: events.NoopEmitter{}}
}

// SetState configures the persistence backend.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetTreasury configures the token collaborator.
func (e *Engine) SetTreasury(t Treasury) { e.treasury = t }

// SetVault configures the address holding the curation reserves.
func (e *Engine) SetVault(addr [20]byte) { e.vault = addr }

// SetStakingModule configures the only address allowed to collect fees into
// curation pools.
func (e *Engine) SetStakingModule(addr [20]byte) { e.stakingModule = addr }

// SetPauses wires the governance pause switch.
func (e *Engine) SetPauses(p nativecommon.PauseView) { e.pauses = p }

// SetEmitter configures the event emitter. Nil resets to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// Params returns the engine's parameter set.
func (e *Engine) Params() Params { return e.params }

func (e *Engine) ready() error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if e.treasury == nil {
		return errNilTreasury
	}
	return nil
}

// MintSignal deposits tokens into the dataset's curve and issues signal to
// the curator. The first deposit must meet the minimum-deposit floor; it
// seeds the pool at the default reserve ratio and routes only the remainder
// through the curve. Returns the signal issued.
func (e *Engine) MintSignal(curator [20]byte, dataset types.DatasetID, tokens *big.Int) (*big.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if dataset.IsZero() {
		return nil, ErrInvalidDataset
	}
	if curator == ([20]byte{}) {
		return nil, ErrInvalidCurator
	}
	if tokens == nil || tokens.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	tokens = new(big.Int).Set(tokens)

	cur, ok, err := e.state.CurationGet(dataset)
	if err != nil {
		return nil, err
	}
	var signal *big.Int
	if !ok {
		if tokens.Cmp(e.params.MinimumDeposit) < 0 {
			return nil, ErrBelowMinimumDeposit
		}
		cur = &Pool{ReserveRatioPpm: e.params.DefaultReserveRatioPpm, Shares: pool.New()}
		signal = new(big.Int).Set(e.params.SeedSignal)
		if err := cur.Shares.Credit(curator, e.params.MinimumDeposit, signal); err != nil {
			return nil, err
		}
		if remainder := new(big.Int).Sub(tokens, e.params.MinimumDeposit); remainder.Sign() > 0 {
			extra, err := curve.PurchaseReturn(cur.Signal(), cur.Reserve(), cur.ReserveRatioPpm, remainder)
			if err != nil {
				return nil, err
			}
			if err := cur.Shares.Credit(curator, remainder, extra); err != nil {
				return nil, err
			}
			signal.Add(signal, extra)
		}
	} else {
		signal, err = curve.PurchaseReturn(cur.Signal(), cur.Reserve(), cur.ReserveRatioPpm, tokens)
		if err != nil {
			return nil, err
		}
		if err := cur.Shares.Credit(curator, tokens, signal); err != nil {
			return nil, err
		}
	}
	if err := e.state.CurationPut(dataset, cur); err != nil {
		return nil, err
	}
	if err := e.treasury.TransferFrom(curator, e.vault, tokens); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.SignalMinted{Dataset: dataset, Curator: curator, Tokens: tokens, Signal: new(big.Int).Set(signal)})
	metrics.Curation().ObserveSignalMinted(tokens)
	return signal, nil
}

// BurnSignal redeems the curator's signal for reserve tokens priced by the
// curve. The withdrawal fee is taken off the top and destroyed. Burning the
// last outstanding signal resets the pool to uninitialized. Returns the net
// tokens paid out.
func (e *Engine) BurnSignal(curator [20]byte, dataset types.DatasetID, signal *big.Int) (*big.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if dataset.IsZero() {
		return nil, ErrInvalidDataset
	}
	if signal == nil || signal.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	cur, ok, err := e.state.CurationGet(dataset)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotCurated
	}
	if cur.Shares.SharesOf(curator).Cmp(signal) < 0 {
		return nil, ErrInsufficientSignal
	}
	tokens, err := curve.SaleReturn(cur.Signal(), cur.Reserve(), cur.ReserveRatioPpm, signal)
	if err != nil {
		return nil, err
	}
	if err := cur.Shares.Debit(curator, tokens, signal); err != nil {
		return nil, err
	}
	fee := new(big.Int).Mul(tokens, big.NewInt(int64(e.params.WithdrawalFeePpm)))
	fee.Quo(fee, big.NewInt(int64(curve.MaxRatioPpm)))
	net := new(big.Int).Sub(tokens, fee)

	reset := cur.Shares.Empty()
	if reset {
		// Any rounding residue left in the reserve is destroyed with the
		// pool; the next deposit re-initializes the curve from scratch.
		if residue := cur.Reserve(); residue.Sign() > 0 {
			fee.Add(fee, residue)
		}
		if err := e.state.CurationDelete(dataset); err != nil {
			return nil, err
		}
	} else if err := e.state.CurationPut(dataset, cur); err != nil {
		return nil, err
	}
	if fee.Sign() > 0 {
		if err := e.treasury.Burn(fee); err != nil {
			return nil, err
		}
	}
	if net.Sign() > 0 {
		if err := e.treasury.Transfer(curator, net); err != nil {
			return nil, err
		}
	}
	e.emitter.Emit(events.SignalBurned{Dataset: dataset, Curator: curator, Signal: new(big.Int).Set(signal), Tokens: net, Fee: fee})
	if reset {
		e.emitter.Emit(events.CurationPoolReset{Dataset: dataset})
	}
	metrics.Curation().ObserveSignalBurned(net)
	return net, nil
}

// CollectFees folds query-fee income into a dataset's reserve with no signal
// issuance. Only the staking module may call it, and only for datasets that
// already carry signal: fees for uncurated datasets have no owners to accrue
// to. The staking module moves the tokens into the curation vault before
// calling; this entry point is pure accounting.
func (e *Engine) CollectFees(caller [20]byte, dataset types.DatasetID, tokens *big.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	if caller != e.stakingModule || caller == ([20]byte{}) {
		return ErrUnauthorizedCaller
	}
	if dataset.IsZero() {
		return ErrInvalidDataset
	}
	if tokens == nil || tokens.Sign() <= 0 {
		return ErrInvalidAmount
	}
	cur, ok, err := e.state.CurationGet(dataset)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotCurated
	}
	if err := cur.Shares.AddTokens(tokens); err != nil {
		return err
	}
	if err := e.state.CurationPut(dataset, cur); err != nil {
		return err
	}
	e.emitter.Emit(events.CurationFeesCollected{Dataset: dataset, Tokens: new(big.Int).Set(tokens), Reserve: cur.Reserve()})
	metrics.Curation().ObserveFeesCollected(tokens)
	return nil
}

// IsCurated reports whether the dataset currently carries signal.
func (e *Engine) IsCurated(dataset types.DatasetID) (bool, error) {
	if e == nil || e.state == nil {
		return false, errNilState
	}
	_, ok, err := e.state.CurationGet(dataset)
	return ok, err
}

// SignalOf returns the curator's signal balance for the dataset.
func (e *Engine) SignalOf(dataset types.DatasetID, curator [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	cur, ok, err := e.state.CurationGet(dataset)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return cur.Shares.SharesOf(curator), nil
}

// PoolOf returns a copy of the dataset's pool when initialized.
func (e *Engine) PoolOf(dataset types.DatasetID) (*Pool, bool, error) {
	if e == nil || e.state == nil {
		return nil, false, errNilState
	}
	cur, ok, err := e.state.CurationGet(dataset)
	if err != nil || !ok {
		return nil, ok, err
	}
	return cur.Clone(), true, nil
}
