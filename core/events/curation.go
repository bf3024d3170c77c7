package events

import (
	"math/big"
	"strconv"

	"idxnet/core/types"
)

const (
	// TypeSignalMinted captures signal issued against a dataset's curve.
	TypeSignalMinted = "curation.signalMinted"
	// TypeSignalBurned captures signal redeemed for reserve tokens.
	TypeSignalBurned = "curation.signalBurned"
	// TypeCurationFeesCollected is emitted when query fees are folded into a
	// dataset's reserve without issuing signal.
	TypeCurationFeesCollected = "curation.feesCollected"
	// TypeCurationPoolReset signals that a pool returned to the
	// uninitialized state after the last share was burned.
	TypeCurationPoolReset = "curation.poolReset"
)

// SignalMinted records a curve purchase: tokens deposited and signal issued.
type SignalMinted struct {
	Dataset types.DatasetID
	Curator [20]byte
	Tokens  *big.Int
	Signal  *big.Int
}

// EventType satisfies the Event interface.
func (SignalMinted) EventType() string { return TypeSignalMinted }

// Event converts the payload into its broadcastable form.
func (e SignalMinted) Event() *types.Event {
	return &types.Event{Type: TypeSignalMinted, Attributes: map[string]string{
		"dataset": e.Dataset.String(),
		"curator": formatAddress(e.Curator),
		"tokens":  formatAmount(e.Tokens),
		"signal":  formatAmount(e.Signal),
	}}
}

// SignalBurned records a curve sale: signal burned, tokens paid out and the
// withdrawal fee retained by the protocol.
type SignalBurned struct {
	Dataset types.DatasetID
	Curator [20]byte
	Signal  *big.Int
	Tokens  *big.Int
	Fee     *big.Int
}

// EventType satisfies the Event interface.
func (SignalBurned) EventType() string { return TypeSignalBurned }

// Event converts the payload into its broadcastable form.
func (e SignalBurned) Event() *types.Event {
	return &types.Event{Type: TypeSignalBurned, Attributes: map[string]string{
		"dataset": e.Dataset.String(),
		"curator": formatAddress(e.Curator),
		"signal":  formatAmount(e.Signal),
		"tokens":  formatAmount(e.Tokens),
		"fee":     formatAmount(e.Fee),
	}}
}

// CurationFeesCollected records fee income deposited into a dataset reserve.
type CurationFeesCollected struct {
	Dataset types.DatasetID
	Tokens  *big.Int
	Reserve *big.Int
}

// EventType satisfies the Event interface.
func (CurationFeesCollected) EventType() string { return TypeCurationFeesCollected }

// Event converts the payload into its broadcastable form.
func (e CurationFeesCollected) Event() *types.Event {
	return &types.Event{Type: TypeCurationFeesCollected, Attributes: map[string]string{
		"dataset": e.Dataset.String(),
		"tokens":  formatAmount(e.Tokens),
		"reserve": formatAmount(e.Reserve),
	}}
}

// CurationPoolReset records a pool returning to the uninitialized state.
type CurationPoolReset struct {
	Dataset types.DatasetID
}

// EventType satisfies the Event interface.
func (CurationPoolReset) EventType() string { return TypeCurationPoolReset }

// Event converts the payload into its broadcastable form.
func (e CurationPoolReset) Event() *types.Event {
	return &types.Event{Type: TypeCurationPoolReset, Attributes: map[string]string{
		"dataset": e.Dataset.String(),
	}}
}

func formatEpoch(epoch uint64) string { return strconv.FormatUint(epoch, 10) }
