// Package epochs derives the ledger's coarse clock from block height. Epoch
// boundaries gate unstake thawing, allocation duration weighting and rebate
// dispute windows.
package epochs

import "errors"

// ErrInvalidLength rejects zero-length epochs.
var ErrInvalidLength = errors.New("epochs: epoch length must be positive")

// Manager maps block heights to epoch numbers. Epoch 0 covers blocks
// [0, length); the host advances the height once per processed block, so the
// epoch counter never decreases.
type Manager struct {
	length uint64
	height uint64
}

// NewManager constructs a manager with the given epoch length in blocks.
func NewManager(length uint64) (*Manager, error) {
	if length == 0 {
		return nil, ErrInvalidLength
	}
	return &Manager{length: length}, nil
}

// SetBlockHeight records the chain head the clock derives from.
func (m *Manager) SetBlockHeight(height uint64) { m.height = height }

// BlockHeight returns the recorded chain head.
func (m *Manager) BlockHeight() uint64 { return m.height }

// EpochLength returns the epoch length in blocks.
func (m *Manager) EpochLength() uint64 { return m.length }

// CurrentEpoch returns the epoch containing the recorded block height.
func (m *Manager) CurrentEpoch() uint64 { return m.height / m.length }

// EpochsSince returns how many full epochs have passed since the given epoch,
// along with the current epoch. Epochs in the future count as zero elapsed.
func (m *Manager) EpochsSince(epoch uint64) (uint64, uint64) {
	current := m.CurrentEpoch()
	if epoch >= current {
		return 0, current
	}
	return current - epoch, current
}
