package metrics

import (
	"math/big"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// CurationMetrics tracks bonding-curve market activity.
type CurationMetrics struct {
	signalMinted  prometheus.Counter
	signalBurned  prometheus.Counter
	feesCollected prometheus.Counter
}

var (
	curationOnce     sync.Once
	curationRegistry *CurationMetrics
)

// Curation returns the lazily-registered curation metrics.
func Curation() *CurationMetrics {
	curationOnce.Do(func() {
		curationRegistry = &CurationMetrics{
			signalMinted: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "curation_signal_minted_tokens_total",
				Help: "Tokens deposited into curation curves.",
			}),
			signalBurned: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "curation_signal_burned_tokens_total",
				Help: "Tokens paid out of curation curves, net of withdrawal fees.",
			}),
			feesCollected: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "curation_fees_collected_tokens_total",
				Help: "Query-fee tokens folded into curation reserves.",
			}),
		}
		prometheus.MustRegister(
			curationRegistry.signalMinted,
			curationRegistry.signalBurned,
			curationRegistry.feesCollected,
		)
	})
	return curationRegistry
}

// ObserveSignalMinted records tokens entering a curve.
func (m *CurationMetrics) ObserveSignalMinted(tokens *big.Int) {
	if m == nil {
		return
	}
	m.signalMinted.Add(approximate(tokens))
}

// ObserveSignalBurned records net tokens leaving a curve.
func (m *CurationMetrics) ObserveSignalBurned(tokens *big.Int) {
	if m == nil {
		return
	}
	m.signalBurned.Add(approximate(tokens))
}

// ObserveFeesCollected records fee income accruing to reserves.
func (m *CurationMetrics) ObserveFeesCollected(tokens *big.Int) {
	if m == nil {
		return
	}
	m.feesCollected.Add(approximate(tokens))
}

// approximate converts a token amount to float64 for metric purposes only;
// ledger accounting never uses this value.
func approximate(v *big.Int) float64 {
	if v == nil {
		return 0
	}
	f, _ := new(big.Float).SetInt(v).Float64()
	return f
}
