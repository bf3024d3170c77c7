package metrics

import (
	"math/big"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// StakingMetrics tracks stake, allocation, rebate and delegation activity.
type StakingMetrics struct {
	staked          prometheus.Counter
	withdrawn       prometheus.Counter
	slashed         prometheus.Counter
	allocationsOpen prometheus.Gauge
	rebatePools     prometheus.Gauge
	rebatesClaimed  prometheus.Counter
	delegated       prometheus.Counter
}

var (
	stakingOnce     sync.Once
	stakingRegistry *StakingMetrics
)

// Staking returns the lazily-registered staking metrics.
func Staking() *StakingMetrics {
	stakingOnce.Do(func() {
		stakingRegistry = &StakingMetrics{
			staked: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "staking_deposited_tokens_total",
				Help: "Tokens deposited as provider stake.",
			}),
			withdrawn: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "staking_withdrawn_tokens_total",
				Help: "Thawed tokens withdrawn by providers.",
			}),
			slashed: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "staking_slashed_tokens_total",
				Help: "Tokens removed from providers by slashing.",
			}),
			allocationsOpen: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "staking_allocations_open",
				Help: "Number of currently open allocations.",
			}),
			rebatePools: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "staking_rebate_pools",
				Help: "Number of epoch rebate pools awaiting redemption.",
			}),
			rebatesClaimed: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "staking_rebates_claimed_tokens_total",
				Help: "Rebate tokens redeemed by providers.",
			}),
			delegated: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "staking_delegated_tokens_total",
				Help: "Tokens delegated into provider pools.",
			}),
		}
		prometheus.MustRegister(
			stakingRegistry.staked,
			stakingRegistry.withdrawn,
			stakingRegistry.slashed,
			stakingRegistry.allocationsOpen,
			stakingRegistry.rebatePools,
			stakingRegistry.rebatesClaimed,
			stakingRegistry.delegated,
		)
	})
	return stakingRegistry
}

// ObserveStaked records new provider collateral.
func (m *StakingMetrics) ObserveStaked(tokens *big.Int) {
	if m == nil {
		return
	}
	m.staked.Add(approximate(tokens))
}

// ObserveWithdrawn records thawed tokens leaving the ledger.
func (m *StakingMetrics) ObserveWithdrawn(tokens *big.Int) {
	if m == nil {
		return
	}
	m.withdrawn.Add(approximate(tokens))
}

// ObserveSlashed records a slash.
func (m *StakingMetrics) ObserveSlashed(tokens *big.Int) {
	if m == nil {
		return
	}
	m.slashed.Add(approximate(tokens))
}

// AllocationOpened bumps the open-allocation gauge.
func (m *StakingMetrics) AllocationOpened() {
	if m == nil {
		return
	}
	m.allocationsOpen.Inc()
}

// AllocationClosed lowers the open-allocation gauge.
func (m *StakingMetrics) AllocationClosed() {
	if m == nil {
		return
	}
	m.allocationsOpen.Dec()
}

// RebatePoolCreated bumps the live rebate-pool gauge.
func (m *StakingMetrics) RebatePoolCreated() {
	if m == nil {
		return
	}
	m.rebatePools.Inc()
}

// RebatePoolDeleted lowers the live rebate-pool gauge.
func (m *StakingMetrics) RebatePoolDeleted() {
	if m == nil {
		return
	}
	m.rebatePools.Dec()
}

// ObserveRebateClaimed records rebate tokens redeemed.
func (m *StakingMetrics) ObserveRebateClaimed(tokens *big.Int) {
	if m == nil {
		return
	}
	m.rebatesClaimed.Add(approximate(tokens))
}

// ObserveDelegated records tokens entering a delegation pool.
func (m *StakingMetrics) ObserveDelegated(tokens *big.Int) {
	if m == nil {
		return
	}
	m.delegated.Add(approximate(tokens))
}
