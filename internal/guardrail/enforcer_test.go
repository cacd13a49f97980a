package guardrail

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradesentry/tradesentry/internal/portfolio"
	"github.com/tradesentry/tradesentry/pkg/types"
)

// twoPercentIntent risks exactly 2% of a 10k account: qty 100 at entry 10
// with stop 8 is a $200 loss at stop and a $1000 (10%) notional.
func twoPercentIntent(cash float64) types.OrderIntent {
	return types.OrderIntent{
		Symbol:     "BTCUSDT",
		Side:       types.SideLong,
		Quantity:   100,
		EntryPrice: 10,
		StopPrice:  8,
		Equity:     10000,
		Cash:       cash,
	}
}

func TestCheck_AllowsCompliantOrder(t *testing.T) {
	e := NewEnforcer()
	res := e.Check(twoPercentIntent(10000), portfolio.Snapshot{Equity: 10000, Cash: 10000})

	assert.True(t, res.Allowed)
	assert.Empty(t, res.Violations)
}

// Regression for the production defect where three individually compliant
// orders combined into an excessive total loss exposure: each order risks
// 2%, the aggregate daily cap is 5%, so the third must reject no matter
// what the configurable risk policy says.
func TestCheck_AggregateRiskAcrossPositions(t *testing.T) {
	e := NewEnforcer()
	tr := portfolio.NewTracker(10000, 10000)

	for i := 0; i < 2; i++ {
		intent := twoPercentIntent(tr.Snapshot().Cash)
		res := e.Check(intent, tr.Snapshot())
		require.True(t, res.Allowed, "order %d should pass individually", i+1)

		_, err := tr.AddPosition(portfolio.Position{
			Symbol:     intent.Symbol,
			Side:       intent.Side,
			Quantity:   intent.Quantity,
			EntryPrice: intent.EntryPrice,
			StopPrice:  intent.StopPrice,
		})
		require.NoError(t, err)
	}

	third := e.Check(twoPercentIntent(tr.Snapshot().Cash), tr.Snapshot())
	require.False(t, third.Allowed)
	require.Len(t, third.Violations, 1)
	assert.Equal(t, ViolationDailyRisk, third.Violations[0].Kind)
	assert.InDelta(t, 0.06, third.Violations[0].Actual, 1e-9)
	assert.InDelta(t, 0.05, third.Violations[0].Threshold, 1e-9)

	// The suggested quantity fills exactly the remaining 1% risk budget:
	// $100 of headroom over a $2 per-unit stop distance.
	assert.InDelta(t, 50.0, third.SuggestedQty, 1e-9)

	// And that reduced order passes.
	reduced := twoPercentIntent(tr.Snapshot().Cash)
	reduced.Quantity = third.SuggestedQty
	assert.True(t, e.Check(reduced, tr.Snapshot()).Allowed)
}

func TestCheck_PositionSizeCap(t *testing.T) {
	e := NewEnforcer()
	intent := types.OrderIntent{
		Symbol:     "BTCUSDT",
		Side:       types.SideLong,
		Quantity:   200, // $2000 notional on $10k equity = 20%
		EntryPrice: 10,
		StopPrice:  9.9,
		Equity:     10000,
		Cash:       10000,
	}

	res := e.Check(intent, portfolio.Snapshot{Equity: 10000, Cash: 10000})
	require.False(t, res.Allowed)
	assert.Equal(t, ViolationPositionSize, res.Violations[0].Kind)
	// 10% of 10k over entry 10.
	assert.InDelta(t, 100.0, res.SuggestedQty, 1e-9)
}

func TestCheck_PriorityOrderIsFixed(t *testing.T) {
	e := NewEnforcer()

	t.Run("position size beats total exposure", func(t *testing.T) {
		snap := portfolio.Snapshot{
			Equity:        10000,
			Cash:          10000,
			TotalExposure: 5900, // near the 60% cap already
		}
		intent := types.OrderIntent{
			Symbol: "BTCUSDT", Side: types.SideLong,
			Quantity: 200, EntryPrice: 10, StopPrice: 9.9,
			Equity: 10000, Cash: 10000,
		}
		res := e.Check(intent, snap)
		require.False(t, res.Allowed)
		assert.Equal(t, ViolationPositionSize, res.Violations[0].Kind)
	})

	t.Run("cash reserve beats per-trade loss", func(t *testing.T) {
		intent := types.OrderIntent{
			Symbol: "BTCUSDT", Side: types.SideLong,
			Quantity: 9, EntryPrice: 100, StopPrice: 50, // 4.5% risk at stop
			Equity: 10000, Cash: 2500, // $1600 left after entry = 16%
		}
		res := e.Check(intent, portfolio.Snapshot{Equity: 10000, Cash: 2500})
		require.False(t, res.Allowed)
		assert.Equal(t, ViolationCashReserve, res.Violations[0].Kind)
	})

	t.Run("fail fast returns a single violation", func(t *testing.T) {
		// Breaches size, exposure, cash and per-trade loss at once.
		intent := types.OrderIntent{
			Symbol: "BTCUSDT", Side: types.SideLong,
			Quantity: 1000, EntryPrice: 10, StopPrice: 5,
			Equity: 10000, Cash: 10000,
		}
		res := e.Check(intent, portfolio.Snapshot{Equity: 10000, Cash: 10000})
		require.False(t, res.Allowed)
		assert.Len(t, res.Violations, 1)
	})
}

func TestCheck_LossPerTrade(t *testing.T) {
	e := NewEnforcer()
	intent := types.OrderIntent{
		Symbol: "BTCUSDT", Side: types.SideLong,
		Quantity: 100, EntryPrice: 10, StopPrice: 7, // $300 = 3% at stop
		Equity: 10000, Cash: 10000,
	}
	res := e.Check(intent, portfolio.Snapshot{Equity: 10000, Cash: 10000})
	require.False(t, res.Allowed)
	assert.Equal(t, ViolationLossPerTrade, res.Violations[0].Kind)
	// $200 budget over $3 per-unit risk.
	assert.InDelta(t, 200.0/3.0, res.SuggestedQty, 1e-9)
}

func TestCheck_WeeklyLossHalt(t *testing.T) {
	e := NewEnforcer()
	snap := portfolio.Snapshot{Equity: 10000, Cash: 10000, WeeklyPnL: -1000}
	res := e.Check(twoPercentIntent(10000), snap)
	require.False(t, res.Allowed)
	assert.Equal(t, ViolationWeeklyLoss, res.Violations[0].Kind)
	assert.Zero(t, res.SuggestedQty)
}

func TestCheck_ConsecutiveLossHalt(t *testing.T) {
	e := NewEnforcer()
	snap := portfolio.Snapshot{Equity: 10000, Cash: 10000, ConsecutiveLosses: 5}
	res := e.Check(twoPercentIntent(10000), snap)
	require.False(t, res.Allowed)
	assert.Equal(t, ViolationConsecutiveLosses, res.Violations[0].Kind)
}

func TestCheck_TradeRateLimits(t *testing.T) {
	e := NewEnforcer()

	daily := portfolio.Snapshot{Equity: 10000, Cash: 10000, DailyTrades: 20}
	res := e.Check(twoPercentIntent(10000), daily)
	require.False(t, res.Allowed)
	assert.Equal(t, ViolationDailyTradeRate, res.Violations[0].Kind)

	hourly := portfolio.Snapshot{Equity: 10000, Cash: 10000, DailyTrades: 10, HourlyTrades: 6}
	res = e.Check(twoPercentIntent(10000), hourly)
	require.False(t, res.Allowed)
	assert.Equal(t, ViolationHourlyTradeRate, res.Violations[0].Kind)
}

func TestCheck_NoStopMeansNoRiskAtStopContribution(t *testing.T) {
	e := NewEnforcer()
	intent := types.OrderIntent{
		Symbol: "BTCUSDT", Side: types.SideLong,
		Quantity: 50, EntryPrice: 10, // no stop attached
		Equity: 10000, Cash: 10000,
	}
	// The hard layer cannot price the risk without a stop; requiring one
	// is the risk policy's job.
	res := e.Check(intent, portfolio.Snapshot{Equity: 10000, Cash: 10000})
	assert.True(t, res.Allowed)
}

func TestCheck_FallsBackToSnapshotAccount(t *testing.T) {
	e := NewEnforcer()
	intent := twoPercentIntent(0)
	intent.Equity = 0 // collaborator did not supply account figures

	res := e.Check(intent, portfolio.Snapshot{Equity: 10000, Cash: 10000})
	assert.True(t, res.Allowed)

	res = e.Check(intent, portfolio.Snapshot{})
	require.False(t, res.Allowed)
	assert.Equal(t, ViolationCashReserve, res.Violations[0].Kind)
}
