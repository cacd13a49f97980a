// Package quant provides the pure numeric building blocks used by the
// risk layers: position sizing, stop placement, risk/reward analysis and
// portfolio statistics. Every function is deterministic, side-effect free
// and defined for the degenerate inputs callers actually produce
// (entry == stop, empty series, zero volatility).
package quant

import (
	"math"

	"github.com/tradesentry/tradesentry/pkg/types"
)

// DefaultKellyCap is the safety cap applied to the Kelly fraction when the
// caller does not supply one. Full Kelly is far too aggressive for live
// trading; quarter Kelly is the customary compromise.
const DefaultKellyCap = 0.25

// PositionSize returns the quantity that risks riskPct of balance if the
// stop is hit. Returns 0 when entry equals stop so callers never divide
// by zero.
func PositionSize(balance, riskPct, entry, stop float64) float64 {
	perUnitRisk := math.Abs(entry - stop)
	if perUnitRisk == 0 || balance <= 0 || riskPct <= 0 {
		return 0
	}
	return (balance * riskPct) / perUnitRisk
}

// KellyFraction returns the Kelly-optimal fraction of capital for a bet
// with the given win rate and reward:risk ratio, clamped to
// [0, maxFraction]. Pass maxFraction <= 0 to use DefaultKellyCap.
func KellyFraction(winRate, rewardRisk, maxFraction float64) float64 {
	if maxFraction <= 0 {
		maxFraction = DefaultKellyCap
	}
	if rewardRisk <= 0 {
		return 0
	}
	f := winRate - (1-winRate)/rewardRisk
	if f < 0 {
		return 0
	}
	if f > maxFraction {
		return maxFraction
	}
	return f
}

// ATRStop places a stop multiplier*atr away from entry, below for longs
// and above for shorts.
func ATRStop(entry, atr, multiplier float64, side types.Side) float64 {
	offset := multiplier * atr
	if side == types.SideShort {
		return entry + offset
	}
	return entry - offset
}

// RiskReward returns reward/risk for the given entry, stop and target.
// Returns 0 when the stop distance is zero.
func RiskReward(entry, stop, target float64) float64 {
	risk := math.Abs(entry - stop)
	if risk == 0 {
		return 0
	}
	return math.Abs(target-entry) / risk
}

// BreakevenWinRate returns the win rate at which a strategy with the
// given reward:risk ratio has zero expectancy.
func BreakevenWinRate(rewardRisk float64) float64 {
	return 1 / (1 + rewardRisk)
}

// Drawdown walks an equity curve and returns the current drawdown (from
// the running peak to the last point) and the maximum drawdown observed
// anywhere on the curve, both as fractions of the peak.
func Drawdown(equityCurve []float64) (current, max float64) {
	if len(equityCurve) == 0 {
		return 0, 0
	}
	peak := equityCurve[0]
	for _, v := range equityCurve {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			dd := (peak - v) / peak
			if dd > max {
				max = dd
			}
			current = dd
		}
	}
	return current, max
}

// SharpeRatio returns the annualized Sharpe ratio of a return series.
// Returns 0 for fewer than two samples or zero volatility.
func SharpeRatio(returns []float64, periodsPerYear float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var variance float64
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns))

	stdev := math.Sqrt(variance)
	if stdev == 0 {
		return 0
	}
	return mean / stdev * math.Sqrt(periodsPerYear)
}

// Expectancy returns the expected value per trade given the win rate and
// the average win and loss sizes (avgLoss as a positive number).
func Expectancy(winRate, avgWin, avgLoss float64) float64 {
	return winRate*avgWin - (1-winRate)*avgLoss
}
