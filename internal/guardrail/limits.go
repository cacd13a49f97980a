// Package guardrail holds the hard safety limits and the enforcer that
// validates every order intent against them. The limits are build-time
// constants: there is no setter, no config hook and no runtime path that
// can change them. The configurable risk policy lives in internal/risk
// and always runs after this layer.
package guardrail

// The nine hard limits. Percentages are fractions of account equity.
// These are deliberately plain constants rather than configuration: a
// process that wants different values ships a different binary.
const (
	maxPositionSizePct   = 0.10 // single position notional
	maxTotalExposurePct  = 0.60 // summed open notional
	minCashReservePct    = 0.20 // cash that must remain after entry
	maxLossPerTradePct   = 0.02 // risk-at-stop of one trade
	maxDailyLossPct      = 0.05 // realized day loss plus open risk-at-stop
	maxWeeklyLossPct     = 0.10 // realized week loss
	maxConsecutiveLosses = 5
	maxTradesPerDay      = 20
	maxTradesPerHour     = 6
)

// Limits is a value-type view of the hard limit table. Callers receive a
// copy; mutating it cannot affect enforcement.
type Limits struct {
	MaxPositionSizePct   float64
	MaxTotalExposurePct  float64
	MinCashReservePct    float64
	MaxLossPerTradePct   float64
	MaxDailyLossPct      float64
	MaxWeeklyLossPct     float64
	MaxConsecutiveLosses int
	MaxTradesPerDay      int
	MaxTradesPerHour     int
}

// HardLimits returns the fixed limit table. Every call returns an
// identical value.
func HardLimits() Limits {
	return Limits{
		MaxPositionSizePct:   maxPositionSizePct,
		MaxTotalExposurePct:  maxTotalExposurePct,
		MinCashReservePct:    minCashReservePct,
		MaxLossPerTradePct:   maxLossPerTradePct,
		MaxDailyLossPct:      maxDailyLossPct,
		MaxWeeklyLossPct:     maxWeeklyLossPct,
		MaxConsecutiveLosses: maxConsecutiveLosses,
		MaxTradesPerDay:      maxTradesPerDay,
		MaxTradesPerHour:     maxTradesPerHour,
	}
}
