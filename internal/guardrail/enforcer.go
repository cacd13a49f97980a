package guardrail

import (
	"fmt"
	"math"

	"github.com/tradesentry/tradesentry/internal/portfolio"
	"github.com/tradesentry/tradesentry/pkg/types"
)

// Enforcer validates order intents against the hard limit table and the
// current portfolio snapshot. It is stateless; construct once and share.
type Enforcer struct {
	limits Limits
}

// NewEnforcer creates an enforcer bound to the fixed limit table.
func NewEnforcer() *Enforcer {
	return &Enforcer{limits: HardLimits()}
}

// Limits returns the limit table the enforcer applies.
func (e *Enforcer) Limits() Limits {
	return e.limits
}

// Check validates the intent against the projected portfolio state if the
// order were accepted. Checks run in fixed priority order and stop at the
// first breach: position size, total exposure, cash reserve, per-trade
// loss, aggregate daily risk, weekly loss, consecutive-loss halt, daily
// rate, hourly rate. The returned result carries the authoritative
// violation and a quantity that would satisfy that one limit.
func (e *Enforcer) Check(intent types.OrderIntent, snap portfolio.Snapshot) CheckResult {
	equity := intent.Equity
	if equity <= 0 {
		equity = snap.Equity
	}
	cash := intent.Cash
	if cash == 0 {
		cash = snap.Cash
	}
	if equity <= 0 {
		return reject(Violation{
			Kind:      ViolationCashReserve,
			Message:   "account equity is not positive; refusing all orders",
			Threshold: 0,
			Actual:    equity,
		}, 0)
	}

	notional := intent.Notional()
	perUnitRisk := math.Abs(intent.EntryPrice - intent.StopPrice)
	if !intent.HasStop() {
		perUnitRisk = 0
	}

	// 1. Single position size.
	if sizeFrac := notional / equity; sizeFrac > e.limits.MaxPositionSizePct {
		return reject(Violation{
			Kind: ViolationPositionSize,
			Message: fmt.Sprintf("position %.2f%% of equity exceeds hard cap %.2f%%",
				sizeFrac*100, e.limits.MaxPositionSizePct*100),
			Threshold: e.limits.MaxPositionSizePct,
			Actual:    sizeFrac,
		}, qtyForNotional(e.limits.MaxPositionSizePct*equity, intent.EntryPrice))
	}

	// 2. Total exposure across the open set.
	openExposure := snap.TotalExposure
	if expFrac := (openExposure + notional) / equity; expFrac > e.limits.MaxTotalExposurePct {
		headroom := e.limits.MaxTotalExposurePct*equity - openExposure
		return reject(Violation{
			Kind: ViolationTotalExposure,
			Message: fmt.Sprintf("projected exposure %.2f%% of equity exceeds hard cap %.2f%%",
				expFrac*100, e.limits.MaxTotalExposurePct*100),
			Threshold: e.limits.MaxTotalExposurePct,
			Actual:    expFrac,
		}, qtyForNotional(headroom, intent.EntryPrice))
	}

	// 3. Cash reserve after entry.
	if reserveFrac := (cash - notional) / equity; reserveFrac < e.limits.MinCashReservePct {
		spendable := cash - e.limits.MinCashReservePct*equity
		return reject(Violation{
			Kind: ViolationCashReserve,
			Message: fmt.Sprintf("projected cash %.2f%% of equity below required reserve %.2f%%",
				reserveFrac*100, e.limits.MinCashReservePct*100),
			Threshold: e.limits.MinCashReservePct,
			Actual:    reserveFrac,
		}, qtyForNotional(spendable, intent.EntryPrice))
	}

	// 4. Loss at stop for this trade alone.
	tradeRisk := perUnitRisk * intent.Quantity
	if riskFrac := tradeRisk / equity; riskFrac > e.limits.MaxLossPerTradePct {
		return reject(Violation{
			Kind: ViolationLossPerTrade,
			Message: fmt.Sprintf("loss at stop %.2f%% of equity exceeds hard cap %.2f%%",
				riskFrac*100, e.limits.MaxLossPerTradePct*100),
			Threshold: e.limits.MaxLossPerTradePct,
			Actual:    riskFrac,
		}, qtyForRisk(e.limits.MaxLossPerTradePct*equity, perUnitRisk))
	}

	// 5. Aggregate daily risk: realized loss so far today plus risk-at-stop
	// across every open position plus this one. This is the check that
	// stops individually compliant orders from combining into an excessive
	// total loss exposure.
	var openRisk float64
	for _, p := range snap.OpenPositions {
		openRisk += p.RiskAtStop()
	}
	dayLoss := math.Max(0, -snap.DailyPnL)
	if aggFrac := (dayLoss + openRisk + tradeRisk) / equity; aggFrac > e.limits.MaxDailyLossPct {
		headroom := e.limits.MaxDailyLossPct*equity - dayLoss - openRisk
		return reject(Violation{
			Kind: ViolationDailyRisk,
			Message: fmt.Sprintf("aggregate risk at stop %.2f%% of equity exceeds daily hard cap %.2f%%",
				aggFrac*100, e.limits.MaxDailyLossPct*100),
			Threshold: e.limits.MaxDailyLossPct,
			Actual:    aggFrac,
		}, qtyForRisk(headroom, perUnitRisk))
	}

	// 6. Weekly realized loss.
	if weekFrac := math.Max(0, -snap.WeeklyPnL) / equity; weekFrac >= e.limits.MaxWeeklyLossPct {
		return reject(Violation{
			Kind: ViolationWeeklyLoss,
			Message: fmt.Sprintf("weekly loss %.2f%% of equity at hard cap %.2f%%; trading halted for the week",
				weekFrac*100, e.limits.MaxWeeklyLossPct*100),
			Threshold: e.limits.MaxWeeklyLossPct,
			Actual:    weekFrac,
		}, 0)
	}

	// 7. Consecutive-loss halt.
	if snap.ConsecutiveLosses >= e.limits.MaxConsecutiveLosses {
		return reject(Violation{
			Kind: ViolationConsecutiveLosses,
			Message: fmt.Sprintf("%d consecutive losses reached halt threshold %d",
				snap.ConsecutiveLosses, e.limits.MaxConsecutiveLosses),
			Threshold: float64(e.limits.MaxConsecutiveLosses),
			Actual:    float64(snap.ConsecutiveLosses),
		}, 0)
	}

	// 8. Daily trade rate.
	if snap.DailyTrades >= e.limits.MaxTradesPerDay {
		return reject(Violation{
			Kind: ViolationDailyTradeRate,
			Message: fmt.Sprintf("daily trade count %d at hard cap %d",
				snap.DailyTrades, e.limits.MaxTradesPerDay),
			Threshold: float64(e.limits.MaxTradesPerDay),
			Actual:    float64(snap.DailyTrades),
		}, 0)
	}

	// 9. Hourly trade rate.
	if snap.HourlyTrades >= e.limits.MaxTradesPerHour {
		return reject(Violation{
			Kind: ViolationHourlyTradeRate,
			Message: fmt.Sprintf("hourly trade count %d at hard cap %d",
				snap.HourlyTrades, e.limits.MaxTradesPerHour),
			Threshold: float64(e.limits.MaxTradesPerHour),
			Actual:    float64(snap.HourlyTrades),
		}, 0)
	}

	return CheckResult{Allowed: true}
}

func reject(v Violation, suggestedQty float64) CheckResult {
	return CheckResult{
		Allowed:      false,
		Violations:   []Violation{v},
		SuggestedQty: suggestedQty,
	}
}

// qtyForNotional returns the quantity whose notional equals budget, or 0
// when no positive quantity fits.
func qtyForNotional(budget, entryPrice float64) float64 {
	if budget <= 0 || entryPrice <= 0 {
		return 0
	}
	return budget / entryPrice
}

// qtyForRisk returns the quantity whose risk at stop equals budget, or 0
// when no positive quantity fits.
func qtyForRisk(budget, perUnitRisk float64) float64 {
	if budget <= 0 || perUnitRisk <= 0 {
		return 0
	}
	return budget / perUnitRisk
}
