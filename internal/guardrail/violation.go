package guardrail

// ViolationKind enumerates the closed set of hard-limit breaches, one per
// limit in the table. The zero value is not a valid kind.
type ViolationKind int

const (
	ViolationPositionSize ViolationKind = iota + 1
	ViolationTotalExposure
	ViolationCashReserve
	ViolationLossPerTrade
	ViolationDailyRisk
	ViolationWeeklyLoss
	ViolationConsecutiveLosses
	ViolationDailyTradeRate
	ViolationHourlyTradeRate
)

func (k ViolationKind) String() string {
	switch k {
	case ViolationPositionSize:
		return "POSITION_SIZE"
	case ViolationTotalExposure:
		return "TOTAL_EXPOSURE"
	case ViolationCashReserve:
		return "CASH_RESERVE"
	case ViolationLossPerTrade:
		return "LOSS_PER_TRADE"
	case ViolationDailyRisk:
		return "DAILY_RISK"
	case ViolationWeeklyLoss:
		return "WEEKLY_LOSS"
	case ViolationConsecutiveLosses:
		return "CONSECUTIVE_LOSSES"
	case ViolationDailyTradeRate:
		return "DAILY_TRADE_RATE"
	case ViolationHourlyTradeRate:
		return "HOURLY_TRADE_RATE"
	default:
		return "UNKNOWN"
	}
}

// Violation is a single breached limit with the threshold and the value
// the projected order produced.
type Violation struct {
	Kind      ViolationKind `json:"kind"`
	Message   string        `json:"message"`
	Threshold float64       `json:"threshold"`
	Actual    float64       `json:"actual"`
}

// CheckResult is the outcome of one enforcement pass. Enforcement is
// fail-fast: a rejected intent carries exactly the first breached limit
// in priority order, plus a reduced quantity that would satisfy it
// (0 when no quantity can).
type CheckResult struct {
	Allowed      bool        `json:"allowed"`
	Violations   []Violation `json:"violations,omitempty"`
	SuggestedQty float64     `json:"suggested_qty,omitempty"`
}
