package risk

import (
	"fmt"
	"strings"
	"sync"

	"github.com/tradesentry/tradesentry/internal/portfolio"
	"github.com/tradesentry/tradesentry/internal/quant"
	"github.com/tradesentry/tradesentry/pkg/types"
)

const componentName = "risk"

// CheckName identifies a policy check in a failure report.
type CheckName string

const (
	CheckSymbolWhitelist CheckName = "SYMBOL_WHITELIST"
	CheckStopRequired    CheckName = "STOP_REQUIRED"
	CheckPositionSize    CheckName = "POSITION_SIZE"
	CheckOpenPositions   CheckName = "OPEN_POSITIONS"
	CheckDailyDrawdown   CheckName = "DAILY_DRAWDOWN"
	CheckRiskReward      CheckName = "RISK_REWARD"
)

// Failure is one policy check the intent did not satisfy, with a concrete
// suggestion where one exists.
type Failure struct {
	Check      CheckName
	Message    string
	Suggestion string
}

// CheckResult reports every policy failure for an intent. Unlike the hard
// layer the policy layer does not fail fast: operators tune these knobs
// and want the complete picture in one pass.
type CheckResult struct {
	Allowed  bool
	Failures []Failure
}

// Manager evaluates intents against the active policy. The policy can be
// swapped at runtime; evaluation takes a read lock so swaps never tear a
// check mid-flight.
type Manager struct {
	mu     sync.RWMutex
	policy Policy
}

// NewManager creates a manager with the given starting policy. An invalid
// policy is refused; the caller decides whether to fall back to defaults.
func NewManager(policy Policy) (*Manager, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &Manager{policy: policy}, nil
}

// Policy returns a copy of the active policy.
func (m *Manager) Policy() Policy {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.policy
}

// SetPolicy replaces the active policy after validating it. In-flight
// checks finish under the policy they started with.
func (m *Manager) SetPolicy(policy Policy) error {
	if err := policy.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	m.policy = policy
	m.mu.Unlock()
	return nil
}

// Validate runs every policy check against the intent and snapshot and
// collects all failures.
func (m *Manager) Validate(intent types.OrderIntent, snap portfolio.Snapshot) CheckResult {
	m.mu.RLock()
	policy := m.policy
	m.mu.RUnlock()

	equity := intent.Equity
	if equity <= 0 {
		equity = snap.Equity
	}

	var failures []Failure

	if !policy.allowsSymbol(intent.Symbol) {
		failures = append(failures, Failure{
			Check:      CheckSymbolWhitelist,
			Message:    fmt.Sprintf("symbol %s is not whitelisted", intent.Symbol),
			Suggestion: fmt.Sprintf("trade one of: %s", strings.Join(policy.SymbolWhitelist, ", ")),
		})
	}

	if policy.StopLossRequired && !intent.HasStop() {
		failures = append(failures, Failure{
			Check:      CheckStopRequired,
			Message:    "order has no stop loss",
			Suggestion: "attach a stop price before resubmitting",
		})
	}

	if equity > 0 {
		if sizeFrac := intent.Notional() / equity; sizeFrac > policy.MaxPositionSizePct {
			suggested := policy.MaxPositionSizePct * equity / intent.EntryPrice
			failures = append(failures, Failure{
				Check: CheckPositionSize,
				Message: fmt.Sprintf("position %.2f%% of equity exceeds policy cap %.2f%%",
					sizeFrac*100, policy.MaxPositionSizePct*100),
				Suggestion: fmt.Sprintf("reduce quantity to %.4f", suggested),
			})
		}
	}

	if snap.OpenCount() >= policy.MaxOpenPositions {
		failures = append(failures, Failure{
			Check: CheckOpenPositions,
			Message: fmt.Sprintf("%d positions open, policy allows %d",
				snap.OpenCount(), policy.MaxOpenPositions),
			Suggestion: "close an existing position first",
		})
	}

	if equity > 0 {
		if dayFrac := max(0, -snap.DailyPnL) / equity; dayFrac >= policy.DailyDrawdownStopPct {
			failures = append(failures, Failure{
				Check: CheckDailyDrawdown,
				Message: fmt.Sprintf("daily loss %.2f%% of equity reached policy stop %.2f%%",
					dayFrac*100, policy.DailyDrawdownStopPct*100),
				Suggestion: "no new entries until the daily window resets",
			})
		}
	}

	if policy.MinRiskReward > 0 && intent.HasStop() && intent.TakeProfit > 0 {
		rr := quant.RiskReward(intent.EntryPrice, intent.StopPrice, intent.TakeProfit)
		if rr < policy.MinRiskReward {
			failures = append(failures, Failure{
				Check: CheckRiskReward,
				Message: fmt.Sprintf("reward:risk %.2f below policy minimum %.2f",
					rr, policy.MinRiskReward),
				Suggestion: "widen the take profit or tighten the stop",
			})
		}
	}

	return CheckResult{Allowed: len(failures) == 0, Failures: failures}
}
