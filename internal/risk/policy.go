package risk

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	coreerrors "github.com/tradesentry/tradesentry/internal/errors"
)

// Policy is the operator-tunable risk layer. Unlike the guardrail limit
// table it can be reloaded at runtime, but only toward values at least as
// strict as the hard caps; Validate rejects anything looser.
type Policy struct {
	// MaxPositionSizePct caps a single position's notional as a fraction
	// of equity. Must not exceed the hard cap.
	MaxPositionSizePct float64 `yaml:"max_position_size_pct"`

	// MaxOpenPositions caps the number of simultaneously open positions.
	MaxOpenPositions int `yaml:"max_open_positions"`

	// DailyDrawdownStopPct stops new entries once realized daily loss
	// reaches this fraction of equity.
	DailyDrawdownStopPct float64 `yaml:"daily_drawdown_stop_pct"`

	// MinRiskReward is the minimum reward:risk ratio for orders that
	// carry both a stop and a take profit.
	MinRiskReward float64 `yaml:"min_risk_reward"`

	// StopLossRequired rejects any order submitted without a stop.
	StopLossRequired bool `yaml:"stop_loss_required"`

	// SymbolWhitelist restricts tradable symbols. Empty means any symbol.
	SymbolWhitelist []string `yaml:"symbol_whitelist"`
}

// DefaultPolicy returns the policy applied when no file is configured.
func DefaultPolicy() Policy {
	return Policy{
		MaxPositionSizePct:   0.05,
		MaxOpenPositions:     5,
		DailyDrawdownStopPct: 0.03,
		MinRiskReward:        1.5,
		StopLossRequired:     true,
	}
}

// LoadPolicy reads a YAML policy file. Fields omitted from the file keep
// their default values.
func LoadPolicy(path string) (Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, coreerrors.Wrap(err, coreerrors.ErrorCategoryConfig, componentName, "load_policy")
	}

	policy := DefaultPolicy()
	if err := yaml.Unmarshal(data, &policy); err != nil {
		return Policy{}, coreerrors.Wrap(err, coreerrors.ErrorCategoryConfig, componentName, "load_policy")
	}
	if err := policy.Validate(); err != nil {
		return Policy{}, err
	}
	return policy, nil
}

// Validate rejects policies with out-of-range fields. It does not compare
// against the hard limit table; the guardrail layer runs first regardless,
// so a looser policy value is dead weight rather than a hole.
func (p Policy) Validate() error {
	if p.MaxPositionSizePct <= 0 || p.MaxPositionSizePct > 1 {
		return coreerrors.NewConfigError(componentName, "validate_policy",
			fmt.Sprintf("max_position_size_pct %.4f outside (0, 1]", p.MaxPositionSizePct))
	}
	if p.MaxOpenPositions <= 0 {
		return coreerrors.NewConfigError(componentName, "validate_policy",
			fmt.Sprintf("max_open_positions %d must be positive", p.MaxOpenPositions))
	}
	if p.DailyDrawdownStopPct <= 0 || p.DailyDrawdownStopPct > 1 {
		return coreerrors.NewConfigError(componentName, "validate_policy",
			fmt.Sprintf("daily_drawdown_stop_pct %.4f outside (0, 1]", p.DailyDrawdownStopPct))
	}
	if p.MinRiskReward < 0 {
		return coreerrors.NewConfigError(componentName, "validate_policy",
			fmt.Sprintf("min_risk_reward %.2f must not be negative", p.MinRiskReward))
	}
	for _, s := range p.SymbolWhitelist {
		if strings.TrimSpace(s) == "" {
			return coreerrors.NewConfigError(componentName, "validate_policy",
				"symbol_whitelist contains an empty entry")
		}
	}
	return nil
}

// allowsSymbol reports whether the whitelist permits the symbol. The
// comparison is case-insensitive to survive hand-edited policy files.
func (p Policy) allowsSymbol(symbol string) bool {
	if len(p.SymbolWhitelist) == 0 {
		return true
	}
	for _, s := range p.SymbolWhitelist {
		if strings.EqualFold(s, symbol) {
			return true
		}
	}
	return false
}
