package guardrail

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHardLimitsAreFixed(t *testing.T) {
	first := HardLimits()
	second := HardLimits()

	// Limits is a comparable value type; every call returns an identical
	// table.
	assert.Equal(t, first, second)

	// Mutating a returned copy cannot leak back into enforcement.
	mutated := first
	mutated.MaxDailyLossPct = 1.0
	mutated.MaxTradesPerDay = 1 << 20
	assert.Equal(t, second, HardLimits())
	assert.NotEqual(t, mutated, HardLimits())
}

func TestEnforcersShareOneLimitTable(t *testing.T) {
	a := NewEnforcer()
	b := NewEnforcer()
	assert.Equal(t, a.Limits(), b.Limits())
	assert.Equal(t, HardLimits(), a.Limits())
}
