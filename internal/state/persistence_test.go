package state

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradesentry/tradesentry/internal/portfolio"
	"github.com/tradesentry/tradesentry/internal/safety"
)

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	p := NewPersistence(dir, "main")

	snap := portfolio.Snapshot{
		Equity:            10500,
		Cash:              8200,
		DailyPnL:          -120,
		ConsecutiveLosses: 2,
		OpenPositions: []portfolio.Position{
			{ID: "p1", Symbol: "BTCUSDT", Quantity: 0.5, EntryPrice: 40000, StopPrice: 39000},
		},
	}
	trip := safety.TripEvent{
		Timestamp: time.Date(2025, 6, 2, 11, 0, 0, 0, time.UTC),
		Trigger:   safety.TriggerManual,
		Reason:    "drill",
	}

	require.NoError(t, p.Save(SystemState{
		Account:        "main",
		Portfolio:      snap,
		TripHistory:    []safety.TripEvent{trip},
		BreakerTripped: true,
	}))

	loaded, err := p.Load()
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, snap.Equity, loaded.Portfolio.Equity)
	assert.Equal(t, snap.OpenPositions, loaded.Portfolio.OpenPositions)
	assert.Equal(t, snap.ConsecutiveLosses, loaded.Portfolio.ConsecutiveLosses)
	assert.True(t, loaded.BreakerTripped)
	require.Len(t, loaded.TripHistory, 1)
	assert.Equal(t, safety.TriggerManual, loaded.TripHistory[0].Trigger)
	assert.False(t, loaded.LastUpdated.IsZero())
}

func TestLoadMissingFileStartsClean(t *testing.T) {
	p := NewPersistence(t.TempDir(), "main")
	loaded, err := p.Load()
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestLoadRejectsCorruptFile(t *testing.T) {
	dir := t.TempDir()
	p := NewPersistence(dir, "main")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main_state.json"), []byte("{nope"), 0o644))

	_, err := p.Load()
	require.Error(t, err)
}

func TestSaveKeepsBackupOfPreviousState(t *testing.T) {
	dir := t.TempDir()
	p := NewPersistence(dir, "main")

	require.NoError(t, p.Save(SystemState{Portfolio: portfolio.Snapshot{Equity: 100}}))
	require.NoError(t, p.Save(SystemState{Portfolio: portfolio.Snapshot{Equity: 200}}))

	backup, err := os.ReadFile(filepath.Join(dir, "main_state_backup.json"))
	require.NoError(t, err)
	assert.Contains(t, string(backup), "100")

	loaded, err := p.Load()
	require.NoError(t, err)
	assert.Equal(t, 200.0, loaded.Portfolio.Equity)
}
