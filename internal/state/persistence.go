// Package state persists the portfolio snapshot and breaker history
// across restarts. Writes go through a temp file and an atomic rename so
// a crash mid-save never corrupts the last good state.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	coreerrors "github.com/tradesentry/tradesentry/internal/errors"
	"github.com/tradesentry/tradesentry/internal/portfolio"
	"github.com/tradesentry/tradesentry/internal/safety"
)

const componentName = "state"

// SystemState is the complete recoverable state of the sentry.
type SystemState struct {
	Version     string             `json:"version"`
	Account     string             `json:"account"`
	LastUpdated time.Time          `json:"last_updated"`
	Portfolio   portfolio.Snapshot `json:"portfolio"`
	TripHistory []safety.TripEvent `json:"trip_history"`
	// BreakerTripped restores the breaker position; the cooldown expiry
	// of the last trip still applies after a restart.
	BreakerTripped bool `json:"breaker_tripped"`
}

// Persistence saves and loads SystemState under a state directory, one
// file per account label.
type Persistence struct {
	stateDir string
	account  string
}

// NewPersistence creates a persistence handle. The directory is created
// on the first save.
func NewPersistence(stateDir, account string) *Persistence {
	return &Persistence{stateDir: stateDir, account: account}
}

func (p *Persistence) stateFile() string {
	return filepath.Join(p.stateDir, fmt.Sprintf("%s_state.json", p.account))
}

// Load reads the persisted state. A missing file is not an error; it
// returns (nil, nil) so callers start clean.
func (p *Persistence) Load() (*SystemState, error) {
	data, err := os.ReadFile(p.stateFile())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, coreerrors.Wrap(err, coreerrors.ErrorCategoryStorage, componentName, "load")
	}

	var state SystemState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, coreerrors.Wrap(err, coreerrors.ErrorCategoryStorage, componentName, "load")
	}
	if state.Portfolio.Equity < 0 {
		return nil, coreerrors.Newf(coreerrors.ErrorCategoryStorage, componentName, "load",
			"persisted equity %.2f is negative", state.Portfolio.Equity)
	}
	return &state, nil
}

// Save writes the state atomically, keeping the previous file as a
// backup.
func (p *Persistence) Save(state SystemState) error {
	if err := os.MkdirAll(p.stateDir, 0755); err != nil {
		return coreerrors.Wrap(err, coreerrors.ErrorCategoryStorage, componentName, "save")
	}

	state.LastUpdated = time.Now()
	if state.Version == "" {
		state.Version = "1"
	}

	stateFile := p.stateFile()
	backupFile := filepath.Join(p.stateDir, fmt.Sprintf("%s_state_backup.json", p.account))

	if prev, err := os.ReadFile(stateFile); err == nil {
		// Best effort; a failed backup never blocks the save.
		_ = os.WriteFile(backupFile, prev, 0644)
	}

	data, err := json.MarshalIndent(&state, "", "  ")
	if err != nil {
		return coreerrors.Wrap(err, coreerrors.ErrorCategoryStorage, componentName, "save")
	}

	tempFile := stateFile + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return coreerrors.Wrap(err, coreerrors.ErrorCategoryStorage, componentName, "save")
	}
	if err := os.Rename(tempFile, stateFile); err != nil {
		return coreerrors.Wrap(err, coreerrors.ErrorCategoryStorage, componentName, "save")
	}
	return nil
}
