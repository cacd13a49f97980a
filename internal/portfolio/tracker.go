// Package portfolio tracks every open position, realized P&L and the
// time-windowed counters the risk layers validate against. Mutations are
// serialized through a single RWMutex so validation reads always observe
// a consistent snapshot, never a partially-applied fill.
package portfolio

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	coreerrors "github.com/tradesentry/tradesentry/internal/errors"
)

const component = "portfolio"

// Snapshot is a consistent, read-only copy of the tracker state. It is
// what validators see during an approval pass and what the persistence
// layer writes on shutdown.
type Snapshot struct {
	TakenAt           time.Time     `json:"taken_at"`
	Equity            float64       `json:"equity"`
	Cash              float64       `json:"cash"`
	OpenPositions     []Position    `json:"open_positions"`
	ClosedTrades      []ClosedTrade `json:"closed_trades"`
	DailyPnL          float64       `json:"daily_pnl"`
	WeeklyPnL         float64       `json:"weekly_pnl"`
	DailyTrades       int           `json:"daily_trades"`
	HourlyTrades      int           `json:"hourly_trades"`
	DailyLosses       int           `json:"daily_losses"`
	ConsecutiveLosses int           `json:"consecutive_losses"`

	// TotalRiskAtStop is the summed risk-at-stop of the open set as a
	// fraction of equity, recomputed at snapshot time.
	TotalRiskAtStop float64 `json:"total_risk_at_stop"`

	// TotalExposure is the summed entry notional of the open set in
	// account currency.
	TotalExposure float64 `json:"total_exposure"`
}

// OpenCount returns the number of open positions in the snapshot.
func (s Snapshot) OpenCount() int {
	return len(s.OpenPositions)
}

// Tracker is the single writer-serialized portfolio state. Construct one
// per process with NewTracker and hand it to every collaborator; tests
// build fresh instances instead of resetting shared state.
type Tracker struct {
	mu sync.RWMutex

	equity float64
	cash   float64

	open   map[string]*Position
	closed []ClosedTrade

	dailyPnL  float64
	weeklyPnL float64

	dailyTrades       int
	hourlyTrades      int
	dailyLosses       int
	consecutiveLosses int
}

// NewTracker creates a tracker with the given starting equity and cash.
func NewTracker(equity, cash float64) *Tracker {
	return &Tracker{
		equity: equity,
		cash:   cash,
		open:   make(map[string]*Position),
	}
}

// NewTrackerFromSnapshot rebuilds a tracker from a persisted snapshot,
// the restart path for the persistence collaborator.
func NewTrackerFromSnapshot(snap Snapshot) *Tracker {
	t := NewTracker(snap.Equity, snap.Cash)
	for i := range snap.OpenPositions {
		p := snap.OpenPositions[i]
		t.open[p.ID] = &p
	}
	t.closed = append(t.closed, snap.ClosedTrades...)
	t.dailyPnL = snap.DailyPnL
	t.weeklyPnL = snap.WeeklyPnL
	t.dailyTrades = snap.DailyTrades
	t.hourlyTrades = snap.HourlyTrades
	t.dailyLosses = snap.DailyLosses
	t.consecutiveLosses = snap.ConsecutiveLosses
	return t
}

func validatePosition(p Position) error {
	if p.Quantity <= 0 || math.IsNaN(p.Quantity) || math.IsInf(p.Quantity, 0) {
		return coreerrors.Newf(coreerrors.ErrorCategoryInput, component, "AddPosition",
			"quantity must be positive and finite, got %v", p.Quantity)
	}
	if p.EntryPrice <= 0 || math.IsNaN(p.EntryPrice) || math.IsInf(p.EntryPrice, 0) {
		return coreerrors.Newf(coreerrors.ErrorCategoryInput, component, "AddPosition",
			"entry price must be positive and finite, got %v", p.EntryPrice)
	}
	if p.StopPrice < 0 || math.IsNaN(p.StopPrice) || math.IsInf(p.StopPrice, 0) {
		return coreerrors.Newf(coreerrors.ErrorCategoryInput, component, "AddPosition",
			"stop price must be non-negative and finite, got %v", p.StopPrice)
	}
	if !p.Side.Valid() {
		return coreerrors.Newf(coreerrors.ErrorCategoryInput, component, "AddPosition",
			"unknown side %q", p.Side)
	}
	if p.Symbol == "" {
		return coreerrors.New(coreerrors.ErrorCategoryInput, component, "AddPosition",
			"symbol must not be empty")
	}
	return nil
}

// AddPosition records a confirmed fill. Malformed input is a fatal error,
// not a risk rejection: by the time a fill arrives the order has already
// been approved. Returns the assigned position id.
func (t *Tracker) AddPosition(p Position) (string, error) {
	if err := validatePosition(p); err != nil {
		return "", err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if _, exists := t.open[p.ID]; exists {
		return "", coreerrors.Newf(coreerrors.ErrorCategoryState, component, "AddPosition",
			"position %s already open", p.ID)
	}
	if p.OpenedAt.IsZero() {
		p.OpenedAt = time.Now()
	}

	t.open[p.ID] = &p
	t.cash -= p.Notional()
	t.dailyTrades++
	t.hourlyTrades++

	return p.ID, nil
}

// ClosePosition realizes the P&L of a full close, removes the position
// from the open set and updates the daily/weekly counters.
func (t *Tracker) ClosePosition(id string, exitPrice float64) (ClosedTrade, error) {
	if exitPrice <= 0 || math.IsNaN(exitPrice) || math.IsInf(exitPrice, 0) {
		return ClosedTrade{}, coreerrors.Newf(coreerrors.ErrorCategoryInput, component, "ClosePosition",
			"exit price must be positive and finite, got %v", exitPrice)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.open[id]
	if !ok {
		return ClosedTrade{}, coreerrors.Newf(coreerrors.ErrorCategoryState, component, "ClosePosition",
			"no open position with id %s", id)
	}

	trade := t.settle(*p, p.Quantity, exitPrice)
	delete(t.open, id)
	return trade, nil
}

// ReducePosition realizes the P&L of a partial close. Closing the full
// remaining quantity behaves exactly like ClosePosition.
func (t *Tracker) ReducePosition(id string, qty, exitPrice float64) (ClosedTrade, error) {
	if qty <= 0 || math.IsNaN(qty) || math.IsInf(qty, 0) {
		return ClosedTrade{}, coreerrors.Newf(coreerrors.ErrorCategoryInput, component, "ReducePosition",
			"close quantity must be positive and finite, got %v", qty)
	}
	if exitPrice <= 0 || math.IsNaN(exitPrice) || math.IsInf(exitPrice, 0) {
		return ClosedTrade{}, coreerrors.Newf(coreerrors.ErrorCategoryInput, component, "ReducePosition",
			"exit price must be positive and finite, got %v", exitPrice)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.open[id]
	if !ok {
		return ClosedTrade{}, coreerrors.Newf(coreerrors.ErrorCategoryState, component, "ReducePosition",
			"no open position with id %s", id)
	}
	if qty > p.Quantity {
		return ClosedTrade{}, coreerrors.Newf(coreerrors.ErrorCategoryInput, component, "ReducePosition",
			"close quantity %v exceeds open quantity %v", qty, p.Quantity)
	}

	trade := t.settle(*p, qty, exitPrice)
	if qty == p.Quantity {
		delete(t.open, id)
	} else {
		p.Quantity -= qty
	}
	return trade, nil
}

// settle books the realized P&L for closing qty units of p. Caller holds
// the write lock.
func (t *Tracker) settle(p Position, qty, exitPrice float64) ClosedTrade {
	pnl := realizedPnL(p, qty, exitPrice)

	t.equity += pnl
	t.cash += qty*p.EntryPrice + pnl
	t.dailyPnL += pnl
	t.weeklyPnL += pnl

	switch {
	case pnl < 0:
		t.dailyLosses++
		t.consecutiveLosses++
	case pnl > 0:
		t.consecutiveLosses = 0
	}

	closedPart := p
	closedPart.Quantity = qty
	trade := ClosedTrade{
		Position:    closedPart,
		ExitPrice:   exitPrice,
		RealizedPnL: pnl,
		ClosedAt:    time.Now(),
	}
	t.closed = append(t.closed, trade)
	return trade
}

// TotalRiskAtStop returns the summed risk-at-stop of the open set as a
// fraction of equity. It is recomputed from the open positions on every
// call; there is no cached copy to go stale.
func (t *Tracker) TotalRiskAtStop() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.totalRiskAtStopLocked()
}

func (t *Tracker) totalRiskAtStopLocked() float64 {
	if t.equity <= 0 {
		return 0
	}
	var total float64
	for _, p := range t.open {
		total += p.RiskAtStop()
	}
	return total / t.equity
}

// TotalExposure returns the summed entry notional of the open set.
func (t *Tracker) TotalExposure() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.totalExposureLocked()
}

func (t *Tracker) totalExposureLocked() float64 {
	var total float64
	for _, p := range t.open {
		total += p.Notional()
	}
	return total
}

// ResetDaily zeroes the daily counters. Idempotent: the scheduler owns
// window-boundary detection and a second call within the same day is a
// no-op by construction. Open positions and risk-at-stop are untouched.
func (t *Tracker) ResetDaily() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dailyPnL = 0
	t.dailyTrades = 0
	t.dailyLosses = 0
}

// ResetWeekly zeroes the weekly P&L counter.
func (t *Tracker) ResetWeekly() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.weeklyPnL = 0
}

// ResetHourly zeroes the hourly trade counter.
func (t *Tracker) ResetHourly() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.hourlyTrades = 0
}

// Equity returns the current account equity.
func (t *Tracker) Equity() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.equity
}

// OpenCount returns the number of open positions.
func (t *Tracker) OpenCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.open)
}

// Snapshot returns a consistent value copy of the full state. Positions
// are sorted by open time so the snapshot is stable for display and
// persistence.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	positions := make([]Position, 0, len(t.open))
	for _, p := range t.open {
		positions = append(positions, *p)
	}
	sort.Slice(positions, func(i, j int) bool {
		if positions[i].OpenedAt.Equal(positions[j].OpenedAt) {
			return positions[i].ID < positions[j].ID
		}
		return positions[i].OpenedAt.Before(positions[j].OpenedAt)
	})

	closed := make([]ClosedTrade, len(t.closed))
	copy(closed, t.closed)

	return Snapshot{
		TakenAt:           time.Now(),
		Equity:            t.equity,
		Cash:              t.cash,
		OpenPositions:     positions,
		ClosedTrades:      closed,
		DailyPnL:          t.dailyPnL,
		WeeklyPnL:         t.weeklyPnL,
		DailyTrades:       t.dailyTrades,
		HourlyTrades:      t.hourlyTrades,
		DailyLosses:       t.dailyLosses,
		ConsecutiveLosses: t.consecutiveLosses,
		TotalRiskAtStop:   t.totalRiskAtStopLocked(),
		TotalExposure:     t.totalExposureLocked(),
	}
}
