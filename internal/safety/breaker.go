// Package safety holds the circuit breaker that sits above both
// validation layers. While the breaker is tripped every order is refused
// before a single guardrail or policy check runs.
package safety

import (
	"fmt"
	"sync"
	"time"

	coreerrors "github.com/tradesentry/tradesentry/internal/errors"
	"github.com/tradesentry/tradesentry/internal/events"
	"github.com/tradesentry/tradesentry/internal/portfolio"
)

const componentName = "safety"

// State is the breaker position.
type State int

const (
	// StateArmed permits order flow and watches for trigger conditions.
	StateArmed State = iota
	// StateTripped refuses all order flow until a manual reset.
	StateTripped
)

func (s State) String() string {
	switch s {
	case StateArmed:
		return "ARMED"
	case StateTripped:
		return "TRIPPED"
	default:
		return fmt.Sprintf("STATE(%d)", int(s))
	}
}

// TriggerKind names the condition that tripped the breaker.
type TriggerKind string

const (
	TriggerDailyDrawdown     TriggerKind = "daily_drawdown"
	TriggerTotalDrawdown     TriggerKind = "total_drawdown"
	TriggerConsecutiveLosses TriggerKind = "consecutive_losses"
	TriggerRapidLoss         TriggerKind = "rapid_loss"
	TriggerManual            TriggerKind = "manual"
)

// TripEvent records one trip for the audit history and for event bus
// consumers.
type TripEvent struct {
	Timestamp      time.Time   `json:"timestamp"`
	Trigger        TriggerKind `json:"trigger"`
	Metric         float64     `json:"metric"`
	Threshold      float64     `json:"threshold"`
	Reason         string      `json:"reason"`
	CooldownExpiry time.Time   `json:"cooldown_expiry"`
}

// Config holds the trip thresholds. Zero-valued thresholds disable their
// trigger; the manual trip always works.
type Config struct {
	DailyDrawdownPct     float64
	TotalDrawdownPct     float64
	MaxConsecutiveLosses int
	RapidLossPct         float64
	RapidLossWindow      time.Duration
	Cooldown             time.Duration
}

// DefaultConfig returns the thresholds used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		DailyDrawdownPct:     0.05,
		TotalDrawdownPct:     0.15,
		MaxConsecutiveLosses: 5,
		RapidLossPct:         0.04,
		RapidLossWindow:      30 * time.Minute,
		Cooldown:             4 * time.Hour,
	}
}

type timedLoss struct {
	at     time.Time
	amount float64
}

// Breaker is the two-state trip mechanism. All methods are safe for
// concurrent use; Allows takes only a read lock so the top-of-pipeline
// gate stays cheap.
type Breaker struct {
	mu      sync.RWMutex
	cfg     Config
	state   State
	history []TripEvent

	// peakEquity is the high-water mark for the total drawdown trigger,
	// seeded by the first Observe call.
	peakEquity float64

	// recentLosses is the rolling window for the rapid loss trigger,
	// pruned on every Observe.
	recentLosses []timedLoss

	bus *events.Bus
	now func() time.Time
}

// NewBreaker creates an armed breaker. bus may be nil when nothing
// listens for trip notifications.
func NewBreaker(cfg Config, bus *events.Bus) *Breaker {
	return &Breaker{
		cfg:   cfg,
		state: StateArmed,
		bus:   bus,
		now:   time.Now,
	}
}

// Allows reports whether order flow may proceed.
func (b *Breaker) Allows() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state == StateArmed
}

// State returns the current breaker position.
func (b *Breaker) State() State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

// Observe evaluates the trigger conditions after a trade settles. trade
// may be nil when only the portfolio moved, e.g. after a daily reset.
// Triggers fire in a fixed order and the first one wins; a tripped
// breaker records no further trips until reset.
func (b *Breaker) Observe(snap portfolio.Snapshot, trade *portfolio.ClosedTrade) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	if snap.Equity > b.peakEquity {
		b.peakEquity = snap.Equity
	}

	if trade != nil && trade.RealizedPnL < 0 {
		b.recentLosses = append(b.recentLosses, timedLoss{at: now, amount: -trade.RealizedPnL})
	}
	b.pruneLosses(now)

	if b.state == StateTripped {
		return
	}
	if snap.Equity <= 0 {
		return
	}

	if b.cfg.DailyDrawdownPct > 0 {
		if frac := max(0, -snap.DailyPnL) / snap.Equity; frac >= b.cfg.DailyDrawdownPct {
			b.tripLocked(now, TripEvent{
				Trigger:   TriggerDailyDrawdown,
				Metric:    frac,
				Threshold: b.cfg.DailyDrawdownPct,
				Reason:    fmt.Sprintf("daily loss %.2f%% of equity", frac*100),
			})
			return
		}
	}

	if b.cfg.TotalDrawdownPct > 0 && b.peakEquity > 0 {
		if frac := (b.peakEquity - snap.Equity) / b.peakEquity; frac >= b.cfg.TotalDrawdownPct {
			b.tripLocked(now, TripEvent{
				Trigger:   TriggerTotalDrawdown,
				Metric:    frac,
				Threshold: b.cfg.TotalDrawdownPct,
				Reason:    fmt.Sprintf("drawdown %.2f%% from equity peak %.2f", frac*100, b.peakEquity),
			})
			return
		}
	}

	if b.cfg.MaxConsecutiveLosses > 0 && snap.ConsecutiveLosses >= b.cfg.MaxConsecutiveLosses {
		b.tripLocked(now, TripEvent{
			Trigger:   TriggerConsecutiveLosses,
			Metric:    float64(snap.ConsecutiveLosses),
			Threshold: float64(b.cfg.MaxConsecutiveLosses),
			Reason:    fmt.Sprintf("%d consecutive losing trades", snap.ConsecutiveLosses),
		})
		return
	}

	if b.cfg.RapidLossPct > 0 {
		var window float64
		for _, l := range b.recentLosses {
			window += l.amount
		}
		if frac := window / snap.Equity; frac >= b.cfg.RapidLossPct {
			b.tripLocked(now, TripEvent{
				Trigger:   TriggerRapidLoss,
				Metric:    frac,
				Threshold: b.cfg.RapidLossPct,
				Reason: fmt.Sprintf("lost %.2f%% of equity inside %s",
					frac*100, b.cfg.RapidLossWindow),
			})
		}
	}
}

// Trip forces the breaker open, recording the operator's reason.
func (b *Breaker) Trip(reason string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateTripped {
		return
	}
	b.tripLocked(b.now(), TripEvent{
		Trigger: TriggerManual,
		Reason:  reason,
	})
}

// Reset re-arms the breaker. It fails while the cooldown of the latest
// trip has not expired; the error message carries the remaining wait.
func (b *Breaker) Reset() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateArmed {
		return nil
	}

	last := b.history[len(b.history)-1]
	now := b.now()
	if now.Before(last.CooldownExpiry) {
		return coreerrors.Newf(coreerrors.ErrorCategoryState, componentName, "reset",
			"cooldown active for another %s", last.CooldownExpiry.Sub(now).Round(time.Second))
	}

	b.state = StateArmed
	b.recentLosses = nil
	if b.bus != nil {
		b.bus.Publish(events.Event{
			Topic:   events.TopicBreakerReset,
			At:      now,
			Payload: last,
		})
	}
	return nil
}

// History returns a copy of every trip recorded since construction.
func (b *Breaker) History() []TripEvent {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]TripEvent, len(b.history))
	copy(out, b.history)
	return out
}

func (b *Breaker) tripLocked(now time.Time, ev TripEvent) {
	ev.Timestamp = now
	ev.CooldownExpiry = now.Add(b.cfg.Cooldown)
	b.state = StateTripped
	b.history = append(b.history, ev)
	if b.bus != nil {
		b.bus.Publish(events.Event{
			Topic:   events.TopicBreakerTripped,
			At:      now,
			Payload: ev,
		})
	}
}

func (b *Breaker) pruneLosses(now time.Time) {
	if b.cfg.RapidLossWindow <= 0 {
		b.recentLosses = nil
		return
	}
	cutoff := now.Add(-b.cfg.RapidLossWindow)
	kept := b.recentLosses[:0]
	for _, l := range b.recentLosses {
		if l.at.After(cutoff) {
			kept = append(kept, l)
		}
	}
	b.recentLosses = kept
}
