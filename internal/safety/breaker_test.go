package safety

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradesentry/tradesentry/internal/events"
	"github.com/tradesentry/tradesentry/internal/portfolio"
)

// fakeClock lets tests advance breaker time deterministically.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(cfg Config, bus *events.Bus) (*Breaker, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC)}
	b := NewBreaker(cfg, bus)
	b.now = clock.now
	return b, clock
}

func TestBreakerStartsArmed(t *testing.T) {
	b, _ := newTestBreaker(DefaultConfig(), nil)
	assert.True(t, b.Allows())
	assert.Equal(t, StateArmed, b.State())
	assert.Empty(t, b.History())
}

func TestTripOnDailyDrawdown(t *testing.T) {
	b, _ := newTestBreaker(DefaultConfig(), nil)

	b.Observe(portfolio.Snapshot{Equity: 10000, DailyPnL: -499}, nil)
	assert.True(t, b.Allows())

	b.Observe(portfolio.Snapshot{Equity: 10000, DailyPnL: -500}, nil)
	require.False(t, b.Allows())

	hist := b.History()
	require.Len(t, hist, 1)
	assert.Equal(t, TriggerDailyDrawdown, hist[0].Trigger)
	assert.InDelta(t, 0.05, hist[0].Metric, 1e-9)
}

func TestTripOnConsecutiveLosses(t *testing.T) {
	b, _ := newTestBreaker(DefaultConfig(), nil)

	b.Observe(portfolio.Snapshot{Equity: 10000, ConsecutiveLosses: 4}, nil)
	assert.True(t, b.Allows())

	b.Observe(portfolio.Snapshot{Equity: 10000, ConsecutiveLosses: 5}, nil)
	require.False(t, b.Allows())
	assert.Equal(t, TriggerConsecutiveLosses, b.History()[0].Trigger)
}

func TestTripOnTotalDrawdownFromPeak(t *testing.T) {
	b, _ := newTestBreaker(DefaultConfig(), nil)

	b.Observe(portfolio.Snapshot{Equity: 12000}, nil) // sets the peak
	b.Observe(portfolio.Snapshot{Equity: 10500}, nil) // 12.5% off peak
	assert.True(t, b.Allows())

	b.Observe(portfolio.Snapshot{Equity: 10200}, nil) // 15% off peak
	require.False(t, b.Allows())
	ev := b.History()[0]
	assert.Equal(t, TriggerTotalDrawdown, ev.Trigger)
	assert.InDelta(t, 0.15, ev.Metric, 1e-9)
}

func TestTripOnRapidLossWindow(t *testing.T) {
	b, clock := newTestBreaker(DefaultConfig(), nil)

	loss := func(amount float64) *portfolio.ClosedTrade {
		return &portfolio.ClosedTrade{RealizedPnL: -amount}
	}

	// Two 1.5% losses 10 minutes apart stay under the 4% window cap.
	b.Observe(portfolio.Snapshot{Equity: 10000, DailyPnL: -150}, loss(150))
	clock.advance(10 * time.Minute)
	b.Observe(portfolio.Snapshot{Equity: 10000, DailyPnL: -300}, loss(150))
	require.True(t, b.Allows())

	// A third inside the window pushes the sum to 4.5%.
	clock.advance(10 * time.Minute)
	b.Observe(portfolio.Snapshot{Equity: 10000, DailyPnL: -450}, loss(150))
	require.False(t, b.Allows())
	assert.Equal(t, TriggerRapidLoss, b.History()[0].Trigger)
}

func TestRapidLossWindowPrunesOldLosses(t *testing.T) {
	b, clock := newTestBreaker(DefaultConfig(), nil)

	b.Observe(portfolio.Snapshot{Equity: 10000}, &portfolio.ClosedTrade{RealizedPnL: -300})

	// 40 minutes later the first loss has aged out of the 30m window, so
	// another 3% loss does not trip.
	clock.advance(40 * time.Minute)
	b.Observe(portfolio.Snapshot{Equity: 10000}, &portfolio.ClosedTrade{RealizedPnL: -300})
	assert.True(t, b.Allows())
}

func TestManualTripAndCooldownReset(t *testing.T) {
	bus := events.NewBus()
	defer bus.Close()
	tripped := bus.Subscribe(events.TopicBreakerTripped)
	reset := bus.Subscribe(events.TopicBreakerReset)

	b, clock := newTestBreaker(DefaultConfig(), bus)
	b.Trip("suspected feed outage")
	require.False(t, b.Allows())

	ev := <-tripped
	payload, ok := ev.Payload.(TripEvent)
	require.True(t, ok)
	assert.Equal(t, TriggerManual, payload.Trigger)
	assert.Equal(t, "suspected feed outage", payload.Reason)

	// Reset before the cooldown expires fails and leaves it tripped.
	clock.advance(time.Hour)
	err := b.Reset()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cooldown")
	assert.False(t, b.Allows())

	clock.advance(3*time.Hour + time.Second)
	require.NoError(t, b.Reset())
	assert.True(t, b.Allows())
	<-reset

	// History survives the reset.
	assert.Len(t, b.History(), 1)
}

func TestResetWhileArmedIsNoOp(t *testing.T) {
	b, _ := newTestBreaker(DefaultConfig(), nil)
	assert.NoError(t, b.Reset())
}

func TestTrippedBreakerRecordsNoFurtherTrips(t *testing.T) {
	b, _ := newTestBreaker(DefaultConfig(), nil)

	b.Observe(portfolio.Snapshot{Equity: 10000, DailyPnL: -600}, nil)
	b.Observe(portfolio.Snapshot{Equity: 10000, DailyPnL: -900, ConsecutiveLosses: 7}, nil)

	assert.Len(t, b.History(), 1)
}

func TestZeroThresholdDisablesTrigger(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DailyDrawdownPct = 0
	b, _ := newTestBreaker(cfg, nil)

	b.Observe(portfolio.Snapshot{Equity: 10000, DailyPnL: -2000}, nil)
	assert.True(t, b.Allows())
}
