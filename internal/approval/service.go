// Package approval wires the validation layers into one decision
// pipeline: breaker gate first, then the immutable guardrails, then the
// configurable risk policy. Rejections are results, not errors; only
// malformed input or broken internal state comes back as an error.
package approval

import (
	"fmt"
	"math"
	"strings"
	"time"

	coreerrors "github.com/tradesentry/tradesentry/internal/errors"
	"github.com/tradesentry/tradesentry/internal/events"
	"github.com/tradesentry/tradesentry/internal/guardrail"
	"github.com/tradesentry/tradesentry/internal/logger"
	"github.com/tradesentry/tradesentry/internal/monitoring"
	"github.com/tradesentry/tradesentry/internal/portfolio"
	"github.com/tradesentry/tradesentry/internal/risk"
	"github.com/tradesentry/tradesentry/internal/safety"
	"github.com/tradesentry/tradesentry/pkg/types"
)

const componentName = "approval"

// Layer names a validation stage in results and metrics.
type Layer string

const (
	LayerBreaker   Layer = "breaker"
	LayerGuardrail Layer = "guardrail"
	LayerPolicy    Layer = "policy"
)

// Result is the full outcome of one approval pass. When the breaker is
// tripped both layer results are nil; when the guardrail layer rejects,
// the policy layer never runs and Risk is nil.
type Result struct {
	Approved     bool
	RejectedBy   Layer
	BreakerState safety.State
	Guardrail    *guardrail.CheckResult
	Risk         *risk.CheckResult
}

// Reason summarizes why the intent was rejected, empty when approved.
func (r Result) Reason() string {
	switch r.RejectedBy {
	case LayerBreaker:
		return "circuit breaker is tripped"
	case LayerGuardrail:
		if r.Guardrail != nil && len(r.Guardrail.Violations) > 0 {
			return r.Guardrail.Violations[0].Message
		}
	case LayerPolicy:
		if r.Risk != nil && len(r.Risk.Failures) > 0 {
			msgs := make([]string, len(r.Risk.Failures))
			for i, f := range r.Risk.Failures {
				msgs[i] = f.Message
			}
			return strings.Join(msgs, "; ")
		}
	}
	return ""
}

// Service owns the validation pipeline and the portfolio lifecycle
// around it. Construct one per account with NewService.
type Service struct {
	enforcer *guardrail.Enforcer
	riskMgr  *risk.Manager
	breaker  *safety.Breaker
	tracker  *portfolio.Tracker
	log      *logger.Logger
	bus      *events.Bus
}

// NewService assembles the pipeline. log and bus may be nil.
func NewService(
	enforcer *guardrail.Enforcer,
	riskMgr *risk.Manager,
	breaker *safety.Breaker,
	tracker *portfolio.Tracker,
	log *logger.Logger,
	bus *events.Bus,
) *Service {
	return &Service{
		enforcer: enforcer,
		riskMgr:  riskMgr,
		breaker:  breaker,
		tracker:  tracker,
		log:      log,
		bus:      bus,
	}
}

// ValidateOrder runs the full approval pass. The order of layers is
// fixed: breaker, guardrails, policy. The tracker is read once so both
// layers judge the same snapshot.
func (s *Service) ValidateOrder(intent types.OrderIntent) (Result, error) {
	started := time.Now()
	if err := validateIntent(intent); err != nil {
		monitoring.RecordError(string(coreerrors.ErrorCategoryInput))
		return Result{}, err
	}

	if !s.breaker.Allows() {
		res := Result{
			Approved:     false,
			RejectedBy:   LayerBreaker,
			BreakerState: safety.StateTripped,
		}
		s.recordRejection(intent, res)
		monitoring.ObserveValidation(time.Since(started).Seconds())
		return res, nil
	}

	snap := s.tracker.Snapshot()

	hard := s.enforcer.Check(intent, snap)
	if !hard.Allowed {
		res := Result{
			RejectedBy:   LayerGuardrail,
			BreakerState: safety.StateArmed,
			Guardrail:    &hard,
		}
		s.recordRejection(intent, res)
		monitoring.ObserveValidation(time.Since(started).Seconds())
		return res, nil
	}

	soft := s.riskMgr.Validate(intent, snap)
	res := Result{
		Approved:     soft.Allowed,
		BreakerState: safety.StateArmed,
		Guardrail:    &hard,
		Risk:         &soft,
	}
	if !soft.Allowed {
		res.RejectedBy = LayerPolicy
		s.recordRejection(intent, res)
	} else {
		monitoring.RecordApproval(intent.Symbol, string(intent.Side))
		if s.log != nil {
			// Snapshot risk is already a fraction of equity; only the
			// candidate's dollar risk needs normalizing.
			aggRisk := snap.TotalRiskAtStop + intent.RiskAtStop()/s.equityFor(intent, snap)
			s.log.LogApproval(intent.Symbol, string(intent.Side),
				intent.Quantity, intent.EntryPrice, intent.StopPrice, aggRisk)
		}
		if s.bus != nil {
			s.bus.Publish(events.Event{Topic: events.TopicOrderApproved, Payload: intent})
		}
	}
	monitoring.ObserveValidation(time.Since(started).Seconds())
	return res, nil
}

func (s *Service) equityFor(intent types.OrderIntent, snap portfolio.Snapshot) float64 {
	if intent.Equity > 0 {
		return intent.Equity
	}
	if snap.Equity > 0 {
		return snap.Equity
	}
	return 1
}

func (s *Service) recordRejection(intent types.OrderIntent, res Result) {
	violation := ""
	switch res.RejectedBy {
	case LayerGuardrail:
		if len(res.Guardrail.Violations) > 0 {
			violation = res.Guardrail.Violations[0].Kind.String()
		}
	case LayerPolicy:
		if len(res.Risk.Failures) > 0 {
			violation = string(res.Risk.Failures[0].Check)
		}
	case LayerBreaker:
		violation = safety.StateTripped.String()
	}
	monitoring.RecordRejection(string(res.RejectedBy), violation)
	if s.log != nil {
		s.log.LogRejection(intent.Symbol, string(intent.Side), string(res.RejectedBy), res.Reason())
	}
	if s.bus != nil {
		s.bus.Publish(events.Event{Topic: events.TopicOrderRejected, Payload: res})
	}
}

// AddPosition records an approved fill in the tracker.
func (s *Service) AddPosition(p portfolio.Position) (string, error) {
	id, err := s.tracker.AddPosition(p)
	if err != nil {
		return "", err
	}
	s.refreshGauges()
	return id, nil
}

// ClosePosition settles a full close and lets the breaker observe the
// result.
func (s *Service) ClosePosition(id string, exitPrice float64) (portfolio.ClosedTrade, error) {
	trade, err := s.tracker.ClosePosition(id, exitPrice)
	if err != nil {
		return portfolio.ClosedTrade{}, err
	}
	s.settleObserved(trade)
	return trade, nil
}

// ReducePosition settles a partial close and lets the breaker observe
// the result.
func (s *Service) ReducePosition(id string, qty, exitPrice float64) (portfolio.ClosedTrade, error) {
	trade, err := s.tracker.ReducePosition(id, qty, exitPrice)
	if err != nil {
		return portfolio.ClosedTrade{}, err
	}
	s.settleObserved(trade)
	return trade, nil
}

func (s *Service) settleObserved(trade portfolio.ClosedTrade) {
	snap := s.tracker.Snapshot()
	wasArmed := s.breaker.Allows()
	s.breaker.Observe(snap, &trade)
	if s.log != nil {
		s.log.LogTradeSettled(trade.Symbol, trade.Quantity, trade.ExitPrice, trade.RealizedPnL)
		if wasArmed && !s.breaker.Allows() {
			hist := s.breaker.History()
			last := hist[len(hist)-1]
			s.log.LogTrip(string(last.Trigger), last.Reason, last.Metric, last.Threshold, last.CooldownExpiry)
		}
	}
	if wasArmed && !s.breaker.Allows() {
		hist := s.breaker.History()
		monitoring.RecordBreakerTrip(string(hist[len(hist)-1].Trigger))
	}
	s.refreshGauges()
}

// ResetDaily starts a new daily window. The external scheduler owns the
// notion of day boundaries.
func (s *Service) ResetDaily() {
	s.tracker.ResetDaily()
	s.refreshGauges()
}

// ResetWeekly starts a new weekly window.
func (s *Service) ResetWeekly() {
	s.tracker.ResetWeekly()
	s.refreshGauges()
}

// ResetHourly starts a new hourly window.
func (s *Service) ResetHourly() {
	s.tracker.ResetHourly()
}

// Trip forces the breaker open.
func (s *Service) Trip(reason string) {
	s.breaker.Trip(reason)
	monitoring.RecordBreakerTrip(string(safety.TriggerManual))
	if s.log != nil {
		hist := s.breaker.History()
		if len(hist) > 0 {
			last := hist[len(hist)-1]
			s.log.LogTrip(string(last.Trigger), last.Reason, last.Metric, last.Threshold, last.CooldownExpiry)
		}
	}
	s.refreshGauges()
}

// ResetBreaker re-arms the breaker once its cooldown has expired.
func (s *Service) ResetBreaker() error {
	if err := s.breaker.Reset(); err != nil {
		return err
	}
	if s.log != nil {
		s.log.LogBreakerReset()
	}
	s.refreshGauges()
	return nil
}

// Status reports the current portfolio snapshot, breaker state and trip
// history for display surfaces.
type Status struct {
	Portfolio    portfolio.Snapshot
	BreakerState safety.State
	TripHistory  []safety.TripEvent
	Limits       guardrail.Limits
	Policy       risk.Policy
}

// Status returns a consistent view for status displays and persistence.
func (s *Service) Status() Status {
	return Status{
		Portfolio:    s.tracker.Snapshot(),
		BreakerState: s.breaker.State(),
		TripHistory:  s.breaker.History(),
		Limits:       s.enforcer.Limits(),
		Policy:       s.riskMgr.Policy(),
	}
}

func (s *Service) refreshGauges() {
	snap := s.tracker.Snapshot()
	monitoring.UpdatePortfolio(snap.Equity, snap.TotalRiskAtStop, snap.DailyPnL, snap.OpenCount())
	monitoring.SetBreakerState(s.breaker.State() == safety.StateTripped)
}

// validateIntent rejects malformed numeric input before any layer runs.
// These are caller bugs, reported as fatal input errors rather than
// structured rejections.
func validateIntent(intent types.OrderIntent) error {
	if strings.TrimSpace(intent.Symbol) == "" {
		return coreerrors.NewInputError(componentName, "validate_order", "symbol is empty")
	}
	if !intent.Side.Valid() {
		return coreerrors.NewInputError(componentName, "validate_order",
			fmt.Sprintf("side %q is not LONG or SHORT", intent.Side))
	}
	fields := map[string]float64{
		"quantity":    intent.Quantity,
		"entry_price": intent.EntryPrice,
		"stop_price":  intent.StopPrice,
		"take_profit": intent.TakeProfit,
		"equity":      intent.Equity,
		"cash":        intent.Cash,
	}
	for name, v := range fields {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return coreerrors.NewInputError(componentName, "validate_order",
				fmt.Sprintf("%s is not a finite number", name))
		}
	}
	if intent.Quantity <= 0 {
		return coreerrors.NewInputError(componentName, "validate_order",
			fmt.Sprintf("quantity %.6f must be positive", intent.Quantity))
	}
	if intent.EntryPrice <= 0 {
		return coreerrors.NewInputError(componentName, "validate_order",
			fmt.Sprintf("entry price %.6f must be positive", intent.EntryPrice))
	}
	if intent.StopPrice < 0 || intent.TakeProfit < 0 {
		return coreerrors.NewInputError(componentName, "validate_order",
			"stop and take profit must not be negative")
	}
	return nil
}
