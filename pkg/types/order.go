package types

import "math"

// Side identifies the direction of a position or order intent.
type Side string

const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

// Sign returns +1 for long exposure and -1 for short exposure.
func (s Side) Sign() float64 {
	if s == SideShort {
		return -1
	}
	return 1
}

// Valid reports whether the side is one of the two known values.
func (s Side) Valid() bool {
	return s == SideLong || s == SideShort
}

// OrderIntent is a proposed order submitted for risk validation.
// It carries the account figures the execution collaborator saw at the
// time of the proposal so validation works against a consistent view.
type OrderIntent struct {
	Symbol     string  `json:"symbol"`
	Side       Side    `json:"side"`
	Quantity   float64 `json:"quantity"`
	EntryPrice float64 `json:"entry_price"`
	StopPrice  float64 `json:"stop_price"`
	TakeProfit float64 `json:"take_profit,omitempty"` // 0 means no target
	Equity     float64 `json:"equity"`
	Cash       float64 `json:"cash"`
}

// Notional returns the projected position value at entry.
func (o OrderIntent) Notional() float64 {
	return o.Quantity * o.EntryPrice
}

// RiskAtStop returns the loss in account currency if the stop is hit.
// Zero when no stop is set.
func (o OrderIntent) RiskAtStop() float64 {
	if o.StopPrice == 0 {
		return 0
	}
	return math.Abs(o.EntryPrice-o.StopPrice) * o.Quantity
}

// HasStop reports whether a stop price is attached to the intent.
func (o OrderIntent) HasStop() bool {
	return o.StopPrice > 0
}
