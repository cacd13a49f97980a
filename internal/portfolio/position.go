package portfolio

import (
	"math"
	"time"

	"github.com/tradesentry/tradesentry/pkg/types"
)

// Position is a single open position as recorded on fill confirmation.
type Position struct {
	ID         string     `json:"id"`
	Symbol     string     `json:"symbol"`
	Side       types.Side `json:"side"`
	Quantity   float64    `json:"quantity"`
	EntryPrice float64    `json:"entry_price"`
	StopPrice  float64    `json:"stop_price"`
	OpenedAt   time.Time  `json:"opened_at"`
}

// RiskAtStop returns the loss in account currency if the stop is hit.
// Zero when the position carries no stop.
func (p Position) RiskAtStop() float64 {
	if p.StopPrice == 0 {
		return 0
	}
	return math.Abs(p.EntryPrice-p.StopPrice) * p.Quantity
}

// Notional returns the position value at entry.
func (p Position) Notional() float64 {
	return p.EntryPrice * p.Quantity
}

// ClosedTrade is the terminal record of a position (or the closed part of
// one) after an exit fill.
type ClosedTrade struct {
	Position
	ExitPrice   float64   `json:"exit_price"`
	RealizedPnL float64   `json:"realized_pnl"`
	ClosedAt    time.Time `json:"closed_at"`
}

// realizedPnL computes the signed profit for closing qty units at exit.
func realizedPnL(p Position, qty, exit float64) float64 {
	return (exit - p.EntryPrice) * qty * p.Side.Sign()
}
