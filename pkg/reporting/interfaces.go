// Package reporting renders closed-trade history and session risk
// summaries to the console and to report files.
package reporting

import (
	"github.com/tradesentry/tradesentry/internal/portfolio"
	"github.com/tradesentry/tradesentry/internal/quant"
	"github.com/tradesentry/tradesentry/internal/safety"
)

// Report is the material a reporter renders: the final snapshot plus the
// breaker trip history for the session.
type Report struct {
	Account     string
	Portfolio   portfolio.Snapshot
	TripHistory []safety.TripEvent
}

// ConsoleReporter defines interface for console output
type ConsoleReporter interface {
	OutputReport(report Report)
}

// FileReporter defines interface for file output
type FileReporter interface {
	WriteTradesCSV(report Report, path string) error
	WriteTradesXLSX(report Report, path string) error
	WriteReportJSON(report Report, path string) error
}

// Summary holds the derived statistics shared by every renderer.
type Summary struct {
	TotalTrades   int
	WinningTrades int
	LosingTrades  int
	WinRate       float64
	TotalPnL      float64
	AvgWin        float64
	AvgLoss       float64
	Expectancy    float64
	ProfitFactor  float64
}

// Summarize derives the session statistics from the closed trades.
func Summarize(trades []portfolio.ClosedTrade) Summary {
	var s Summary
	var grossWin, grossLoss float64
	for _, t := range trades {
		s.TotalTrades++
		s.TotalPnL += t.RealizedPnL
		if t.RealizedPnL > 0 {
			s.WinningTrades++
			grossWin += t.RealizedPnL
		} else if t.RealizedPnL < 0 {
			s.LosingTrades++
			grossLoss += -t.RealizedPnL
		}
	}
	if s.TotalTrades > 0 {
		s.WinRate = float64(s.WinningTrades) / float64(s.TotalTrades)
	}
	if s.WinningTrades > 0 {
		s.AvgWin = grossWin / float64(s.WinningTrades)
	}
	if s.LosingTrades > 0 {
		s.AvgLoss = grossLoss / float64(s.LosingTrades)
	}
	s.Expectancy = quant.Expectancy(s.WinRate, s.AvgWin, s.AvgLoss)
	if grossLoss > 0 {
		s.ProfitFactor = grossWin / grossLoss
	}
	return s
}
