package reporting

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/tradesentry/tradesentry/internal/safety"
)

// DefaultConsoleReporter implements console output functionality
type DefaultConsoleReporter struct{}

// NewDefaultConsoleReporter creates a new console reporter
func NewDefaultConsoleReporter() *DefaultConsoleReporter {
	return &DefaultConsoleReporter{}
}

// OutputReport prints the session summary, trip history and trade list
func (r *DefaultConsoleReporter) OutputReport(report Report) {
	r.printSummary(report)
	if len(report.TripHistory) > 0 {
		r.printTripHistory(report.TripHistory)
	}
	if len(report.Portfolio.ClosedTrades) > 0 {
		r.printTrades(report)
	}
}

func (r *DefaultConsoleReporter) printSummary(report Report) {
	s := Summarize(report.Portfolio.ClosedTrades)

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("SESSION SUMMARY")
	t.SetStyle(table.StyleRounded)

	t.AppendRows([]table.Row{
		{"👤 Account", report.Account},
		{"💰 Equity", fmt.Sprintf("$%.2f", report.Portfolio.Equity)},
		{"💵 Cash", fmt.Sprintf("$%.2f", report.Portfolio.Cash)},
		{"📊 Open Positions", report.Portfolio.OpenCount()},
		{"🛑 Risk At Stop", fmt.Sprintf("%.2f%%", report.Portfolio.TotalRiskAtStop*100)},
	})

	t.AppendSeparator()

	winRate := "n/a"
	if s.TotalTrades > 0 {
		winRate = fmt.Sprintf("%.1f%%", s.WinRate*100)
	}
	t.AppendRows([]table.Row{
		{"🔄 Closed Trades", s.TotalTrades},
		{"✅ Wins", s.WinningTrades},
		{"❌ Losses", s.LosingTrades},
		{"🎯 Win Rate", winRate},
		{"💹 Total PnL", fmt.Sprintf("$%.2f", s.TotalPnL)},
		{"📈 Expectancy", fmt.Sprintf("$%.2f per trade", s.Expectancy)},
		{"📊 Profit Factor", fmt.Sprintf("%.2f", s.ProfitFactor)},
	})

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 18, WidthMax: 18, Align: text.AlignLeft},
		{Number: 2, WidthMin: 25, WidthMax: 40, Align: text.AlignLeft},
	})

	t.Render()
	fmt.Println()
}

func (r *DefaultConsoleReporter) printTripHistory(trips []safety.TripEvent) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("⛔ BREAKER TRIPS")
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Time", "Trigger", "Metric", "Threshold", "Reason"})

	for _, trip := range trips {
		t.AppendRow(table.Row{
			trip.Timestamp.Format("2006-01-02 15:04:05"),
			trip.Trigger,
			fmt.Sprintf("%.4f", trip.Metric),
			fmt.Sprintf("%.4f", trip.Threshold),
			trip.Reason,
		})
	}

	t.Render()
	fmt.Println()
}

func (r *DefaultConsoleReporter) printTrades(report Report) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("CLOSED TRADES")
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"#", "Symbol", "Side", "Qty", "Entry", "Exit", "PnL", "Closed"})

	for i, trade := range report.Portfolio.ClosedTrades {
		pnl := fmt.Sprintf("$%.2f", trade.RealizedPnL)
		if trade.RealizedPnL >= 0 {
			pnl = "✅ " + pnl
		} else {
			pnl = "❌ " + pnl
		}
		t.AppendRow(table.Row{
			i + 1,
			trade.Symbol,
			trade.Side,
			fmt.Sprintf("%.4f", trade.Quantity),
			fmt.Sprintf("$%.2f", trade.EntryPrice),
			fmt.Sprintf("$%.2f", trade.ExitPrice),
			pnl,
			trade.ClosedAt.Format("2006-01-02 15:04:05"),
		})
	}

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 7, Align: text.AlignRight},
	})

	t.Render()
	fmt.Println()
}

// OutputConsole is a package-level convenience function
func OutputConsole(report Report) {
	NewDefaultConsoleReporter().OutputReport(report)
}
