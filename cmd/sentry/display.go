package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/tradesentry/tradesentry/internal/approval"
	"github.com/tradesentry/tradesentry/internal/safety"
)

// runStatusDisplay prints a status table at the configured interval.
func runStatusDisplay(ctx context.Context, service *approval.Service, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	printStatus(service.Status())
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			printStatus(service.Status())
		}
	}
}

func printStatus(status approval.Status) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("SENTRY STATUS")
	t.SetStyle(table.StyleRounded)

	breakerCell := "✅ ARMED"
	if status.BreakerState == safety.StateTripped {
		breakerCell = "⛔ TRIPPED"
	}

	t.AppendRows([]table.Row{
		{"🔌 Breaker", breakerCell},
		{"💰 Equity", fmt.Sprintf("$%.2f", status.Portfolio.Equity)},
		{"💵 Cash", fmt.Sprintf("$%.2f", status.Portfolio.Cash)},
		{"📊 Open Positions", status.Portfolio.OpenCount()},
		{"🛑 Risk At Stop", fmt.Sprintf("%.2f%% / %.2f%%",
			status.Portfolio.TotalRiskAtStop*100, status.Limits.MaxDailyLossPct*100)},
	})

	t.AppendSeparator()

	t.AppendRows([]table.Row{
		{"💹 Daily PnL", fmt.Sprintf("$%.2f", status.Portfolio.DailyPnL)},
		{"💹 Weekly PnL", fmt.Sprintf("$%.2f", status.Portfolio.WeeklyPnL)},
		{"🔄 Trades Today", fmt.Sprintf("%d / %d", status.Portfolio.DailyTrades, status.Limits.MaxTradesPerDay)},
		{"⏱️ Trades This Hour", fmt.Sprintf("%d / %d", status.Portfolio.HourlyTrades, status.Limits.MaxTradesPerHour)},
		{"❌ Loss Streak", fmt.Sprintf("%d / %d", status.Portfolio.ConsecutiveLosses, status.Limits.MaxConsecutiveLosses)},
	})

	if trips := len(status.TripHistory); trips > 0 {
		last := status.TripHistory[trips-1]
		t.AppendSeparator()
		t.AppendRows([]table.Row{
			{"⛔ Last Trip", fmt.Sprintf("%s (%s)", last.Trigger, last.Timestamp.Format("15:04:05"))},
		})
	}

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 20, WidthMax: 20, Align: text.AlignLeft},
		{Number: 2, WidthMin: 25, WidthMax: 40, Align: text.AlignLeft},
	})

	t.Render()
	fmt.Println()
}
