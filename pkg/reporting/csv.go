package reporting

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultFileReporter implements CSV, Excel and JSON output.
type DefaultFileReporter struct{}

// NewDefaultFileReporter creates a new file reporter
func NewDefaultFileReporter() *DefaultFileReporter {
	return &DefaultFileReporter{}
}

// WriteTradesCSV writes the closed trades and a summary block to a CSV
// file. An .xlsx path is delegated to the Excel writer.
func (r *DefaultFileReporter) WriteTradesCSV(report Report, path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	if strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		return r.WriteTradesXLSX(report, path)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{
		"Trade",
		"Symbol",
		"Side",
		"Quantity",
		"Entry_Price",
		"Exit_Price",
		"Stop_Price",
		"PnL_$",
		"Win_Loss",
		"Opened",
		"Closed",
	}); err != nil {
		return err
	}

	var totalPnL float64
	for i, t := range report.Portfolio.ClosedTrades {
		totalPnL += t.RealizedPnL
		winLoss := "LOSS"
		if t.RealizedPnL > 0 {
			winLoss = "WIN"
		} else if t.RealizedPnL == 0 {
			winLoss = "FLAT"
		}
		row := []string{
			fmt.Sprintf("%d", i+1),
			t.Symbol,
			string(t.Side),
			fmt.Sprintf("%.6f", t.Quantity),
			fmt.Sprintf("%.4f", t.EntryPrice),
			fmt.Sprintf("%.4f", t.ExitPrice),
			fmt.Sprintf("%.4f", t.StopPrice),
			fmt.Sprintf("%.2f", t.RealizedPnL),
			winLoss,
			t.OpenedAt.Format("2006-01-02 15:04:05"),
			t.ClosedAt.Format("2006-01-02 15:04:05"),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	s := Summarize(report.Portfolio.ClosedTrades)
	summary := [][]string{
		{},
		{"SUMMARY"},
		{"Total Trades", fmt.Sprintf("%d", s.TotalTrades)},
		{"Win Rate", fmt.Sprintf("%.2f%%", s.WinRate*100)},
		{"Total PnL", fmt.Sprintf("%.2f", totalPnL)},
		{"Expectancy", fmt.Sprintf("%.2f", s.Expectancy)},
		{"Profit Factor", fmt.Sprintf("%.2f", s.ProfitFactor)},
		{"Final Equity", fmt.Sprintf("%.2f", report.Portfolio.Equity)},
	}
	for _, row := range summary {
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return nil
}
