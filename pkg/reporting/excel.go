package reporting

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// excelStyles holds the style IDs used by the Excel writer.
type excelStyles struct {
	header   int
	currency int
	percent  int
	winPnL   int
	lossPnL  int
}

// WriteTradesXLSX writes the closed trades, session summary and trip
// history to an Excel workbook.
func (r *DefaultFileReporter) WriteTradesXLSX(report Report, path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	fx := excelize.NewFile()
	defer fx.Close()

	const tradesSheet = "Trades"
	const summarySheet = "Summary"
	const tripsSheet = "Breaker Trips"

	fx.SetSheetName(fx.GetSheetName(0), tradesSheet)
	if _, err := fx.NewSheet(summarySheet); err != nil {
		return err
	}
	if _, err := fx.NewSheet(tripsSheet); err != nil {
		return err
	}

	styles, err := createExcelStyles(fx)
	if err != nil {
		return err
	}

	if err := writeTradesSheet(fx, tradesSheet, report, styles); err != nil {
		return err
	}
	if err := writeSummarySheet(fx, summarySheet, report, styles); err != nil {
		return err
	}
	if err := writeTripsSheet(fx, tripsSheet, report, styles); err != nil {
		return err
	}

	return fx.SaveAs(path)
}

func createExcelStyles(fx *excelize.File) (excelStyles, error) {
	var styles excelStyles
	var err error

	styles.header, err = fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold:   true,
			Size:   11,
			Color:  "FFFFFF",
			Family: "Calibri",
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"2F4F4F"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return styles, err
	}

	styles.currency, err = fx.NewStyle(&excelize.Style{
		NumFmt:    7,
		Alignment: &excelize.Alignment{Horizontal: "right"},
	})
	if err != nil {
		return styles, err
	}

	styles.percent, err = fx.NewStyle(&excelize.Style{
		NumFmt:    10,
		Alignment: &excelize.Alignment{Horizontal: "right"},
	})
	if err != nil {
		return styles, err
	}

	styles.winPnL, err = fx.NewStyle(&excelize.Style{
		NumFmt:    7,
		Font:      &excelize.Font{Color: "006100"},
		Alignment: &excelize.Alignment{Horizontal: "right"},
	})
	if err != nil {
		return styles, err
	}

	styles.lossPnL, err = fx.NewStyle(&excelize.Style{
		NumFmt:    7,
		Font:      &excelize.Font{Color: "9C0006"},
		Alignment: &excelize.Alignment{Horizontal: "right"},
	})
	return styles, err
}

func writeTradesSheet(fx *excelize.File, sheet string, report Report, styles excelStyles) error {
	headers := []string{"Trade", "Symbol", "Side", "Quantity", "Entry", "Exit", "Stop", "PnL", "Opened", "Closed"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := fx.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
		fx.SetCellStyle(sheet, cell, cell, styles.header)
	}

	for i, t := range report.Portfolio.ClosedTrades {
		row := i + 2
		values := []interface{}{
			i + 1,
			t.Symbol,
			string(t.Side),
			t.Quantity,
			t.EntryPrice,
			t.ExitPrice,
			t.StopPrice,
			t.RealizedPnL,
			t.OpenedAt.Format("2006-01-02 15:04:05"),
			t.ClosedAt.Format("2006-01-02 15:04:05"),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := fx.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}

		pnlCell, _ := excelize.CoordinatesToCellName(8, row)
		if t.RealizedPnL >= 0 {
			fx.SetCellStyle(sheet, pnlCell, pnlCell, styles.winPnL)
		} else {
			fx.SetCellStyle(sheet, pnlCell, pnlCell, styles.lossPnL)
		}
	}

	return fx.SetColWidth(sheet, "A", "J", 18)
}

func writeSummarySheet(fx *excelize.File, sheet string, report Report, styles excelStyles) error {
	s := Summarize(report.Portfolio.ClosedTrades)

	rows := []struct {
		label string
		value interface{}
		style int
	}{
		{"Account", report.Account, 0},
		{"Final Equity", report.Portfolio.Equity, styles.currency},
		{"Cash", report.Portfolio.Cash, styles.currency},
		{"Open Positions", report.Portfolio.OpenCount(), 0},
		{"Risk At Stop", report.Portfolio.TotalRiskAtStop, styles.percent},
		{"Closed Trades", s.TotalTrades, 0},
		{"Win Rate", s.WinRate, styles.percent},
		{"Total PnL", s.TotalPnL, styles.currency},
		{"Avg Win", s.AvgWin, styles.currency},
		{"Avg Loss", s.AvgLoss, styles.currency},
		{"Expectancy", s.Expectancy, styles.currency},
		{"Profit Factor", s.ProfitFactor, 0},
	}

	for i, row := range rows {
		labelCell, _ := excelize.CoordinatesToCellName(1, i+1)
		valueCell, _ := excelize.CoordinatesToCellName(2, i+1)
		if err := fx.SetCellValue(sheet, labelCell, row.label); err != nil {
			return err
		}
		if err := fx.SetCellValue(sheet, valueCell, row.value); err != nil {
			return err
		}
		fx.SetCellStyle(sheet, labelCell, labelCell, styles.header)
		if row.style != 0 {
			fx.SetCellStyle(sheet, valueCell, valueCell, row.style)
		}
	}

	return fx.SetColWidth(sheet, "A", "B", 22)
}

func writeTripsSheet(fx *excelize.File, sheet string, report Report, styles excelStyles) error {
	headers := []string{"Time", "Trigger", "Metric", "Threshold", "Reason", "Cooldown Expiry"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := fx.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
		fx.SetCellStyle(sheet, cell, cell, styles.header)
	}

	for i, trip := range report.TripHistory {
		row := i + 2
		values := []interface{}{
			trip.Timestamp.Format("2006-01-02 15:04:05"),
			string(trip.Trigger),
			trip.Metric,
			trip.Threshold,
			trip.Reason,
			trip.CooldownExpiry.Format("2006-01-02 15:04:05"),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := fx.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}

	return fx.SetColWidth(sheet, "A", "F", 22)
}
