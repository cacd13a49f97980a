package reporting

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// jsonReport is the on-disk shape of a JSON session report.
type jsonReport struct {
	Report
	Summary Summary `json:"summary"`
}

// WriteReportJSON writes the full report plus the derived summary to a
// JSON file.
func (r *DefaultFileReporter) WriteReportJSON(report Report, path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	data, err := json.MarshalIndent(jsonReport{
		Report:  report,
		Summary: Summarize(report.Portfolio.ClosedTrades),
	}, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
