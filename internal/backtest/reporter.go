package backtest

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Reporter renders backtest results as a human-readable summary and a
// machine-readable JSON report.
type Reporter struct {
	results    *Results
	outputPath string
}

// NewReporter creates a reporter. outputPath may be empty when only
// WriteSummary is used.
func NewReporter(results *Results, outputPath string) *Reporter {
	return &Reporter{results: results, outputPath: outputPath}
}

// GenerateReport writes both report formats into the output directory.
func (r *Reporter) GenerateReport() error {
	if err := os.MkdirAll(r.outputPath, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	summaryPath := filepath.Join(r.outputPath, "backtest_summary.txt")
	file, err := os.Create(summaryPath)
	if err != nil {
		return fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()
	if err := r.WriteSummary(file); err != nil {
		return err
	}

	return r.writeJSON()
}

// WriteSummary renders the human-readable summary.
func (r *Reporter) WriteSummary(w io.Writer) error {
	res := r.results

	fmt.Fprintf(w, "BACKTEST RESULTS SUMMARY\n")
	fmt.Fprintf(w, "========================\n\n")

	fmt.Fprintf(w, "Period: %s to %s\n",
		res.StartDate.Format("2006-01-02"), res.EndDate.Format("2006-01-02"))
	fmt.Fprintf(w, "Model: %s\n\n", res.ModelVersion)

	fmt.Fprintf(w, "OUTCOME ACCURACY\n")
	fmt.Fprintf(w, "----------------\n")
	fmt.Fprintf(w, "Games: %d (predicted %d, skipped %d)\n", res.TotalGames, res.Predicted, res.Skipped)
	fmt.Fprintf(w, "Correct: %d (%.1f%%)\n", res.Correct, res.Accuracy*100)
	fmt.Fprintf(w, "Brier Score: %.4f\n", res.BrierScore)
	fmt.Fprintf(w, "Mean Abs Margin Error: %.2f points\n\n", res.MeanAbsMarginErr)

	fmt.Fprintf(w, "CALIBRATION\n")
	fmt.Fprintf(w, "-----------\n")
	for _, b := range res.Buckets {
		high := b.High
		if high > 1.0 {
			high = 1.0
		}
		fmt.Fprintf(w, "%.0f-%.0f%%: %4d games, hit rate %.1f%%\n",
			b.Low*100, high*100, b.Count, b.HitRate()*100)
	}
	return nil
}

func (r *Reporter) writeJSON() error {
	jsonPath := filepath.Join(r.outputPath, "backtest_results.json")
	data, err := json.MarshalIndent(r.results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	return os.WriteFile(jsonPath, data, 0o644)
}
