package pipeline

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// reportTimeLayout formats timestamps in the CSV run report.
const reportTimeLayout = "2006-01-02 15:04:05"

// writeRunReport writes a per-run CSV report next to the ledger: one row
// per processed and failed record. Returns the report path.
func writeRunReport(targetDir string, result *RunResult) (string, error) {
	dir := filepath.Join(targetDir, LedgerDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("pipeline: creating report directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("report_%s.csv", time.Now().Format("20060102_150405")))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("pipeline: creating report: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)

	header := []string{"source_path", "target_path", "new_name", "operation", "size_bytes", "completed_at", "status"}
	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("pipeline: writing report header: %w", err)
	}

	for i := range result.Processed {
		rec := &result.Processed[i]
		row := []string{
			rec.FullPath, rec.TargetPath, rec.NewName, string(rec.Operation),
			strconv.FormatInt(rec.SizeBytes, 10),
			rec.CompletedAt.Format(reportTimeLayout),
			"ok",
		}

		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("pipeline: writing report row: %w", err)
		}
	}

	for i := range result.Failed {
		fail := &result.Failed[i]
		row := []string{
			fail.Record.FullPath, "", fail.Record.NewName, string(fail.Record.Operation),
			strconv.FormatInt(fail.Record.SizeBytes, 10),
			fail.Timestamp.Format(reportTimeLayout),
			"failed: " + fail.Err,
		}

		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("pipeline: writing report row: %w", err)
		}
	}

	w.Flush()

	if err := w.Error(); err != nil {
		return "", fmt.Errorf("pipeline: flushing report: %w", err)
	}

	return path, nil
}
