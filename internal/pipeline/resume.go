package pipeline

import (
	"context"
	"log/slog"
	"os"
)

// FilterResumed drops records whose operation ID has a successful entry in
// the newest ledger snapshot and whose recorded target still exists on
// disk. Everything else — no entry, failed entry, or target deleted since —
// is retained for (re-)processing, which makes repeated invocations against
// the same source/target pair converge.
//
// A missing or unreadable previous ledger is not fatal: the run proceeds as
// if nothing had been transferred.
func FilterResumed(ctx context.Context, records []FileRecord, targetDir string, logger *slog.Logger) ([]FileRecord, int) {
	ledgerPath, err := LatestLedgerPath(targetDir)
	if err != nil || ledgerPath == "" {
		return records, 0
	}

	prev, err := OpenLedger(ctx, ledgerPath, logger)
	if err != nil {
		logger.Warn("resume: cannot open previous ledger, processing everything",
			"path", ledgerPath, "error", err)
		return records, 0
	}
	defer prev.Close()

	done, err := prev.SuccessfulByOperationID(ctx)
	if err != nil {
		logger.Warn("resume: cannot read previous ledger, processing everything",
			"path", ledgerPath, "error", err)
		return records, 0
	}

	retained := records[:0]
	skipped := 0

	for i := range records {
		entry, ok := done[records[i].OperationID()]
		if ok && targetExists(entry.TargetPath) {
			skipped++

			logger.Debug("resume: skipping already-transferred file",
				"file", records[i].Filename, "target", entry.TargetPath)

			continue
		}

		retained = append(retained, records[i])
	}

	if skipped > 0 {
		logger.Info("resume: skipped already-transferred files",
			slog.Int("skipped", skipped), slog.String("ledger", ledgerPath))
	}

	return retained, skipped
}

func targetExists(path string) bool {
	if path == "" {
		return false
	}

	_, err := os.Stat(path)

	return err == nil
}
