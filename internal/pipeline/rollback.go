package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Rollback reverses every successful entry in a ledger snapshot: moves are
// moved back to their recorded source (recreating missing parent
// directories), copies have their target deleted (the source was never
// touched). Failed entries are skipped — there is nothing to undo.
//
// Rollback is idempotent: a target that is already gone counts as
// already-rolled-back, not as an error, so running it twice changes
// nothing the second time. Individual entry failures are aggregated and
// never abort the pass.
func Rollback(ctx context.Context, ledgerPath string, logger *slog.Logger) (*RollbackResult, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	ledger, err := OpenLedger(ctx, ledgerPath, logger)
	if err != nil {
		return nil, err
	}
	defer ledger.Close()

	entries, err := ledger.Entries(ctx)
	if err != nil {
		return nil, err
	}

	result := &RollbackResult{Success: true}

	for i := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		e := &entries[i]
		if !e.Success {
			continue
		}

		if _, statErr := os.Stat(e.TargetPath); statErr != nil {
			result.SkippedCount++

			logger.Debug("rollback: target already gone",
				"operation_id", e.OperationID, "target", e.TargetPath)

			continue
		}

		if rbErr := rollbackEntry(ctx, e); rbErr != nil {
			result.FailedCount++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", e.OperationID, rbErr))

			logger.Warn("rollback: entry failed",
				"operation_id", e.OperationID, "error", rbErr)

			continue
		}

		result.SuccessCount++
	}

	logger.Info("rollback: complete",
		"reversed", result.SuccessCount,
		"failed", result.FailedCount,
		"already_rolled_back", result.SkippedCount)

	return result, nil
}

// rollbackEntry undoes one successful transfer.
func rollbackEntry(ctx context.Context, e *MappingEntry) error {
	switch e.Operation {
	case OpMove:
		if err := os.MkdirAll(filepath.Dir(e.SourcePath), 0o755); err != nil {
			return fmt.Errorf("recreating source directory: %w", err)
		}

		return moveFile(ctx, e.TargetPath, e.SourcePath)
	case OpCopy:
		if err := os.Remove(e.TargetPath); err != nil {
			return fmt.Errorf("deleting copied target: %w", err)
		}

		return nil
	default:
		return fmt.Errorf("unknown operation kind %q", e.Operation)
	}
}

// moveFile renames src to dst, falling back to copy-and-delete when the
// rename crosses filesystems.
func moveFile(ctx context.Context, src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	if _, err := copyFile(ctx, src, dst); err != nil {
		return fmt.Errorf("cross-device move: %w", err)
	}

	if err := os.Remove(src); err != nil {
		return fmt.Errorf("removing original after cross-device move: %w", err)
	}

	return nil
}
