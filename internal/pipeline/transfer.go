package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	gosync "sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jlammi/flatmove/internal/config"
)

// defaultWorkers bounds transfer concurrency when the config carries no
// usable value.
const defaultWorkers = 8

// Transferrer executes copy or move for each retained record against a
// bounded worker pool. Per-file failures are isolated: one file's error
// never aborts the batch. The shared processed/failed partitions are the
// only worker-mutated state besides the ledger, and both are serialized
// (mutex here, sole-writer connection in the ledger).
type Transferrer struct {
	operation OperationKind
	workers   int
	hashAlgo  string
	dryRun    bool
	ledger    *Ledger // nil in dry-run mode
	logger    *slog.Logger
}

// NewTransferrer builds a Transferrer from the resolved config. ledger may
// be nil only when dry-run is set.
func NewTransferrer(cfg *config.Config, ledger *Ledger, logger *slog.Logger) *Transferrer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	workers := cfg.Perf.Workers
	if workers < 1 {
		workers = defaultWorkers
	}

	return &Transferrer{
		operation: OperationKind(cfg.General.Operation),
		workers:   workers,
		hashAlgo:  cfg.Perf.HashAlgo,
		dryRun:    cfg.General.DryRun,
		ledger:    ledger,
		logger:    logger,
	}
}

// Execute transfers all records into targetDir and returns the partitioned
// result. Execution order across files is not guaranteed; results are
// collected by completion order under a single lock. Cancelling ctx stops
// new work from starting while in-flight transfers finish or fail cleanly.
func (t *Transferrer) Execute(ctx context.Context, records []FileRecord, targetDir string) *RunResult {
	if t.dryRun {
		return t.preview(records, targetDir)
	}

	result := &RunResult{}

	var mu gosync.Mutex

	g := new(errgroup.Group)
	g.SetLimit(t.workers)

	t.logger.Info("transfer: starting",
		"operation", string(t.operation), "files", len(records), "workers", t.workers)

	for i := range records {
		rec := records[i]

		g.Go(func() error {
			// Interrupt: stop picking up new files; whatever is already
			// mid-transfer runs to its own completion or cleanup.
			if ctx.Err() != nil {
				return nil
			}

			outcome := t.transferOne(ctx, rec, targetDir)

			// The attempt already completed one way or the other, so its
			// ledger entry must land even if ctx was canceled meanwhile.
			t.recordAttempt(context.WithoutCancel(ctx), outcome)

			mu.Lock()
			if outcome.err == "" {
				result.Processed = append(result.Processed, outcome.record)
				result.TotalBytes += outcome.record.SizeBytes
			} else {
				result.Failed = append(result.Failed, TransferFailure{
					Record:    outcome.record,
					Err:       outcome.err,
					Timestamp: outcome.record.CompletedAt,
				})
			}
			mu.Unlock()

			return nil
		})
	}

	// Workers never return errors; Wait is purely a completion barrier.
	_ = g.Wait()

	result.SuccessCount = len(result.Processed)
	result.FailedCount = len(result.Failed)

	t.logger.Info("transfer: complete",
		"succeeded", result.SuccessCount, "failed", result.FailedCount,
		"bytes", result.TotalBytes)

	return result
}

// attemptOutcome is the tagged per-file result collected by Execute.
type attemptOutcome struct {
	record FileRecord
	err    string // empty on success
}

// transferOne executes a single copy or move, including integrity
// verification for moves. The source is deleted only after the target
// verifies; on mismatch the partial target is removed and the source left
// untouched.
func (t *Transferrer) transferOne(ctx context.Context, rec FileRecord, targetDir string) attemptOutcome {
	target := filepath.Join(targetDir, rec.NewName)

	rec.TargetPath = target
	rec.Operation = t.operation

	if _, err := copyFile(ctx, rec.FullPath, target); err != nil {
		rec.CompletedAt = time.Now()

		t.logger.Warn("transfer: copy failed",
			"file", rec.Filename, "target", target, "error", err)

		return attemptOutcome{record: rec, err: err.Error()}
	}

	if t.operation == OpMove {
		if err := verifyIntegrity(ctx, rec.FullPath, target, t.hashAlgo); err != nil {
			os.Remove(target)
			rec.CompletedAt = time.Now()

			t.logger.Warn("transfer: move verification failed, source kept",
				"file", rec.Filename, "error", err)

			return attemptOutcome{record: rec, err: err.Error()}
		}

		if err := os.Remove(rec.FullPath); err != nil {
			// Target is verified; a stuck source is still a failure the
			// user must know about, but the target is not rolled back.
			rec.CompletedAt = time.Now()

			t.logger.Warn("transfer: verified move could not delete source",
				"file", rec.Filename, "error", err)

			return attemptOutcome{record: rec, err: fmt.Sprintf("removing source after verified copy: %v", err)}
		}
	}

	rec.CompletedAt = time.Now()

	t.logger.Debug("transfer: done",
		"operation", string(t.operation), "file", rec.Filename, "new_name", rec.NewName)

	return attemptOutcome{record: rec, err: ""}
}

// recordAttempt appends the attempt to the ledger. A ledger write failure
// is logged, never propagated — the transfer itself already happened.
func (t *Transferrer) recordAttempt(ctx context.Context, outcome attemptOutcome) {
	if t.ledger == nil {
		return
	}

	rec := &outcome.record
	entry := &MappingEntry{
		OperationID: rec.OperationID(),
		SourcePath:  rec.FullPath,
		TargetPath:  rec.TargetPath,
		Operation:   rec.Operation,
		Timestamp:   rec.CompletedAt,
		Success:     outcome.err == "",
		Error:       outcome.err,
		SizeBytes:   rec.SizeBytes,
		NewName:     rec.NewName,
	}

	if err := t.ledger.Record(ctx, entry); err != nil {
		t.logger.Error("transfer: ledger write failed",
			"operation_id", entry.OperationID, "error", err)
	}
}

// preview returns the dry-run result shape: every record marked as a
// prospective success, no filesystem mutation, no ledger.
func (t *Transferrer) preview(records []FileRecord, targetDir string) *RunResult {
	result := &RunResult{DryRun: true}

	now := time.Now()

	for i := range records {
		rec := records[i]
		rec.TargetPath = filepath.Join(targetDir, rec.NewName)
		rec.Operation = t.operation
		rec.CompletedAt = now

		result.Processed = append(result.Processed, rec)
		result.TotalBytes += rec.SizeBytes
	}

	result.SuccessCount = len(result.Processed)

	return result
}
