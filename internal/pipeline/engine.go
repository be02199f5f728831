package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/jlammi/flatmove/internal/config"
)

// Engine runs the full pipeline: scan, name, resolve conflicts, filter
// against the previous ledger, transfer, then the best-effort post hooks.
// Construct one per run.
type Engine struct {
	cfg    *config.Config
	logger *slog.Logger
}

// NewEngine creates an Engine with the resolved configuration.
func NewEngine(cfg *config.Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Engine{cfg: cfg, logger: logger}
}

// RunOptions are per-invocation knobs that are not configuration.
type RunOptions struct {
	// DeleteSources removes source files of successful copies after the
	// run (explicit opt-in; no-op for move runs).
	DeleteSources bool
}

// Run executes the pipeline for the given source roots and target
// directory. Configuration errors (bad template placeholder, malformed
// sequence width) surface here before any scanning starts. Per-file
// transfer failures never fail the run; they are reported in the result.
func (e *Engine) Run(ctx context.Context, sources []string, targetDir string, opts RunOptions) (*RunResult, error) {
	// Naming validation first: a broken template must fail the run before
	// any filesystem work.
	namer, err := NewNamingEngine(&e.cfg.Naming)
	if err != nil {
		return nil, err
	}

	scanner := NewScanner(&e.cfg.General, e.logger)

	records, err := scanner.Scan(ctx, sources)
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		e.logger.Info("engine: nothing to do, no files found")
		return &RunResult{DryRun: e.cfg.General.DryRun}, nil
	}

	records = namer.GenerateNames(records)
	records = ResolveConflicts(records)

	if e.cfg.General.DryRun {
		transferrer := NewTransferrer(e.cfg, nil, e.logger)
		return transferrer.Execute(ctx, records, targetDir), nil
	}

	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return nil, fmt.Errorf("pipeline: creating target directory: %w", err)
	}

	retained, skipped := FilterResumed(ctx, records, targetDir, e.logger)

	runID := uuid.NewString()

	ledger, err := CreateLedger(ctx, targetDir, runID, e.logger)
	if err != nil {
		return nil, err
	}
	defer ledger.Close()

	transferrer := NewTransferrer(e.cfg, ledger, e.logger)
	result := transferrer.Execute(ctx, retained, targetDir)
	result.SkippedCount = skipped
	result.LedgerPath = ledger.Path()

	if reportPath, reportErr := writeRunReport(targetDir, result); reportErr != nil {
		e.logger.Warn("engine: run report not written", "error", reportErr)
	} else {
		result.ReportPath = reportPath
	}

	e.runHooks(result, opts)

	return result, nil
}

// runHooks invokes the best-effort post-processing steps. Their outcome
// never changes the run result.
func (e *Engine) runHooks(result *RunResult, opts RunOptions) {
	if len(result.Processed) == 0 {
		return
	}

	NewThumbnailRefresher(e.cfg.Thumbnail.Refresh, e.logger).Refresh(result.Processed)

	if opts.DeleteSources && OperationKind(e.cfg.General.Operation) == OpCopy {
		DeleteSources(result.Processed, e.logger)
	}
}
