package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jlammi/flatmove/internal/config"
	"github.com/jlammi/flatmove/internal/pipeline"
)

// errRunHadFailures signals a completed run with per-file failures; main()
// maps it to exit code 1 without the generic error banner.
var errRunHadFailures = errors.New("run completed with failures")

// previewLimit caps the number of planned renames shown in dry-run mode.
const previewLimit = 10

// failureDetailLimit caps the number of per-file failures printed in the
// summary; the full list is in the run report.
const failureDetailLimit = 5

func newRunCmd() *cobra.Command {
	var (
		sources      []string
		target       string
		dryRun       bool
		operation    string
		workers      int
		deleteSource bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Rename and relocate files into the target directory",
		Long: `Scan the source roots, derive deterministic names, and copy or move
every file into the target directory. Re-running against the same target
skips files a previous run already transferred.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cli := config.CLIOverrides{
				ConfigPath: flagConfigPath,
				Operation:  operation,
			}

			// Pointer overrides only when the user actually set the flag:
			// --dry-run=false must override a config-file dry_run=true.
			if cmd.Flags().Changed("dry-run") {
				cli.DryRun = &dryRun
			}

			if cmd.Flags().Changed("workers") {
				cli.Workers = &workers
			}

			cfg, err := config.Resolve(cli)
			if err != nil {
				return err
			}

			logger := buildLogger(cfg.General.LogLevel)
			ctx := shutdownContext(cmd.Context(), logger)

			engine := pipeline.NewEngine(cfg, logger)

			result, err := engine.Run(ctx, sources, target, pipeline.RunOptions{
				DeleteSources: deleteSource,
			})
			if err != nil {
				return err
			}

			if flagJSON {
				if err := printRunJSON(result); err != nil {
					return err
				}
			} else {
				printRunSummary(result)
			}

			if result.FailedCount > 0 {
				return errRunHadFailures
			}

			return nil
		},
	}

	cmd.Flags().StringSliceVar(&sources, "sources", nil, "source root directories (repeatable)")
	cmd.Flags().StringVar(&target, "target", "", "target directory")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "preview renames without touching the filesystem")
	cmd.Flags().StringVar(&operation, "operation", "", "copy or move (overrides config)")
	cmd.Flags().IntVar(&workers, "workers", 0, "transfer worker count (overrides config)")
	cmd.Flags().BoolVar(&deleteSource, "delete-source", false, "after a copy run, delete sources whose targets verified")
	_ = cmd.MarkFlagRequired("sources")
	_ = cmd.MarkFlagRequired("target")

	return cmd
}

// printRunSummary writes the human-readable outcome to stderr/stdout.
func printRunSummary(result *pipeline.RunResult) {
	if result.DryRun {
		printDryRunPreview(result)
		return
	}

	statusf("Done. %d succeeded, %d failed, %d skipped (already transferred), %s total\n",
		result.SuccessCount, result.FailedCount, result.SkippedCount, formatSize(result.TotalBytes))

	if result.LedgerPath != "" {
		statusf("Ledger: %s\n", result.LedgerPath)
	}

	if result.ReportPath != "" {
		statusf("Report: %s\n", result.ReportPath)
	}

	for i, fail := range result.Failed {
		if i == failureDetailLimit {
			fmt.Fprintf(os.Stderr, "  ... and %d more failures (see report)\n",
				len(result.Failed)-failureDetailLimit)
			break
		}

		fmt.Fprintf(os.Stderr, "  failed: %s: %s\n", fail.Record.Filename, fail.Err)
	}
}

// printDryRunPreview lists the first planned renames. The full listing is
// skipped when stderr is not a terminal.
func printDryRunPreview(result *pipeline.RunResult) {
	statusf("Dry run: %d files, %s total\n", result.SuccessCount, formatSize(result.TotalBytes))

	if !stderrIsTerminal() {
		return
	}

	for i := range result.Processed {
		if i == previewLimit {
			statusf("  ... %d more\n", len(result.Processed)-previewLimit)
			break
		}

		rec := &result.Processed[i]
		statusf("  %s -> %s\n", rec.Filename, rec.NewName)
	}
}

// runJSON is the JSON-serializable run summary for --json consumers.
type runJSON struct {
	DryRun       bool   `json:"dry_run"`
	SuccessCount int    `json:"success_count"`
	FailedCount  int    `json:"failed_count"`
	SkippedCount int    `json:"skipped_count"`
	TotalBytes   int64  `json:"total_bytes"`
	LedgerPath   string `json:"ledger_path,omitempty"`
	ReportPath   string `json:"report_path,omitempty"`

	Failures []runFailureJSON `json:"failures,omitempty"`
}

type runFailureJSON struct {
	Source string `json:"source"`
	Error  string `json:"error"`
}

func printRunJSON(result *pipeline.RunResult) error {
	out := runJSON{
		DryRun:       result.DryRun,
		SuccessCount: result.SuccessCount,
		FailedCount:  result.FailedCount,
		SkippedCount: result.SkippedCount,
		TotalBytes:   result.TotalBytes,
		LedgerPath:   result.LedgerPath,
		ReportPath:   result.ReportPath,
	}

	for _, fail := range result.Failed {
		out.Failures = append(out.Failures, runFailureJSON{
			Source: fail.Record.FullPath,
			Error:  fail.Err,
		})
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	return enc.Encode(out)
}
