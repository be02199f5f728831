package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jlammi/flatmove/internal/config"
	"github.com/jlammi/flatmove/internal/pipeline"
)

func newRollbackCmd() *cobra.Command {
	var (
		target     string
		ledgerPath string
	)

	cmd := &cobra.Command{
		Use:   "rollback",
		Short: "Reverse a previous run from its ledger",
		Long: `Undo a previous run: moved files return to their original locations and
copied files are deleted from the target. By default the newest ledger
under the target directory is used; --ledger selects a specific snapshot.
Safe to run repeatedly — already-reversed entries are skipped.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Resolve(config.CLIOverrides{ConfigPath: flagConfigPath})
			if err != nil {
				return err
			}

			logger := buildLogger(cfg.General.LogLevel)
			ctx := shutdownContext(cmd.Context(), logger)

			path := ledgerPath
			if path == "" {
				path, err = pipeline.LatestLedgerPath(target)
				if err != nil {
					return err
				}

				if path == "" {
					return fmt.Errorf("no ledger found under %s", target)
				}
			}

			result, err := pipeline.Rollback(ctx, path, logger)
			if err != nil {
				return err
			}

			if flagJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")

				return enc.Encode(result)
			}

			statusf("Rollback of %s: %d reversed, %d failed, %d already rolled back\n",
				path, result.SuccessCount, result.FailedCount, result.SkippedCount)

			for _, e := range result.Errors {
				fmt.Fprintf(os.Stderr, "  %s\n", e)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&target, "target", "", "target directory whose newest ledger to reverse")
	cmd.Flags().StringVar(&ledgerPath, "ledger", "", "specific ledger snapshot to reverse")

	return cmd
}
