package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jlammi/flatmove/internal/config"
	"github.com/jlammi/flatmove/internal/pipeline"
)

func newHistoryCmd() *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List ledger snapshots for a target directory",
		Long: `Show every recorded run against the target directory, oldest first,
with per-run success and failure counts. The newest snapshot is the one
resume and rollback act on.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Resolve(config.CLIOverrides{ConfigPath: flagConfigPath})
			if err != nil {
				return err
			}

			logger := buildLogger(cfg.General.LogLevel)
			ctx := cmd.Context()

			paths, err := pipeline.LedgerPaths(target)
			if err != nil {
				return err
			}

			if len(paths) == 0 {
				statusf("No runs recorded under %s\n", target)
				return nil
			}

			type runInfo struct {
				Ledger    string `json:"ledger"`
				Succeeded int    `json:"succeeded"`
				Failed    int    `json:"failed"`
			}

			var runs []runInfo

			for _, p := range paths {
				ledger, openErr := pipeline.OpenLedger(ctx, p, logger)
				if openErr != nil {
					fmt.Fprintf(os.Stderr, "  %s: unreadable: %v\n", filepath.Base(p), openErr)
					continue
				}

				ok, failed, sumErr := ledger.Summary(ctx)
				ledger.Close()

				if sumErr != nil {
					fmt.Fprintf(os.Stderr, "  %s: unreadable: %v\n", filepath.Base(p), sumErr)
					continue
				}

				runs = append(runs, runInfo{Ledger: p, Succeeded: ok, Failed: failed})
			}

			if flagJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")

				return enc.Encode(runs)
			}

			for _, r := range runs {
				fmt.Printf("%s  %d ok, %d failed\n", filepath.Base(r.Ledger), r.Succeeded, r.Failed)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&target, "target", "", "target directory")
	_ = cmd.MarkFlagRequired("target")

	return cmd
}
