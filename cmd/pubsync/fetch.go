package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/IRL-CT/IRL-CT.github.io/internal/batch"
	"github.com/IRL-CT/IRL-CT.github.io/internal/doi"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [doi-or-url...]",
	Short: "Fetch metadata for specific DOIs into the cache",
	Long: `Fetch CrossRef metadata for the given DOIs or doi.org URLs and store it in
the cache. With no arguments every DOI in the content directory is fetched.
Fresh entries are skipped unless --force is given.`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().Bool("force", false, "refetch even when the cached entry is fresh")
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	cfg := app.cfg
	force, _ := cmd.Flags().GetBool("force")

	var (
		ids     []string
		invalid int
	)
	if len(args) > 0 {
		ids, invalid = extractAll(out, args)
	} else {
		scan, err := doi.ScanRecords(cfg.ContentDir, app.logger)
		if err != nil {
			return err
		}
		reportScan(out, scan)
		ids, invalid = scan.DOIs, len(scan.Skipped)
	}
	if len(ids) == 0 {
		return fmt.Errorf("no valid DOIs to fetch")
	}

	unlock, err := acquireCacheLock(cmd, cfg.Cache.Path)
	if err != nil {
		return err
	}
	defer unlock()

	summary := newSynchronizer(cfg, newStore(cfg), force, out).Sync(ctx, ids)
	batch.WriteSummary(out, summary, invalid)

	if summary.HasFailures() {
		return fmt.Errorf("%d of %d fetches failed", summary.Failed, summary.Total())
	}
	return nil
}
