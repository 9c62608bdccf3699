package main

import (
	"github.com/spf13/cobra"

	"github.com/IRL-CT/IRL-CT.github.io/internal/batch"
	"github.com/IRL-CT/IRL-CT.github.io/internal/doi"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Refresh cached metadata for every publication record",
	Long: `Scan the content directory for publication records, then fetch CrossRef
metadata for every DOI whose cache entry is missing or stale. Requests run in
groups of sync.group_size with a pause of sync.batch_delay between groups.

Individual fetch failures are reported but do not fail the run. A content
directory that cannot be read does.`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	cfg := app.cfg

	unlock, err := acquireCacheLock(cmd, cfg.Cache.Path)
	if err != nil {
		return err
	}
	defer unlock()

	scan, err := doi.ScanRecords(cfg.ContentDir, app.logger)
	if err != nil {
		return err
	}
	reportScan(out, scan)

	summary := newSynchronizer(cfg, newStore(cfg), false, out).Sync(ctx, scan.DOIs)
	batch.WriteSummary(out, summary, len(scan.Skipped))
	return nil
}
