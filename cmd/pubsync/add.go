package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/IRL-CT/IRL-CT.github.io/internal/record"
)

var addCmd = &cobra.Command{
	Use:   "add <doi-or-url>...",
	Short: "Create publication records for new DOIs",
	Long: `Create a publication record for each DOI or doi.org URL. Metadata is taken
from the cache when fresh and fetched from CrossRef otherwise. A DOI that
already has a record is refreshed in place, keeping its manual overrides.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

func init() {
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	cfg := app.cfg

	ids, invalid := extractAll(out, args)

	unlock, err := acquireCacheLock(cmd, cfg.Cache.Path)
	if err != nil {
		return err
	}
	defer unlock()

	store := newStore(cfg)
	sync := newSynchronizer(cfg, store, false, out)
	writer := record.NewWriter(cfg.ContentDir, store, app.logger)

	s := addPublications(ctx, sync, writer, ids, out)
	writeAddSummary(out, s, invalid)

	if s.HasFailures() || invalid > 0 {
		return fmt.Errorf("%d of %d inputs could not be added", s.Failed+invalid, len(args))
	}
	return nil
}
