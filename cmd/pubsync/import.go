package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/IRL-CT/IRL-CT.github.io/internal/doi"
	"github.com/IRL-CT/IRL-CT.github.io/internal/record"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Create publication records for every DOI listed in a file",
	Long: `Read one DOI or doi.org URL per line from file ("-" for stdin) and create a
record for each. Blank lines and lines starting with # are ignored. Records
are processed one at a time with sync.import_delay between them.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	cfg := app.cfg

	in := cmd.InOrStdin()
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening import list: %w", err)
		}
		defer f.Close()
		in = f
	}

	ids, skipped, err := doi.ReadInputs(in)
	if err != nil {
		return err
	}
	for _, s := range skipped {
		fmt.Fprintf(out, "invalid DOI format: %s\n", s)
	}
	if len(ids) == 0 {
		return fmt.Errorf("no valid DOIs in %s", args[0])
	}

	unlock, err := acquireCacheLock(cmd, cfg.Cache.Path)
	if err != nil {
		return err
	}
	defer unlock()

	store := newStore(cfg)
	sync := newSynchronizer(cfg, store, false, out)
	writer := record.NewWriter(cfg.ContentDir, store, app.logger)

	total, err := importPublications(ctx, sync, writer, ids, cfg.Sync.ImportDelay, sleepContext, out)
	if err != nil {
		return err
	}

	writeAddSummary(out, total, len(skipped))
	if total.HasFailures() {
		return fmt.Errorf("%d of %d DOIs could not be imported", total.Failed, len(ids))
	}
	return nil
}
