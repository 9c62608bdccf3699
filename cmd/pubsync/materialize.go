package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/IRL-CT/IRL-CT.github.io/internal/cache"
	"github.com/IRL-CT/IRL-CT.github.io/internal/doi"
	"github.com/IRL-CT/IRL-CT.github.io/internal/record"
)

var materializeCmd = &cobra.Command{
	Use:   "materialize [doi...]",
	Short: "Write cached metadata into publication records",
	Long: `Render publication records from the cache. Manual overrides, the featured
flag, the project and the body of existing records are preserved, and files
whose rendered bytes are unchanged are not rewritten. With no arguments every
record in the content directory is rendered.

Rendered values for authors, publication_date, journal and citation are
stored under manual_override, so once a record exists they are treated as
hand-set and later cache updates do not reach them. Pass --refresh to
re-derive those four fields from the cache. This discards hand edits to them;
conference and abstract are always kept.`,
	RunE: runMaterialize,
}

func init() {
	materializeCmd.Flags().Bool("refresh", false, "re-derive authors, publication_date, journal and citation from the cache")
	rootCmd.AddCommand(materializeCmd)
}

func runMaterialize(cmd *cobra.Command, args []string) error {
	cfg := app.cfg
	out := cmd.OutOrStdout()

	var ids []string
	if len(args) > 0 {
		var invalid int
		ids, invalid = extractAll(out, args)
		if invalid > 0 && len(ids) == 0 {
			return fmt.Errorf("no valid DOIs to materialize")
		}
	} else {
		scan, err := doi.ScanRecords(cfg.ContentDir, app.logger)
		if err != nil {
			return err
		}
		reportScan(out, scan)
		ids = scan.DOIs
	}

	return materializeAll(cmd, newStore(cfg), ids)
}

func materializeAll(cmd *cobra.Command, store cache.Store, ids []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	writer := record.NewWriter(app.cfg.ContentDir, store, app.logger)
	if refresh, _ := cmd.Flags().GetBool("refresh"); refresh {
		writer.RefreshFetched(true)
	}

	var written, unchanged, missing, failed int
	for _, id := range ids {
		res, err := writer.Write(ctx, id)
		switch {
		case errors.Is(err, record.ErrNotCached):
			fmt.Fprintf(out, "not cached: %s\n", id)
			missing++
		case err != nil:
			fmt.Fprintf(out, "failed:  %s (%v)\n", id, err)
			failed++
		case res.Changed:
			fmt.Fprintf(out, "wrote: %s\n", res.Path)
			written++
		default:
			unchanged++
		}
	}

	fmt.Fprintf(out, "\nMaterialized %d records: %d written, %d unchanged, %d not cached, %d failed\n",
		len(ids), written, unchanged, missing, failed)
	if failed > 0 {
		return fmt.Errorf("%d records could not be written", failed)
	}
	return nil
}
