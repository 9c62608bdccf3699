// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/IRL-CT/IRL-CT.github.io/internal/index"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build, search and export the publication index",
	Long: `Index maintains a local SQLite database of cached publications with FTS5
full-text search over title, authors and venue. The cache document stays the
source of truth; the index is rebuilt from it on demand.`,
}

// --- build subcommand ---

var indexBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Load the cache document into the index",
	Long: `Build copies every cached publication into the SQLite index. Entries whose
fetch time is unchanged are skipped, and a cache that has not been updated
since the last build is not read at all.`,
	Args: cobra.NoArgs,
	RunE: runIndexBuild,
}

func runIndexBuild(cmd *cobra.Command, args []string) error {
	store, err := openIndex(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	doc := newStore(app.cfg).Read(cmd.Context())
	_, err = store.Build(cmd.Context(), doc, cmd.OutOrStdout())
	return err
}

// --- search subcommand ---

var indexSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed publications",
	Long: `Search runs an FTS5 query against title, authors and venue, optionally
narrowed by --year and --venue. Without a query the filters alone select
publications, newest first.`,
	RunE: runIndexSearch,
}

func runIndexSearch(cmd *cobra.Command, args []string) error {
	opts := queryOptsFromFlags(cmd, args)
	if opts.IsEmpty() {
		return fmt.Errorf("provide a query or at least one filter (--year, --venue)")
	}

	store, err := openIndex(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	results, err := store.Search(cmd.Context(), opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Fprintln(out, "No results.")
		return nil
	}
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		year := ""
		if r.PubYear != nil {
			year = strconv.Itoa(*r.PubYear)
		}
		rows = append(rows, []string{r.DOI, year, truncate(r.Title, 60), truncate(r.Authors, 40)})
	}
	writeTable(out, []string{"DOI", "Year", "Title", "Authors"}, rows,
		[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft})
	return nil
}

// --- export subcommand ---

var indexExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export indexed publications to YAML, JSON or CSL",
	Long: `Export writes publications.yaml and publications.json into --dir with one
entry per publication, authors split into a list and a short citation.
The csl format writes publications.csl.yaml for Pandoc and reference
managers.`,
	Args: cobra.NoArgs,
	RunE: runIndexExport,
}

func runIndexExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	dir, _ := cmd.Flags().GetString("dir")

	exporters, err := selectExporters(format)
	if err != nil {
		return err
	}

	store, err := openIndex(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	opts := queryOptsFromFlags(cmd, nil)
	out := cmd.OutOrStdout()

	for _, export := range exporters {
		path, err := export(store, ctx, dir, opts)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "exported: %s\n", path)
	}
	return nil
}

type exporter func(s *index.Store, ctx context.Context, dir string, opts index.QueryOptions) (string, error)

var exportFormats = map[string]exporter{
	"yaml": (*index.Store).ExportYAML,
	"json": (*index.Store).ExportJSON,
	"csl":  (*index.Store).ExportCSL,
}

// selectExporters resolves a comma-separated format list; "all" selects
// every format.
func selectExporters(format string) ([]exporter, error) {
	names := strings.Split(strings.ToLower(format), ",")
	if len(names) == 1 && strings.TrimSpace(names[0]) == "all" {
		names = []string{"yaml", "json", "csl"}
	}

	var out []exporter
	for _, name := range names {
		fn, ok := exportFormats[strings.TrimSpace(name)]
		if !ok {
			return nil, fmt.Errorf("unknown export format %q (want yaml, json, csl or all)", name)
		}
		out = append(out, fn)
	}
	return out, nil
}

// --- helpers ---

func openIndex(cmd *cobra.Command) (*index.Store, error) {
	cfg := app.cfg.Index
	if path, _ := cmd.Flags().GetString("db"); path != "" {
		cfg.Path = path
	}
	return index.Open(cfg)
}

func queryOptsFromFlags(cmd *cobra.Command, args []string) index.QueryOptions {
	year, _ := cmd.Flags().GetInt("year")
	venue, _ := cmd.Flags().GetString("venue")
	maxResults, _ := cmd.Flags().GetInt("max-results")

	return index.QueryOptions{
		Query:      strings.Join(args, " "),
		Year:       year,
		Venue:      venue,
		MaxResults: maxResults,
	}
}

func init() {
	indexCmd.PersistentFlags().String("db", "", "index database path (default from index.path)")

	indexSearchCmd.Flags().Int("year", 0, "filter by publication year")
	indexSearchCmd.Flags().String("venue", "", "filter by venue substring")
	indexSearchCmd.Flags().Int("max-results", 0, "maximum results (default from index.max_results)")
	indexSearchCmd.Flags().Bool("json", false, "output as JSON")

	indexExportCmd.Flags().String("format", "yaml,json", "comma-separated export formats: yaml, json, csl or all")
	indexExportCmd.Flags().String("dir", "public/data", "output directory")
	indexExportCmd.Flags().Int("year", 0, "export only this publication year")
	indexExportCmd.Flags().String("venue", "", "export only venues matching this substring")

	indexCmd.AddCommand(indexBuildCmd, indexSearchCmd, indexExportCmd)
	rootCmd.AddCommand(indexCmd)
}
