// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/IRL-CT/IRL-CT.github.io/internal/cache"
	"github.com/IRL-CT/IRL-CT.github.io/internal/doi"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and edit the metadata cache",
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached publications, newest first",
	Args:  cobra.NoArgs,
	RunE:  runCacheList,
}

var cacheShowCmd = &cobra.Command{
	Use:   "show <doi>",
	Short: "Print one cached entry as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runCacheShow,
}

var cacheRemoveCmd = &cobra.Command{
	Use:   "remove <doi>...",
	Short: "Drop entries so the next sync refetches them",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCacheRemove,
}

var cacheAgeCmd = &cobra.Command{
	Use:   "age",
	Short: "Show when the cache was last updated",
	Args:  cobra.NoArgs,
	RunE:  runCacheAge,
}

func init() {
	cacheListCmd.Flags().Bool("json", false, "output as JSON")
	cacheListCmd.Flags().Bool("stale", false, "list only entries older than the TTL")

	cacheCmd.AddCommand(cacheListCmd, cacheShowCmd, cacheRemoveCmd, cacheAgeCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheList(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	store := newStore(app.cfg)
	doc := store.Read(cmd.Context())
	now := time.Now()
	staleOnly, _ := cmd.Flags().GetBool("stale")

	entries := cache.Entries(doc)
	if staleOnly {
		kept := entries[:0]
		for _, p := range entries {
			if !cache.Fresh(p, now, store.TTL()) {
				kept = append(kept, p)
			}
		}
		entries = kept
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	rows := make([][]string, 0, len(entries))
	for _, p := range entries {
		year := ""
		if p.PubYear != nil {
			year = strconv.Itoa(*p.PubYear)
		}
		fresh := "no"
		if cache.Fresh(p, now, store.TTL()) {
			fresh = "yes"
		}
		rows = append(rows, []string{
			p.DOI,
			year,
			truncate(p.Title, 50),
			truncate(p.Venue, 30),
			p.FetchedAt.Local().Format(time.DateTime),
			fresh,
		})
	}
	writeTable(out,
		[]string{"DOI", "Year", "Title", "Venue", "Fetched", "Fresh"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
	)
	fmt.Fprintf(out, "%d entries\n", len(entries))
	return nil
}

func runCacheShow(cmd *cobra.Command, args []string) error {
	id, ok := doi.Extract(args[0])
	if !ok {
		return fmt.Errorf("invalid DOI format: %s", args[0])
	}

	pub, found := newStore(app.cfg).Get(cmd.Context(), id)
	if !found {
		return fmt.Errorf("%s is not cached", id)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(pub)
}

func runCacheRemove(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	unlock, err := acquireCacheLock(cmd, app.cfg.Cache.Path)
	if err != nil {
		return err
	}
	defer unlock()

	store := newStore(app.cfg)
	var removed int
	for _, arg := range args {
		id, ok := doi.Extract(arg)
		if !ok {
			fmt.Fprintf(out, "invalid DOI format: %s\n", arg)
			continue
		}
		if store.Remove(ctx, id) {
			fmt.Fprintf(out, "removed: %s\n", id)
			removed++
		} else {
			fmt.Fprintf(out, "not cached: %s\n", id)
		}
	}
	fmt.Fprintf(out, "\nRemoved %d of %d entries\n", removed, len(args))
	return nil
}

func runCacheAge(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	store := newStore(app.cfg)
	doc := store.Read(cmd.Context())
	now := time.Now()

	var stale int
	for _, p := range doc.Publications {
		if !cache.Fresh(p, now, store.TTL()) {
			stale++
		}
	}

	if doc.LastUpdated.IsZero() {
		fmt.Fprintln(out, "Cache has never been synced")
	} else {
		fmt.Fprintf(out, "Last updated: %s (%s ago)\n",
			doc.LastUpdated.Local().Format(time.DateTime),
			cache.Age(doc, now).Round(time.Second))
	}
	fmt.Fprintf(out, "Entries: %d (%d stale, ttl %s)\n", len(doc.Publications), stale, store.TTL())
	return nil
}
