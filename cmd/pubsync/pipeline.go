// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/IRL-CT/IRL-CT.github.io/internal/batch"
	"github.com/IRL-CT/IRL-CT.github.io/internal/cache"
	"github.com/IRL-CT/IRL-CT.github.io/internal/crossref"
	"github.com/IRL-CT/IRL-CT.github.io/internal/doi"
	"github.com/IRL-CT/IRL-CT.github.io/internal/logging"
	"github.com/IRL-CT/IRL-CT.github.io/internal/record"
	"github.com/IRL-CT/IRL-CT.github.io/pkg/types"
)

func newStore(cfg types.Config) *cache.DocumentStore {
	return cache.NewFileStore(cfg.Cache.Path, cache.Options{
		TTL:    cfg.Cache.TTL,
		Logger: app.logger,
	})
}

func newSynchronizer(cfg types.Config, store cache.Store, force bool, w io.Writer) *batch.Synchronizer {
	client := crossref.NewClient(cfg.Registry, &http.Client{Timeout: cfg.Registry.Timeout}, app.logger)

	opts := batch.OptionsFromConfig(cfg.Sync)
	opts.Force = force
	opts.Out = w
	opts.Logger = app.logger
	return batch.New(client, store, opts)
}

// reportScan prints the files that yielded no DOI and the DOIs shared by
// more than one record.
func reportScan(w io.Writer, scan *doi.ScanResult) {
	for _, s := range scan.Skipped {
		fmt.Fprintf(w, "skipped: %s (%s)\n", s.Path, s.Reason)
	}
	for _, d := range scan.Duplicates {
		fmt.Fprintf(w, "duplicate: %s declared by %d records\n", d.DOI, len(d.Paths))
		for _, p := range d.Paths {
			fmt.Fprintf(w, "  %s\n", p)
		}
	}
}

// extractAll normalizes raw inputs into DOIs, reporting the ones that are
// not DOIs.
func extractAll(w io.Writer, inputs []string) (ids []string, invalid int) {
	for _, in := range inputs {
		id, ok := doi.Extract(in)
		if !ok {
			logging.OrNop(app.logger).Warn("unrecognized identifier", zap.String("input", in))
			fmt.Fprintf(w, "invalid DOI format: %s\n", in)
			invalid++
			continue
		}
		ids = append(ids, id)
	}
	return ids, invalid
}

// addSummary holds the tallies of an add or import run.
type addSummary struct {
	Created   int
	Updated   int
	Unchanged int
	Failed    int
}

func (s addSummary) Total() int {
	return s.Created + s.Updated + s.Unchanged + s.Failed
}

func (s addSummary) HasFailures() bool {
	return s.Failed > 0
}

// addPublications fetches ids cache-first and writes one record per DOI.
// A DOI whose fetch failed and that has no cached entry counts as failed.
func addPublications(ctx context.Context, sync *batch.Synchronizer, writer *record.Writer, ids []string, w io.Writer) addSummary {
	var s addSummary
	if len(ids) == 0 {
		return s
	}

	summary := sync.Sync(ctx, ids)
	failed := make(map[string]error)
	for _, o := range summary.Failures() {
		failed[doi.Key(o.DOI)] = o.Err
	}

	for _, id := range batch.Dedup(ids) {
		res, err := writer.Write(ctx, id)
		if err != nil {
			if fetchErr, ok := failed[doi.Key(id)]; ok {
				err = fetchErr
			}
			fmt.Fprintf(w, "failed:  %s (%v)\n", id, err)
			s.Failed++
			continue
		}
		switch {
		case res.Created:
			fmt.Fprintf(w, "created: %s\n", res.Path)
			s.Created++
		case res.Changed:
			fmt.Fprintf(w, "updated: %s\n", res.Path)
			s.Updated++
		default:
			fmt.Fprintf(w, "unchanged: %s\n", res.Path)
			s.Unchanged++
		}
	}
	return s
}

// importPublications adds ids one at a time, pausing delay between
// consecutive records. A cancelled context stops the import between records.
func importPublications(ctx context.Context, sync *batch.Synchronizer, writer *record.Writer, ids []string,
	delay time.Duration, sleep func(context.Context, time.Duration) error, w io.Writer) (addSummary, error) {
	var total addSummary
	for i, id := range ids {
		if i > 0 && delay > 0 {
			if err := sleep(ctx, delay); err != nil {
				return total, err
			}
		}
		s := addPublications(ctx, sync, writer, []string{id}, w)
		total.Created += s.Created
		total.Updated += s.Updated
		total.Unchanged += s.Unchanged
		total.Failed += s.Failed
	}
	return total, nil
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func writeAddSummary(w io.Writer, s addSummary, invalid int) {
	fmt.Fprintf(w, "\nGenerated %d of %d publication files (%d created, %d updated, %d unchanged, %d failed, %d invalid)\n",
		s.Created+s.Updated+s.Unchanged, s.Total()+invalid, s.Created, s.Updated, s.Unchanged, s.Failed, invalid)
}
