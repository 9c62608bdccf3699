// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package batch refreshes the publication cache from the registry in
// bounded, rate-limited groups.
//
// Identifiers with a fresh cache entry are skipped. The rest are fetched in
// sequential groups; members of a group run concurrently after a small
// random delay, and a pause separates consecutive groups. A failed lookup
// is recorded and never affects its siblings or later groups.
package batch

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/IRL-CT/IRL-CT.github.io/internal/cache"
	"github.com/IRL-CT/IRL-CT.github.io/internal/doi"
	"github.com/IRL-CT/IRL-CT.github.io/internal/logging"
	"github.com/IRL-CT/IRL-CT.github.io/pkg/types"
)

// Fetcher retrieves the canonical record for one DOI.
type Fetcher interface {
	Fetch(ctx context.Context, doi string) (types.Publication, error)
}

// Outcome is the result of fetching one identifier.
type Outcome struct {
	DOI         string
	Group       int
	Publication types.Publication
	Err         error
}

// OK reports whether the fetch succeeded.
func (o Outcome) OK() bool { return o.Err == nil }

// Summary holds the tallies of one synchronization run.
type Summary struct {
	RunID     string
	Fresh     int
	Succeeded int
	Failed    int
	Groups    int
	Pauses    int
	Outcomes  []Outcome
	Started   time.Time
	Finished  time.Time
}

// Total returns the number of distinct identifiers considered.
func (s Summary) Total() int {
	return s.Fresh + s.Succeeded + s.Failed
}

// HasFailures reports whether any fetch failed.
func (s Summary) HasFailures() bool {
	return s.Failed > 0
}

// Failures returns the failed outcomes in processing order.
func (s Summary) Failures() []Outcome {
	var out []Outcome
	for _, o := range s.Outcomes {
		if !o.OK() {
			out = append(out, o)
		}
	}
	return out
}

// Options configure a Synchronizer. Zero values take the package defaults.
type Options struct {
	GroupSize  int
	BatchDelay time.Duration
	MaxJitter  time.Duration

	// Force fetches every identifier regardless of freshness.
	Force bool

	// RunID tags log lines; a random one is generated when empty.
	RunID string

	// Out receives human-readable progress. Nil discards it.
	Out io.Writer

	Logger *zap.Logger

	// Sleep, Jitter and Now are replaced in tests.
	Sleep  func(ctx context.Context, d time.Duration)
	Jitter func(limit time.Duration) time.Duration
	Now    func() time.Time
}

// OptionsFromConfig maps sync settings onto Options.
func OptionsFromConfig(cfg types.SyncConfig) Options {
	return Options{
		GroupSize:  cfg.GroupSize,
		BatchDelay: cfg.BatchDelay,
		MaxJitter:  cfg.MaxJitter,
	}
}

// Synchronizer drives one or more sync runs against a store.
type Synchronizer struct {
	fetcher Fetcher
	store   cache.Store
	opts    Options
	logger  *zap.Logger
}

// New returns a Synchronizer fetching through f into store.
func New(f Fetcher, store cache.Store, opts Options) *Synchronizer {
	if opts.GroupSize <= 0 {
		opts.GroupSize = types.DefaultGroupSize
	}
	if opts.BatchDelay < 0 {
		opts.BatchDelay = 0
	}
	if opts.MaxJitter < 0 {
		opts.MaxJitter = 0
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	if opts.Sleep == nil {
		opts.Sleep = sleep
	}
	if opts.Jitter == nil {
		opts.Jitter = jitter
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Synchronizer{
		fetcher: f,
		store:   store,
		opts:    opts,
		logger:  logging.OrNop(opts.Logger),
	}
}

// Sync refreshes every stale or missing identifier in ids and stamps the
// cache document's lastUpdated when done. Duplicate identifiers (compared
// case-insensitively) are processed once.
func (s *Synchronizer) Sync(ctx context.Context, ids []string) Summary {
	runID := s.opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	logger := s.logger.With(zap.String(logging.FieldRunID, runID))
	w := s.opts.Out

	summary := Summary{RunID: runID, Started: s.opts.Now().UTC()}

	var fresh, toFetch []string
	if s.opts.Force {
		toFetch = Dedup(ids)
	} else {
		fresh, toFetch = Partition(ctx, s.store, ids)
	}
	summary.Fresh = len(fresh)
	logger.Info("partitioned identifiers",
		zap.Int("fresh", len(fresh)), zap.Int("to_fetch", len(toFetch)), zap.Bool("force", s.opts.Force))
	fmt.Fprintf(w, "%d cached and fresh, %d to fetch\n", len(fresh), len(toFetch))

	groups := Groups(toFetch, s.opts.GroupSize)
	summary.Groups = len(groups)

	for i, group := range groups {
		if i > 0 && s.opts.BatchDelay > 0 {
			s.opts.Sleep(ctx, s.opts.BatchDelay)
			summary.Pauses++
		}

		outcomes := s.runGroup(ctx, logger, i+1, group)
		var ok, failed int
		for _, o := range outcomes {
			if o.OK() {
				ok++
				fmt.Fprintf(w, "fetched: %s\n", o.DOI)
			} else {
				failed++
				fmt.Fprintf(w, "failed:  %s (%v)\n", o.DOI, o.Err)
			}
		}
		summary.Succeeded += ok
		summary.Failed += failed
		summary.Outcomes = append(summary.Outcomes, outcomes...)

		logger.Info("group complete",
			zap.Int(logging.FieldGroup, i+1), zap.Int("succeeded", ok), zap.Int("failed", failed))
		fmt.Fprintf(w, "group %d/%d: %d succeeded, %d failed\n", i+1, len(groups), ok, failed)
	}

	doc := s.store.Read(ctx)
	doc.LastUpdated = s.opts.Now().UTC()
	s.store.Write(ctx, doc)

	summary.Finished = s.opts.Now().UTC()
	logger.Info("sync complete",
		zap.Int("fresh", summary.Fresh),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Duration("elapsed", summary.Finished.Sub(summary.Started)))
	return summary
}

// runGroup fetches every member of group concurrently. Each goroutine
// records its own outcome and returns nil so no failure cancels a sibling.
func (s *Synchronizer) runGroup(ctx context.Context, logger *zap.Logger, n int, group []string) []Outcome {
	outcomes := make([]Outcome, len(group))
	var g errgroup.Group
	for i, id := range group {
		g.Go(func() error {
			if s.opts.MaxJitter > 0 {
				s.opts.Sleep(ctx, s.opts.Jitter(s.opts.MaxJitter))
			}
			o := Outcome{DOI: id, Group: n}
			pub, err := s.fetcher.Fetch(ctx, id)
			if err != nil {
				o.Err = err
				logger.Warn("fetch failed", zap.String(logging.FieldDOI, id), zap.Error(err))
			} else {
				s.store.Upsert(ctx, id, pub)
				if cached, ok := s.store.Get(ctx, id); ok {
					pub = cached
				}
				o.Publication = pub
				logger.Debug("fetched", zap.String(logging.FieldDOI, id))
			}
			outcomes[i] = o
			return nil
		})
	}
	g.Wait()
	return outcomes
}

// Dedup removes repeated identifiers (case-insensitive), keeping the first
// occurrence and the input order.
func Dedup(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		k := doi.Key(id)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, id)
	}
	return out
}

// Partition splits deduplicated ids into those with a fresh cache entry and
// those that must be fetched.
func Partition(ctx context.Context, store cache.Store, ids []string) (fresh, toFetch []string) {
	for _, id := range Dedup(ids) {
		if store.IsFresh(ctx, id) {
			fresh = append(fresh, id)
		} else {
			toFetch = append(toFetch, id)
		}
	}
	return fresh, toFetch
}

// Groups chunks ids into consecutive slices of at most size elements.
func Groups(ids []string, size int) [][]string {
	if size <= 0 {
		size = types.DefaultGroupSize
	}
	var groups [][]string
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		groups = append(groups, ids[start:end])
	}
	return groups
}

// WriteSummary prints the final tally. unparseable counts inputs dropped
// before synchronization because no DOI could be extracted.
func WriteSummary(w io.Writer, s Summary, unparseable int) {
	fmt.Fprintf(w, "\nSync summary: %d fetched, %d failed, %d skipped (%d fresh, %d unparseable)\n",
		s.Succeeded, s.Failed, s.Fresh+unparseable, s.Fresh, unparseable)
	for _, o := range s.Failures() {
		fmt.Fprintf(w, "  %s: %v\n", o.DOI, o.Err)
	}
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func jitter(limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	return rand.N(limit)
}
