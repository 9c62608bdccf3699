// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IRL-CT/IRL-CT.github.io/internal/batch"
	"github.com/IRL-CT/IRL-CT.github.io/internal/cache"
	"github.com/IRL-CT/IRL-CT.github.io/internal/doi"
	"github.com/IRL-CT/IRL-CT.github.io/internal/record"
	"github.com/IRL-CT/IRL-CT.github.io/pkg/types"
)

type stubFetcher map[string]types.Publication

func (f stubFetcher) Fetch(_ context.Context, id string) (types.Publication, error) {
	pub, ok := f[id]
	if !ok {
		return types.Publication{}, errors.New("HTTP 404")
	}
	return pub, nil
}

func TestExtractAll(t *testing.T) {
	var buf bytes.Buffer
	ids, invalid := extractAll(&buf, []string{
		"https://doi.org/10.1145/3173574.3173739",
		"not a doi",
		"10.1109/HRI.2020.1",
	})
	assert.Equal(t, []string{"10.1145/3173574.3173739", "10.1109/HRI.2020.1"}, ids)
	assert.Equal(t, 1, invalid)
	assert.Contains(t, buf.String(), "invalid DOI format: not a doi")
}

func TestAddPublications(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	year := 2018

	store := cache.NewMemoryStore(cache.Options{})
	fetcher := stubFetcher{
		"10.1145/3173574.3173739": {Title: "Robots in the Wild", Authors: "Ann Lee", Venue: "CHI", PubYear: &year},
	}
	sync := batch.New(fetcher, store, batch.Options{
		Sleep:  func(context.Context, time.Duration) {},
		Jitter: func(time.Duration) time.Duration { return 0 },
	})
	writer := record.NewWriter(dir, store, nil)

	var buf bytes.Buffer
	s := addPublications(ctx, sync, writer, []string{"10.1145/3173574.3173739", "10.9999/missing"}, &buf)

	assert.Equal(t, 1, s.Created)
	assert.Equal(t, 1, s.Failed)
	assert.True(t, s.HasFailures())
	assert.Contains(t, buf.String(), "failed:  10.9999/missing (HTTP 404)")

	data, err := os.ReadFile(filepath.Join(dir, "10-1145-3173574-3173739.md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `doi: "10.1145/3173574.3173739"`)

	buf.Reset()
	s = addPublications(ctx, sync, writer, []string{"10.1145/3173574.3173739"}, &buf)
	assert.Equal(t, addSummary{Unchanged: 1}, s, "second add is served from the cache")
}

func TestImportPublicationsFromLines(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	y2019, y2018 := 2019, 2018

	store := cache.NewMemoryStore(cache.Options{})
	fetcher := stubFetcher{
		"10.1038/nature1":         {Title: "Nature Paper", Authors: "Ann Lee", Venue: "Nature", PubYear: &y2019},
		"10.1145/3173574.3173739": {Title: "Robots in the Wild", Authors: "Bo Chen", Venue: "CHI", PubYear: &y2018},
	}
	sync := batch.New(fetcher, store, batch.Options{
		Sleep:  func(context.Context, time.Duration) {},
		Jitter: func(time.Duration) time.Duration { return 0 },
	})
	writer := record.NewWriter(dir, store, nil)

	lines := strings.Join([]string{
		"# publications to import",
		"https://doi.org/10.1038/nature1",
		"",
		"10.1145/3173574.3173739",
		"not a doi",
	}, "\n")
	ids, skipped, err := doi.ReadInputs(strings.NewReader(lines))
	require.NoError(t, err)
	assert.Equal(t, []string{"not a doi"}, skipped)

	var slept []time.Duration
	sleep := func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	var buf bytes.Buffer
	s, err := importPublications(ctx, sync, writer, ids, 500*time.Millisecond, sleep, &buf)
	require.NoError(t, err)
	assert.Equal(t, addSummary{Created: 2}, s)
	assert.Equal(t, []time.Duration{500 * time.Millisecond}, slept, "one pause between two records")

	data, err := os.ReadFile(filepath.Join(dir, "10-1038-nature1.md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `doi: "10.1038/nature1"`)
	_, err = os.Stat(filepath.Join(dir, "10-1145-3173574-3173739.md"))
	assert.NoError(t, err)

	keys := make([]string, 0, 2)
	for k := range store.Read(ctx).Publications {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	assert.Equal(t, []string{"10.1038/nature1", "10.1145/3173574.3173739"}, keys)
}

func TestImportPublicationsStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	store := cache.NewMemoryStore(cache.Options{})
	sync := batch.New(stubFetcher{}, store, batch.Options{
		Sleep:  func(context.Context, time.Duration) {},
		Jitter: func(time.Duration) time.Duration { return 0 },
	})
	writer := record.NewWriter(t.TempDir(), store, nil)

	sleep := func(ctx context.Context, d time.Duration) error {
		cancel()
		return sleepContext(ctx, d)
	}
	s, err := importPublications(ctx, sync, writer, []string{"10.1/a", "10.1/b"}, time.Hour, sleep, &bytes.Buffer{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, s.Failed, "only the first record was attempted")
}
