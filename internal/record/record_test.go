// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package record

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IRL-CT/IRL-CT.github.io/internal/cache"
	"github.com/IRL-CT/IRL-CT.github.io/pkg/types"
)

const testDOI = "10.1145/3173574.3173739"

func fetchedPub() *types.Publication {
	date := time.Date(2018, 4, 21, 0, 0, 0, 0, time.UTC)
	year := 2018
	return &types.Publication{
		DOI:       testDOI,
		Title:     "Robots in the Wild",
		Authors:   "Ann Lee, Bo Chen",
		Venue:     "Registry Venue",
		PubDate:   &date,
		PubYear:   &year,
		FetchedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func mustParse(t *testing.T, data []byte) (*types.PublicationRecord, []byte) {
	t.Helper()
	rec, body, err := Parse(data)
	require.NoError(t, err)
	return rec, body
}

func TestMaterializeNewRecord(t *testing.T) {
	out, err := Materialize(testDOI, fetchedPub(), nil, nil)
	require.NoError(t, err)
	s := string(out)

	assert.Contains(t, s, "doi: \""+testDOI+"\"\n")
	assert.Contains(t, s, "featured: false\n")
	assert.Contains(t, s, "- \"Ann Lee\"\n")
	assert.Contains(t, s, "- \"Bo Chen\"\n")
	assert.Contains(t, s, "  publication_date: 2018-04-21T00:00:00.000Z\n")
	assert.Contains(t, s, "  journal: \"Registry Venue\"\n")
	assert.Contains(t, s, "  # conference:\n")
	assert.Contains(t, s, "  # abstract:\n")
	assert.Contains(t, s, "  citation: \"Robots in the Wild (2018)\"\n")
	assert.NotContains(t, s, `abstract: ""`)
	assert.NotContains(t, s, "project")
	assert.True(t, len(s) > len(DefaultBody) && s[len(s)-len(DefaultBody):] == DefaultBody)

	rec, body := mustParse(t, out)
	assert.Equal(t, testDOI, rec.DOI)
	require.NotNil(t, rec.ManualOverride)
	assert.Equal(t, []string{"Ann Lee", "Bo Chen"}, rec.ManualOverride.Authors)
	assert.Equal(t, "2018-04-21T00:00:00.000Z", rec.ManualOverride.PublicationDate)
	assert.Equal(t, "Registry Venue", rec.ManualOverride.Journal)
	assert.Empty(t, rec.ManualOverride.Abstract)
	assert.Equal(t, DefaultBody, string(body))
}

func TestMaterializeIdempotent(t *testing.T) {
	existing := &types.PublicationRecord{
		DOI:      testDOI,
		Featured: true,
		Project:  "haptics",
		ManualOverride: &types.ManualOverride{
			Abstract: "A study of \"robots\"\nin homes.",
		},
	}
	body := []byte("\nSome notes.\n")

	first, err := Materialize(testDOI, fetchedPub(), existing, body)
	require.NoError(t, err)
	second, err := Materialize(testDOI, fetchedPub(), existing, body)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	rec, gotBody := mustParse(t, first)
	again, err := Materialize(testDOI, fetchedPub(), rec, gotBody)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(again), "re-rendering a rendered record is stable")
}

func TestMaterializeManualJournalWins(t *testing.T) {
	existing := &types.PublicationRecord{
		DOI:            testDOI,
		ManualOverride: &types.ManualOverride{Journal: "Manual Journal"},
	}
	out, err := Materialize(testDOI, fetchedPub(), existing, nil)
	require.NoError(t, err)

	rec, _ := mustParse(t, out)
	assert.Equal(t, "Manual Journal", rec.ManualOverride.Journal)
	assert.NotContains(t, string(out), "Registry Venue")
}

func TestMaterializePrecedence(t *testing.T) {
	tests := []struct {
		name   string
		manual *types.ManualOverride
		pub    *types.Publication
		check  func(t *testing.T, rec *types.PublicationRecord, out string)
	}{
		{
			name:   "manual authors win",
			manual: &types.ManualOverride{Authors: []string{"Zed Zero"}},
			pub:    fetchedPub(),
			check: func(t *testing.T, rec *types.PublicationRecord, _ string) {
				assert.Equal(t, []string{"Zed Zero"}, rec.ManualOverride.Authors)
			},
		},
		{
			name:   "manual date kept verbatim",
			manual: &types.ManualOverride{PublicationDate: "2019-05-01"},
			pub:    fetchedPub(),
			check: func(t *testing.T, rec *types.PublicationRecord, out string) {
				assert.Equal(t, "2019-05-01", rec.ManualOverride.PublicationDate)
				assert.Contains(t, out, "publication_date: 2019-05-01\n")
			},
		},
		{
			name:   "conference suppresses fetched journal",
			manual: &types.ManualOverride{Conference: "CHI 2018"},
			pub:    fetchedPub(),
			check: func(t *testing.T, rec *types.PublicationRecord, out string) {
				assert.Equal(t, "CHI 2018", rec.ManualOverride.Conference)
				assert.Empty(t, rec.ManualOverride.Journal)
				assert.Contains(t, out, "  # journal:\n")
			},
		},
		{
			name:   "manual citation wins",
			manual: &types.ManualOverride{Citation: "Lee et al. 2018"},
			pub:    fetchedPub(),
			check: func(t *testing.T, rec *types.PublicationRecord, _ string) {
				assert.Equal(t, "Lee et al. 2018", rec.ManualOverride.Citation)
			},
		},
		{
			name: "placeholders count as absent",
			pub: &types.Publication{
				DOI:     testDOI,
				Title:   types.UnknownTitle,
				Authors: types.UnknownAuthors,
				Venue:   types.UnknownVenue,
			},
			check: func(t *testing.T, rec *types.PublicationRecord, out string) {
				assert.Nil(t, rec.ManualOverride)
				assert.Contains(t, out, "# manual_override:\n")
				assert.NotContains(t, out, types.UnknownVenue)
			},
		},
		{
			name: "year without date",
			pub: func() *types.Publication {
				p := fetchedPub()
				p.PubDate = nil
				return p
			}(),
			check: func(t *testing.T, rec *types.PublicationRecord, out string) {
				assert.Contains(t, out, "  # publication_date:\n")
				assert.Equal(t, "Robots in the Wild (2018)", rec.ManualOverride.Citation)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var existing *types.PublicationRecord
			if tt.manual != nil {
				existing = &types.PublicationRecord{DOI: testDOI, ManualOverride: tt.manual}
			}
			out, err := Materialize(testDOI, tt.pub, existing, nil)
			require.NoError(t, err)
			rec, _ := mustParse(t, out)
			tt.check(t, rec, string(out))
		})
	}
}

func TestMaterializeManualDateScalarStyle(t *testing.T) {
	tests := []struct {
		date string
		want string
	}{
		{date: "2020", want: `publication_date: "2020"`},
		{date: "2019.5", want: `publication_date: "2019.5"`},
		{date: "2019-05-01", want: "publication_date: 2019-05-01\n"},
		{date: "2019-05-01T00:00:00.000Z", want: "publication_date: 2019-05-01T00:00:00.000Z\n"},
		{date: "May 2019", want: "publication_date: May 2019\n"},
		{date: "2019: spring", want: `publication_date: "2019: spring"`},
	}
	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			existing := &types.PublicationRecord{ManualOverride: &types.ManualOverride{PublicationDate: tt.date}}
			out, err := Materialize(testDOI, fetchedPub(), existing, nil)
			require.NoError(t, err)
			assert.Contains(t, string(out), tt.want)

			rec, _ := mustParse(t, out)
			assert.Equal(t, tt.date, rec.ManualOverride.PublicationDate)

			again, err := Materialize(testDOI, fetchedPub(), rec, nil)
			require.NoError(t, err)
			assert.Equal(t, string(out), string(again))
		})
	}
}

func TestMaterializeWithoutCacheEntry(t *testing.T) {
	existing := &types.PublicationRecord{
		DOI:            testDOI,
		Featured:       true,
		ManualOverride: &types.ManualOverride{Abstract: "Hand written."},
	}
	out, err := Materialize(testDOI, nil, existing, []byte(""))
	require.NoError(t, err)

	rec, body := mustParse(t, out)
	assert.True(t, rec.Featured)
	assert.Equal(t, "Hand written.", rec.ManualOverride.Abstract)
	assert.Empty(t, rec.ManualOverride.Journal)
	assert.Empty(t, body)
}

func TestCitation(t *testing.T) {
	assert.Equal(t, "T (n.d.)", Citation(types.Publication{Title: "T"}))
	year := 2021
	assert.Equal(t, "T (2021)", Citation(types.Publication{Title: "T", PubYear: &year}))
}

func TestParseEmptyOverride(t *testing.T) {
	rec, body := mustParse(t, []byte("---\ndoi: \"10.1/x\"\nmanual_override:\n  abstract: \"\"\n---\nbody\n"))
	assert.Nil(t, rec.ManualOverride)
	assert.Equal(t, "body\n", string(body))
}

func TestParseFileMissing(t *testing.T) {
	_, _, err := ParseFile(filepath.Join(t.TempDir(), "missing.md"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func newStoreWith(t *testing.T, pubs ...*types.Publication) *cache.MemoryStore {
	t.Helper()
	s := cache.NewMemoryStore(cache.Options{})
	for _, p := range pubs {
		s.Upsert(context.Background(), p.DOI, *p)
	}
	return s
}

func TestWriterCreatesRecord(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "publications")
	w := NewWriter(dir, newStoreWith(t, fetchedPub()), nil)

	res, err := w.Write(context.Background(), testDOI)
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.True(t, res.Changed)
	assert.Equal(t, filepath.Join(dir, "10-1145-3173574-3173739.md"), res.Path)

	rec, _, err := ParseFile(res.Path)
	require.NoError(t, err)
	assert.Equal(t, testDOI, rec.DOI)

	res, err = w.Write(context.Background(), testDOI)
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.False(t, res.Changed, "unchanged output is not rewritten")
}

func TestWriterPreservesExistingRecord(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "my-chi-paper.md")
	original := "---\ndoi: \"https://doi.org/" + testDOI + "\"\nfeatured: true\nproject: \"haptics\"\n" +
		"manual_override:\n  journal: \"Manual Journal\"\n  abstract: \"Ours.\"\n---\n\nExtra notes.\n"
	require.NoError(t, os.WriteFile(path, []byte(original), 0o644))

	w := NewWriter(dir, newStoreWith(t, fetchedPub()), nil)
	res, err := w.Write(context.Background(), testDOI)
	require.NoError(t, err)
	assert.Equal(t, path, res.Path)
	assert.False(t, res.Created)
	assert.True(t, res.Changed)

	rec, body, err := ParseFile(path)
	require.NoError(t, err)
	assert.True(t, rec.Featured)
	assert.Equal(t, "haptics", rec.Project)
	assert.Equal(t, "Manual Journal", rec.ManualOverride.Journal)
	assert.Equal(t, "Ours.", rec.ManualOverride.Abstract)
	assert.Equal(t, []string{"Ann Lee", "Bo Chen"}, rec.ManualOverride.Authors)
	assert.Equal(t, "\nExtra notes.\n", string(body))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriterRefreshFetched(t *testing.T) {
	stale := "---\ndoi: \"" + testDOI + "\"\nfeatured: true\nmanual_override:\n" +
		"  authors:\n    - \"Old Name\"\n  publication_date: 2017-01-01T00:00:00.000Z\n" +
		"  journal: \"Old Venue\"\n  abstract: \"Ours.\"\n  citation: \"Old Title (2017)\"\n---\nbody\n"

	tests := []struct {
		name        string
		refresh     bool
		wantAuthors []string
		wantJournal string
		wantDate    string
		wantCite    string
	}{
		{
			name:        "plain write keeps first materialization",
			wantAuthors: []string{"Old Name"},
			wantJournal: "Old Venue",
			wantDate:    "2017-01-01T00:00:00.000Z",
			wantCite:    "Old Title (2017)",
		},
		{
			name:        "refresh takes cached values",
			refresh:     true,
			wantAuthors: []string{"Ann Lee", "Bo Chen"},
			wantJournal: "Registry Venue",
			wantDate:    "2018-04-21T00:00:00.000Z",
			wantCite:    "Robots in the Wild (2018)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "paper.md")
			require.NoError(t, os.WriteFile(path, []byte(stale), 0o644))

			w := NewWriter(dir, newStoreWith(t, fetchedPub()), nil)
			w.RefreshFetched(tt.refresh)
			_, err := w.Write(context.Background(), testDOI)
			require.NoError(t, err)

			rec, body, err := ParseFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.wantAuthors, rec.ManualOverride.Authors)
			assert.Equal(t, tt.wantJournal, rec.ManualOverride.Journal)
			assert.Equal(t, tt.wantDate, rec.ManualOverride.PublicationDate)
			assert.Equal(t, tt.wantCite, rec.ManualOverride.Citation)
			assert.Equal(t, "Ours.", rec.ManualOverride.Abstract, "abstract is never refreshed")
			assert.True(t, rec.Featured)
			assert.Equal(t, "body\n", string(body))
		})
	}
}

func TestWriterNotCached(t *testing.T) {
	w := NewWriter(t.TempDir(), cache.NewMemoryStore(cache.Options{}), nil)
	_, err := w.Write(context.Background(), testDOI)
	assert.True(t, errors.Is(err, ErrNotCached))
}
