// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/IRL-CT/IRL-CT.github.io/internal/fsutil"
	"github.com/IRL-CT/IRL-CT.github.io/internal/record"
)

// ExportEntry is one publication in an export file. Authors are split
// into a list here and nowhere earlier.
type ExportEntry struct {
	DOI      string   `json:"doi" yaml:"doi"`
	Title    string   `json:"title" yaml:"title"`
	Authors  []string `json:"authors" yaml:"authors"`
	Venue    string   `json:"venue" yaml:"venue"`
	PubDate  string   `json:"pub_date,omitempty" yaml:"pub_date,omitempty"`
	PubYear  int      `json:"pub_year,omitempty" yaml:"pub_year,omitempty"`
	Citation string   `json:"citation" yaml:"citation"`
}

const exportLimit = 100000

// ExportYAML writes the matching publications to dir/publications.yaml and
// returns the file path.
func (s *Store) ExportYAML(ctx context.Context, dir string, opts QueryOptions) (string, error) {
	entries, err := s.exportEntries(ctx, opts)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, "publications.yaml")
	data, err := yaml.Marshal(entries)
	if err != nil {
		return "", fmt.Errorf("marshaling YAML: %w", err)
	}
	return path, fsutil.WriteFileAtomic(path, data, 0o644)
}

// ExportJSON writes the matching publications to dir/publications.json and
// returns the file path.
func (s *Store) ExportJSON(ctx context.Context, dir string, opts QueryOptions) (string, error) {
	entries, err := s.exportEntries(ctx, opts)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, "publications.json")
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling JSON: %w", err)
	}
	return path, fsutil.WriteFileAtomic(path, append(data, '\n'), 0o644)
}

func (s *Store) exportEntries(ctx context.Context, opts QueryOptions) ([]ExportEntry, error) {
	opts.MaxResults = exportLimit
	results, err := s.Search(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}

	entries := make([]ExportEntry, len(results))
	for i, r := range results {
		entries[i] = ExportEntry{
			DOI:      r.DOI,
			Title:    r.Title,
			Authors:  r.AuthorList(),
			Venue:    r.Venue,
			PubYear:  r.Year(),
			Citation: record.Citation(r.Publication),
		}
		if r.PubDate != nil {
			entries[i].PubDate = r.PubDate.Format(time.DateOnly)
		}
	}
	return entries, nil
}
