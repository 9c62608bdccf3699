package index

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/IRL-CT/IRL-CT.github.io/internal/fsutil"
	"github.com/IRL-CT/IRL-CT.github.io/pkg/types"
)

// CSLItem represents a bibliographic entry in CSL (Citation Style Language)
// format. The field names and structure follow the CSL-YAML schema so that
// output is consumable by Pandoc and reference managers.
type CSLItem struct {
	ID             string    `yaml:"id"`
	Type           string    `yaml:"type"`
	Title          string    `yaml:"title"`
	Author         []CSLName `yaml:"author,omitempty"`
	ContainerTitle string    `yaml:"container-title,omitempty"`
	Issued         *CSLDate  `yaml:"issued,omitempty"`
	DOI            string    `yaml:"DOI"`
	URL            string    `yaml:"URL"`
}

// CSLName represents a person's name in CSL format.
type CSLName struct {
	Family  string `yaml:"family,omitempty"`
	Given   string `yaml:"given,omitempty"`
	Literal string `yaml:"literal,omitempty"`
}

// CSLDate represents a date in CSL format using date-parts.
type CSLDate struct {
	DateParts [][]int `yaml:"date-parts"`
}

// ExportCSL writes the matching publications to dir/publications.csl.yaml
// and returns the file path.
func (s *Store) ExportCSL(ctx context.Context, dir string, opts QueryOptions) (string, error) {
	opts.MaxResults = exportLimit
	results, err := s.Search(ctx, opts)
	if err != nil {
		return "", fmt.Errorf("querying for export: %w", err)
	}

	items := make([]CSLItem, len(results))
	for i, r := range results {
		items[i] = toCSLItem(r.Publication)
	}

	data, err := yaml.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("marshaling CSL: %w", err)
	}
	path := filepath.Join(dir, "publications.csl.yaml")
	return path, fsutil.WriteFileAtomic(path, data, 0o644)
}

// toCSLItem converts a cached publication to a CSLItem. The item id is the
// DOI so citation keys stay stable across exports.
func toCSLItem(p types.Publication) CSLItem {
	item := CSLItem{
		ID:             p.DOI,
		Type:           "article",
		Title:          p.Title,
		ContainerTitle: p.Venue,
		DOI:            p.DOI,
		URL:            "https://doi.org/" + p.DOI,
	}

	for _, a := range p.AuthorList() {
		item.Author = append(item.Author, parseAuthorName(a))
	}

	switch {
	case p.PubDate != nil:
		d := p.PubDate
		item.Issued = &CSLDate{DateParts: [][]int{{d.Year(), int(d.Month()), d.Day()}}}
	case p.PubYear != nil:
		item.Issued = &CSLDate{DateParts: [][]int{{*p.PubYear}}}
	}

	return item
}

// parseAuthorName splits a full name string into CSL family/given parts.
// It splits on the last space: everything before is given, the last token
// is family. Single-token names use the literal field.
func parseAuthorName(name string) CSLName {
	name = strings.TrimSpace(name)
	if name == "" {
		return CSLName{}
	}
	idx := strings.LastIndex(name, " ")
	if idx < 0 {
		return CSLName{Literal: name}
	}
	return CSLName{
		Given:  name[:idx],
		Family: name[idx+1:],
	}
}
