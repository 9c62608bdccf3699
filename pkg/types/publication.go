// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the publication
// synchronization pipeline: the canonical registry record, the cache
// document, and the persisted publication record frontmatter.
package types

import (
	"strings"
	"time"
)

// Fallback values used when the registry omits a field.
const (
	UnknownTitle   = "Untitled Paper"
	UnknownAuthors = "Unknown Authors"
	UnknownVenue   = "Unknown Venue"
)

// Publication is the canonical metadata record derived from one registry
// lookup. Authors are kept as a single comma-joined display string; callers
// split it only where a list is needed.
type Publication struct {
	// DOI is the identifier as extracted (case preserved).
	DOI string `json:"doi" yaml:"doi"`

	// Title is the work title, or UnknownTitle.
	Title string `json:"title" yaml:"title"`

	// Authors is the comma-joined author list, or UnknownAuthors.
	Authors string `json:"authors" yaml:"authors"`

	// Venue is the container title, event name, or publisher, or UnknownVenue.
	Venue string `json:"venue" yaml:"venue"`

	// PubDate is the publication date; nil when the registry has no published date-parts.
	PubDate *time.Time `json:"pubDate" yaml:"pub_date"`

	// PubYear is the publication year, falling back to the record creation year.
	PubYear *int `json:"pubYear" yaml:"pub_year"`

	// FetchedAt is when the record was retrieved from the registry.
	FetchedAt time.Time `json:"fetchedAt" yaml:"fetched_at"`
}

// AuthorList splits the display string back into individual names.
// Placeholder values yield nil.
func (p Publication) AuthorList() []string {
	if p.Authors == "" || p.Authors == UnknownAuthors {
		return nil
	}
	var names []string
	for _, name := range strings.Split(p.Authors, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// Year returns the publication year or 0 when unknown.
func (p Publication) Year() int {
	if p.PubYear != nil {
		return *p.PubYear
	}
	if p.PubDate != nil {
		return p.PubDate.Year()
	}
	return 0
}

// CacheDocument is the single persisted cache document. The map is keyed by
// the lower-cased DOI.
type CacheDocument struct {
	LastUpdated  time.Time              `json:"lastUpdated"`
	Publications map[string]Publication `json:"publications"`
}

// NewCacheDocument returns an empty document stamped with now.
func NewCacheDocument(now time.Time) *CacheDocument {
	return &CacheDocument{
		LastUpdated:  now,
		Publications: make(map[string]Publication),
	}
}

// ManualOverride holds hand-authored fields that synchronization never
// overwrites. PublicationDate is kept as the literal scalar text so that
// rewriting a record does not reformat it.
type ManualOverride struct {
	Authors         []string `yaml:"authors,omitempty"`
	PublicationDate string   `yaml:"publication_date,omitempty"`
	Journal         string   `yaml:"journal,omitempty"`
	Conference      string   `yaml:"conference,omitempty"`
	Abstract        string   `yaml:"abstract,omitempty"`
	Citation        string   `yaml:"citation,omitempty"`
}

// IsEmpty reports whether no override field is set.
func (m ManualOverride) IsEmpty() bool {
	return len(m.Authors) == 0 && m.PublicationDate == "" && m.Journal == "" &&
		m.Conference == "" && m.Abstract == "" && m.Citation == ""
}

// PublicationRecord is the frontmatter of one publication content file.
type PublicationRecord struct {
	DOI            string          `yaml:"doi"`
	Featured       bool            `yaml:"featured"`
	Project        string          `yaml:"project,omitempty"`
	ManualOverride *ManualOverride `yaml:"manual_override,omitempty"`
}
