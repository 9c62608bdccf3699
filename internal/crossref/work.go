// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package crossref

import (
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/IRL-CT/IRL-CT.github.io/pkg/types"
)

// CrossRef API JSON structures. Every field is optional; absent values
// degrade to the fallbacks applied in Normalize.
type workResponse struct {
	Status  string `json:"status"`
	Message Work   `json:"message"`
}

// Work is the subset of a CrossRef work record used by the pipeline.
type Work struct {
	Title          []string   `json:"title"`
	Author         []Author   `json:"author"`
	Published      *DateParts `json:"published"`
	Created        *DateParts `json:"created"`
	ContainerTitle []string   `json:"container-title"`
	Event          *Event     `json:"event"`
	Publisher      string     `json:"publisher"`
}

// Author is one contributor. Organizational authors carry only Name.
type Author struct {
	Given  string `json:"given"`
	Family string `json:"family"`
	Name   string `json:"name"`
}

// DateParts is CrossRef's [[year, month, day]] representation. Month and day
// may be missing; null parts decode as zero.
type DateParts struct {
	DateParts [][]int `json:"date-parts"`
}

// Event describes the conference a proceedings paper belongs to.
type Event struct {
	Name string `json:"name"`
}

// first returns the leading date-parts tuple when it has a usable year.
func (d *DateParts) first() []int {
	if d == nil || len(d.DateParts) == 0 || len(d.DateParts[0]) == 0 || d.DateParts[0][0] <= 0 {
		return nil
	}
	return d.DateParts[0]
}

// Normalize derives the canonical record from a work. The derivation is
// lossy but deterministic: the same work and fetchedAt always produce the
// same record.
//
//   - Title: first non-empty title, else types.UnknownTitle.
//   - Authors: "Given Family" joined with ", ", else types.UnknownAuthors.
//   - Venue: container title, event name, publisher, else types.UnknownVenue.
//   - PubDate/PubYear: from published date-parts (month and day default to 1);
//     when absent only PubYear is taken from created.
func Normalize(doi string, w Work, fetchedAt time.Time) types.Publication {
	pub := types.Publication{
		DOI:       doi,
		Title:     firstNonEmpty(w.Title...),
		Venue:     firstNonEmpty(w.ContainerTitle...),
		FetchedAt: fetchedAt,
	}
	if pub.Title == "" {
		pub.Title = types.UnknownTitle
	}

	var names []string
	for _, a := range w.Author {
		name := clean(a.Given + " " + a.Family)
		if name == "" {
			name = clean(a.Name)
		}
		if name != "" {
			names = append(names, name)
		}
	}
	pub.Authors = strings.Join(names, ", ")
	if pub.Authors == "" {
		pub.Authors = types.UnknownAuthors
	}

	if pub.Venue == "" && w.Event != nil {
		pub.Venue = clean(w.Event.Name)
	}
	if pub.Venue == "" {
		pub.Venue = clean(w.Publisher)
	}
	if pub.Venue == "" {
		pub.Venue = types.UnknownVenue
	}

	if parts := w.Published.first(); parts != nil {
		year, month, day := parts[0], 1, 1
		if len(parts) > 1 && parts[1] >= 1 && parts[1] <= 12 {
			month = parts[1]
		}
		if len(parts) > 2 && parts[2] >= 1 {
			day = min(parts[2], daysIn(year, month))
		}
		date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		pub.PubDate = &date
		pub.PubYear = &year
	} else if parts := w.Created.first(); parts != nil {
		year := parts[0]
		pub.PubYear = &year
	}

	return pub
}

// daysIn returns the number of days in month of year.
func daysIn(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = clean(v); v != "" {
			return v
		}
	}
	return ""
}

// clean NFC-normalizes s and collapses internal whitespace runs.
func clean(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}
