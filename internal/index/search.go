// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/IRL-CT/IRL-CT.github.io/pkg/types"
)

// QueryOptions holds parameters for index queries.
type QueryOptions struct {
	// Query is the FTS5 full-text search string matched against title,
	// authors and venue.
	Query string

	// Year filters by publication year.
	Year int

	// Venue filters by a case-insensitive substring of the venue.
	Venue string

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Query == "" && q.Year == 0 && q.Venue == ""
}

// Result is one indexed publication.
type Result struct {
	types.Publication
	Rank float64 `json:"rank,omitempty" yaml:"rank,omitempty"`
}

// Search queries the index. Full-text queries are ranked by relevance;
// filter-only queries are sorted newest first, then by title.
func (s *Store) Search(ctx context.Context, opts QueryOptions) ([]Result, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Query != ""
	)

	if useFTS {
		qb.WriteString(
			`SELECT p.doi, p.title, p.authors, p.venue, p.pub_date, p.pub_year, p.fetched_at,
				publications_fts.rank
			FROM publications_fts
			JOIN publications p ON p.rowid = publications_fts.rowid
			WHERE publications_fts MATCH ?`)
		args = append(args, opts.Query)
	} else {
		qb.WriteString(
			`SELECT p.doi, p.title, p.authors, p.venue, p.pub_date, p.pub_year, p.fetched_at,
				0 AS rank
			FROM publications p
			WHERE 1=1`)
	}

	if opts.Year != 0 {
		qb.WriteString(` AND p.pub_year = ?`)
		args = append(args, opts.Year)
	}
	if opts.Venue != "" {
		qb.WriteString(` AND lower(p.venue) LIKE ?`)
		args = append(args, "%"+strings.ToLower(opts.Venue)+"%")
	}

	if useFTS {
		qb.WriteString(` ORDER BY publications_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY p.pub_year DESC, p.title, p.doi_key`)
	}

	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var (
			r         Result
			pubDate   sql.NullString
			pubYear   sql.NullInt64
			fetchedAt string
		)
		if err := rows.Scan(
			&r.DOI, &r.Title, &r.Authors, &r.Venue, &pubDate, &pubYear, &fetchedAt, &r.Rank,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		if pubDate.Valid {
			if t, err := time.Parse(time.RFC3339, pubDate.String); err == nil {
				r.PubDate = &t
			}
		}
		if pubYear.Valid {
			y := int(pubYear.Int64)
			r.PubYear = &y
		}
		if t, err := time.Parse(time.RFC3339Nano, fetchedAt); err == nil {
			r.FetchedAt = t
		}

		results = append(results, r)
	}
	return results, rows.Err()
}
