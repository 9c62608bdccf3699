// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package index mirrors the publication cache into a SQLite database with
// an FTS5 table over title, authors and venue, so cached publications can
// be searched and exported.
package index

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/IRL-CT/IRL-CT.github.io/internal/doi"
	"github.com/IRL-CT/IRL-CT.github.io/pkg/types"
)

// Store manages the publication index database.
type Store struct {
	db         *sql.DB
	path       string
	maxResults int
}

// Open opens or creates the index database at cfg.Path and creates the
// schema if it does not exist.
func Open(cfg types.IndexConfig) (*Store, error) {
	path := cfg.Path
	if path == "" {
		path = types.DefaultIndexPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{db: db, path: path, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS publications (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			doi_key TEXT NOT NULL UNIQUE,
			doi TEXT NOT NULL,
			title TEXT NOT NULL,
			authors TEXT NOT NULL,
			venue TEXT NOT NULL,
			pub_date TEXT,
			pub_year INTEGER,
			fetched_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_publications_year ON publications(pub_year)`,
		`CREATE TABLE IF NOT EXISTS index_status (
			name TEXT PRIMARY KEY,
			value TEXT
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='publications_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE publications_fts USING fts5(title, authors, venue, content=publications, content_rowid=rowid)`,
			`CREATE TRIGGER publications_ai AFTER INSERT ON publications BEGIN
				INSERT INTO publications_fts(rowid, title, authors, venue) VALUES (new.rowid, new.title, new.authors, new.venue);
			END`,
			`CREATE TRIGGER publications_ad AFTER DELETE ON publications BEGIN
				INSERT INTO publications_fts(publications_fts, rowid, title, authors, venue) VALUES('delete', old.rowid, old.title, old.authors, old.venue);
			END`,
			`CREATE TRIGGER publications_au AFTER UPDATE ON publications BEGIN
				INSERT INTO publications_fts(publications_fts, rowid, title, authors, venue) VALUES('delete', old.rowid, old.title, old.authors, old.venue);
				INSERT INTO publications_fts(rowid, title, authors, venue) VALUES (new.rowid, new.title, new.authors, new.venue);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}
	return nil
}

// BuildSummary holds counts from one index build.
type BuildSummary struct {
	Indexed int
	Updated int
	Skipped int
	Removed int
}

// Total returns the number of cache entries processed.
func (s BuildSummary) Total() int {
	return s.Indexed + s.Updated + s.Skipped
}

const lastUpdatedKey = "cache_last_updated"

// Build mirrors doc into the index in one transaction. Entries whose
// fetchedAt is unchanged are skipped; rows for DOIs no longer cached are
// removed. When the document's lastUpdated matches the previous build the
// whole run is skipped.
func (s *Store) Build(ctx context.Context, doc *types.CacheDocument, w io.Writer) (BuildSummary, error) {
	var summary BuildSummary
	stamp := doc.LastUpdated.UTC().Format(time.RFC3339Nano)

	var stored string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM index_status WHERE name = ?`, lastUpdatedKey,
	).Scan(&stored)
	if err == nil && stored == stamp {
		summary.Skipped = len(doc.Publications)
		fmt.Fprintf(w, "index up to date (%d publications)\n", summary.Skipped)
		return summary, nil
	}

	existing, err := s.fetchedAtByKey(ctx)
	if err != nil {
		return summary, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return summary, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO publications (doi_key, doi, title, authors, venue, pub_date, pub_year, fetched_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(doi_key) DO UPDATE SET
			doi=excluded.doi, title=excluded.title, authors=excluded.authors,
			venue=excluded.venue, pub_date=excluded.pub_date, pub_year=excluded.pub_year,
			fetched_at=excluded.fetched_at`)
	if err != nil {
		return summary, fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	keys := make([]string, 0, len(doc.Publications))
	for k := range doc.Publications {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		pub := doc.Publications[k]
		key := doi.Key(k)
		fetchedAt := pub.FetchedAt.UTC().Format(time.RFC3339Nano)

		prev, seen := existing[key]
		delete(existing, key)
		if seen && prev == fetchedAt {
			summary.Skipped++
			continue
		}

		var pubDate, pubYear any
		if pub.PubDate != nil {
			pubDate = pub.PubDate.UTC().Format(time.RFC3339)
		}
		if pub.PubYear != nil {
			pubYear = *pub.PubYear
		}
		id := pub.DOI
		if id == "" {
			id = k
		}
		if _, err := stmt.ExecContext(ctx, key, id, pub.Title, pub.Authors, pub.Venue, pubDate, pubYear, fetchedAt); err != nil {
			return summary, fmt.Errorf("indexing %s: %w", id, err)
		}
		if seen {
			fmt.Fprintf(w, "updated %s\n", id)
			summary.Updated++
		} else {
			fmt.Fprintf(w, "indexing %s\n", id)
			summary.Indexed++
		}
	}

	stale := make([]string, 0, len(existing))
	for key := range existing {
		stale = append(stale, key)
	}
	sort.Strings(stale)
	for _, key := range stale {
		if _, err := tx.ExecContext(ctx, `DELETE FROM publications WHERE doi_key = ?`, key); err != nil {
			return summary, fmt.Errorf("removing %s: %w", key, err)
		}
		fmt.Fprintf(w, "removed %s\n", key)
		summary.Removed++
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO index_status (name, value) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET value=excluded.value`,
		lastUpdatedKey, stamp,
	); err != nil {
		return summary, fmt.Errorf("updating index status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return summary, fmt.Errorf("committing index: %w", err)
	}

	fmt.Fprintf(w, "\nindexed: %d, updated: %d, skipped: %d, removed: %d\n",
		summary.Indexed, summary.Updated, summary.Skipped, summary.Removed)
	return summary, nil
}

func (s *Store) fetchedAtByKey(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT doi_key, fetched_at FROM publications`)
	if err != nil {
		return nil, fmt.Errorf("listing indexed publications: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var key, fetchedAt string
		if err := rows.Scan(&key, &fetchedAt); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		out[key] = fetchedAt
	}
	return out, rows.Err()
}

// Count returns the number of indexed publications.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM publications`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting publications: %w", err)
	}
	return n, nil
}
