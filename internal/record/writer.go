// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package record

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/IRL-CT/IRL-CT.github.io/internal/cache"
	"github.com/IRL-CT/IRL-CT.github.io/internal/doi"
	"github.com/IRL-CT/IRL-CT.github.io/internal/fsutil"
	"github.com/IRL-CT/IRL-CT.github.io/internal/logging"
	"github.com/IRL-CT/IRL-CT.github.io/pkg/types"
)

// ErrNotCached is returned when a new record is requested for a DOI with no
// cache entry.
var ErrNotCached = errors.New("no cached metadata")

// Result describes one Write.
type Result struct {
	DOI     string
	Path    string
	Created bool
	Changed bool
}

// Writer materializes cache entries into content files under a directory.
// A DOI that already has a record keeps its file; new records are named
// after doi.Slug.
type Writer struct {
	dir    string
	store  cache.Store
	logger *zap.Logger

	mu    sync.Mutex
	paths map[string]string

	refresh bool
}

// NewWriter returns a Writer for the records in dir.
func NewWriter(dir string, store cache.Store, logger *zap.Logger) *Writer {
	return &Writer{dir: dir, store: store, logger: logging.OrNop(logger)}
}

// RefreshFetched controls whether Write re-derives authors,
// publication_date, journal and citation from the cache. Rendered records
// store those fields under manual_override, so without a refresh a record
// keeps the values from its first materialization. Hand edits to those four
// fields are discarded on refresh; conference, abstract, featured, project
// and the body are always kept. A DOI with no cache entry is left as is.
func (w *Writer) RefreshFetched(on bool) {
	w.refresh = on
}

// ParseFile reads and parses the record at path.
func ParseFile(path string) (*types.PublicationRecord, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading record: %w", err)
	}
	rec, body, err := Parse(data)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing record %s: %w", path, err)
	}
	return rec, body, nil
}

// Write renders the record for id from the cache and writes it when the
// bytes differ from what is on disk. Manual overrides, featured, project and
// the body of an existing record are preserved.
func (w *Writer) Write(ctx context.Context, id string) (Result, error) {
	path, err := w.locate(id)
	if err != nil {
		return Result{}, err
	}

	res := Result{DOI: id, Path: path}

	var (
		existing *types.PublicationRecord
		body     []byte
	)
	current, err := os.ReadFile(path)
	switch {
	case err == nil:
		existing, body, err = Parse(current)
		if err != nil {
			return res, fmt.Errorf("parsing record %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		res.Created = true
	default:
		return res, fmt.Errorf("reading record: %w", err)
	}

	var pub *types.Publication
	if p, ok := w.store.Get(ctx, id); ok {
		pub = &p
	} else if existing == nil {
		return res, fmt.Errorf("%s: %w", id, ErrNotCached)
	} else {
		w.logger.Warn("no cached metadata, keeping manual fields only",
			zap.String(logging.FieldDOI, id), zap.String(logging.FieldPath, path))
	}

	if w.refresh && pub != nil && existing != nil && existing.ManualOverride != nil {
		existing = withoutFetchedFields(existing)
	}

	out, err := Materialize(id, pub, existing, body)
	if err != nil {
		return res, fmt.Errorf("materializing %s: %w", id, err)
	}
	if bytes.Equal(out, current) {
		return res, nil
	}

	if err := fsutil.WriteFileAtomic(path, out, 0o644); err != nil {
		return res, fmt.Errorf("writing record %s: %w", path, err)
	}
	res.Changed = true

	w.mu.Lock()
	w.paths[doi.Key(id)] = path
	w.mu.Unlock()

	w.logger.Info("record written",
		zap.String(logging.FieldDOI, id), zap.String(logging.FieldPath, path), zap.Bool("created", res.Created))
	return res, nil
}

// locate returns the existing record path for id, or the slug path for a
// new record. The directory is scanned once per Writer.
func (w *Writer) locate(id string) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.paths == nil {
		w.paths = make(map[string]string)
		scan, err := doi.ScanRecords(w.dir, w.logger)
		switch {
		case err == nil:
			for k, p := range scan.Paths {
				w.paths[k] = p
			}
		case errors.Is(err, fs.ErrNotExist):
		default:
			w.paths = nil
			return "", err
		}
	}

	if p, ok := w.paths[doi.Key(id)]; ok {
		return p, nil
	}
	return filepath.Join(w.dir, doi.Slug(id)+".md"), nil
}

// withoutFetchedFields returns a copy of rec whose override drops the
// fields that materialization fills from the cache.
func withoutFetchedFields(rec *types.PublicationRecord) *types.PublicationRecord {
	m := *rec.ManualOverride
	m.Authors = nil
	m.PublicationDate = ""
	m.Journal = ""
	m.Citation = ""

	out := *rec
	out.ManualOverride = &m
	return &out
}
