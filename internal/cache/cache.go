// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache persists canonical publication records in a single document
// keyed by DOI and evaluates their freshness.
//
// The cache is best-effort: reads self-heal to an empty document and write
// failures are logged, never returned. It assumes a single writing process;
// the in-process mutex only serializes goroutines of that process.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/IRL-CT/IRL-CT.github.io/internal/doi"
	"github.com/IRL-CT/IRL-CT.github.io/internal/logging"
	"github.com/IRL-CT/IRL-CT.github.io/pkg/types"
)

// Store is the cache contract used by the synchronizer, the materializer,
// and the read-only API.
type Store interface {
	// Read returns the whole document. It never fails: an absent or
	// unparsable backing store yields a fresh empty document.
	Read(ctx context.Context) *types.CacheDocument

	// Write replaces the persisted document. Failures are logged.
	Write(ctx context.Context, doc *types.CacheDocument)

	// Get returns the entry for id.
	Get(ctx context.Context, id string) (types.Publication, bool)

	// IsFresh reports whether id has an entry younger than the TTL.
	IsFresh(ctx context.Context, id string) bool

	// Upsert stores pub under id with FetchedAt = now and bumps lastUpdated.
	Upsert(ctx context.Context, id string, pub types.Publication)

	// Remove deletes id and reports whether an entry existed.
	Remove(ctx context.Context, id string) bool
}

// Options configure a DocumentStore.
type Options struct {
	// TTL is the freshness window. Zero uses types.DefaultCacheTTL.
	TTL time.Duration

	// Now overrides the clock.
	Now func() time.Time

	Logger *zap.Logger
}

// backend loads and saves the serialized document.
type backend interface {
	load() ([]byte, error)
	save(data []byte) error
	describe() string
}

// DocumentStore implements Store over a serialized JSON document.
type DocumentStore struct {
	mu      sync.Mutex
	backend backend
	ttl     time.Duration
	now     func() time.Time
	logger  *zap.Logger
}

var _ Store = (*DocumentStore)(nil)

func newDocumentStore(b backend, opts Options) *DocumentStore {
	if opts.TTL <= 0 {
		opts.TTL = types.DefaultCacheTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &DocumentStore{
		backend: b,
		ttl:     opts.TTL,
		now:     opts.Now,
		logger:  logging.OrNop(opts.Logger).With(zap.String("component", "cache")),
	}
}

// TTL returns the configured freshness window.
func (s *DocumentStore) TTL() time.Duration { return s.ttl }

func (s *DocumentStore) Read(ctx context.Context) *types.CacheDocument {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

func (s *DocumentStore) Write(ctx context.Context, doc *types.CacheDocument) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.write(doc)
}

func (s *DocumentStore) Get(ctx context.Context, id string) (types.Publication, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pub, ok := s.read().Publications[doi.Key(id)]
	return pub, ok
}

func (s *DocumentStore) IsFresh(ctx context.Context, id string) bool {
	pub, ok := s.Get(ctx, id)
	if !ok {
		return false
	}
	return Fresh(pub, s.now(), s.ttl)
}

func (s *DocumentStore) Upsert(ctx context.Context, id string, pub types.Publication) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	doc := s.read()
	if pub.DOI == "" {
		pub.DOI = id
	}
	pub.FetchedAt = now
	doc.Publications[doi.Key(id)] = pub
	doc.LastUpdated = now
	s.write(doc)
}

func (s *DocumentStore) Remove(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.read()
	key := doi.Key(id)
	if _, ok := doc.Publications[key]; !ok {
		return false
	}
	delete(doc.Publications, key)
	doc.LastUpdated = s.now().UTC()
	s.write(doc)
	return true
}

func (s *DocumentStore) read() *types.CacheDocument {
	data, err := s.backend.load()
	if err != nil {
		s.logger.Debug("cache document unavailable, starting empty",
			zap.String(logging.FieldPath, s.backend.describe()), zap.Error(err))
		return types.NewCacheDocument(s.now().UTC())
	}

	var doc types.CacheDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		s.logger.Warn("cache document unparsable, starting empty",
			zap.String(logging.FieldPath, s.backend.describe()), zap.Error(err))
		return types.NewCacheDocument(s.now().UTC())
	}
	if doc.Publications == nil {
		doc.Publications = make(map[string]types.Publication)
	}
	return &doc
}

func (s *DocumentStore) write(doc *types.CacheDocument) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err == nil {
		err = s.backend.save(append(data, '\n'))
	}
	if err != nil {
		s.logger.Error("writing cache document failed",
			zap.String(logging.FieldPath, s.backend.describe()), zap.Error(err))
	}
}

// Fresh reports whether pub was fetched less than ttl before now.
func Fresh(pub types.Publication, now time.Time, ttl time.Duration) bool {
	return now.Sub(pub.FetchedAt) < ttl
}

// Age returns how long ago doc was last updated.
func Age(doc *types.CacheDocument, now time.Time) time.Duration {
	return now.Sub(doc.LastUpdated)
}

// Entries returns the document's publications sorted by year (newest
// first), then title, then DOI.
func Entries(doc *types.CacheDocument) []types.Publication {
	pubs := make([]types.Publication, 0, len(doc.Publications))
	for _, p := range doc.Publications {
		pubs = append(pubs, p)
	}
	sort.Slice(pubs, func(i, j int) bool {
		if yi, yj := pubs[i].Year(), pubs[j].Year(); yi != yj {
			return yi > yj
		}
		if pubs[i].Title != pubs[j].Title {
			return pubs[i].Title < pubs[j].Title
		}
		return doi.Key(pubs[i].DOI) < doi.Key(pubs[j].DOI)
	})
	return pubs
}

// ErrInjected is returned by a MemoryStore configured to fail writes.
var ErrInjected = errors.New("injected write failure")
