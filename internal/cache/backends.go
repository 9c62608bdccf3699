// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"os"
	"sync"

	"github.com/IRL-CT/IRL-CT.github.io/internal/fsutil"
)

// NewFileStore returns a store persisting the document as JSON at path.
// The file and its directory are created on first write.
func NewFileStore(path string, opts Options) *DocumentStore {
	return newDocumentStore(&fileBackend{path: path}, opts)
}

type fileBackend struct {
	path string
}

func (f *fileBackend) describe() string { return f.path }

func (f *fileBackend) load() ([]byte, error) {
	return os.ReadFile(f.path)
}

// save writes through a temp file in the same directory and renames it
// over the document.
func (f *fileBackend) save(data []byte) error {
	return fsutil.WriteFileAtomic(f.path, data, 0o644)
}

// MemoryStore is an in-memory Store for tests and dry runs. It keeps the
// serialized document so reads never alias earlier writes.
type MemoryStore struct {
	*DocumentStore
	mem *memoryBackend
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore(opts Options) *MemoryStore {
	mem := &memoryBackend{}
	return &MemoryStore{DocumentStore: newDocumentStore(mem, opts), mem: mem}
}

// FailWrites makes subsequent writes fail (and be logged) when fail is true.
func (m *MemoryStore) FailWrites(fail bool) {
	m.mem.mu.Lock()
	defer m.mem.mu.Unlock()
	m.mem.failWrites = fail
}

// Raw returns the last successfully written document bytes.
func (m *MemoryStore) Raw() []byte {
	m.mem.mu.Lock()
	defer m.mem.mu.Unlock()
	return append([]byte(nil), m.mem.data...)
}

// SetRaw replaces the stored bytes, e.g. to simulate a corrupt document.
func (m *MemoryStore) SetRaw(data []byte) {
	m.mem.mu.Lock()
	defer m.mem.mu.Unlock()
	m.mem.data = append([]byte(nil), data...)
}

// Writes returns the number of successful writes.
func (m *MemoryStore) Writes() int {
	m.mem.mu.Lock()
	defer m.mem.mu.Unlock()
	return m.mem.writes
}

type memoryBackend struct {
	mu         sync.Mutex
	data       []byte
	failWrites bool
	writes     int
}

func (m *memoryBackend) describe() string { return "memory" }

func (m *memoryBackend) load() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, os.ErrNotExist
	}
	return append([]byte(nil), m.data...), nil
}

func (m *memoryBackend) save(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrites {
		return ErrInjected
	}
	m.data = append([]byte(nil), data...)
	m.writes++
	return nil
}
