// Package cache provides the durable key→result map shared by enrichment
// workers. The whole map is loaded once at startup and rewritten wholesale on
// every save; there is no eviction.
package cache

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/fileutil"
)

// Store is a concurrency-safe map from company name to a cached result,
// backed by a JSON file. An empty path keeps the store in memory only.
type Store[V any] struct {
	path string

	mu      sync.RWMutex
	entries map[string]V
}

// New creates an empty store bound to path. Nothing is read from disk until
// Load is called.
func New[V any](path string) *Store[V] {
	return &Store[V]{
		path:    path,
		entries: make(map[string]V),
	}
}

// Open creates a store and loads any previously saved entries.
func Open[V any](path string) *Store[V] {
	s := New[V](path)
	s.Load()
	return s
}

// Path returns the durable file location.
func (s *Store[V]) Path() string {
	return s.path
}

// Get returns the cached value for key.
func (s *Store[V]) Get(key string) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.entries[key]
	return v, ok
}

// Put records value for key, replacing any previous entry.
func (s *Store[V]) Put(key string, value V) {
	s.mu.Lock()
	s.entries[key] = value
	s.mu.Unlock()
}

// Len returns the number of cached entries.
func (s *Store[V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Load replaces the in-memory map with the contents of the durable file and
// returns the number of entries read. A missing or unreadable file yields an
// empty store; it never fails the run.
func (s *Store[V]) Load() int {
	log := zap.L().With(zap.String("cache", s.path))

	entries := make(map[string]V)
	if s.path != "" {
		data, err := os.ReadFile(s.path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			log.Debug("cache: no durable file, starting empty")
		case err != nil:
			log.Warn("cache: read failed, starting empty", zap.Error(err))
		default:
			if err := json.Unmarshal(data, &entries); err != nil {
				log.Warn("cache: corrupt file, starting empty", zap.Error(err))
				entries = make(map[string]V)
			}
		}
	}

	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()

	log.Info("cache: loaded", zap.Int("entries", len(entries)))
	return len(entries)
}

// Save rewrites the durable file with every entry. The write goes through a
// temp file and rename, so an earlier successful save is never left
// half-written.
func (s *Store[V]) Save() error {
	if s.path == "" {
		return nil
	}

	s.mu.RLock()
	data, err := json.MarshalIndent(s.entries, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return eris.Wrap(err, "cache: marshal entries")
	}

	if err := fileutil.WriteFileAtomic(s.path, data, 0o644); err != nil {
		return eris.Wrap(err, "cache: save")
	}
	return nil
}
