// Package persistent implements a single-file, process-local durable map.
//
// The cache lock guards memory only. Each mutation takes a snapshot and a
// generation number under the lock, releases it, and then rewrites the whole
// backing file. File writes are serialized separately and only ever move the
// document forward: a snapshot older than the one already on disk is dropped,
// since its effect is part of the newer document.
package persistent

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/yashs662/SynchroStore/internal/logger"
)

// FileName is the backing document inside the storage directory.
const FileName = "persistent_data.json"

const (
	dirMode  os.FileMode = 0o755
	fileMode os.FileMode = 0o644

	// largest integer a float64 holds exactly
	maxExactInt = 1 << 53
)

type Store struct {
	path string

	mu         sync.Mutex
	cache      map[string]any
	generation uint64

	flushMu sync.Mutex
	written uint64 // guarded by flushMu

	lastErr atomic.Pointer[FlushError]
}

// Open prepares dir, creating it and an empty document when missing, and
// loads the document into memory. A missing or unusable directory yields a
// *ConfigError. An unreadable or malformed document is logged and the store
// starts empty.
func Open(dir string) (*Store, error) {
	if dir == "" {
		return nil, &ConfigError{Path: dir, Err: errors.New("storage path is empty")}
	}
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return nil, &ConfigError{Path: dir, Err: err}
	}

	path := pathFor(dir)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		empty, _ := encodeDocument(nil)
		if err := writeFileAtomic(path, empty, fileMode); err != nil {
			return nil, &ConfigError{Path: path, Err: err}
		}
		logger.Infof("Created storage file %s", path)
	}

	store := &Store{path: path}
	store.cache = store.load()
	logger.Infof("Loaded %d keys from %s", len(store.cache), path)
	return store, nil
}

func pathFor(dir string) string {
	return filepath.Join(dir, FileName)
}

func (s *Store) load() map[string]any {
	b, err := os.ReadFile(s.path)
	if err != nil {
		logger.Warnf("Failed to read storage file, starting empty: %v", err)
		return map[string]any{}
	}
	data, err := decodeDocument(b)
	if err != nil {
		logger.Warnf("Ignoring corrupt storage file, starting empty: %v", &DecodeError{Path: s.path, Err: err})
	}
	return data
}

// Path returns the backing document path.
func (s *Store) Path() string {
	return s.path
}

// Get returns the cached value for key, or def when absent. Returned maps and
// slices are shared with the cache and must not be modified.
func (s *Store) Get(key string, def any) any {
	s.mu.Lock()
	defer s.mu.Unlock()
	if value, exists := s.cache[key]; exists {
		return value
	}
	return def
}

func (s *Store) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, exists := s.cache[key]
	return exists
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cache)
}

// Keys returns all keys in sorted order.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Sorted(maps.Keys(s.cache))
}

// Snapshot returns a deep copy of the cache.
func (s *Store) Snapshot() map[string]any {
	s.mu.Lock()
	shallow := maps.Clone(s.cache)
	s.mu.Unlock()

	copied, err := normalize(shallow)
	if err != nil {
		// cache values are normalized on the way in
		panic(fmt.Sprintf("persistent: cache holds a non-JSON value: %v", err))
	}
	out, _ := copied.(map[string]any)
	if out == nil {
		out = map[string]any{}
	}
	return out
}

// Set stores value under key and flushes. Values that cannot be encoded as
// JSON are rejected before the cache is touched.
func (s *Store) Set(key string, value any) error {
	normalized, err := normalize(value)
	if err != nil {
		return fmt.Errorf("value for key %q is not JSON-serializable: %w", key, err)
	}
	logger.Debugf("Set key %s", key)
	return s.mutate(func(cache map[string]any) error {
		cache[key] = normalized
		return nil
	})
}

// Delete removes key if present and flushes.
func (s *Store) Delete(key string) error {
	logger.Debugf("Delete key %s", key)
	return s.mutate(func(cache map[string]any) error {
		delete(cache, key)
		return nil
	})
}

// Clear removes every key and flushes an empty document.
func (s *Store) Clear() error {
	logger.Debug("Clear store")
	return s.mutate(func(cache map[string]any) error {
		clear(cache)
		return nil
	})
}

// Incr adds delta to the integer stored under key, treating a missing key as
// zero, and returns the new value. Non-integer values are left untouched.
func (s *Store) Incr(key string, delta int64) (int64, error) {
	var result int64
	err := s.mutate(func(cache map[string]any) error {
		var current int64
		if value, exists := cache[key]; exists {
			n, ok := asInteger(value)
			if !ok {
				return fmt.Errorf("value for key %q is not an integer", key)
			}
			current = n
		}
		next := current + delta
		if (delta > 0 && next < current) || (delta < 0 && next > current) || next > maxExactInt || next < -maxExactInt {
			return fmt.Errorf("increment of key %q out of range", key)
		}
		cache[key] = float64(next)
		result = next
		return nil
	})
	return result, err
}

func asInteger(value any) (int64, bool) {
	f, ok := value.(float64)
	if !ok || math.Trunc(f) != f || math.Abs(f) > maxExactInt {
		return 0, false
	}
	return int64(f), true
}

// Err reports the most recent flush failure that no later flush has covered,
// meaning memory holds changes the document does not.
func (s *Store) Err() error {
	if fe := s.lastErr.Load(); fe != nil {
		return fe
	}
	return nil
}

func (s *Store) mutate(apply func(map[string]any) error) error {
	s.mu.Lock()
	if err := apply(s.cache); err != nil {
		s.mu.Unlock()
		return err
	}
	s.generation++
	generation := s.generation
	snapshot := maps.Clone(s.cache)
	s.mu.Unlock()

	return s.flush(generation, snapshot)
}

func (s *Store) flush(generation uint64, snapshot map[string]any) error {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	if generation <= s.written {
		logger.Debugf("Skipping flush of generation %d, %d already on disk", generation, s.written)
		return nil
	}

	b, err := encodeDocument(snapshot)
	if err == nil {
		err = writeFileAtomic(s.path, b, fileMode)
	}
	if err != nil {
		fe := &FlushError{Path: s.path, Generation: generation, Err: err}
		s.lastErr.Store(fe)
		logger.Errorf("%v", fe)
		return fe
	}

	s.written = generation
	if fe := s.lastErr.Load(); fe != nil && generation >= fe.Generation {
		s.lastErr.Store(nil)
		logger.Infof("Storage recovered at generation %d", generation)
	}
	return nil
}
