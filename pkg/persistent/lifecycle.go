package persistent

import (
	"sync"

	"github.com/yashs662/SynchroStore/internal/logger"
)

// Manager owns at most one Store. Applications normally construct one at
// startup and hand the Store down; the package-level InitStorage and
// GetStorage wrap a default Manager for callers that want implicit access.
type Manager struct {
	mu    sync.Mutex
	store *Store
}

// Init opens a store rooted at dir unless one already exists. Later calls,
// even with a different dir, leave the existing store in place.
func (m *Manager) Init(dir string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.store != nil {
		if m.store.path != pathFor(dir) {
			logger.Warnf("Storage already initialized at %s, ignoring %s", m.store.path, dir)
		}
		return nil
	}

	store, err := Open(dir)
	if err != nil {
		return err
	}
	m.store = store
	return nil
}

// Storage returns the managed store or ErrNotInitialized.
func (m *Manager) Storage() (*Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.store == nil {
		return nil, ErrNotInitialized
	}
	return m.store, nil
}

var defaultManager Manager

func InitStorage(dir string) error {
	return defaultManager.Init(dir)
}

func GetStorage() (*Store, error) {
	return defaultManager.Storage()
}
