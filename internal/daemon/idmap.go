package daemon

import (
	"sync"
	"time"

	"github.com/jmylchreest/toastd/internal/toast"
)

// Entry links a D-Bus notification id to the toast showing it.
type Entry struct {
	DBusID    uint32
	Handle    toast.Handle
	CreatedAt time.Time
}

// IDMap is the two-way mapping between D-Bus ids and toast ids. Toasts
// raised by the daemon itself have no D-Bus id and are never registered.
type IDMap struct {
	mu sync.RWMutex

	byDBusID  map[uint32]*Entry
	byToastID map[string]*Entry
}

// NewIDMap creates an empty map.
func NewIDMap() *IDMap {
	return &IDMap{
		byDBusID:  make(map[uint32]*Entry),
		byToastID: make(map[string]*Entry),
	}
}

// Register links dbusID to h. A previous toast under the same D-Bus id is
// unlinked and returned so the caller can close it silently.
func (m *IDMap) Register(dbusID uint32, h toast.Handle, now time.Time) (toast.Handle, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var prev toast.Handle
	old, replaced := m.byDBusID[dbusID]
	if replaced {
		prev = old.Handle
		delete(m.byToastID, old.Handle.ID())
	}

	e := &Entry{DBusID: dbusID, Handle: h, CreatedAt: now}
	m.byDBusID[dbusID] = e
	m.byToastID[h.ID()] = e

	return prev, replaced
}

// Unlink drops the entry for dbusID and returns its handle.
func (m *IDMap) Unlink(dbusID uint32) (toast.Handle, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.byDBusID[dbusID]
	if !ok {
		return toast.Handle{}, false
	}
	delete(m.byDBusID, dbusID)
	delete(m.byToastID, e.Handle.ID())
	return e.Handle, true
}

// Handle returns the toast shown for dbusID.
func (m *IDMap) Handle(dbusID uint32) (toast.Handle, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.byDBusID[dbusID]
	if !ok {
		return toast.Handle{}, false
	}
	return e.Handle, true
}

// DBusID returns the D-Bus id a toast was raised under.
func (m *IDMap) DBusID(toastID string) (uint32, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.byToastID[toastID]
	if !ok {
		return 0, false
	}
	return e.DBusID, true
}

// Remove forgets a closed toast and returns its D-Bus id.
func (m *IDMap) Remove(toastID string) (uint32, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.byToastID[toastID]
	if !ok {
		return 0, false
	}
	delete(m.byToastID, toastID)
	delete(m.byDBusID, e.DBusID)
	return e.DBusID, true
}

// Len returns the number of linked toasts.
func (m *IDMap) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byDBusID)
}
