// Package input fans keyboard and pointer events out to subscribers.
// The terminal UI publishes into a Hub; the toast controller listens on it
// for escape and click-outside dismissal.
package input

import (
	"log/slog"
	"sync"
)

// Key identifies a key press.
type Key string

// Well-known keys.
const (
	KeyEscape Key = "esc"
	KeyEnter  Key = "enter"
)

// Pointer describes a pointer press.
type Pointer struct {
	X      int
	Y      int
	Button string
	// OnWidget is true when the press landed on a toast.
	OnWidget bool
}

// KeySource delivers key events to subscribers.
type KeySource interface {
	SubscribeKeys(fn func(Key)) (unsubscribe func())
}

// PointerSource delivers pointer events to subscribers.
type PointerSource interface {
	SubscribePointer(fn func(Pointer)) (unsubscribe func())
}

// Hub is an in-process KeySource and PointerSource.
type Hub struct {
	mu       sync.RWMutex
	logger   *slog.Logger
	nextID   uint64
	keys     map[uint64]func(Key)
	pointers map[uint64]func(Pointer)
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger:   logger,
		keys:     make(map[uint64]func(Key)),
		pointers: make(map[uint64]func(Pointer)),
	}
}

// SubscribeKeys registers fn for every published key.
func (h *Hub) SubscribeKeys(fn func(Key)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	id := h.nextID
	h.keys[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.keys, id)
			h.mu.Unlock()
		})
	}
}

// SubscribePointer registers fn for every published pointer press.
func (h *Hub) SubscribePointer(fn func(Pointer)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	id := h.nextID
	h.pointers[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.pointers, id)
			h.mu.Unlock()
		})
	}
}

// PublishKey delivers k to all key subscribers.
func (h *Hub) PublishKey(k Key) {
	h.mu.RLock()
	subs := make([]func(Key), 0, len(h.keys))
	for _, fn := range h.keys {
		subs = append(subs, fn)
	}
	h.mu.RUnlock()

	h.logger.Debug("key published", "key", k, "subscribers", len(subs))
	for _, fn := range subs {
		fn(k)
	}
}

// PublishPointer delivers p to all pointer subscribers.
func (h *Hub) PublishPointer(p Pointer) {
	h.mu.RLock()
	subs := make([]func(Pointer), 0, len(h.pointers))
	for _, fn := range h.pointers {
		subs = append(subs, fn)
	}
	h.mu.RUnlock()

	for _, fn := range subs {
		fn(p)
	}
}

// KeySubscribers returns the number of registered key subscribers.
func (h *Hub) KeySubscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.keys)
}

// PointerSubscribers returns the number of registered pointer subscribers.
func (h *Hub) PointerSubscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.pointers)
}
