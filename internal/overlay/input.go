package overlay

import (
	"strings"

	"github.com/bwise1/roadwatch/internal/model"
)

// KeyEvent is a key press forwarded from the client.
type KeyEvent struct {
	Key   string `json:"key"`
	Ctrl  bool   `json:"ctrl"`
	Meta  bool   `json:"meta"`
	Shift bool   `json:"shift"`
}

// IsUndo reports Ctrl+Z or Cmd+Z.
func (e KeyEvent) IsUndo() bool {
	return (e.Ctrl || e.Meta) && strings.EqualFold(e.Key, "z") && !e.Shift
}

func (e KeyEvent) IsEscape() bool {
	return e.Key == "Escape" || e.Key == "Esc"
}

// OnClick registers fn for map clicks. The returned func detaches it.
func (m *Map) OnClick(fn func(model.GeoPoint)) (detach func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.listeners++
	id := m.listeners
	m.clicks[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.clicks, id)
	}
}

// OnKey registers fn for key presses. The returned func detaches it.
func (m *Map) OnKey(fn func(KeyEvent)) (detach func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.listeners++
	id := m.listeners
	m.keys[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.keys, id)
	}
}

// Click dispatches a map click. It reports false when nothing listens.
func (m *Map) Click(p model.GeoPoint) bool {
	m.mu.Lock()
	fns := make([]func(model.GeoPoint), 0, len(m.clicks))
	for _, fn := range m.clicks {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(p)
	}
	return len(fns) > 0
}

// Key dispatches a key press. It reports false when nothing listens.
func (m *Map) Key(e KeyEvent) bool {
	m.mu.Lock()
	fns := make([]func(KeyEvent), 0, len(m.keys))
	for _, fn := range m.keys {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(e)
	}
	return len(fns) > 0
}

// ListenerCount returns the attached click and key listeners.
func (m *Map) ListenerCount() (clicks, keys int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.clicks), len(m.keys)
}
